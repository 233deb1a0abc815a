// Package imgpipe decodes image files of several unrelated encodings into a
// uniform sequence of RGBA frames, off the calling goroutine.
//
// # Overview
//
// A [Decoder] tries its adapters in a fixed order against the same bytes and
// returns the first success:
//
//   - the raster adapter handles PNG, JPEG, GIF, WebP (static and animated),
//     BMP, TIFF and QOI, picking a sub-codec from the sniffed [format.Format]
//   - the vector adapter rasterizes SVG at the document's intrinsic size
//   - the layered adapter flattens Photoshop documents
//
// When every adapter fails the result is [ErrUnrecognizedFormat], wrapped in a
// [*DecodeError] that keeps each adapter's reason.
//
// # Quick Start
//
//	sink := imgpipe.NewChanSink(1)
//	loader := imgpipe.NewLoader(sink)
//	loader.Load("photo.webp")
//
//	switch ev := (<-sink.Events()).(type) {
//	case imgpipe.ImageLoaded:
//	    fmt.Println(len(ev.Frames), "frames from", ev.Path)
//	case imgpipe.ImageError:
//	    fmt.Println(ev.Message)
//	}
//
// # Frames
//
// Every [Frame] is a full canvas of straight-alpha RGBA bytes with the delay
// before the next frame. Static images yield a single frame with zero delay.
//
// # Concurrency
//
// Each [Loader.Load] call runs on its own goroutine and delivers exactly one
// event. Outcomes of distinct requests may arrive in any order. Decoders and
// adapters hold no per-request state and are safe for concurrent use; the
// only shared resource is the font book, which loads system fonts once.
package imgpipe
