package webpanim

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"time"

	"golang.org/x/image/webp"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

// FrameDecoder decodes the bitstream of a single animation frame.
type FrameDecoder func(f FrameInfo) (image.Image, error)

// Frame is one reconstructed canvas.
type Frame struct {
	// Image is the full canvas after this frame was drawn. Nil when Err is set.
	Image *image.NRGBA

	// Timestamp is the cumulative time at which this frame ends.
	Timestamp time.Duration

	// Err is set when the frame bitstream could not be decoded. The canvas
	// is left untouched and iteration may continue.
	Err error
}

// Decoder iterates over the frames of an animation.
//
// Decoder is not safe for concurrent use.
type Decoder struct {
	anim      *Animation
	canvas    *imgbuf.Canvas
	decode    FrameDecoder
	next      int
	timestamp time.Duration
	dispose   image.Rectangle
}

// NewDecoder demuxes data and prepares a decoder over its frames.
func NewDecoder(data []byte) (*Decoder, error) {
	anim, err := Demux(data)
	if err != nil {
		return nil, err
	}
	return NewAnimationDecoder(anim, DecodeFrame)
}

// NewAnimationDecoder creates a decoder over an already demuxed animation
// using decode for the frame bitstreams. Every frame yields a full canvas
// snapshot, so the canvas size times the frame count must fit the decoding
// limits of package image.
func NewAnimationDecoder(anim *Animation, decode FrameDecoder) (*Decoder, error) {
	if err := imgbuf.CheckFrames(len(anim.Frames)+1, anim.Width, anim.Height); err != nil {
		return nil, err
	}
	canvas, err := imgbuf.NewCanvas(anim.Width, anim.Height)
	if err != nil {
		return nil, err
	}
	return &Decoder{anim: anim, canvas: canvas, decode: decode}, nil
}

// Next returns the next frame, or io.EOF after the last one.
func (d *Decoder) Next() (Frame, error) {
	if d.next >= len(d.anim.Frames) {
		return Frame{}, io.EOF
	}
	f := d.anim.Frames[d.next]
	d.next++
	d.timestamp += f.Duration

	if !d.dispose.Empty() {
		d.canvas.Fill(d.dispose, color.NRGBA{})
		d.dispose = image.Rectangle{}
	}

	img, err := d.decode(f)
	if err != nil {
		return Frame{Timestamp: d.timestamp, Err: err}, nil
	}
	at := image.Pt(f.X, f.Y)
	d.canvas.Draw(img, at, f.Blend)
	if f.DisposeBackground {
		d.dispose = image.Rectangle{Min: at, Max: at.Add(image.Pt(f.Width, f.Height))}
	}
	return Frame{Image: d.canvas.Snapshot(), Timestamp: d.timestamp}, nil
}

// DecodeFrame wraps the frame's sub-chunks in a standalone WebP container and
// decodes it with golang.org/x/image/webp.
func DecodeFrame(f FrameInfo) (image.Image, error) {
	return webp.Decode(bytes.NewReader(standalone(f)))
}

// standalone builds a complete WebP file around a frame's bitstream. Frames
// with an ALPH chunk need the extended (VP8X) layout.
func standalone(f FrameInfo) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	if f.HasAlpha {
		var vp8x [chunkHeaderSize + vp8xPayloadSize]byte
		copy(vp8x[:4], "VP8X")
		binary.LittleEndian.PutUint32(vp8x[4:8], vp8xPayloadSize)
		vp8x[8] = flagAlpha
		putU24(vp8x[12:15], f.Width-1)
		putU24(vp8x[15:18], f.Height-1)
		body.Write(vp8x[:])
	}
	body.Write(f.Data)

	out := make([]byte, 8, 8+body.Len())
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(body.Len())) //nolint:gosec // frame payloads are bounded by the RIFF size
	return append(out, body.Bytes()...)
}

func putU24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
