// Package codec decodes bitmap raster formats into full-canvas frames.
//
// The sniffed format selects the sub-codec. Each family keeps its own frame
// and timing model internally (GIF delay lists, WebP cumulative timestamps,
// single static images) and is normalized here into frames carrying the
// delay before the next frame.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/gogpu/imgpipe/format"
	imgbuf "github.com/gogpu/imgpipe/internal/image"
	"github.com/gogpu/imgpipe/internal/qoi"
	"github.com/gogpu/imgpipe/internal/webpanim"
)

// Decoding errors.
var (
	// ErrNotApplicable is returned for formats no raster sub-codec handles.
	ErrNotApplicable = errors.New("codec: not a raster format")

	// ErrNoFrames is returned when an animation yields no decodable frame.
	ErrNoFrames = errors.New("codec: no decodable frames")
)

// Frame is one full-canvas image and the time it stays on screen.
type Frame struct {
	Image *image.NRGBA
	Delay time.Duration
}

// stillDecoder pairs a decoder with its header-only counterpart so image
// size can be checked before pixels are allocated.
type stillDecoder struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var stillDecoders = map[format.Format]stillDecoder{
	format.PNG:  {png.Decode, png.DecodeConfig},
	format.JPEG: {jpeg.Decode, jpeg.DecodeConfig},
	format.BMP:  {bmp.Decode, bmp.DecodeConfig},
	format.TIFF: {tiff.Decode, tiff.DecodeConfig},
	format.QOI:  {qoi.Decode, qoi.DecodeConfig},
}

var stillWebP = stillDecoder{webp.Decode, webp.DecodeConfig}

// Decode decodes data as the raster format guess.
func Decode(data []byte, guess format.Format) ([]Frame, error) {
	switch guess {
	case format.GIF:
		return decodeGIF(data)
	case format.WebP:
		if webpanim.IsAnimated(data) {
			return decodeAnimatedWebP(data)
		}
		return decodeStill(data, guess, stillWebP)
	}
	if dec, ok := stillDecoders[guess]; ok {
		return decodeStill(data, guess, dec)
	}
	return nil, ErrNotApplicable
}

// Supported reports whether Decode has a sub-codec for f.
func Supported(f format.Format) bool {
	if f == format.GIF || f == format.WebP {
		return true
	}
	_, ok := stillDecoders[f]
	return ok
}

func decodeStill(data []byte, f format.Format, dec stillDecoder) ([]Frame, error) {
	cfg, err := dec.config(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", f, err)
	}
	if err := imgbuf.CheckSize(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", f, err)
	}
	img, err := dec.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", f, err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("codec: decode %s: %w", f, imgbuf.ErrInvalidDimensions)
	}
	return []Frame{{Image: imgbuf.ToNRGBA(img)}}, nil
}
