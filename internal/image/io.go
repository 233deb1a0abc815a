// Package image converts decoded images into the flat straight-alpha RGBA
// buffers used for frames, and provides the canvas used to composite
// animation frames.
package image

import (
	"errors"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// ErrInvalidDimensions is returned when width or height is non-positive.
var ErrInvalidDimensions = errors.New("image: invalid dimensions")

// ToNRGBA returns img as a straight-alpha *image.NRGBA whose bounds start at
// the origin and whose stride is exactly width*4. The result never aliases
// img's pixel memory.
func ToNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	// Fast path for NRGBA images
	if src, ok := img.(*image.NRGBA); ok {
		for y := range height {
			srcStart := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[srcStart:srcStart+width*4])
		}
		return dst
	}

	// Premultiplied RGBA is un-premultiplied pixel by pixel.
	if src, ok := img.(*image.RGBA); ok {
		for y := range height {
			srcStart := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			Unpremultiply(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[srcStart:srcStart+width*4])
		}
		return dst
	}

	// Everything else goes through the color model conversion.
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst
}

// Unpremultiply converts premultiplied RGBA bytes in src to straight alpha in
// dst. Both slices hold whole pixels and dst must be at least as long as src.
func Unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		a := src[i+3]
		switch a {
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		case 0xff:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i], src[i+1], src[i+2], a
		default:
			c := color.NRGBAModel.Convert(color.RGBA{R: src[i], G: src[i+1], B: src[i+2], A: a}).(color.NRGBA)
			dst[i], dst[i+1], dst[i+2], dst[i+3] = c.R, c.G, c.B, c.A
		}
	}
}
