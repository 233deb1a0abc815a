package image

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Canvas is a fixed-size straight-alpha drawing surface used to reconstruct
// full frames of animations whose encoded frames only cover a sub-rectangle.
//
// Canvas is not safe for concurrent use.
type Canvas struct {
	img *image.NRGBA
}

// NewCanvas creates a fully transparent canvas. Sizes above MaxPixels fail
// with ErrTooLarge.
func NewCanvas(width, height int) (*Canvas, error) {
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}
	return &Canvas{img: image.NewNRGBA(image.Rect(0, 0, width, height))}, nil
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Rect
}

// Fill sets every pixel inside r (clipped to the canvas) to col.
func (c *Canvas) Fill(r image.Rectangle, col color.NRGBA) {
	r = r.Intersect(c.img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := c.img.Pix[c.img.PixOffset(r.Min.X, y):c.img.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = col.R, col.G, col.B, col.A
		}
	}
}

// Draw composites src onto the canvas with its top-left corner at at.
// When blend is true src is drawn over the existing pixels, otherwise it
// replaces them.
func (c *Canvas) Draw(src image.Image, at image.Point, blend bool) {
	op := xdraw.Src
	if blend {
		op = xdraw.Over
	}
	b := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(b.Size())}
	xdraw.Draw(c.img, r, src, b.Min, op)
}

// Snapshot returns a copy of the current canvas contents.
func (c *Canvas) Snapshot() *image.NRGBA {
	out := image.NewNRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}

// Restore replaces the canvas contents with a previous snapshot.
func (c *Canvas) Restore(s *image.NRGBA) {
	copy(c.img.Pix, s.Pix)
}
