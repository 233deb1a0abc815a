package imgpipe

import (
	"image"
	"time"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

// Frame is one decoded image and the time it stays on screen before the next
// frame of the sequence.
type Frame struct {
	Width, Height int

	// Pix holds straight-alpha RGBA bytes, row-major, Width*4 bytes per row.
	Pix []byte

	Delay time.Duration
}

// Valid reports whether the buffer length matches the dimensions.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*4
}

// Image returns an *image.NRGBA sharing the frame's pixels.
func (f Frame) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// newFrame takes ownership of img's pixels when they are already tightly
// packed at the origin and copies them otherwise.
func newFrame(img *image.NRGBA, delay time.Duration) Frame {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Rect.Min != (image.Point{}) || img.Stride != w*4 || len(img.Pix) != w*h*4 {
		img = imgbuf.ToNRGBA(img)
	}
	return Frame{Width: w, Height: h, Pix: img.Pix, Delay: delay}
}

// FrameSequence is a static image (one frame) or an animation, in display
// order.
type FrameSequence []Frame

// Duration returns the sum of all frame delays.
func (s FrameSequence) Duration() time.Duration {
	var d time.Duration
	for _, f := range s {
		d += f.Delay
	}
	return d
}

// Static reports whether the sequence holds exactly one frame.
func (s FrameSequence) Static() bool {
	return len(s) == 1
}

// Valid reports whether the sequence is non-empty and every frame is valid.
func (s FrameSequence) Valid() bool {
	if len(s) == 0 {
		return false
	}
	for _, f := range s {
		if !f.Valid() {
			return false
		}
	}
	return true
}
