package imgpipe

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestFrameValid(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"exact", Frame{Width: 2, Height: 3, Pix: make([]byte, 24)}, true},
		{"short", Frame{Width: 2, Height: 3, Pix: make([]byte, 23)}, false},
		{"long", Frame{Width: 2, Height: 3, Pix: make([]byte, 28)}, false},
		{"zero width", Frame{Width: 0, Height: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFrame(t *testing.T) {
	img := solid(3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	f := newFrame(img, 40*time.Millisecond)
	if f.Width != 3 || f.Height != 2 || f.Delay != 40*time.Millisecond || !f.Valid() {
		t.Fatalf("newFrame() = %dx%d delay %v", f.Width, f.Height, f.Delay)
	}
	if &f.Pix[0] != &img.Pix[0] {
		t.Error("newFrame() copied a tightly packed image")
	}
	if c := f.Image().NRGBAAt(2, 1); c != (color.NRGBA{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("Image().NRGBAAt(2, 1) = %v", c)
	}

	sub := img.SubImage(image.Rect(1, 0, 3, 2)).(*image.NRGBA)
	g := newFrame(sub, 0)
	if g.Width != 2 || g.Height != 2 || !g.Valid() {
		t.Errorf("newFrame(sub-image) = %dx%d, %d bytes", g.Width, g.Height, len(g.Pix))
	}
}

func TestFrameSequence(t *testing.T) {
	seq := FrameSequence{
		{Width: 1, Height: 1, Pix: make([]byte, 4), Delay: 100 * time.Millisecond},
		{Width: 1, Height: 1, Pix: make([]byte, 4), Delay: 250 * time.Millisecond},
	}
	if got := seq.Duration(); got != 350*time.Millisecond {
		t.Errorf("Duration() = %v, want 350ms", got)
	}
	if seq.Static() {
		t.Error("Static() = true for two frames")
	}
	if !seq[:1].Static() {
		t.Error("Static() = false for one frame")
	}
	if !seq.Valid() || FrameSequence(nil).Valid() {
		t.Error("Valid() wrong for populated or empty sequence")
	}
}
