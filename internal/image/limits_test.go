package image

import (
	"errors"
	"testing"
)

func TestCheckSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want error
	}{
		{"small", 640, 480, nil},
		{"at limit", 1 << 14, 1 << 13, nil},
		{"zero width", 0, 10, ErrInvalidDimensions},
		{"negative", 10, -1, ErrInvalidDimensions},
		{"gif screen", 65535, 65535, ErrTooLarge},
		{"webp canvas", 1 << 24, 1 << 24, ErrTooLarge},
		{"one over", MaxPixels + 1, 1, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckSize(tt.w, tt.h); !errors.Is(err, tt.want) {
				t.Errorf("CheckSize(%d, %d) = %v, want %v", tt.w, tt.h, err, tt.want)
			}
		})
	}
}

func TestCheckFrames(t *testing.T) {
	// A 4096x4096 RGBA frame is 64 MiB, so 32 of them fill MaxBytes.
	tests := []struct {
		n    int
		want error
	}{
		{1, nil},
		{32, nil},
		{33, ErrTooLarge},
		{1 << 20, ErrTooLarge},
	}
	for _, tt := range tests {
		if err := CheckFrames(tt.n, 4096, 4096); !errors.Is(err, tt.want) {
			t.Errorf("CheckFrames(%d, 4096, 4096) = %v, want %v", tt.n, err, tt.want)
		}
	}
	if err := CheckFrames(1, 65535, 65535); !errors.Is(err, ErrTooLarge) {
		t.Errorf("CheckFrames(1, 65535, 65535) = %v, want ErrTooLarge", err)
	}
}

func TestBudget(t *testing.T) {
	var b Budget
	if !b.Reserve(MaxBytes / 2) {
		t.Fatal("Reserve(half) = false")
	}
	if b.Reserve(MaxBytes/2 + 1) {
		t.Error("Reserve() past the limit = true")
	}
	if !b.Reserve(MaxBytes / 2) {
		t.Error("failed Reserve() changed the budget")
	}
	if b.Reserve(1) {
		t.Error("Reserve(1) on a full budget = true")
	}
	b.Release(MaxBytes / 2)
	if !b.Reserve(1) {
		t.Error("Reserve(1) after Release() = false")
	}
	if b.Reserve(-1) {
		t.Error("Reserve(-1) = true")
	}
}

func TestNewCanvasTooLarge(t *testing.T) {
	if _, err := NewCanvas(65535, 65535); !errors.Is(err, ErrTooLarge) {
		t.Errorf("NewCanvas(65535, 65535) error = %v, want ErrTooLarge", err)
	}
	if _, err := NewCanvas(0, 4); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewCanvas(0, 4) error = %v, want ErrInvalidDimensions", err)
	}
}
