package image

import (
	"errors"
	"fmt"
)

// Decoding limits shared by every codec. Headers are checked against them
// before any pixel memory is allocated.
const (
	// MaxPixels bounds the area of a single image, canvas or layer.
	MaxPixels = 1 << 27

	// MaxBytes bounds the pixel memory held for one decoded file, all
	// frames or layers together.
	MaxBytes = 1 << 31
)

// ErrTooLarge is returned when declared dimensions exceed the limits.
var ErrTooLarge = errors.New("image: dimensions exceed decoding limit")

// CheckSize validates a width x height image against MaxPixels.
func CheckSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidDimensions
	}
	if int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}
	return nil
}

// CheckFrames validates n full RGBA frames of width x height against
// MaxPixels and MaxBytes.
func CheckFrames(n, width, height int) error {
	if err := CheckSize(width, height); err != nil {
		return err
	}
	if n > 0 && int64(n) > MaxBytes/(int64(width)*int64(height)*4) {
		return fmt.Errorf("%w: %d frames of %dx%d", ErrTooLarge, n, width, height)
	}
	return nil
}

// Budget tracks pixel memory against MaxBytes across the allocations made
// while decoding one file. The zero value is ready to use.
type Budget struct {
	used int64
}

// Reserve accounts for n more bytes and reports whether they fit.
// A failed reservation leaves the budget unchanged.
func (b *Budget) Reserve(n int) bool {
	if n < 0 || int64(n) > MaxBytes-b.used {
		return false
	}
	b.used += int64(n)
	return true
}

// Release returns n bytes reserved for a temporary buffer.
func (b *Budget) Release(n int) {
	b.used = max(0, b.used-int64(n))
}
