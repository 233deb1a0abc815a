package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrNoFont is returned when no font can render a run.
	ErrNoFont = errors.New("text: no font available")

	// ErrInvalidSize is returned for non-positive or non-finite font sizes.
	ErrInvalidSize = errors.New("text: invalid font size")
)

// FontLoadError is returned when a font file cannot be parsed.
type FontLoadError struct {
	Source string
	Err    error
}

func (e *FontLoadError) Error() string {
	return "text: load font " + e.Source + ": " + e.Err.Error()
}

func (e *FontLoadError) Unwrap() error {
	return e.Err
}
