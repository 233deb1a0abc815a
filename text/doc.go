// Package text resolves fonts from the host and renders shaped text runs
// into RGBA images.
//
// The font set is a process-wide resource:
//
//   - Book: the set of available fonts. The host's system fonts are scanned
//     lazily, exactly once, the first time a run needs a font. After that
//     the set is read-only and may be shared by any number of goroutines.
//   - Fallback: Go Regular (golang.org/x/image/font/gofont) is always
//     available, so text renders even on hosts without fonts.
//
// Shaping uses the HarfBuzz port from go-text/typesetting and glyph outlines
// are filled with golang.org/x/image/vector.
//
// # Example usage
//
//	book := text.Default()
//	err := book.Draw(dst, text.Run{
//	    Text:     "Hello",
//	    Families: []string{"DejaVu Sans", "sans-serif"},
//	    Size:     24,
//	    X:        10,
//	    Y:        40,
//	    Color:    color.Black,
//	})
package text
