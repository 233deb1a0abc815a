package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// shapedGlyph is a glyph positioned relative to the run origin, in pixels.
type shapedGlyph struct {
	GID      font.GID
	X, Y     float64
	XAdvance float64
}

// shaperPool pools HarfbuzzShaper instances. They keep an internal buffer
// and are NOT safe for concurrent use, but are cheap to reuse.
var shaperPool = sync.Pool{
	New: func() any {
		return &shaping.HarfbuzzShaper{}
	},
}

// shape converts s into positioned glyphs using f at size pixels per em.
// It also returns the total advance of the run.
func shape(f *font.Font, s string, size float64) ([]shapedGlyph, float64) {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil, 0
	}

	// font.Face is NOT safe for concurrent use; each call gets its own.
	face := font.NewFace(f)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      floatToFixed(size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	shaperPool.Put(hb)

	glyphs := make([]shapedGlyph, len(output.Glyphs))
	var x float64
	for i, g := range output.Glyphs {
		glyphs[i] = shapedGlyph{
			GID:      g.GlyphID,
			X:        x + fixedToFloat(g.XOffset),
			Y:        -fixedToFloat(g.YOffset),
			XAdvance: fixedToFloat(g.Advance),
		}
		x += glyphs[i].XAdvance
	}
	return glyphs, x
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// firstRune returns the first non-space rune of s, or 'a'.
func firstRune(s string) rune {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return r
		}
	}
	return 'a'
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
