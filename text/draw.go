package text

import (
	"image"
	"image/color"
	"math"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"
)

// Anchor aligns a run horizontally relative to its origin.
type Anchor uint8

const (
	// AnchorStart places the run's start at the origin.
	AnchorStart Anchor = iota

	// AnchorMiddle centers the run on the origin.
	AnchorMiddle

	// AnchorEnd places the run's end at the origin.
	AnchorEnd
)

// Matrix is a 2D affine transform [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Multiply returns the transform that applies n first, then m.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Run is a single line of text to draw.
type Run struct {
	Text string

	// Families lists preferred font families, most preferred first.
	// Generic names such as "serif" and "monospace" are understood.
	Families []string

	// Size is the font size in user units.
	Size float64

	// X and Y locate the baseline origin in user units.
	X, Y float64

	Anchor Anchor

	// Transform maps user units to pixels. The zero value means Identity.
	Transform Matrix

	Color color.Color
}

// Draw renders run onto dst. Empty runs draw nothing.
func (b *Book) Draw(dst *image.RGBA, run Run) error {
	if run.Text == "" {
		return nil
	}
	if run.Size <= 0 || math.IsInf(run.Size, 0) || math.IsNaN(run.Size) {
		return ErrInvalidSize
	}
	f, err := b.Resolve(run.Families, firstRune(run.Text))
	if err != nil {
		return err
	}

	glyphs, advance := shape(f, run.Text, run.Size)
	x := run.X
	switch run.Anchor {
	case AnchorMiddle:
		x -= advance / 2
	case AnchorEnd:
		x -= advance
	}

	m := run.Transform
	if m == (Matrix{}) {
		m = Identity
	}
	col := run.Color
	if col == nil {
		col = color.Black
	}

	bounds := dst.Bounds()
	r := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	face := font.NewFace(f)
	scale := run.Size / float64(face.Upem())
	p := pen{r: r, m: m, origin: bounds.Min}
	for _, g := range glyphs {
		outline, ok := face.GlyphData(g.GID).(font.GlyphOutline)
		if !ok {
			continue
		}
		p.glyph(outline, x+g.X, run.Y+g.Y, scale)
	}
	r.Draw(dst, bounds, image.NewUniform(col), image.Point{})
	return nil
}

// pen feeds transformed glyph outlines to a vector rasterizer.
type pen struct {
	r      *vector.Rasterizer
	m      Matrix
	origin image.Point
	open   bool
}

func (p *pen) point(ox, oy, scale float64, sp ot.SegmentPoint) (float32, float32) {
	// Font units are y-up; the canvas is y-down.
	x, y := p.m.Apply(ox+float64(sp.X)*scale, oy-float64(sp.Y)*scale)
	return float32(x - float64(p.origin.X)), float32(y - float64(p.origin.Y))
}

func (p *pen) glyph(outline font.GlyphOutline, ox, oy, scale float64) {
	for _, seg := range outline.Segments {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			p.close()
			x, y := p.point(ox, oy, scale, seg.Args[0])
			p.r.MoveTo(x, y)
			p.open = true
		case ot.SegmentOpLineTo:
			x, y := p.point(ox, oy, scale, seg.Args[0])
			p.r.LineTo(x, y)
		case ot.SegmentOpQuadTo:
			bx, by := p.point(ox, oy, scale, seg.Args[0])
			cx, cy := p.point(ox, oy, scale, seg.Args[1])
			p.r.QuadTo(bx, by, cx, cy)
		case ot.SegmentOpCubeTo:
			bx, by := p.point(ox, oy, scale, seg.Args[0])
			cx, cy := p.point(ox, oy, scale, seg.Args[1])
			dx, dy := p.point(ox, oy, scale, seg.Args[2])
			p.r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	p.close()
}

// close closes the current contour. The vector rasterizer does not close
// contours implicitly on MoveTo.
func (p *pen) close() {
	if p.open {
		p.r.ClosePath()
		p.open = false
	}
}
