// Package svg rasterizes SVG documents at their intrinsic size.
//
// Shapes, paths and gradients are rendered by oksvg; <text> elements, which
// oksvg skips, are shaped and drawn with a text.Book on top of the result.
package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
	"github.com/gogpu/imgpipe/text"
)

// Rasterization errors.
var (
	// ErrNotSVG is returned when the document root is not an <svg> element.
	ErrNotSVG = errors.New("svg: root element is not <svg>")

	// ErrZeroSize is returned when the intrinsic width or height is zero.
	ErrZeroSize = errors.New("svg: zero intrinsic size")

	// ErrTooLarge is returned when the intrinsic size exceeds the pixel limit.
	ErrTooLarge = errors.New("svg: intrinsic size too large")
)

// defaultSize is used for each dimension that has neither a width/height
// attribute nor a viewBox.
const defaultSize = 100

// ViewBox is the user coordinate rectangle mapped onto the output.
type ViewBox struct {
	X, Y, W, H float64
}

// Document is a parsed SVG ready to rasterize.
type Document struct {
	// Width and Height are the intrinsic size in pixels.
	Width, Height int

	ViewBox ViewBox

	icon *oksvg.SvgIcon
	runs []text.Run
}

// Decode parses data and rasterizes it with fonts from book.
func Decode(data []byte, book *text.Book) (*image.NRGBA, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Render(book)
}

// Parse reads the root element for the intrinsic size and collects text
// runs. It does not rasterize.
func Parse(data []byte) (*Document, error) {
	s := &scanner{dec: newDecoder(data)}
	doc, err := s.scan()
	if err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		// oksvg only accepts unitless root sizes; the size is already known.
		icon, err = oksvg.ReadIconStream(bytes.NewReader(stripRootSize(data)), oksvg.IgnoreErrorMode)
		if err != nil {
			return nil, fmt.Errorf("svg: %w", err)
		}
	}
	icon.ViewBox.X, icon.ViewBox.Y = doc.ViewBox.X, doc.ViewBox.Y
	icon.ViewBox.W, icon.ViewBox.H = doc.ViewBox.W, doc.ViewBox.H
	doc.icon = icon
	return doc, nil
}

// Size returns the intrinsic size without rendering.
func Size(data []byte) (width, height int, err error) {
	s := &scanner{dec: newDecoder(data), rootOnly: true}
	doc, err := s.scan()
	if err != nil {
		return 0, 0, err
	}
	return doc.Width, doc.Height, nil
}

// Render rasterizes the document onto a transparent canvas of its intrinsic
// size.
func (d *Document) Render(book *text.Book) (*image.NRGBA, error) {
	if book == nil {
		book = text.Default()
	}
	w, h := d.Width, d.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	if d.icon != nil {
		d.icon.SetTarget(0, 0, float64(w), float64(h))
		scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
		d.icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	}

	for _, run := range d.runs {
		if err := book.Draw(img, run); err != nil {
			return nil, fmt.Errorf("svg: text %q: %w", run.Text, err)
		}
	}
	return imgbuf.ToNRGBA(img), nil
}

// Runs returns the text runs found in the document, in document order.
func (d *Document) Runs() []text.Run {
	return d.runs
}

var rootSizeAttr = regexp.MustCompile(`\s(width|height)\s*=\s*("[^"]*"|'[^']*')`)

// stripRootSize removes width and height from the root <svg> tag.
func stripRootSize(data []byte) []byte {
	start := bytes.Index(data, []byte("<svg"))
	if start < 0 {
		return data
	}
	end := bytes.IndexByte(data[start:], '>')
	if end < 0 {
		return data
	}
	end += start
	out := make([]byte, 0, len(data))
	out = append(out, data[:start]...)
	out = append(out, rootSizeAttr.ReplaceAll(data[start:end], nil)...)
	return append(out, data[end:]...)
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return dec
}

// intrinsicSize resolves the output size from the root attributes. A missing
// dimension is taken from the viewBox, scaled to keep its aspect ratio when
// the other dimension is given.
func intrinsicSize(widthAttr, heightAttr string, vb ViewBox, hasViewBox bool) (float64, float64, error) {
	w, wok := parseLength(widthAttr)
	h, hok := parseLength(heightAttr)
	switch {
	case wok && hok:
	case wok && hasViewBox && vb.W > 0:
		h = w * vb.H / vb.W
	case hok && hasViewBox && vb.H > 0:
		w = h * vb.W / vb.H
	case hasViewBox:
		w, h = vb.W, vb.H
	default:
		if !wok {
			w = defaultSize
		}
		if !hok {
			h = defaultSize
		}
	}
	if w <= 0 || h <= 0 || math.IsNaN(w) || math.IsNaN(h) {
		return 0, 0, fmt.Errorf("%w: %gx%g", ErrZeroSize, w, h)
	}
	if math.Ceil(w)*math.Ceil(h) > imgbuf.MaxPixels {
		return 0, 0, fmt.Errorf("%w: %gx%g", ErrTooLarge, w, h)
	}
	return w, h, nil
}

// skipped lists containers whose text is never painted directly.
var skipped = map[string]bool{
	"defs": true, "symbol": true, "clipPath": true, "mask": true,
	"pattern": true, "marker": true, "title": true, "desc": true,
	"metadata": true, "style": true, "script": true,
}

type scanner struct {
	dec      *xml.Decoder
	rootOnly bool

	stack []paint
	skip  int
	doc   *Document

	// Set while inside a <text> element.
	run     *text.Run
	content strings.Builder
	textTop int
}

func (s *scanner) scan() (*Document, error) {
	for {
		tok, err := s.dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if s.doc == nil {
				return nil, fmt.Errorf("%w: %w", ErrNotSVG, err)
			}
			// Trailing garbage does not invalidate what oksvg can draw.
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if s.doc == nil {
				if t.Name.Local != "svg" {
					return nil, ErrNotSVG
				}
				if err := s.root(t); err != nil {
					return nil, err
				}
				if s.rootOnly {
					return s.doc, nil
				}
				continue
			}
			s.start(t)
		case xml.EndElement:
			s.end()
		case xml.CharData:
			if s.run != nil && s.skip == 0 {
				s.content.Write(t)
			}
		}
	}
	if s.doc == nil {
		return nil, ErrNotSVG
	}
	return s.doc, nil
}

func (s *scanner) root(t xml.StartElement) error {
	attrs := attrMap(t.Attr)
	vb, hasViewBox := parseViewBox(attrs["viewBox"])
	w, h, err := intrinsicSize(attrs["width"], attrs["height"], vb, hasViewBox)
	if err != nil {
		return err
	}
	if !hasViewBox {
		vb = ViewBox{W: w, H: h}
	}
	s.doc = &Document{
		Width:   int(math.Ceil(w)),
		Height:  int(math.Ceil(h)),
		ViewBox: vb,
	}

	base := defaultPaint()
	base.m = text.Matrix{
		float64(s.doc.Width) / vb.W, 0,
		0, float64(s.doc.Height) / vb.H,
		-vb.X * float64(s.doc.Width) / vb.W, -vb.Y * float64(s.doc.Height) / vb.H,
	}
	s.stack = append(s.stack, base.inherit(attrs))
	return nil
}

func (s *scanner) start(t xml.StartElement) {
	attrs := attrMap(t.Attr)
	parent := s.stack[len(s.stack)-1]
	p := parent.inherit(attrs)
	s.stack = append(s.stack, p)

	if s.skip > 0 || skipped[t.Name.Local] || p.hidden {
		s.skip++
		return
	}
	if t.Name.Local != "text" || s.run != nil {
		return
	}
	x, _ := parseLength(firstListItem(attrs["x"]))
	y, _ := parseLength(firstListItem(attrs["y"]))
	s.run = &text.Run{
		Families:  p.families,
		Size:      p.size,
		X:         x,
		Y:         y,
		Anchor:    p.anchor,
		Transform: p.m,
		Color:     p.color(),
	}
	s.content.Reset()
	s.textTop = len(s.stack)
}

func (s *scanner) end() {
	if len(s.stack) <= 1 {
		return
	}
	if s.run != nil && len(s.stack) == s.textTop {
		s.run.Text = strings.Join(strings.Fields(s.content.String()), " ")
		if s.run.Text != "" && s.run.Size > 0 && s.run.Color != nil {
			s.doc.runs = append(s.doc.runs, *s.run)
		}
		s.run = nil
	}
	s.stack = s.stack[:len(s.stack)-1]
	if s.skip > 0 {
		s.skip--
	}
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Name.Space != "" && a.Name.Space != "http://www.w3.org/2000/svg" {
			continue
		}
		m[a.Name.Local] = a.Value
	}
	// Presentation properties in style override attributes.
	for _, decl := range strings.Split(m["style"], ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m
}
