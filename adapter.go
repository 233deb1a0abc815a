package imgpipe

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/imgpipe/format"
	"github.com/gogpu/imgpipe/internal/codec"
	"github.com/gogpu/imgpipe/internal/psd"
	"github.com/gogpu/imgpipe/internal/svg"
	"github.com/gogpu/imgpipe/text"
)

// Adapter translates one family of encodings into frames.
//
// Decode must return an error wrapping ErrNotApplicable when the input is not
// of the adapter's family, and any other error when it is but cannot be
// decoded. Implementations must be safe for concurrent use.
type Adapter interface {
	Name() string
	Family() format.Family
	Decode(data []byte) (FrameSequence, error)
}

// RasterAdapter decodes bitmap formats. The sniffed format selects the
// sub-codec; GIF and animated WebP yield one full-canvas frame per encoded
// frame.
type RasterAdapter struct{}

// NewRasterAdapter returns the raster adapter.
func NewRasterAdapter() *RasterAdapter { return &RasterAdapter{} }

// Name implements Adapter.
func (*RasterAdapter) Name() string { return "raster" }

// Family implements Adapter.
func (*RasterAdapter) Family() format.Family { return format.FamilyRaster }

// Decode implements Adapter.
func (*RasterAdapter) Decode(data []byte) (FrameSequence, error) {
	guess := format.Sniff(data)
	frames, err := codec.Decode(data, guess)
	if errors.Is(err, codec.ErrNotApplicable) {
		return nil, fmt.Errorf("%w: sniffed %s", ErrNotApplicable, guess)
	}
	if err != nil {
		return nil, err
	}
	seq := make(FrameSequence, len(frames))
	for i, f := range frames {
		seq[i] = newFrame(f.Image, f.Delay)
	}
	return seq, nil
}

// VectorAdapter rasterizes SVG documents at their intrinsic size. Text is
// drawn with fonts from its Book.
type VectorAdapter struct {
	book *text.Book
}

// NewVectorAdapter returns a vector adapter drawing text with book. A nil
// book means the process-wide text.Default().
func NewVectorAdapter(book *text.Book) *VectorAdapter {
	return &VectorAdapter{book: book}
}

// Name implements Adapter.
func (*VectorAdapter) Name() string { return "vector" }

// Family implements Adapter.
func (*VectorAdapter) Family() format.Family { return format.FamilyVector }

// Decode implements Adapter.
func (a *VectorAdapter) Decode(data []byte) (FrameSequence, error) {
	book := a.book
	if book == nil {
		book = text.Default()
	}
	img, err := svg.Decode(data, book)
	if errors.Is(err, svg.ErrNotSVG) {
		return nil, fmt.Errorf("%w: %w", ErrNotApplicable, err)
	}
	if err != nil {
		return nil, err
	}
	return FrameSequence{newFrame(img, 0)}, nil
}

// Layer describes one layer of a layered document to a LayerFilter.
type Layer struct {
	// Index counts from the bottom of the stack.
	Index   int
	Name    string
	Rect    image.Rectangle
	Opacity uint8
	Visible bool
}

// LayerFilter decides whether a layer takes part in flattening.
type LayerFilter func(Layer) bool

// AllLayers includes every layer, hidden ones too. It is the default.
func AllLayers(Layer) bool { return true }

// VisibleLayers includes only layers whose hidden flag is not set.
func VisibleLayers(l Layer) bool { return l.Visible }

// LayeredAdapter flattens Photoshop documents into one frame the size of the
// document canvas.
type LayeredAdapter struct {
	include LayerFilter
}

// NewLayeredAdapter returns a layered adapter. A nil filter means AllLayers.
func NewLayeredAdapter(include LayerFilter) *LayeredAdapter {
	if include == nil {
		include = AllLayers
	}
	return &LayeredAdapter{include: include}
}

// Name implements Adapter.
func (*LayeredAdapter) Name() string { return "layered" }

// Family implements Adapter.
func (*LayeredAdapter) Family() format.Family { return format.FamilyLayered }

// Decode implements Adapter.
func (a *LayeredAdapter) Decode(data []byte) (FrameSequence, error) {
	doc, err := psd.Decode(data)
	if errors.Is(err, psd.ErrNotPSD) {
		return nil, fmt.Errorf("%w: %w", ErrNotApplicable, err)
	}
	if err != nil {
		return nil, err
	}
	img, err := doc.Flatten(func(i int, l *psd.Layer) bool {
		return a.include(Layer{
			Index:   i,
			Name:    l.Name,
			Rect:    l.Rect,
			Opacity: l.Opacity,
			Visible: l.Visible,
		})
	})
	if err != nil {
		return nil, err
	}
	return FrameSequence{newFrame(img, 0)}, nil
}
