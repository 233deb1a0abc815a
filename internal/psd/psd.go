// Package psd reads Adobe Photoshop documents (PSD and PSB) and flattens
// their layer stack into a single image.
//
// Supported: 8-bit RGB and grayscale documents, raw and PackBits channel
// data. ZIP-compressed channels, 16/32-bit depth and CMYK/Lab modes are
// rejected with ErrUnsupported.
package psd

import (
	"errors"
	"fmt"
	"image"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

// Parse errors.
var (
	// ErrNotPSD is returned when the signature or version is wrong.
	ErrNotPSD = errors.New("psd: not a Photoshop document")

	// ErrTruncated is returned when a section extends past the end of data.
	ErrTruncated = errors.New("psd: unexpected end of data")

	// ErrUnsupported is returned for valid documents this package cannot decode.
	ErrUnsupported = errors.New("psd: unsupported feature")

	// ErrCorrupt is returned for inconsistent section contents.
	ErrCorrupt = errors.New("psd: corrupt data")

	// ErrNoImage is returned when a document has neither layers nor merged image data.
	ErrNoImage = errors.New("psd: no image data")

	// ErrTooLarge is returned when the canvas, a layer or the pixel data of
	// the whole document exceeds the decoding limits.
	ErrTooLarge = errors.New("psd: image exceeds decoding limit")
)

const (
	signature  = "8BPS"
	headerSize = 26
	maxDim     = 300000
)

// ColorMode is the document color mode.
type ColorMode uint16

// Color modes defined by the format.
const (
	ModeBitmap       ColorMode = 0
	ModeGrayscale    ColorMode = 1
	ModeIndexed      ColorMode = 2
	ModeRGB          ColorMode = 3
	ModeCMYK         ColorMode = 4
	ModeMultichannel ColorMode = 7
	ModeDuotone      ColorMode = 8
	ModeLab          ColorMode = 9
)

// Document is a parsed Photoshop file.
type Document struct {
	Width, Height int
	Depth         int
	Mode          ColorMode

	// Layers are ordered bottom to top.
	Layers []Layer

	// Merged is the composite stored by Photoshop, nil when absent or
	// undecodable.
	Merged *image.NRGBA
}

// Layer is one entry of the layer stack.
type Layer struct {
	Name string

	// Rect is the layer's position on the canvas.
	Rect image.Rectangle

	// Opacity is 0 (transparent) to 255 (opaque).
	Opacity uint8

	// Visible is false when the layer's hidden flag is set.
	Visible bool

	// BlendMode is the four-character blend key, e.g. "norm".
	BlendMode string

	// Divider is set for group open/close markers, which carry no pixels.
	Divider bool

	// Image holds the layer pixels with bounds at the origin, sized as Rect.
	// Nil for empty layers.
	Image *image.NRGBA
}

// LayerFilter decides whether a layer takes part in flattening.
type LayerFilter func(index int, l *Layer) bool

// AllLayers includes every layer, hidden ones too.
func AllLayers(int, *Layer) bool { return true }

// VisibleOnly includes layers whose hidden flag is not set.
func VisibleOnly(_ int, l *Layer) bool { return l.Visible }

// Decode parses a PSD or PSB document.
func Decode(data []byte) (*Document, error) {
	r := &reader{data: data}
	doc, channels, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	// Color mode data (palette for indexed and duotone documents).
	r.skip(r.sectionLength32())
	// Image resources.
	r.skip(r.sectionLength32())
	if r.err != nil {
		return nil, r.err
	}

	budget := new(imgbuf.Budget)
	layers, err := readLayerAndMask(r, doc, budget)
	if err != nil {
		return nil, err
	}
	doc.Layers = layers

	if r.remaining() > 0 {
		merged, err := readMerged(r, doc, channels, budget)
		if err == nil {
			doc.Merged = merged
		} else if len(layers) == 0 {
			return nil, err
		}
	}
	if len(doc.Layers) == 0 && doc.Merged == nil {
		return nil, ErrNoImage
	}
	return doc, nil
}

// sectionLength32 reads a length that is 32-bit in both PSD and PSB.
func (r *reader) sectionLength32() int {
	return r.clamp(uint64(r.u32()))
}

func readHeader(r *reader) (*Document, int, error) {
	if len(r.data) < headerSize || string(r.data[:4]) != signature {
		return nil, 0, ErrNotPSD
	}
	r.skip(4)
	switch version := r.u16(); version {
	case 1:
	case 2:
		r.large = true
	default:
		return nil, 0, ErrNotPSD
	}
	r.skip(6)
	channels := int(r.u16())
	doc := &Document{
		Height: int(r.u32()),
		Width:  int(r.u32()),
		Depth:  int(r.u16()),
		Mode:   ColorMode(r.u16()),
	}
	if r.err != nil {
		return nil, 0, r.err
	}
	if channels < 1 || channels > 56 {
		return nil, 0, fmt.Errorf("%w: %d channels", ErrCorrupt, channels)
	}
	if doc.Width <= 0 || doc.Height <= 0 || doc.Width > maxDim || doc.Height > maxDim {
		return nil, 0, fmt.Errorf("%w: canvas %dx%d", ErrCorrupt, doc.Width, doc.Height)
	}
	if imgbuf.CheckSize(doc.Width, doc.Height) != nil {
		return nil, 0, fmt.Errorf("%w: canvas %dx%d", ErrTooLarge, doc.Width, doc.Height)
	}
	if doc.Depth != 8 {
		return nil, 0, fmt.Errorf("%w: %d bits per channel", ErrUnsupported, doc.Depth)
	}
	if doc.Mode != ModeRGB && doc.Mode != ModeGrayscale {
		return nil, 0, fmt.Errorf("%w: color mode %d", ErrUnsupported, doc.Mode)
	}
	return doc, channels, nil
}
