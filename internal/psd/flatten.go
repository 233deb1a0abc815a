package psd

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/imgpipe/internal/blend"
	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

// readMerged reads the image data section: the document composite stored
// as planar channels.
func readMerged(r *reader, doc *Document, channels int, budget *imgbuf.Budget) (*image.NRGBA, error) {
	w, h := doc.Width, doc.Height
	alphaPlane := 3
	if doc.Mode == ModeGrayscale {
		alphaPlane = 1
	}
	// Extra alpha channels past the transparency plane are never used.
	keep := min(channels, alphaPlane+1)
	planes, err := readPlanes(r, w, h, channels, keep, budget)
	if err != nil {
		return nil, err
	}
	defer budget.Release(len(planes))
	if !budget.Reserve(w * h * 4) {
		return nil, fmt.Errorf("%w: merged image", ErrTooLarge)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	size := w * h
	switch doc.Mode {
	case ModeGrayscale:
		scatter(img.Pix, planes[:size], 0, true)
	default:
		for c := 0; c < 3 && c < keep; c++ {
			scatter(img.Pix, planes[c*size:(c+1)*size], c, false)
		}
	}
	if keep > alphaPlane {
		scatter(img.Pix, planes[alphaPlane*size:(alphaPlane+1)*size], 3, false)
	} else {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img, nil
}

// Flatten composites the layers accepted by include, bottom to top, onto a
// transparent canvas the size of the document. Layer opacity and blend
// modes are honoured; unknown modes composite as normal. A document without layers
// flattens to its merged image. A nil include means AllLayers.
//
// The same document and filter always produce the same pixels.
func (d *Document) Flatten(include LayerFilter) (*image.NRGBA, error) {
	if len(d.Layers) == 0 {
		if d.Merged == nil {
			return nil, ErrNoImage
		}
		out := image.NewNRGBA(d.Merged.Rect)
		copy(out.Pix, d.Merged.Pix)
		return out, nil
	}
	if include == nil {
		include = AllLayers
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	for i := range d.Layers {
		l := &d.Layers[i]
		if l.Image == nil || l.Divider || l.Opacity == 0 || !include(i, l) {
			continue
		}
		if !blend.IsNormal(l.BlendMode) {
			f, _ := blend.ForKey(l.BlendMode)
			composite(canvas, l, f)
			continue
		}
		var mask image.Image
		if l.Opacity != 0xff {
			mask = image.NewUniform(color.Alpha{A: l.Opacity})
		}
		xdraw.DrawMask(canvas, l.Rect, l.Image, image.Point{}, mask, image.Point{}, xdraw.Over)
	}
	return canvas, nil
}

// composite blends l onto canvas pixel by pixel with f.
func composite(canvas *image.NRGBA, l *Layer, f blend.Func) {
	r := l.Rect.Intersect(canvas.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s := l.Image.NRGBAAt(x-l.Rect.Min.X, y-l.Rect.Min.Y)
			sa := mul(s.A, l.Opacity)
			if sa == 0 {
				continue
			}
			i := canvas.PixOffset(x, y)
			d := canvas.Pix[i : i+4 : i+4]
			cr, cg, cb, ca := f(
				mul(s.R, sa), mul(s.G, sa), mul(s.B, sa), sa,
				mul(d[0], d[3]), mul(d[1], d[3]), mul(d[2], d[3]), d[3])
			d[0], d[1], d[2], d[3] = straight(cr, ca), straight(cg, ca), straight(cb, ca), ca
		}
	}
}

func mul(a, b uint8) uint8 {
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}

func straight(c, a uint8) uint8 {
	if a == 0 {
		return 0
	}
	return uint8(min(255, (uint16(c)*255+uint16(a)/2)/uint16(a)))
}
