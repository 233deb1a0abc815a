package psd

import (
	"fmt"
	"image"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

// Channel ids used in layer records.
const (
	channelRed         = 0
	channelGreen       = 1
	channelBlue        = 2
	channelTransparent = -1
	channelUserMask    = -2
	channelRealMask    = -3
)

// Channel compression methods.
const (
	compressionRaw      = 0
	compressionRLE      = 1
	compressionZIP      = 2
	compressionZIPDelta = 3
)

const flagHidden = 0x02

type channelInfo struct {
	id     int
	length int
}

type layerRecord struct {
	layer    Layer
	channels []channelInfo
}

func readLayerAndMask(r *reader, doc *Document, budget *imgbuf.Budget) ([]Layer, error) {
	n := r.length()
	if r.err != nil {
		return nil, r.err
	}
	if n == 0 {
		return nil, nil
	}
	section := r.sub(n)
	infoLen := section.length()
	if section.err != nil {
		return nil, section.err
	}
	if infoLen == 0 {
		return nil, nil
	}
	info := section.sub(infoLen)
	if section.err != nil {
		return nil, section.err
	}

	count := int(info.i16())
	if count < 0 {
		// A negative count means the first alpha channel holds the merged
		// transparency; the layers themselves are unaffected.
		count = -count
	}
	records := make([]layerRecord, 0, count)
	for i := 0; i < count; i++ {
		rec, err := readLayerRecord(info)
		if err != nil {
			return nil, fmt.Errorf("psd: layer %d record: %w", i, err)
		}
		records = append(records, rec)
	}

	layers := make([]Layer, 0, count)
	for i, rec := range records {
		img, err := readLayerChannels(info, doc, &rec, budget)
		if err != nil {
			return nil, fmt.Errorf("psd: layer %d (%q) pixels: %w", i, rec.layer.Name, err)
		}
		rec.layer.Image = img
		layers = append(layers, rec.layer)
	}
	return layers, nil
}

func readLayerRecord(r *reader) (layerRecord, error) {
	top, left := int(r.i32()), int(r.i32())
	bottom, right := int(r.i32()), int(r.i32())
	nch := int(r.u16())
	if r.err != nil {
		return layerRecord{}, r.err
	}
	if bottom < top || right < left || nch > 56 {
		return layerRecord{}, fmt.Errorf("%w: layer bounds or channel count", ErrCorrupt)
	}
	if w, h := right-left, bottom-top; w > 0 && h > 0 && imgbuf.CheckSize(w, h) != nil {
		return layerRecord{}, fmt.Errorf("%w: layer %dx%d", ErrTooLarge, w, h)
	}

	rec := layerRecord{channels: make([]channelInfo, nch)}
	for i := range rec.channels {
		rec.channels[i].id = int(r.i16())
		rec.channels[i].length = r.length()
	}
	if sig := string(r.take(4)); r.err == nil && sig != "8BIM" && sig != "8B64" {
		return layerRecord{}, fmt.Errorf("%w: blend signature %q", ErrCorrupt, sig)
	}
	rec.layer.Rect = image.Rect(left, top, right, bottom)
	rec.layer.BlendMode = string(r.take(4))
	rec.layer.Opacity = r.u8()
	r.skip(1) // clipping
	flags := r.u8()
	rec.layer.Visible = flags&flagHidden == 0
	r.skip(1) // filler

	extra := r.sub(r.sectionLength32())
	if r.err != nil {
		return layerRecord{}, r.err
	}
	extra.skip(extra.sectionLength32()) // layer mask data
	extra.skip(extra.sectionLength32()) // blending ranges
	nameLen := int(extra.u8())
	rawName := extra.take(nameLen)
	// The Pascal string, length byte included, is padded to 4 bytes.
	extra.skip((4 - (nameLen+1)%4) % 4)
	if extra.err != nil {
		return layerRecord{}, extra.err
	}
	rec.layer.Name = decodeMacRoman(rawName)
	readAdditionalInfo(extra, &rec.layer)
	return rec, nil
}

// readAdditionalInfo scans tagged blocks for the Unicode name and section
// divider markers. Unknown or malformed blocks end the scan silently since
// none of them affect pixels.
func readAdditionalInfo(r *reader, l *Layer) {
	for r.remaining() >= 12 {
		sig := string(r.take(4))
		if sig != "8BIM" && sig != "8B64" {
			return
		}
		key := string(r.take(4))
		n := r.sectionLength32()
		block := r.sub(n)
		r.skip(n & 1)
		if r.err != nil {
			return
		}
		switch key {
		case "luni":
			if name, ok := decodeUnicodeName(block); ok {
				l.Name = name
			}
		case "lsct", "lsdk":
			l.Divider = block.u32() != 0
		}
	}
}

func decodeMacRoman(b []byte) string {
	s, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func decodeUnicodeName(r *reader) (string, bool) {
	count := int(r.u32())
	raw := r.take(2 * count)
	if r.err != nil {
		return "", false
	}
	s, err := utf16BE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	// Names are sometimes stored with a trailing NUL.
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return string(s), true
}

// readLayerChannels decodes the color and transparency channels of one
// layer. The layer image is only allocated once a plane has been read, so
// records without pixel data cost nothing. Layers without a transparency
// channel are opaque.
func readLayerChannels(r *reader, doc *Document, rec *layerRecord, budget *imgbuf.Budget) (*image.NRGBA, error) {
	w, h := rec.layer.Rect.Dx(), rec.layer.Rect.Dy()
	wantPixels := w > 0 && h > 0 && !rec.layer.Divider

	var img *image.NRGBA
	for _, ch := range rec.channels {
		data := r.sub(ch.length)
		if r.err != nil {
			return nil, r.err
		}
		if !wantPixels || ch.id == channelUserMask || ch.id == channelRealMask {
			continue
		}
		dst, ok := channelOffset(doc.Mode, ch.id)
		if !ok {
			continue
		}
		plane, err := readPlanes(data, w, h, 1, 1, budget)
		if err != nil {
			return nil, err
		}
		if img == nil {
			if !budget.Reserve(w * h * 4) {
				budget.Release(len(plane))
				return nil, fmt.Errorf("%w: layer pixels", ErrTooLarge)
			}
			img = image.NewNRGBA(image.Rect(0, 0, w, h))
			for i := 3; i < len(img.Pix); i += 4 {
				img.Pix[i] = 0xff
			}
		}
		scatter(img.Pix, plane, dst, doc.Mode == ModeGrayscale && ch.id == 0)
		budget.Release(len(plane))
	}
	return img, nil
}

// channelOffset maps a channel id to its byte offset within an RGBA pixel.
func channelOffset(mode ColorMode, id int) (int, bool) {
	switch {
	case id == channelTransparent:
		return 3, true
	case mode == ModeGrayscale && id == 0:
		return 0, true
	case mode == ModeRGB && id >= channelRed && id <= channelBlue:
		return id, true
	}
	return 0, false
}

// scatter writes an 8-bit plane into every 4th byte of pix starting at off.
// Gray planes fill R, G and B.
func scatter(pix, plane []byte, off int, gray bool) {
	for i, v := range plane {
		p := i*4 + off
		if gray {
			pix[p], pix[p+1], pix[p+2] = v, v, v
			continue
		}
		pix[p] = v
	}
}

// readPlanes reads n planes of w*h bytes stored with a leading compression
// field and returns the first keep of them. RLE row byte counts for all
// planes precede the compressed rows. The returned bytes are reserved in
// budget; callers release len(planes) once they are done with them.
func readPlanes(r *reader, w, h, n, keep int, budget *imgbuf.Budget) ([]byte, error) {
	comp := r.u16()
	if r.err != nil {
		return nil, r.err
	}
	size := w * h * keep
	switch comp {
	case compressionRaw:
		b := r.take(w * h * n)
		if r.err != nil {
			return nil, r.err
		}
		if !budget.Reserve(size) {
			return nil, fmt.Errorf("%w: channel data", ErrTooLarge)
		}
		return b[:size], nil
	case compressionRLE:
		rows, width := h*n, 2
		if r.large {
			width = 4
		}
		if rows > r.remaining()/width {
			return nil, ErrTruncated
		}
		counts := make([]int, rows)
		for i := range counts {
			if r.large {
				counts[i] = int(r.u32())
			} else {
				counts[i] = int(r.u16())
			}
		}
		if !budget.Reserve(size) {
			return nil, fmt.Errorf("%w: channel data", ErrTooLarge)
		}
		out := make([]byte, 0, size)
		for _, c := range counts[:h*keep] {
			row, err := unpackBits(r.take(c), w)
			if r.err != nil {
				err = r.err
			}
			if err != nil {
				budget.Release(size)
				return nil, err
			}
			out = append(out, row...)
		}
		return out, nil
	case compressionZIP, compressionZIPDelta:
		return nil, fmt.Errorf("%w: zip compressed channel", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrCorrupt, comp)
	}
}

// unpackBits decodes one PackBits row that must expand to exactly n bytes.
func unpackBits(src []byte, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for i := 0; i < len(src); {
		h := int(int8(src[i])) //nolint:gosec // PackBits headers are signed bytes
		i++
		switch {
		case h >= 0:
			cnt := h + 1
			if i+cnt > len(src) {
				return nil, fmt.Errorf("%w: packbits literal overrun", ErrCorrupt)
			}
			out = append(out, src[i:i+cnt]...)
			i += cnt
		case h > -128:
			if i >= len(src) {
				return nil, fmt.Errorf("%w: packbits repeat overrun", ErrCorrupt)
			}
			for range 1 - h {
				out = append(out, src[i])
			}
			i++
		}
		if len(out) > n {
			return nil, fmt.Errorf("%w: packbits row too long", ErrCorrupt)
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: packbits row is %d bytes, want %d", ErrCorrupt, len(out), n)
	}
	return out, nil
}
