// Package qoi implements a decoder for the Quite OK Image format.
//
// The format is described at https://qoiformat.org/qoi-specification.pdf.
// Importing the package registers the decoder with the image package.
package qoi

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

const (
	magic      = "qoif"
	headerSize = 14
	indexSize  = 64
)

const (
	opIndex byte = 0b00000000
	opDiff  byte = 0b01000000
	opLuma  byte = 0b10000000
	opRun   byte = 0b11000000
	opRGB   byte = 0b11111110
	opRGBA  byte = 0b11111111

	maskOp byte = 0b11000000
	mask6  byte = 0b00111111
)

// Decoding errors.
var (
	// ErrInvalidHeader is returned when the magic or header fields are wrong.
	ErrInvalidHeader = errors.New("qoi: invalid header")

	// ErrTooLarge is returned when the image exceeds the shared pixel limit.
	ErrTooLarge = errors.New("qoi: image too large")
)

func init() {
	image.RegisterFormat("qoi", magic, Decode, DecodeConfig)
}

type header struct {
	width, height uint32
	channels      uint8
	colorspace    uint8
}

func readHeader(r io.Reader) (header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return header{}, fmt.Errorf("qoi: reading header: %w", err)
	}
	if string(buf[:4]) != magic {
		return header{}, ErrInvalidHeader
	}
	h := header{
		width:      binary.BigEndian.Uint32(buf[4:8]),
		height:     binary.BigEndian.Uint32(buf[8:12]),
		channels:   buf[12],
		colorspace: buf[13],
	}
	if h.width == 0 || h.height == 0 || (h.channels != 3 && h.channels != 4) || h.colorspace > 1 {
		return header{}, ErrInvalidHeader
	}
	if uint64(h.width)*uint64(h.height) > imgbuf.MaxPixels {
		return header{}, ErrTooLarge
	}
	return h, nil
}

// DecodeConfig returns the dimensions of a QOI image without decoding pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: int(h.width), Height: int(h.height)}, nil
}

func hash(c color.NRGBA) byte {
	return (c.R*3 + c.G*5 + c.B*7 + c.A*11) % indexSize
}

// Decode reads a QOI image from r.
func Decode(r io.Reader) (image.Image, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	img := image.NewNRGBA(image.Rect(0, 0, int(h.width), int(h.height)))

	var index [indexSize]color.NRGBA
	px := color.NRGBA{A: 255}
	run := 0

	for off := 0; off < len(img.Pix); off += 4 {
		if run > 0 {
			run--
		} else {
			b, err := br.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("qoi: reading chunk: %w", noEOF(err))
			}
			switch {
			case b == opRGB:
				var rgb [3]byte
				if _, err := io.ReadFull(br, rgb[:]); err != nil {
					return nil, fmt.Errorf("qoi: reading rgb: %w", noEOF(err))
				}
				px.R, px.G, px.B = rgb[0], rgb[1], rgb[2]
			case b == opRGBA:
				var rgba [4]byte
				if _, err := io.ReadFull(br, rgba[:]); err != nil {
					return nil, fmt.Errorf("qoi: reading rgba: %w", noEOF(err))
				}
				px = color.NRGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
			case b&maskOp == opIndex:
				px = index[b&mask6]
			case b&maskOp == opDiff:
				px.R += (b>>4)&0x03 - 2
				px.G += (b>>2)&0x03 - 2
				px.B += b&0x03 - 2
			case b&maskOp == opLuma:
				b2, err := br.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("qoi: reading luma: %w", noEOF(err))
				}
				dg := b&mask6 - 32
				px.R += dg - 8 + (b2>>4)&0x0f
				px.G += dg
				px.B += dg - 8 + b2&0x0f
			case b&maskOp == opRun:
				run = int(b & mask6)
			}
			index[hash(px)] = px
		}
		img.Pix[off+0] = px.R
		img.Pix[off+1] = px.G
		img.Pix[off+2] = px.B
		img.Pix[off+3] = px.A
	}
	return img, nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
