package imgpipe

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// encodeGIF builds an animation of full-canvas frames alternating between
// two colours, with the given delays in hundredths of a second.
func encodeGIF(t testing.TB, w, h int, delays ...int) []byte {
	t.Helper()
	pal := color.Palette{color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 255}}
	anim := &gif.GIF{}
	for i, d := range delays {
		frame := image.NewPaletted(image.Rect(0, 0, w, h), pal)
		for j := range frame.Pix {
			frame.Pix[j] = uint8(i % 2)
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, d)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("gif.EncodeAll() error = %v", err)
	}
	return buf.Bytes()
}

// mergedPSD builds a layerless RGBA Photoshop document filled with c.
func mergedPSD(w, h int, c color.NRGBA) []byte {
	var buf bytes.Buffer
	put := func(v any) { _ = binary.Write(&buf, binary.BigEndian, v) }
	buf.WriteString("8BPS")
	put(uint16(1))
	buf.Write(make([]byte, 6))
	put(uint16(4))
	put(uint32(h))
	put(uint32(w))
	put(uint16(8))
	put(uint16(3)) // RGB
	put(uint32(0)) // color mode data
	put(uint32(0)) // image resources
	put(uint32(0)) // layer and mask info
	put(uint16(0)) // raw
	for _, v := range []byte{c.R, c.G, c.B, c.A} {
		buf.Write(bytes.Repeat([]byte{v}, w*h))
	}
	return buf.Bytes()
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="24" height="12">
	<rect width="24" height="12" fill="#00ff00"/>
</svg>`
