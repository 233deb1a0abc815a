package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"time"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
)

// gifDelayUnit is the resolution of GIF frame delays.
const gifDelayUnit = 10 * time.Millisecond

// decodeGIF decodes every frame of a GIF and composites it onto the logical
// screen, applying each frame's disposal method before the next one.
func decodeGIF(data []byte) ([]Frame, error) {
	// gif.DecodeAll keeps every frame in memory and each frame is then
	// snapshotted onto the full screen, so the limits are checked against
	// the block structure first.
	if n, bounds := scanGIF(data); n > 0 && !bounds.Empty() {
		// The working canvas and one saved state come on top of the frames.
		if err := imgbuf.CheckFrames(n+2, bounds.Dx(), bounds.Dy()); err != nil {
			return nil, fmt.Errorf("codec: decode gif: %w", err)
		}
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}

	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if screen.Empty() {
		for _, p := range g.Image {
			screen = screen.Union(p.Bounds())
		}
	}
	canvas, err := imgbuf.NewCanvas(screen.Dx(), screen.Dy())
	if err != nil {
		return nil, fmt.Errorf("codec: decode gif: %w", err)
	}

	frames := make([]Frame, 0, len(g.Image))
	for i, p := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var saved *image.NRGBA
		if disposal == gif.DisposalPrevious {
			saved = canvas.Snapshot()
		}

		canvas.Draw(p, p.Rect.Min, true)

		var delay time.Duration
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * gifDelayUnit
		}
		frames = append(frames, Frame{Image: canvas.Snapshot(), Delay: delay})

		switch disposal {
		case gif.DisposalBackground:
			canvas.Fill(p.Rect, color.NRGBA{})
		case gif.DisposalPrevious:
			canvas.Restore(saved)
		}
	}
	return frames, nil
}

// scanGIF walks the block structure of a GIF without decoding image data.
// It returns the number of image descriptors and the union of the logical
// screen with every frame rectangle. Scanning stops quietly at the trailer,
// at an unknown block or at the end of data.
func scanGIF(data []byte) (frames int, bounds image.Rectangle) {
	if len(data) < 13 || string(data[:3]) != "GIF" {
		return 0, image.Rectangle{}
	}
	bounds = image.Rect(0, 0, int(binary.LittleEndian.Uint16(data[6:8])), int(binary.LittleEndian.Uint16(data[8:10])))
	p := 13
	if flags := data[10]; flags&0x80 != 0 {
		p += 3 << ((flags & 0x07) + 1)
	}
	for p < len(data) {
		switch data[p] {
		case 0x21: // extension
			p = skipSubBlocks(data, p+2)
		case 0x2C: // image descriptor
			if p+10 > len(data) {
				return frames, bounds
			}
			d := data[p+1 : p+10]
			x, y := int(binary.LittleEndian.Uint16(d[0:2])), int(binary.LittleEndian.Uint16(d[2:4]))
			w, h := int(binary.LittleEndian.Uint16(d[4:6])), int(binary.LittleEndian.Uint16(d[6:8]))
			frames++
			bounds = bounds.Union(image.Rect(x, y, x+w, y+h))
			p += 10
			if d[8]&0x80 != 0 {
				p += 3 << ((d[8] & 0x07) + 1)
			}
			p = skipSubBlocks(data, p+1) // LZW minimum code size
		default:
			return frames, bounds
		}
	}
	return frames, bounds
}

// skipSubBlocks returns the offset after the sub-block chain starting at p.
func skipSubBlocks(data []byte, p int) int {
	for p < len(data) {
		n := int(data[p])
		p++
		if n == 0 {
			break
		}
		p += n
	}
	return p
}
