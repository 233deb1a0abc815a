// Package webpanim reads animated WebP files.
//
// Demux splits the RIFF container into frame descriptors. Decoder then
// reconstructs every full canvas frame in display order, reporting each one
// with the cumulative timestamp at which it ends, the way libwebp's
// animation decoder does. Individual frame bitstreams are decoded with
// golang.org/x/image/webp.
package webpanim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"time"
)

// Container errors.
var (
	// ErrNotWebP is returned when data is not a RIFF WebP container.
	ErrNotWebP = errors.New("webpanim: not a WebP file")

	// ErrNotAnimated is returned for WebP files that carry no animation.
	ErrNotAnimated = errors.New("webpanim: not an animated WebP file")

	// ErrNoFrames is returned when an animation has no ANMF chunks.
	ErrNoFrames = errors.New("webpanim: animation has no frames")
)

// ChunkError reports a malformed chunk.
type ChunkError struct {
	FourCC string
	Reason string
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("webpanim: malformed %q chunk: %s", e.FourCC, e.Reason)
}

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	vp8xPayloadSize = 10
	animPayloadSize = 6
	anmfHeaderSize  = 16

	flagAnimation = 0x02
	flagAlpha     = 0x10

	anmfDisposeBackground = 0x01
	anmfNoBlend           = 0x02
)

// Animation is a demuxed animated WebP file.
type Animation struct {
	Width, Height int

	// Background is the canvas background color hint. Decoder ignores it
	// and clears to transparent, matching libwebp's default.
	Background color.NRGBA

	// LoopCount is the number of times to play; zero means forever.
	LoopCount int

	Frames []FrameInfo
}

// FrameInfo describes one ANMF chunk.
type FrameInfo struct {
	X, Y          int
	Width, Height int
	Duration      time.Duration

	// Blend is true when the frame is alpha-blended onto the canvas,
	// false when it replaces the covered rectangle.
	Blend bool

	// DisposeBackground clears the frame rectangle to transparent before the
	// next frame is drawn.
	DisposeBackground bool

	// Data holds the frame's ALPH/VP8/VP8L sub-chunks exactly as stored.
	Data []byte

	// HasAlpha reports whether Data carries an ALPH chunk.
	HasAlpha bool
}

type chunk struct {
	fourCC  string
	payload []byte
}

// chunks splits data into RIFF chunks, honouring the even-size padding.
func chunks(data []byte) ([]chunk, error) {
	var out []chunk
	for len(data) > 0 {
		if len(data) < chunkHeaderSize {
			return nil, &ChunkError{FourCC: "RIFF", Reason: "truncated chunk header"}
		}
		fourCC := string(data[:4])
		size := binary.LittleEndian.Uint32(data[4:8])
		data = data[chunkHeaderSize:]
		if uint64(size) > uint64(len(data)) {
			return nil, &ChunkError{FourCC: fourCC, Reason: "size exceeds file"}
		}
		out = append(out, chunk{fourCC: fourCC, payload: data[:size]})
		padded := int(size) + int(size&1)
		if padded > len(data) {
			padded = len(data)
		}
		data = data[padded:]
	}
	return out, nil
}

func u24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

// IsAnimated reports whether data is a WebP file with the animation flag set.
func IsAnimated(data []byte) bool {
	cs, err := riffChunks(data)
	if err != nil || len(cs) == 0 || cs[0].fourCC != "VP8X" || len(cs[0].payload) < vp8xPayloadSize {
		return false
	}
	return cs[0].payload[0]&flagAnimation != 0
}

func riffChunks(data []byte) ([]chunk, error) {
	if len(data) < riffHeaderSize || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, ErrNotWebP
	}
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	body := data[riffHeaderSize:]
	// The RIFF size counts the "WEBP" tag. Tolerate trailing garbage and
	// short files the same way libwebp does by clamping.
	if n := size - 4; n >= 0 && n < len(body) {
		body = body[:n]
	}
	return chunks(body)
}

// Demux parses an animated WebP container.
func Demux(data []byte) (*Animation, error) {
	cs, err := riffChunks(data)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 || cs[0].fourCC != "VP8X" {
		return nil, ErrNotAnimated
	}
	vp8x := cs[0].payload
	if len(vp8x) < vp8xPayloadSize {
		return nil, &ChunkError{FourCC: "VP8X", Reason: "short payload"}
	}
	if vp8x[0]&flagAnimation == 0 {
		return nil, ErrNotAnimated
	}
	anim := &Animation{
		Width:  1 + u24(vp8x[4:7]),
		Height: 1 + u24(vp8x[7:10]),
	}

	sawAnim := false
	for _, c := range cs[1:] {
		switch c.fourCC {
		case "ANIM":
			if len(c.payload) < animPayloadSize {
				return nil, &ChunkError{FourCC: "ANIM", Reason: "short payload"}
			}
			p := c.payload
			anim.Background = color.NRGBA{B: p[0], G: p[1], R: p[2], A: p[3]}
			anim.LoopCount = int(binary.LittleEndian.Uint16(p[4:6]))
			sawAnim = true
		case "ANMF":
			f, err := parseANMF(c.payload)
			if err != nil {
				return nil, err
			}
			if f.X+f.Width > anim.Width || f.Y+f.Height > anim.Height {
				return nil, &ChunkError{FourCC: "ANMF", Reason: "frame outside canvas"}
			}
			anim.Frames = append(anim.Frames, f)
		}
	}
	if !sawAnim {
		return nil, &ChunkError{FourCC: "ANIM", Reason: "missing"}
	}
	if len(anim.Frames) == 0 {
		return nil, ErrNoFrames
	}
	return anim, nil
}

func parseANMF(p []byte) (FrameInfo, error) {
	if len(p) < anmfHeaderSize {
		return FrameInfo{}, &ChunkError{FourCC: "ANMF", Reason: "short payload"}
	}
	f := FrameInfo{
		X:                 2 * u24(p[0:3]),
		Y:                 2 * u24(p[3:6]),
		Width:             1 + u24(p[6:9]),
		Height:            1 + u24(p[9:12]),
		Duration:          time.Duration(u24(p[12:15])) * time.Millisecond,
		Blend:             p[15]&anmfNoBlend == 0,
		DisposeBackground: p[15]&anmfDisposeBackground != 0,
		Data:              p[anmfHeaderSize:],
	}
	sub, err := chunks(f.Data)
	if err != nil {
		return FrameInfo{}, err
	}
	var hasImage bool
	for _, c := range sub {
		switch c.fourCC {
		case "ALPH":
			f.HasAlpha = true
		case "VP8 ", "VP8L":
			hasImage = true
		}
	}
	if !hasImage {
		return FrameInfo{}, &ChunkError{FourCC: "ANMF", Reason: "no image bitstream"}
	}
	return f, nil
}
