package codec

import (
	"errors"
	"fmt"
	"io"
	"time"

	imgbuf "github.com/gogpu/imgpipe/internal/image"
	"github.com/gogpu/imgpipe/internal/webpanim"
)

// timestampCursor turns absolute frame timestamps into per-frame delays.
// prev only moves when a frame is actually kept, so a skipped frame's time
// is folded into the next kept frame's delay.
type timestampCursor struct {
	prev time.Duration
}

// advance returns ts minus the previous kept timestamp, saturating at zero
// for out-of-order or duplicate timestamps, and moves the cursor to ts.
func (c *timestampCursor) advance(ts time.Duration) time.Duration {
	delay := ts - c.prev
	if delay < 0 {
		delay = 0
	}
	c.prev = ts
	return delay
}

// Deltas converts absolute timestamps into delays between consecutive
// frames. The first delay is the first timestamp itself.
func Deltas(timestamps []time.Duration) []time.Duration {
	var c timestampCursor
	out := make([]time.Duration, len(timestamps))
	for i, ts := range timestamps {
		out[i] = c.advance(ts)
	}
	return out
}

type timestampedSource interface {
	Next() (webpanim.Frame, error)
}

// collectTimestamped drains src, dropping frames that failed to decode.
// Kept frames are charged against the pixel memory budget.
func collectTimestamped(src timestampedSource) ([]Frame, error) {
	var (
		cursor timestampCursor
		budget imgbuf.Budget
		frames []Frame
	)
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if f.Err != nil {
			continue
		}
		if !budget.Reserve(len(f.Image.Pix)) {
			return nil, fmt.Errorf("codec: decode webp: frame %d: %w", len(frames), imgbuf.ErrTooLarge)
		}
		frames = append(frames, Frame{Image: f.Image, Delay: cursor.advance(f.Timestamp)})
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}

func decodeAnimatedWebP(data []byte) ([]Frame, error) {
	d, err := webpanim.NewDecoder(data)
	if err != nil {
		return nil, fmt.Errorf("codec: decode webp: %w", err)
	}
	return collectTimestamped(d)
}
