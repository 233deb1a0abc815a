package imgpipe

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/imgpipe/format"
)

// Result is a successful decode.
type Result struct {
	Frames FrameSequence

	// Format is the sniffed encoding, or the adapter family's format when
	// sniffing was inconclusive.
	Format format.Format

	// Adapter names the adapter that produced Frames.
	Adapter string
}

// Decoder runs adapters in order against the same bytes and returns the
// first success. It is safe for concurrent use.
type Decoder struct {
	adapters []Adapter
}

// NewDecoder creates a Decoder with the built-in adapters in DefaultOrder
// unless options say otherwise.
func NewDecoder(opts ...Option) *Decoder {
	return newDecoder(applyOptions(opts))
}

func newDecoder(o options) *Decoder {
	available := o.adapters
	if available == nil {
		available = []Adapter{
			NewRasterAdapter(),
			NewVectorAdapter(o.book),
			NewLayeredAdapter(o.layers),
		}
	}

	seen := make(map[format.Family]bool, len(o.order))
	var ordered []Adapter
	for _, fam := range o.order {
		if seen[fam] {
			continue
		}
		seen[fam] = true
		for _, a := range available {
			if a.Family() == fam {
				ordered = append(ordered, a)
			}
		}
	}
	return &Decoder{adapters: ordered}
}

// Adapters returns the adapters in the order they are tried.
func (d *Decoder) Adapters() []Adapter {
	return append([]Adapter(nil), d.adapters...)
}

// Decode tries each adapter in turn. The first adapter returning valid
// frames wins. When all fail the error is a *DecodeError matching
// ErrUnrecognizedFormat.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	log := Logger()
	var attempts []AdapterError
	for _, a := range d.adapters {
		start := time.Now()
		frames, err := try(a, data)
		if err != nil {
			attempts = append(attempts, AdapterError{Adapter: a.Name(), Err: err})
			if errors.Is(err, ErrAdapterPanic) {
				log.Warn("adapter panic recovered", "adapter", a.Name(), "error", err)
			} else {
				log.Debug("adapter failed", "adapter", a.Name(), "error", err)
			}
			continue
		}
		log.Debug("adapter succeeded", "adapter", a.Name(),
			"frames", len(frames), "elapsed", time.Since(start))
		return &Result{
			Frames:  frames,
			Format:  resultFormat(data, a.Family()),
			Adapter: a.Name(),
		}, nil
	}
	return nil, &DecodeError{Attempts: attempts}
}

// try runs one adapter, converting panics and malformed results into errors.
func try(a Adapter, data []byte) (frames FrameSequence, err error) {
	defer func() {
		if r := recover(); r != nil {
			frames = nil
			err = fmt.Errorf("%w: %v", ErrAdapterPanic, r)
		}
	}()
	frames, err = a.Decode(data)
	if err != nil {
		return nil, err
	}
	if !frames.Valid() {
		return nil, ErrInvalidFrames
	}
	return frames, nil
}

func resultFormat(data []byte, fam format.Family) format.Format {
	if f := format.Sniff(data); f.Family() == fam {
		return f
	}
	switch fam {
	case format.FamilyVector:
		return format.SVG
	case format.FamilyLayered:
		return format.PSD
	}
	return format.Unknown
}
