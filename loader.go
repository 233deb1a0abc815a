package imgpipe

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a step in the lifecycle of a load request.
type State uint8

const (
	// StateRequested is entered when Load is called.
	StateRequested State = iota

	// StateReading is entered when the request's goroutine starts reading.
	StateReading

	// StateDecoding is entered after a successful read. A failed read skips it.
	StateDecoding

	// StateDelivered is entered after the outcome was offered to the sink.
	StateDelivered
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateReading:
		return "reading"
	case StateDecoding:
		return "decoding"
	case StateDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Loader reads and decodes files off the calling goroutine and reports each
// outcome to a Sink. Every request runs on its own goroutine and produces
// exactly one event. There is no cancellation; a request runs to completion.
type Loader struct {
	sink    Sink
	decoder *Decoder
	hook    func(uuid.UUID, State)
	clock   func() time.Time

	wg sync.WaitGroup
}

// NewLoader creates a Loader delivering to sink. Decoder options such as
// WithOrder apply to the Loader's decoder. A nil sink discards every event.
func NewLoader(sink Sink, opts ...Option) *Loader {
	if sink == nil {
		sink = discardSink
	}
	o := applyOptions(opts)
	return &Loader{
		sink:    sink,
		decoder: newDecoder(o),
		hook:    o.hook,
		clock:   o.clock,
	}
}

// Decoder returns the decoder used by the loader.
func (l *Loader) Decoder() *Decoder { return l.decoder }

// Load starts loading path and returns immediately with the request ID that
// the outcome event will carry.
func (l *Loader) Load(path string) uuid.UUID {
	id := uuid.New()
	l.transition(id, StateRequested)
	l.wg.Add(1)
	go l.run(id, path)
	return id
}

// Wait blocks until every request started so far has been delivered.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func (l *Loader) run(id uuid.UUID, path string) {
	defer l.wg.Done()
	start := l.clock()
	l.transition(id, StateReading)

	data, err := os.ReadFile(path)
	if err != nil {
		l.deliver(id, ImageError{
			ID:      id,
			Path:    path,
			Message: "could not read: " + path,
			Err:     &ReadError{Path: path, Err: err},
		}, start)
		return
	}

	l.transition(id, StateDecoding)
	res, err := l.decoder.Decode(data)
	if err != nil {
		l.deliver(id, ImageError{
			ID:      id,
			Path:    path,
			Message: "error decoding image: " + path,
			Err:     err,
		}, start)
		return
	}
	l.deliver(id, ImageLoaded{
		ID:     id,
		Frames: res.Frames,
		Path:   path,
		Start:  start,
		Format: res.Format,
	}, start)
}

var discardSink = SinkFunc(func(Event) error { return nil })

// deliver offers ev to the sink. A closed or failing sink is not retried.
func (l *Loader) deliver(id uuid.UUID, ev Event, start time.Time) {
	log := Logger().With("id", id, "path", ev.SourcePath())
	if err := l.sink.Send(ev); err != nil {
		switch {
		case errors.Is(err, ErrSinkClosed):
			log.Warn("sink closed, outcome dropped")
		case errors.Is(err, ErrSinkFull):
			log.Warn("sink full, outcome dropped")
		default:
			log.Warn("sink rejected outcome", "error", err)
		}
	}
	switch ev := ev.(type) {
	case ImageLoaded:
		log.Info("image loaded", "format", ev.Format, "frames", len(ev.Frames),
			"elapsed", l.clock().Sub(start))
	case ImageError:
		log.Info("image failed", "error", ev.Err)
	}
	l.transition(id, StateDelivered)
}

func (l *Loader) transition(id uuid.UUID, s State) {
	if l.hook != nil {
		l.hook(id, s)
	}
}
