package imgpipe

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/imgpipe/format"
)

// Event is the outcome of one load request: ImageLoaded or ImageError.
type Event interface {
	RequestID() uuid.UUID
	SourcePath() string
	isEvent()
}

// ImageLoaded carries the frames of a successful load.
type ImageLoaded struct {
	ID     uuid.UUID
	Frames FrameSequence
	Path   string

	// Start is when the request began executing.
	Start time.Time

	Format format.Format
}

// RequestID implements Event.
func (e ImageLoaded) RequestID() uuid.UUID { return e.ID }

// SourcePath implements Event.
func (e ImageLoaded) SourcePath() string { return e.Path }

func (ImageLoaded) isEvent() {}

// ImageError reports a failed load. Message is short and names the path; Err
// is a *ReadError or *DecodeError.
type ImageError struct {
	ID      uuid.UUID
	Path    string
	Message string
	Err     error
}

// RequestID implements Event.
func (e ImageError) RequestID() uuid.UUID { return e.ID }

// SourcePath implements Event.
func (e ImageError) SourcePath() string { return e.Path }

func (ImageError) isEvent() {}

// Sink receives load outcomes on behalf of a consumer. Send may be called
// from many goroutines at once.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

// Send implements Sink.
func (f SinkFunc) Send(e Event) error { return f(e) }

// ChanSink delivers events over a channel. After Close, Send returns
// ErrSinkClosed instead of blocking.
//
// A ChanSink from NewChanSink blocks Send, and with it the loader goroutine
// of the request, until the consumer receives the event. A consumer that
// stops reading must call Close, or the loader's Wait never returns. Use
// NewDroppingChanSink when events may be lost instead.
type ChanSink struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
	drop bool
}

// NewChanSink creates a blocking ChanSink with the given channel buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// NewDroppingChanSink creates a ChanSink whose Send never blocks: when the
// buffer is full the event is discarded and Send returns ErrSinkFull.
func NewDroppingChanSink(buffer int) *ChanSink {
	s := NewChanSink(buffer)
	s.drop = true
	return s
}

// Events returns the channel events are delivered on. It is never closed.
func (s *ChanSink) Events() <-chan Event { return s.ch }

// Done is closed when the sink is closed.
func (s *ChanSink) Done() <-chan struct{} { return s.done }

// Send delivers e. A blocking sink waits until the consumer receives it or
// the sink is closed; a dropping sink returns ErrSinkFull right away.
func (s *ChanSink) Send(e Event) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}
	if s.drop {
		select {
		case s.ch <- e:
			return nil
		default:
			return ErrSinkFull
		}
	}
	select {
	case s.ch <- e:
		return nil
	case <-s.done:
		return ErrSinkClosed
	}
}

// Close stops accepting events and releases blocked senders. It is safe to
// call more than once.
func (s *ChanSink) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
