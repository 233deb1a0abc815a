package imgpipe

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline errors.
var (
	// ErrNotApplicable is returned by an adapter for input it does not recognise.
	ErrNotApplicable = errors.New("imgpipe: adapter does not recognise input")

	// ErrUnrecognizedFormat is returned when no adapter accepted the input.
	ErrUnrecognizedFormat = errors.New("imgpipe: format not recognized by any decoder")

	// ErrRead matches every *ReadError.
	ErrRead = errors.New("imgpipe: could not read file")

	// ErrAdapterPanic is recorded when an adapter panics on malformed input.
	ErrAdapterPanic = errors.New("imgpipe: adapter panicked")

	// ErrInvalidFrames is recorded when an adapter returns no frames or a
	// frame whose buffer does not match its dimensions.
	ErrInvalidFrames = errors.New("imgpipe: adapter returned invalid frames")

	// ErrSinkClosed is returned by sinks that no longer accept events.
	ErrSinkClosed = errors.New("imgpipe: sink closed")

	// ErrSinkFull is returned by a dropping ChanSink whose buffer is full.
	ErrSinkFull = errors.New("imgpipe: sink full, event dropped")
)

// ReadError reports a file that could not be read. Decoding never starts.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("could not read: %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRead.
func (e *ReadError) Is(target error) bool { return target == ErrRead }

// AdapterError is one adapter's reason for rejecting the input.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e AdapterError) Error() string {
	return e.Adapter + ": " + e.Err.Error()
}

// DecodeError is returned when every adapter failed. It matches
// ErrUnrecognizedFormat and each attempt's error.
type DecodeError struct {
	Attempts []AdapterError
}

func (e *DecodeError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrUnrecognizedFormat.Error()
	}
	reasons := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		reasons[i] = a.Error()
	}
	return ErrUnrecognizedFormat.Error() + " (" + strings.Join(reasons, "; ") + ")"
}

func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts)+1)
	errs = append(errs, ErrUnrecognizedFormat)
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
