package imgpipe

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/imgpipe/format"
)

// stateLog records hook transitions per request.
type stateLog struct {
	mu     sync.Mutex
	states map[uuid.UUID][]State
}

func newStateLog() *stateLog {
	return &stateLog{states: make(map[uuid.UUID][]State)}
}

func (l *stateLog) hook(id uuid.UUID, s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = append(l.states[id], s)
}

func (l *stateLog) get(id uuid.UUID) []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states[id]...)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func receive(t *testing.T, sink *ChanSink) Event {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(10 * time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func equalStates(a, b []State) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func TestLoaderSuccess(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.png", encodePNG(t, solid(3, 2, color.NRGBA{R: 7, A: 255})))
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	states := newStateLog()
	sink := NewChanSink(1)
	l := NewLoader(sink, WithStateHook(states.hook), WithClock(func() time.Time { return start }))

	id := l.Load(path)
	ev := receive(t, sink)
	l.Wait()

	loaded, ok := ev.(ImageLoaded)
	if !ok {
		t.Fatalf("event = %T (%v), want ImageLoaded", ev, ev)
	}
	if loaded.ID != id || loaded.Path != path || !loaded.Start.Equal(start) || loaded.Format != format.PNG {
		t.Errorf("event = %+v", loaded)
	}
	if len(loaded.Frames) != 1 || loaded.Frames[0].Pix[0] != 7 {
		t.Errorf("frames = %d", len(loaded.Frames))
	}
	want := []State{StateRequested, StateReading, StateDecoding, StateDelivered}
	if got := states.get(id); !equalStates(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
}

func TestLoaderReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")
	states := newStateLog()
	sink := NewChanSink(1)
	l := NewLoader(sink, WithStateHook(states.hook))

	id := l.Load(path)
	ev := receive(t, sink)
	l.Wait()

	failed, ok := ev.(ImageError)
	if !ok {
		t.Fatalf("event = %T, want ImageError", ev)
	}
	if failed.ID != id || failed.Message != "could not read: "+path {
		t.Errorf("event = %+v", failed)
	}
	if !errors.Is(failed.Err, ErrRead) || !errors.Is(failed.Err, os.ErrNotExist) {
		t.Errorf("Err = %v, want ErrRead wrapping ErrNotExist", failed.Err)
	}
	var re *ReadError
	if !errors.As(failed.Err, &re) || re.Path != path {
		t.Errorf("Err = %#v, want *ReadError for %s", failed.Err, path)
	}
	want := []State{StateRequested, StateReading, StateDelivered}
	if got := states.get(id); !equalStates(got, want) {
		t.Errorf("states = %v, want %v (decoding must be skipped)", got, want)
	}
}

func TestLoaderDecodeError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "junk.bin", []byte("not an image at all"))
	sink := NewChanSink(1)
	l := NewLoader(sink)
	l.Load(path)
	ev := receive(t, sink)

	failed, ok := ev.(ImageError)
	if !ok {
		t.Fatalf("event = %T, want ImageError", ev)
	}
	if failed.Message != "error decoding image: "+path {
		t.Errorf("Message = %q", failed.Message)
	}
	if !errors.Is(failed.Err, ErrUnrecognizedFormat) {
		t.Errorf("Err = %v, want ErrUnrecognizedFormat", failed.Err)
	}
}

func TestLoaderClosedSink(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.png", encodePNG(t, solid(1, 1, color.NRGBA{A: 255})))
	sink := NewChanSink(0)
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	states := newStateLog()
	l := NewLoader(sink, WithStateHook(states.hook))
	id := l.Load(path)

	done := make(chan struct{})
	go func() { l.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("load blocked on a closed sink")
	}
	if got := states.get(id); len(got) == 0 || got[len(got)-1] != StateDelivered {
		t.Errorf("states = %v, want to end delivered", got)
	}
	if err := sink.Send(ImageError{}); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Send() after Close = %v, want ErrSinkClosed", err)
	}
}

func TestDroppingChanSink(t *testing.T) {
	sink := NewDroppingChanSink(1)
	if err := sink.Send(ImageError{Path: "a"}); err != nil {
		t.Fatalf("first Send() = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- sink.Send(ImageError{Path: "b"}) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrSinkFull) {
			t.Errorf("Send() on a full sink = %v, want ErrSinkFull", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Send() blocked on a full dropping sink")
	}
	if ev := <-sink.Events(); ev.SourcePath() != "a" {
		t.Errorf("received %q, want the first event", ev.SourcePath())
	}

	_ = sink.Close()
	if err := sink.Send(ImageError{}); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Send() after Close = %v, want ErrSinkClosed", err)
	}
}

func TestLoaderUnreadDroppingSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewDroppingChanSink(1)
	states := newStateLog()
	l := NewLoader(sink, WithStateHook(states.hook))
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = l.Load(filepath.Join(dir, fmt.Sprintf("missing%d", i)))
	}

	done := make(chan struct{})
	go func() { l.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Wait() blocked on a sink nobody reads")
	}
	for _, id := range ids {
		if got := states.get(id); len(got) == 0 || got[len(got)-1] != StateDelivered {
			t.Errorf("states(%v) = %v, want to end delivered", id, got)
		}
	}
	if n := len(sink.Events()); n != 1 {
		t.Errorf("buffered events = %d, want 1", n)
	}
}

func TestLoaderNilSink(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.png", encodePNG(t, solid(1, 1, color.NRGBA{A: 255})))
	states := newStateLog()
	l := NewLoader(nil, WithStateHook(states.hook))
	id := l.Load(path)
	l.Wait()
	if got := states.get(id); len(got) == 0 || got[len(got)-1] != StateDelivered {
		t.Errorf("states = %v, want to end delivered", got)
	}
}

func TestLoaderSinkFunc(t *testing.T) {
	var mu sync.Mutex
	var got []Event
	sink := SinkFunc(func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return errors.New("consumer gone")
	})
	l := NewLoader(sink)
	l.Load(filepath.Join(t.TempDir(), "nope"))
	l.Wait()
	if len(got) != 1 {
		t.Errorf("events = %d, want 1", len(got))
	}
}

func TestLoaderConcurrent(t *testing.T) {
	const n = 24
	dir := t.TempDir()
	type request struct {
		path string
		sum  [32]byte
	}
	requests := make(map[uuid.UUID]request, n)

	sink := NewChanSink(n)
	l := NewLoader(sink)
	paths := make([]string, n)
	sums := make([][32]byte, n)
	for i := range n {
		img := solid(4+i, 3, color.NRGBA{R: uint8(i), G: uint8(255 - i), B: uint8(i * 7), A: 255})
		paths[i] = writeFile(t, dir, fmt.Sprintf("img%02d.png", i), encodePNG(t, img))
		sums[i] = sha256.Sum256(img.Pix)
	}
	for i := range n {
		requests[l.Load(paths[i])] = request{path: paths[i], sum: sums[i]}
	}
	l.Wait()

	seen := make(map[uuid.UUID]bool, n)
	for range n {
		ev := receive(t, sink)
		loaded, ok := ev.(ImageLoaded)
		if !ok {
			t.Fatalf("event = %T (%v), want ImageLoaded", ev, ev)
		}
		req, ok := requests[loaded.ID]
		if !ok || seen[loaded.ID] {
			t.Fatalf("unexpected or duplicate event for %s", loaded.ID)
		}
		seen[loaded.ID] = true
		if loaded.Path != req.path {
			t.Errorf("path = %s, want %s", loaded.Path, req.path)
		}
		if sum := sha256.Sum256(loaded.Frames[0].Pix); sum != req.sum {
			t.Errorf("%s: pixel checksum mismatch", req.path)
		}
	}
	select {
	case ev := <-sink.Events():
		t.Errorf("extra event %v", ev)
	default:
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateRequested, "requested"},
		{StateReading, "reading"},
		{StateDecoding, "decoding"},
		{StateDelivered, "delivered"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
