package source

import (
	"sync"
	"testing"
	"time"

	"github.com/rascol/lpximage"
)

// fakeScanner records every (cx, cy) it is asked to scan and returns an
// empty frame.
type fakeScanner struct {
	mu    sync.Mutex
	calls [][2]float64
}

func (s *fakeScanner) Scan(img *lpx.Image, cx, cy float64) (*lpx.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, [2]float64{cx, cy})
	return lpx.NewFrame(0, 1, int32(img.Width), int32(img.Height)), nil
}

func (s *fakeScanner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeSink records enqueued frames and lets a test control HasClients and
// the one-shot restart flag.
type fakeSink struct {
	mu           sync.Mutex
	frames       int
	hasClients   bool
	restartOnce  bool
	restartCalls int
}

func (s *fakeSink) Enqueue(frame *lpx.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
}

func (s *fakeSink) HasClients() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasClients
}

func (s *fakeSink) ConsumeRestart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartCalls++
	if s.restartOnce {
		s.restartOnce = false
		return true
	}
	return false
}

func (s *fakeSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func TestDriverRunIdlesWithoutClients(t *testing.T) {
	dec := &SolidColorSource{Width: 2, Height: 2, Count: 5, Rate: 10}
	scanner := &fakeScanner{}
	sink := &fakeSink{hasClients: false}
	center := &lpx.Center{}

	d := NewDriver(dec, scanner, sink, center, 2, 2, 10, nil)
	d.noClientPoll = time.Millisecond
	d.sleeper = func(time.Duration) {}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- d.Run(stop) }()

	time.Sleep(5 * time.Millisecond)
	close(stop)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scanner.callCount() != 0 {
		t.Errorf("scanner called %d times while no clients connected, want 0", scanner.callCount())
	}
}

func TestDriverRunConsumesWholeStreamWithoutLooping(t *testing.T) {
	dec := &SolidColorSource{Width: 2, Height: 2, Count: 3, Rate: 1000}
	scanner := &fakeScanner{}
	sink := &fakeSink{hasClients: true}
	center := &lpx.Center{}

	d := NewDriver(dec, scanner, sink, center, 2, 2, 0, nil)
	d.sleeper = func(time.Duration) {}

	stop := make(chan struct{})
	if err := d.Run(stop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scanner.callCount() != 3 {
		t.Errorf("scanner called %d times, want 3", scanner.callCount())
	}
	if sink.frameCount() != 3 {
		t.Errorf("sink received %d frames, want 3", sink.frameCount())
	}
}

func TestDriverRunLoopsOnEndOfStream(t *testing.T) {
	dec := &SolidColorSource{Width: 2, Height: 2, Count: 2, Rate: 1000}
	scanner := &fakeScanner{}
	sink := &fakeSink{hasClients: true}
	center := &lpx.Center{}

	loopCount := 0
	loopVideo := func() bool {
		loopCount++
		return loopCount <= 1 // loop exactly once, then stop
	}

	d := NewDriver(dec, scanner, sink, center, 2, 2, 0, loopVideo)
	d.sleeper = func(time.Duration) {}

	stop := make(chan struct{})
	if err := d.Run(stop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scanner.callCount() != 4 {
		t.Errorf("scanner called %d times across two passes, want 4", scanner.callCount())
	}
}

func TestDriverRunRestartsOnFirstClient(t *testing.T) {
	// The decoder starts past its only frame, so it yields a frame only if
	// the driver seeks it back to the start first.
	dec := &SolidColorSource{Width: 2, Height: 2, Count: 1, Rate: 1000, idx: 1}
	scanner := &fakeScanner{}
	sink := &fakeSink{hasClients: true, restartOnce: true}
	center := &lpx.Center{}

	d := NewDriver(dec, scanner, sink, center, 2, 2, 0, nil)
	d.sleeper = func(time.Duration) {}

	stop := make(chan struct{})
	if err := d.Run(stop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scanner.callCount() != 1 {
		t.Errorf("scanner called %d times, want 1 (frame 0 read after seek-to-start)", scanner.callCount())
	}
	if dec.idx != 1 {
		t.Errorf("decoder consumed %d frames, want 1 (seek-to-start then re-read)", dec.idx)
	}
}
