// Package source implements C4 of the LPX pipeline: a driver loop that
// pulls decoded frames from a video file at a target cadence and feeds
// them to a scan engine, with gapless looping and hot restart. The actual
// video-decoding library is out of scope (spec.md section 1 treats it as
// an abstract Decoder); this package only normalizes whatever a Decoder
// produces into the rectangular pixel buffer the scan engine expects.
package source

import (
	"errors"
	"io"
	"time"

	"github.com/rascol/lpximage"
)

// ErrEndOfStream is returned by Decoder.ReadFrame when the underlying
// video has no more frames and is not an error condition by itself; the
// driver loop either loops or stops depending on configuration.
var ErrEndOfStream = io.EOF

// Decoder is the abstract video-decoding collaborator described in
// spec.md section 4.3: it need only support sequential reads, a restart,
// and reporting its native geometry and cadence.
type Decoder interface {
	// ReadFrame returns the next decoded frame in BGR channel order, or
	// ErrEndOfStream when the stream is exhausted.
	ReadFrame() (*lpx.Image, error)
	// SeekToStart rewinds the stream so the next ReadFrame returns frame 0.
	SeekToStart() error
	FrameRate() float64
	FrameCount() int
	NativeWidth() int
	NativeHeight() int
	Close() error
}

// Scanner is the subset of *lpx.ScanEngine the driver loop depends on,
// named so tests can substitute a fake.
type Scanner interface {
	Scan(img *lpx.Image, cx, cy float64) (*lpx.Frame, error)
}

// Sink receives scanned frames for broadcast. Enqueue must not block the
// caller indefinitely; a bounded, lossy implementation (spec.md's
// capacity-3 SPMC queue) is expected.
type Sink interface {
	Enqueue(frame *lpx.Frame)
	HasClients() bool
	// ConsumeRestart reports and clears a pending restart request raised
	// when the first client connects (spec.md section 4.3).
	ConsumeRestart() bool
}

// Driver runs the video thread's loop described in spec.md section 4.3:
// it restarts on demand, idles while no clients are connected, paces
// itself to TargetFPS (falling back to the decoder's native rate when
// TargetFPS <= 0), and enqueues one scanned frame per decoded frame.
type Driver struct {
	Decoder   Decoder
	Scanner   Scanner
	Sink      Sink
	Center    *lpx.Center
	OutWidth  int
	OutHeight int
	TargetFPS float64
	LoopVideo func() bool // sampled each iteration; nil means "never loop"

	// noClientPoll is the idle sleep while no client is connected.
	noClientPoll time.Duration
	sleeper      func(time.Duration)
	now          func() time.Time
}

// NewDriver builds a Driver with production pacing (20ms idle poll, real
// time.Sleep/time.Now). Tests override noClientPoll/sleeper/now directly.
func NewDriver(dec Decoder, scanner Scanner, sink Sink, center *lpx.Center, outW, outH int, targetFPS float64, loopVideo func() bool) *Driver {
	return &Driver{
		Decoder:      dec,
		Scanner:      scanner,
		Sink:         sink,
		Center:       center,
		OutWidth:     outW,
		OutHeight:    outH,
		TargetFPS:    targetFPS,
		LoopVideo:    loopVideo,
		noClientPoll: 20 * time.Millisecond,
		sleeper:      time.Sleep,
		now:          time.Now,
	}
}

// Run executes the driver loop until stop is closed. Per spec.md section
// 4.3, the first produced frame after a (re)start is never delayed by FPS
// pacing, because the source's original FPS controller measured elapsed
// time from thread start and produced a spurious multi-second sleep on
// its first iteration; last is updated after the pacing sleep, not
// before, which is the resolution spec.md section 9 calls out explicitly.
func (d *Driver) Run(stop <-chan struct{}) error {
	fps := d.TargetFPS
	if fps <= 0 {
		fps = d.Decoder.FrameRate()
	}
	var interval time.Duration
	if fps > 0 {
		interval = time.Duration(float64(time.Second) / fps)
	}

	last := d.now()
	firstFrame := true

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if d.Sink.ConsumeRestart() {
			if err := d.Decoder.SeekToStart(); err != nil {
				return err
			}
		}

		if !d.Sink.HasClients() {
			d.sleeper(d.noClientPoll)
			continue
		}

		img, err := d.Decoder.ReadFrame()
		if errors.Is(err, ErrEndOfStream) {
			shouldLoop := d.LoopVideo != nil && d.LoopVideo()
			if shouldLoop {
				if err := d.Decoder.SeekToStart(); err != nil {
					return err
				}
				continue
			}
			return nil
		}
		if err != nil {
			return err
		}

		FlipChannels(img)
		resized := Resize(img, d.OutWidth, d.OutHeight)
		FlipChannels(resized)

		cx := float64(d.OutWidth)/2 + d.Center.X
		cy := float64(d.OutHeight)/2 + d.Center.Y
		frame, err := d.Scanner.Scan(resized, cx, cy)
		if err == nil {
			d.Sink.Enqueue(frame)
		}

		if !firstFrame && interval > 0 {
			elapsed := d.now().Sub(last)
			if sleepFor := interval - elapsed; sleepFor > 0 {
				d.sleeper(sleepFor)
			}
		}
		last = d.now()
		firstFrame = false
	}
}
