// Package broadcast implements C5 of the LPX pipeline: a TCP server that
// accepts clients, drives the video/scan pipeline via the accept/video/
// broadcast thread model in spec.md section 4.4, and relays movement
// commands from any connected client back to the shared optical center.
package broadcast

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/rascol/lpximage"
	"github.com/rascol/lpximage/encode"
	"github.com/rascol/lpximage/source"
)

// Server owns the TCP listener, the client set, and the outbound frame
// queue described in spec.md section 4.4. It satisfies source.Sink, so a
// *source.Driver can be handed a Server directly as its sink.
type Server struct {
	listener *net.TCPListener
	tables   *lpx.ScanTables
	center   *lpx.Center
	outW     int
	outH     int
	logger   *log.Logger

	queue *frameQueue

	mu      sync.Mutex
	clients map[*client]struct{}

	restartPending atomic.Bool
	looping        atomic.Bool

	framesBroadcast atomic.Int64

	stop          chan struct{}
	stopOnce      sync.Once
	acceptDone    chan struct{}
	broadcastDone chan struct{}
	videoDone     chan struct{}

	startedAt time.Time
}

// NewServer binds a TCP listener on addr (e.g. ":8080") and constructs a
// Server ready to have ListenAndServe called with a driver. tables is
// consulted for Movement Application clamping (spec.md section 4.5) and
// the max-cells header field (spec.md section 4.6).
func NewServer(addr string, tables *lpx.ScanTables, center *lpx.Center, outW, outH int, loopVideo bool, logger *log.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("lpx/broadcast: listening on %s: %w", addr, err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("lpx/broadcast: %s did not yield a TCP listener", addr)
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		listener:      tcpLn,
		tables:        tables,
		center:        center,
		outW:          outW,
		outH:          outH,
		logger:        logger,
		queue:         newFrameQueue(),
		clients:       make(map[*client]struct{}),
		stop:          make(chan struct{}),
		acceptDone:    make(chan struct{}),
		broadcastDone: make(chan struct{}),
		videoDone:     make(chan struct{}),
		startedAt:     time.Now(),
	}
	s.looping.Store(loopVideo)
	return s, nil
}

// Addr returns the listener's bound address, useful when addr was
// ":0" (an ephemeral port) in tests.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ListenAndServe launches the accept, video, and broadcast threads per
// spec.md section 4.4 and returns immediately; call Stop to shut down.
func (s *Server) ListenAndServe(driver *source.Driver) {
	go func() {
		defer close(s.acceptDone)
		if err := s.runAccept(); err != nil {
			s.logger.Printf("lpx/broadcast: accept loop: %v", err)
		}
	}()
	go func() {
		defer close(s.broadcastDone)
		if err := s.runBroadcast(); err != nil {
			s.logger.Printf("lpx/broadcast: broadcast loop: %v", err)
		}
	}()
	go func() {
		defer close(s.videoDone)
		if err := driver.Run(s.stop); err != nil {
			s.logger.Printf("lpx/broadcast: video loop: %v", err)
		}
	}()
}

// Wait blocks until the video thread — the last thread Stop joins — has
// exited, letting a caller coordinate shutdown via errgroup alongside a
// signal-driven Stop call.
func (s *Server) Wait() {
	<-s.videoDone
}

// Stop implements spec.md section 4.4's shutdown ordering precisely:
// stop the queue wait and video loop, close the listener, join broadcast
// and accept (so neither writes to a closing socket), only then shut
// down and close every client socket, and finally join the video thread.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		_ = s.listener.Close()

		<-s.acceptDone
		<-s.broadcastDone

		s.mu.Lock()
		for c := range s.clients {
			c.close()
			delete(s.clients, c)
		}
		s.mu.Unlock()

		<-s.videoDone
	})
}

func (s *Server) runAccept() error {
	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		c, err := newClient(conn)
		if err != nil {
			conn.Close()
			continue
		}

		s.mu.Lock()
		first := len(s.clients) == 0
		s.clients[c] = struct{}{}
		s.mu.Unlock()

		if first {
			s.restartPending.Store(true)
			s.queue.drain()
		}
		s.logger.Printf("lpx/broadcast: client connected from %s (first=%v)", conn.RemoteAddr(), first)
	}
}

func (s *Server) runBroadcast() error {
	for {
		frame, ok := s.queue.dequeue(s.stop)
		if !ok {
			return nil
		}
		s.framesBroadcast.Add(1)
		s.broadcastFrame(frame)
	}
}

// broadcastFrame implements spec.md section 4.4's per-client broadcast
// step: poll for a movement command, apply it, then send the frame;
// clients whose read or write fails are marked and removed together
// after the pass completes.
func (s *Server) broadcastFrame(frame *lpx.Frame) {
	maxCells := s.tables.TotalCells()

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		cmd, got, err := c.pollMovement()
		if err != nil {
			c.removed = true
			continue
		}
		if got {
			lpx.ApplyMovement(s.center, cmd, s.tables.MapWidth, s.outW, s.outH)
		}
		if err := c.sendFrame(frame, maxCells); err != nil {
			c.removed = true
		}
	}

	dead := lo.Filter(lo.Keys(s.clients), func(c *client, _ int) bool { return c.removed })
	for _, c := range dead {
		delete(s.clients, c)
		c.close()
	}
}

// Enqueue implements source.Sink.
func (s *Server) Enqueue(frame *lpx.Frame) {
	s.queue.enqueue(frame)
}

// HasClients implements source.Sink.
func (s *Server) HasClients() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) > 0
}

// ConsumeRestart implements source.Sink.
func (s *Server) ConsumeRestart() bool {
	return s.restartPending.Swap(false)
}

// ClientCount returns the current client-set cardinality, per spec.md
// section 4.4.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// SetLooping implements spec.md section 4.4's atomic set_looping(bool).
func (s *Server) SetLooping(looping bool) {
	s.looping.Store(looping)
}

// Looping reports the current loop setting; suitable as a Driver's
// LoopVideo callback.
func (s *Server) Looping() bool {
	return s.looping.Load()
}

// Status returns the QA snapshot supplemented in SPEC_FULL.md.
func (s *Server) Status() encode.Status {
	s.mu.Lock()
	clientCount := len(s.clients)
	s.mu.Unlock()

	return encode.Status{
		ClientCount:   clientCount,
		FramesSent:    s.framesBroadcast.Load(),
		FramesDropped: s.queue.dropped.Load(),
		CenterX:       s.center.X,
		CenterY:       s.center.Y,
		StartedAt:     s.startedAt,
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
}
