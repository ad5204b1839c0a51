package broadcast

import (
	"sync/atomic"

	"github.com/rascol/lpximage"
)

// frameQueue is the bounded, lossy single-producer/single-consumer pipe
// between the scan producer (video thread) and the broadcast thread,
// per spec.md section 5's "Outbound queue" shared-resource policy:
// capacity 3, oldest evicted on overflow, the producer never blocks.
// A buffered channel plus a non-blocking eviction dance gives the same
// guarantee idiomatically, without a condition variable.
type frameQueue struct {
	ch      chan *lpx.Frame
	dropped atomic.Int64
}

const queueCapacity = 3

func newFrameQueue() *frameQueue {
	return &frameQueue{
		ch: make(chan *lpx.Frame, queueCapacity),
	}
}

// enqueue never blocks. When the queue is full it evicts the oldest
// pending frame before pushing, per spec.md section 5.
func (q *frameQueue) enqueue(f *lpx.Frame) {
	select {
	case q.ch <- f:
		return
	default:
	}

	select {
	case <-q.ch:
		q.dropped.Add(1)
	default:
	}

	select {
	case q.ch <- f:
	default:
		// lost a race with the consumer draining concurrently; drop f,
		// which is equivalent to evicting it immediately after enqueue.
		q.dropped.Add(1)
	}
}

// dequeue blocks until a frame is available or stop is closed.
func (q *frameQueue) dequeue(stop <-chan struct{}) (*lpx.Frame, bool) {
	select {
	case f := <-q.ch:
		return f, true
	case <-stop:
		return nil, false
	}
}

// drain discards any pending frames, used when the first client connects
// and the video thread is about to restart from frame 0 (spec.md section
// 4.3's "flushes the outbound queue").
func (q *frameQueue) drain() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
