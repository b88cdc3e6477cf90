// File: internal/diag/ticker.go
// Author: momentics <momentics@gmail.com>
//
// Periodic stats-logging task dispatch, grounded on
// internal/concurrency/executor.go: a single FIFO task queue drained by one
// background goroutine. Unlike the executor's hot-path task dispatch, this
// queue only ever carries a handful of low-frequency diagnostic tasks (one
// aggregate stats line per tick, plus the mediator's per-channel state
// log), so a single worker over github.com/eapache/queue is sufficient.
package diag

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/momentics/ioc-mediator/internal/logging"
)

// TaskFunc is a unit of deferred diagnostic work.
type TaskFunc func()

// Ticker runs periodic stats-logging and ad hoc diagnostic tasks on a single
// background goroutine, so callers never block the core/rx/tx threads.
type Ticker struct {
	mu     sync.Mutex
	q      *queue.Queue
	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

// NewTicker starts the background dispatch goroutine.
func NewTicker() *Ticker {
	t := &Ticker{
		q:      queue.New(),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Submit enqueues a task for later execution; never blocks.
func (t *Ticker) Submit(fn TaskFunc) {
	t.mu.Lock()
	t.q.Add(fn)
	t.mu.Unlock()
	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// StartPeriodicLog submits a snapshot-logging task to the queue every
// interval until Close is called.
func (t *Ticker) StartPeriodicLog(s *Stats, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				t.Submit(func() {
					snap := s.Snapshot()
					logging.Infof("mediator stats: drops=%d malformed=%d rx=%d tx=%d",
						snap.Drops, snap.Malformed, snap.FramesRx, snap.FramesTx)
				})
			}
		}
	}()
}

func (t *Ticker) run() {
	defer close(t.done)
	for {
		select {
		case <-t.stop:
			t.drain()
			return
		case <-t.notify:
			t.drain()
		}
	}
}

func (t *Ticker) drain() {
	for {
		t.mu.Lock()
		if t.q.Length() == 0 {
			t.mu.Unlock()
			return
		}
		item := t.q.Remove()
		t.mu.Unlock()
		if fn, ok := item.(TaskFunc); ok {
			fn()
		}
	}
}

// Close stops the dispatch goroutine and waits for it to exit.
func (t *Ticker) Close() {
	close(t.stop)
	<-t.done
}
