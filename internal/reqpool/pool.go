// File: internal/reqpool/pool.go
// Author: momentics <momentics@gmail.com>
//
// Package reqpool implements the fixed-capacity Request pool and its three
// intrusive FIFOs (free/rx/tx). Requests are allocated once at Init and
// never again; ownership moves between queues by splicing shared
// index-based next/prev links over a single contiguous array, avoiding
// per-enqueue allocation and GC pressure.
package reqpool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/ioc-mediator/api"
)

const nilIdx = -1

// ownerNone marks a request currently held by a worker, not sitting on any queue.
const ownerNone = -1

// Request is a fixed-capacity byte buffer plus its routing metadata. It is
// never allocated after Pool construction.
type Request struct {
	Buf     []byte
	LinkLen int
	SrvLen  int
	Channel api.ChannelID
	Kind    api.RequestKind

	// NextQueue is the handler's post-processing routing decision: left at
	// its zero value (api.QueueFree) to recycle the request, or set to the
	// opposite direction's queue kind to have it forwarded there instead,
	// mirroring ioc.c's cbc_pkt.qtype.
	NextQueue api.QueueKind

	idx   int
	next  int
	prev  int
	owner int // api.QueueKind, or ownerNone while a worker holds it
}

// Idx returns this request's stable slot index within the pool, useful for
// logging and for the Enqueue calls that take an index rather than a pointer.
func (r *Request) Idx() int { return r.idx }

// Pool owns the backing array of Requests and the three FIFOs over it.
type Pool struct {
	reqs    []Request
	Free    *Queue
	Rx      *Queue
	Tx      *Queue
	closing atomic.Bool
}

// NewPool allocates capacity requests, each with a bufSize-byte buffer (large
// enough for one maximum link frame), and places them all on the free queue
// in index order.
func NewPool(capacity, bufSize int) *Pool {
	p := &Pool{reqs: make([]Request, capacity)}
	for i := range p.reqs {
		p.reqs[i] = Request{Buf: make([]byte, bufSize), idx: i, next: nilIdx, prev: nilIdx, owner: ownerNone}
	}
	p.Free = newQueue(api.QueueFree, p)
	p.Rx = newQueue(api.QueueRx, p)
	p.Tx = newQueue(api.QueueTx, p)
	for i := range p.reqs {
		p.Free.Enqueue(i, api.PosTail)
	}
	return p
}

// Capacity returns the pool's fixed size (the system's in-flight bound).
func (p *Pool) Capacity() int { return len(p.reqs) }

// Get returns the Request at idx. idx must come from a prior Dequeue call.
func (p *Pool) Get(idx int) *Request { return &p.reqs[idx] }

// SetClosing raises the shutdown flag and wakes both rx and tx waiters in
// one call. The mediator's own Deinit never uses this directly: it needs
// rx joined before tx is woken, so it calls MarkClosing plus the two
// Broadcast* methods in sequence instead. SetClosing is this package's own
// tests' shutdown path, where that ordering doesn't matter.
func (p *Pool) SetClosing() {
	p.closing.Store(true)
	p.Rx.broadcast()
	p.Tx.broadcast()
}

// MarkClosing raises the shutdown flag without waking anyone.
func (p *Pool) MarkClosing() { p.closing.Store(true) }

// BroadcastRx wakes any worker blocked in Rx.WaitDequeue.
func (p *Pool) BroadcastRx() { p.Rx.broadcast() }

// BroadcastTx wakes any worker blocked in Tx.WaitDequeue.
func (p *Pool) BroadcastTx() { p.Tx.broadcast() }

// Closing reports whether shutdown has been requested.
func (p *Pool) Closing() bool { return p.closing.Load() }

// Queue is one of the three FIFOs over Pool's shared backing array: free has
// no condition variable (producers only, consulted opportunistically);
// rx/tx each have one, signalled under their own mutex.
type Queue struct {
	kind api.QueueKind
	pool *Pool

	mu   sync.Mutex
	cond *sync.Cond // nil for the free queue
	head int
	tail int
	n    int
}

func newQueue(kind api.QueueKind, p *Pool) *Queue {
	q := &Queue{kind: kind, pool: p, head: nilIdx, tail: nilIdx}
	if kind != api.QueueFree {
		q.cond = sync.NewCond(&q.mu)
	}
	return q
}

// Kind reports which FIFO this is.
func (q *Queue) Kind() api.QueueKind { return q.kind }

// Len reports the current queue depth, for diagnostics/tests only; callers
// must not rely on it remaining accurate once the lock is released.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Enqueue splices the request at idx onto this queue at the given end, then
// signals exactly one waiter if this queue has a condition variable.
func (q *Queue) Enqueue(idx int, pos api.Position) {
	q.mu.Lock()
	q.spliceLocked(idx, pos)
	if q.cond != nil {
		q.cond.Signal()
	}
	q.mu.Unlock()
}

func (q *Queue) spliceLocked(idx int, pos api.Position) {
	r := &q.pool.reqs[idx]
	r.owner = int(q.kind)
	r.next, r.prev = nilIdx, nilIdx
	if q.head == nilIdx {
		q.head, q.tail = idx, idx
		q.n = 1
		return
	}
	switch pos {
	case api.PosTail:
		r.prev = q.tail
		q.pool.reqs[q.tail].next = idx
		q.tail = idx
	default: // PosHead
		r.next = q.head
		q.pool.reqs[q.head].prev = idx
		q.head = idx
	}
	q.n++
}

func (q *Queue) popHeadLocked() int {
	idx := q.head
	r := &q.pool.reqs[idx]
	q.head = r.next
	if q.head == nilIdx {
		q.tail = nilIdx
	} else {
		q.pool.reqs[q.head].prev = nilIdx
	}
	r.next, r.prev = nilIdx, nilIdx
	r.owner = ownerNone
	q.n--
	return idx
}

// DequeueFree is the free queue's non-blocking pop-head; ok is false when
// empty. Only valid on the free queue; rx/tx dequeue is inlined into
// WaitDequeue to combine the pop with the condition wait.
func (q *Queue) DequeueFree() (idx int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == nilIdx {
		return nilIdx, false
	}
	return q.popHeadLocked(), true
}

// WaitDequeue blocks until this queue (rx or tx) is non-empty or the pool's
// closing flag is set, whichever comes first. The closing flag is checked
// both before the first wait and on every wakeup, so a worker never blocks
// once shutdown has been requested and never processes after waking into a
// shutdown that raced the condition signal.
func (q *Queue) WaitDequeue() (idx int, ok bool) {
	q.mu.Lock()
	for {
		if q.pool.closing.Load() {
			q.mu.Unlock()
			return nilIdx, false
		}
		if q.head != nilIdx {
			break
		}
		q.cond.Wait()
	}
	idx = q.popHeadLocked()
	q.mu.Unlock()
	return idx, true
}

func (q *Queue) broadcast() {
	if q.cond == nil {
		return
	}
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}
