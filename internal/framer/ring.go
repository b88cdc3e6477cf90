// File: internal/framer/ring.go
// Author: momentics <momentics@gmail.com>
//
// Package framer implements the CBC byte-stream accumulator: virtual-UART
// bytes land in a power-of-two ring buffer, get parsed into link frames by
// a Codec, and become Requests on the rx queue. Grounded on pool/ring.go's
// mask-indexed ring (power-of-two size, head/tail counters) generalized
// from a generic item ring to a raw byte ring; the mediator only ever
// touches it from the core thread, so unlike pool/ring.go it needs no
// atomics.
package framer

// Ring is a single-producer single-consumer byte ring buffer. Capacity must
// be a power of two; callers copy bytes in with CopyToRing and consume them by
// peeking and then calling Advance.
type Ring struct {
	buf  []byte
	mask int
	head int // next byte to be read
	tail int // next free slot to be written
	n    int // bytes currently held
}

// NewRing allocates a ring of the given capacity, which must be a power of
// two.
func NewRing(capacity int) *Ring {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("framer: ring capacity must be a power of two")
	}
	return &Ring{buf: make([]byte, capacity), mask: capacity - 1}
}

// Cap reports the ring's fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Len reports the number of unconsumed bytes currently held.
func (r *Ring) Len() int { return r.n }

// Free reports how many additional bytes may be copied in before the ring
// is full.
func (r *Ring) Free() int { return len(r.buf) - r.n }

// CopyToRing appends as much of data as fits; it returns the number of
// bytes actually copied, which may be less than len(data) if the ring is
// nearly full.
func (r *Ring) CopyToRing(data []byte) int {
	n := len(data)
	if n > r.Free() {
		n = r.Free()
	}
	for i := 0; i < n; i++ {
		r.buf[r.tail] = data[i]
		r.tail = (r.tail + 1) & r.mask
	}
	r.n += n
	return n
}

// PeekByte returns the i-th unconsumed byte without removing it. i must be
// less than Len(); callers (the Codec) are responsible for bounds checking
// via RingReader.Len() first, as api.RingReader documents.
func (r *Ring) PeekByte(i int) byte {
	return r.buf[(r.head+i)&r.mask]
}

// Advance discards n bytes from the head of the ring, used both to consume
// a successfully parsed frame and to skip one byte of a malformed frame
// during recovery.
func (r *Ring) Advance(n int) {
	if n > r.n {
		n = r.n
	}
	r.head = (r.head + n) & r.mask
	r.n -= n
}
