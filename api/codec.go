// File: api/codec.go
// Author: momentics <momentics@gmail.com>
//
// Codec is the published interface to the CBC link-layer byte format. Its
// bit-level details (delimiters, length fields, checksum) are treated as an
// opaque, swappable implementation detail per the mediator's scope; only
// the shape of the contract lives here.

package api

// ParseStatus reports the outcome of inspecting the ring head for a complete
// link frame.
type ParseStatus int

const (
	// ParseIncomplete: not enough bytes buffered yet; wait for more input.
	ParseIncomplete ParseStatus = iota
	// ParseComplete: a well-formed link frame sits at the ring head.
	ParseComplete
	// ParseMalformed: the byte at the ring head cannot start a valid frame.
	ParseMalformed
)

// RingReader exposes read-only access to a byte ring's logical head without
// consuming it, so a Codec can look ahead before the framer commits to
// advancing the head.
type RingReader interface {
	// Len reports how many bytes are currently buffered.
	Len() int
	// PeekByte returns the i-th byte counting from the head (i must be < Len()).
	PeekByte(i int) byte
}

// ParseResult describes what Parse found at the ring head.
type ParseResult struct {
	Status ParseStatus
	// LinkLen is the total length of the link frame, including any framing
	// overhead. Only meaningful when Status == ParseComplete.
	LinkLen int
	// SrvOff is the offset of the service frame payload within the link frame.
	SrvOff int
	// SrvLen is the length of the service frame payload.
	SrvLen int
}

// Codec decodes/encodes CBC link frames. Implementations must be stateless
// across calls: all accumulation state lives in the ring the framer owns.
type Codec interface {
	// Parse inspects the bytes currently available at the ring head and
	// reports whether a complete link frame is present.
	Parse(r RingReader) ParseResult

	// MaxLinkFrame bounds the largest link frame this codec will ever
	// report as ParseComplete; callers size buffers accordingly.
	MaxLinkFrame() int

	// HeaderLen is the compile-time-constant link header size preceding the
	// service frame payload within every link frame.
	HeaderLen() int

	// Encode serializes a service-frame payload into a wire-ready link frame
	// written into dst[:0] (dst may be nil; its previous contents are
	// discarded), returning the resulting slice.
	Encode(dst []byte, payload []byte) ([]byte, error)
}
