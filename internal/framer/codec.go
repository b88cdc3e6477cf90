// File: internal/framer/codec.go
// Author: momentics <momentics@gmail.com>
//
// Default link-frame codec. The exact on-wire bit layout is treated as an
// externally supplied interface: ioc.c assigns the real encode/decode as
// opaque function pointers (cbc_rx_handler/cbc_tx_handler) that never appear
// in the filtered source. This is a concrete, self-consistent default: a
// delimiter byte, a one-byte service-payload length, the payload itself,
// and a trailing XOR checksum. Grounded on protocol/frame_codec.go's
// incomplete-vs-malformed-vs-complete parse shape (length-prefixed, returns
// early on a short buffer rather than erroring).
package framer

import "github.com/momentics/ioc-mediator/api"

const (
	linkDelimiter = 0xAA
	linkHeaderLen = 2 // delimiter + length byte
	linkTrailer   = 1 // checksum byte
	maxSrvLen     = 250
)

// DefaultCodec is the link-frame codec used when no other is configured.
type DefaultCodec struct{}

// HeaderLen is the number of bytes needed before the service payload length
// is known.
func (DefaultCodec) HeaderLen() int { return linkHeaderLen }

// MaxLinkFrame is the largest possible encoded link frame.
func (DefaultCodec) MaxLinkFrame() int { return linkHeaderLen + maxSrvLen + linkTrailer }

// Parse implements api.Codec over a ring's unconsumed bytes.
func (c DefaultCodec) Parse(r api.RingReader) api.ParseResult {
	if r.Len() < linkHeaderLen {
		return api.ParseResult{Status: api.ParseIncomplete}
	}
	if r.PeekByte(0) != linkDelimiter {
		return api.ParseResult{Status: api.ParseMalformed}
	}
	srvLen := int(r.PeekByte(1))
	linkLen := linkHeaderLen + srvLen + linkTrailer
	if srvLen > maxSrvLen {
		return api.ParseResult{Status: api.ParseMalformed}
	}
	if r.Len() < linkLen {
		return api.ParseResult{Status: api.ParseIncomplete}
	}
	var sum byte
	for i := 0; i < srvLen; i++ {
		sum ^= r.PeekByte(linkHeaderLen + i)
	}
	if sum != r.PeekByte(linkHeaderLen+srvLen) {
		return api.ParseResult{Status: api.ParseMalformed}
	}
	return api.ParseResult{
		Status:  api.ParseComplete,
		LinkLen: linkLen,
		SrvOff:  linkHeaderLen,
		SrvLen:  srvLen,
	}
}

// Encode builds a link frame wrapping payload into dst[:0], returning the
// extended slice. It errors if payload exceeds the service-frame limit.
func (c DefaultCodec) Encode(dst []byte, payload []byte) ([]byte, error) {
	if len(payload) > maxSrvLen {
		return nil, api.ErrInvalidArgument
	}
	dst = dst[:0]
	dst = append(dst, linkDelimiter, byte(len(payload)))
	dst = append(dst, payload...)
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	dst = append(dst, sum)
	return dst, nil
}
