// File: internal/framer/service.go
// Author: momentics <momentics@gmail.com>
//
// Service-frame layout: the payload a link frame's SrvOff/SrvLen carries is
// itself a list of signal elements, each independently admissible through
// the whitelist. Treated as an externally supplied format too, given a
// concrete default shape here: one count byte, then repeated {GroupID,
// SignalID, valueLen, value} records, group/signal ids big-endian per
// protocol/frame_codec.go's network-order convention.
package framer

import (
	"encoding/binary"

	"github.com/momentics/ioc-mediator/api"
	"github.com/momentics/ioc-mediator/internal/config"
)

// Element is one signal's value as carried inside a service frame.
type Element struct {
	Group  config.GroupID // 0 when the signal is not carried as part of a group
	Signal config.SignalID
	Value  []byte
}

const elemHeaderLen = 5 // group(2) + signal(2) + valueLen(1)

// DecodeService parses buf into its constituent signal elements. A
// truncated or short element aborts decoding with ErrInvalidArgument,
// treated by callers as a malformed frame.
func DecodeService(buf []byte) ([]Element, error) {
	if len(buf) < 1 {
		return nil, api.ErrInvalidArgument
	}
	count := int(buf[0])
	off := 1
	elems := make([]Element, 0, count)
	for i := 0; i < count; i++ {
		if off+elemHeaderLen > len(buf) {
			return nil, api.ErrInvalidArgument
		}
		grp := config.GroupID(binary.BigEndian.Uint16(buf[off:]))
		sig := config.SignalID(binary.BigEndian.Uint16(buf[off+2:]))
		vlen := int(buf[off+4])
		off += elemHeaderLen
		if off+vlen > len(buf) {
			return nil, api.ErrInvalidArgument
		}
		elems = append(elems, Element{Group: grp, Signal: sig, Value: buf[off : off+vlen]})
		off += vlen
	}
	return elems, nil
}

// EncodeService serializes elems into dst[:0], returning the extended
// slice. More than 255 elements or a value longer than 255 bytes is an
// error: both exceed the one-byte length fields.
func EncodeService(dst []byte, elems []Element) ([]byte, error) {
	if len(elems) > 0xFF {
		return nil, api.ErrInvalidArgument
	}
	dst = append(dst[:0], byte(len(elems)))
	var hdr [4]byte
	for _, e := range elems {
		if len(e.Value) > 0xFF {
			return nil, api.ErrInvalidArgument
		}
		binary.BigEndian.PutUint16(hdr[0:], uint16(e.Group))
		binary.BigEndian.PutUint16(hdr[2:], uint16(e.Signal))
		dst = append(dst, hdr[:]...)
		dst = append(dst, byte(len(e.Value)))
		dst = append(dst, e.Value...)
	}
	return dst, nil
}
