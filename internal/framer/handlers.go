// File: internal/framer/handlers.go
// Author: momentics <momentics@gmail.com>
//
// Rx/tx ingestion and forwarding, grounded on ioc.c's ioc_build_request
// (ring-to-request) and the opaque cbc_rx_handler/cbc_tx_handler contract:
// the generic worker loop only dequeues, calls a handler, and routes by
// qtype; the handler itself decides what to filter and where to xmit.
package framer

import (
	"fmt"

	"github.com/momentics/ioc-mediator/api"
	"github.com/momentics/ioc-mediator/internal/config"
	"github.com/momentics/ioc-mediator/internal/diag"
	"github.com/momentics/ioc-mediator/internal/logging"
	"github.com/momentics/ioc-mediator/internal/reqpool"
	"github.com/momentics/ioc-mediator/internal/whitelist"
)

// BuildRequest drains as many complete link frames as the ring currently
// holds, each becoming one Request on pool.Rx. It never blocks: when the
// free queue is exhausted it drops the pending frame (incrementing
// stats.IncDrop) and still advances past it rather than stalling ingestion.
// A malformed frame advances the ring by a single byte and parsing resumes
// from there.
func BuildRequest(r *Ring, codec api.Codec, pool *reqpool.Pool, stats *diag.Stats) {
	for {
		res := codec.Parse(r)
		switch res.Status {
		case api.ParseIncomplete:
			return
		case api.ParseMalformed:
			stats.IncMalformed()
			r.Advance(1)
			continue
		}

		idx, ok := pool.Free.DequeueFree()
		if !ok {
			stats.IncDrop()
			logging.Warn("free pool exhausted, dropping inbound link frame")
			r.Advance(res.LinkLen)
			continue
		}
		req := pool.Get(idx)
		req.LinkLen = res.LinkLen
		req.SrvLen = res.SrvLen
		req.Channel = api.ChVirtualUART
		req.Kind = api.KindFramedProtocol
		n := copy(req.Buf, peekSlice(r, res.LinkLen))
		_ = n
		r.Advance(res.LinkLen)
		pool.Rx.Enqueue(idx, api.PosTail)
		stats.IncFramesRx()
	}
}

// peekSlice materializes the next n ring bytes into a freshly allocated
// slice; used only at the BuildRequest/request-buffer copy boundary, where
// the ring's wraparound storage must become a flat []byte.
func peekSlice(r *Ring, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = r.PeekByte(i)
	}
	return out
}

// xmitAll writes buf to id in full, grounded on ioc.c's ioc_ch_xmit write
// loop: it keeps writing while less than len(buf) has been accepted,
// tolerating a zero-byte, no-error return (a non-blocking fd reporting
// EAGAIN) as a short write to retry rather than a completed or failed xmit.
func xmitAll(chio api.ChannelIO, id api.ChannelID, buf []byte) (int, error) {
	written := 0
	for written < len(buf) {
		n, err := chio.Xmit(id, buf[written:])
		if err != nil {
			return written, err
		}
		if n == 0 {
			continue
		}
		written += n
	}
	return written, nil
}

// RxHandler is the default virtual-UART-to-native direction handler: it
// decodes the service elements out of req's link frame, admits each through
// the rx whitelist, groups survivors by destination native channel, and
// xmits one re-encoded service frame per destination. Returns the number of
// bytes written across all destination channels.
func RxHandler(req *reqpool.Request, codec api.Codec, filter *whitelist.Filter, chio api.ChannelIO, stats *diag.Stats) (int, error) {
	srvOff := codec.HeaderLen()
	elems, err := DecodeService(req.Buf[srvOff : srvOff+req.SrvLen])
	if err != nil {
		stats.IncMalformed()
		return 0, nil
	}

	byChannel := make(map[api.ChannelID][]Element)
	for _, e := range elems {
		sig := config.SignalID(e.Signal)
		if e.Group != 0 {
			if !filter.AllowGroupMember(config.GroupID(e.Group), sig) {
				continue
			}
			byChannel[config.ChannelForGroup(config.GroupID(e.Group))] = append(byChannel[config.ChannelForGroup(config.GroupID(e.Group))], e)
			continue
		}
		if !filter.AllowSignal(sig) {
			continue
		}
		byChannel[config.DefaultRxChannel] = append(byChannel[config.DefaultRxChannel], e)
	}

	var written int
	for ch, chElems := range byChannel {
		if !chio.Enabled(ch) {
			continue
		}
		payload, encErr := EncodeService(nil, chElems)
		if encErr != nil {
			return written, fmt.Errorf("encode service frame for channel %s: %w", ch, encErr)
		}
		n, xmitErr := xmitAll(chio, ch, payload)
		if xmitErr != nil {
			return written, xmitErr
		}
		stats.AddChannelBytes(ch, api.DirRx, n)
		written += n
	}
	return written, nil
}

// TxHandler is the default native-to-virtual-UART direction handler: native
// channel reads arrive as already-complete service frames (no link framing
// needed, following ioc.c's ioc_process_tx: native cdevs deliver one frame
// per read), so it decodes req.Buf directly, admits elements through the tx
// whitelist, re-encodes survivors as one link frame, and xmits to the
// virtual UART channel.
func TxHandler(req *reqpool.Request, codec api.Codec, filter *whitelist.Filter, chio api.ChannelIO, stats *diag.Stats) (int, error) {
	elems, err := DecodeService(req.Buf[:req.SrvLen])
	if err != nil {
		stats.IncMalformed()
		return 0, nil
	}

	admitted := make([]Element, 0, len(elems))
	for _, e := range elems {
		sig := config.SignalID(e.Signal)
		if e.Group != 0 {
			if filter.AllowGroupMember(config.GroupID(e.Group), sig) {
				admitted = append(admitted, e)
			}
			continue
		}
		if filter.AllowSignal(sig) {
			admitted = append(admitted, e)
		}
	}
	if len(admitted) == 0 {
		return 0, nil
	}

	srv, err := EncodeService(nil, admitted)
	if err != nil {
		return 0, err
	}
	link, err := codec.Encode(nil, srv)
	if err != nil {
		return 0, err
	}
	n, err := xmitAll(chio, api.ChVirtualUART, link)
	if err != nil {
		return 0, err
	}
	stats.AddChannelBytes(api.ChVirtualUART, api.DirTx, n)
	stats.IncFramesTx()
	return n, nil
}
