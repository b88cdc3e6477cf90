// File: internal/diag/stats.go
// Author: momentics <momentics@gmail.com>
//
// Package diag exposes operational counters for the mediator: frame drops,
// malformed frames, and per-channel byte totals. Counters are atomic so the
// core/rx/tx threads can update them without taking any of the queue or
// channel-table locks.
package diag

import (
	"sync/atomic"

	"github.com/momentics/ioc-mediator/api"
)

// Stats aggregates the mediator's runtime counters, grounded on
// pool.Stats()/BufferPoolStats's accounting shape.
type Stats struct {
	drops          atomic.Int64
	malformed      atomic.Int64
	framesRx       atomic.Int64
	framesTx       atomic.Int64
	channelBytesRx [int(api.NumChannels)]atomic.Int64
	channelBytesTx [int(api.NumChannels)]atomic.Int64
}

// New creates a zeroed Stats.
func New() *Stats { return &Stats{} }

func (s *Stats) IncDrop()            { s.drops.Add(1) }
func (s *Stats) IncMalformed()       { s.malformed.Add(1) }
func (s *Stats) IncFramesRx()        { s.framesRx.Add(1) }
func (s *Stats) IncFramesTx()        { s.framesTx.Add(1) }

// AddChannelBytes accounts n bytes transferred on id in direction dir.
func (s *Stats) AddChannelBytes(id api.ChannelID, dir api.Direction, n int) {
	if int(id) < 0 || int(id) >= int(api.NumChannels) {
		return
	}
	if dir == api.DirRx {
		s.channelBytesRx[id].Add(int64(n))
	} else {
		s.channelBytesTx[id].Add(int64(n))
	}
}

// Snapshot is a point-in-time copy of all counters, safe to log or export.
type Snapshot struct {
	Drops     int64
	Malformed int64
	FramesRx  int64
	FramesTx  int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Drops:     s.drops.Load(),
		Malformed: s.malformed.Load(),
		FramesRx:  s.framesRx.Load(),
		FramesTx:  s.framesTx.Load(),
	}
}
