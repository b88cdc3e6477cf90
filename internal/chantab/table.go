// File: internal/chantab/table.go
// Author: momentics <momentics@gmail.com>
//
// Package chantab implements the static channel table and its I/O surface:
// one entry per native CBC device plus the virtual UART, each independently
// openable, with two channels (lifecycle, virtual UART) critical to
// mediator startup. The platform split mirrors
// internal/transport/transport_linux.go's pattern: a portable type here,
// concrete syscalls behind a linux build tag, a stub everywhere else.
package chantab

import (
	"fmt"
	"os"
	"sync"

	"github.com/momentics/ioc-mediator/api"
	"github.com/momentics/ioc-mediator/internal/config"
	"github.com/momentics/ioc-mediator/internal/logging"
)

// entry is one channel's runtime state.
type entry struct {
	spec    config.ChannelSpec
	fd      uintptr
	open    bool
	openErr error // last open failure, nil once open or if never attempted
}

// Table implements api.ChannelIO over the static channel table. Fields are
// set once at Open and only fd/open change afterward, guarded by mu.
type Table struct {
	mu       sync.RWMutex
	entries  map[api.ChannelID]*entry
	order    []api.ChannelID
	uartPath string
}

var _ api.ChannelIO = (*Table)(nil)

// newTable builds the entry map from the static spec, in declaration order.
func newTable() *Table {
	t := &Table{entries: make(map[api.ChannelID]*entry, len(config.ChannelTableSpec))}
	for _, spec := range config.ChannelTableSpec {
		t.entries[spec.ID] = &entry{spec: spec}
		t.order = append(t.order, spec.ID)
	}
	return t
}

// Channels returns every channel id in table declaration order.
func (t *Table) Channels() []api.ChannelID {
	out := make([]api.ChannelID, len(t.order))
	copy(out, t.order)
	return out
}

// Kind reports whether id is a native device or the virtual UART.
func (t *Table) Kind(id api.ChannelID) api.ChannelKind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return api.KindNative
	}
	return e.spec.Kind
}

// Enabled reports whether id is both configured-enabled and currently open.
func (t *Table) Enabled(id api.ChannelID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	return ok && e.spec.Enabled && e.open
}

// FD returns id's underlying file descriptor, if open.
func (t *Table) FD(id api.ChannelID) (uintptr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok || !e.open {
		return 0, false
	}
	return e.fd, true
}

// ChannelStat is one channel's point-in-time open/error state, for
// diagnostics logging.
type ChannelStat struct {
	ID      api.ChannelID
	Name    string
	Open    bool
	ErrText string // empty unless the last open attempt failed
}

// Stats reports the open/error state of every channel in table order.
func (t *Table) Stats() []ChannelStat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ChannelStat, 0, len(t.order))
	for _, id := range t.order {
		e := t.entries[id]
		st := ChannelStat{ID: id, Name: e.spec.Name, Open: e.open}
		if e.openErr != nil {
			st.ErrText = e.openErr.Error()
		}
		out = append(out, st)
	}
	return out
}

func (t *Table) get(id api.ChannelID) (*entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("chantab: unknown channel %v", id)
	}
	if !e.spec.Enabled {
		return nil, api.ErrChannelDisabled
	}
	if !e.open {
		return nil, api.ErrChannelNotOpen
	}
	return e, nil
}

func logOpenFailure(spec config.ChannelSpec, err error) {
	if spec.Critical {
		logging.Errorf("critical channel %s (%s) failed to open: %v", spec.Name, spec.Path, err)
		return
	}
	logging.Warnf("optional channel %s (%s) failed to open: %v", spec.Name, spec.Path, err)
}

// checkPlatformSentinel verifies the host exposes the early-signal node
// that indicates IOC support, a precondition checked before any channel is
// opened.
func checkPlatformSentinel() error {
	if _, err := os.Stat(config.PlatformSentinelPath); err != nil {
		return api.NewInitError(api.ErrCodePlatformUnsupported, "platform sentinel device missing", err)
	}
	return nil
}
