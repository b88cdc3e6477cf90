// File: internal/whitelist/filter.go
// Author: momentics <momentics@gmail.com>
//
// Package whitelist implements the per-direction signal/group admission
// filter: a signal is forwarded only if its own active+whitelist gate
// passes and, when it rides inside a group, that group's active+whitelist
// gate passes too.
// Built on the same map-lookup idiom as config's static tables, reading
// directly off config.DirectionTable.
package whitelist

import "github.com/momentics/ioc-mediator/internal/config"

// Filter decides, for one direction, whether a given signal (optionally as
// part of a group) may cross the mediator.
type Filter struct {
	table *config.DirectionTable
}

// New builds a Filter over the given direction table (config.RxTable() or
// config.TxTable()).
func New(table *config.DirectionTable) *Filter {
	return &Filter{table: table}
}

// AllowSignal reports whether id may be forwarded standalone: it must be a
// known, active signal, and individually whitelisted.
func (f *Filter) AllowSignal(id config.SignalID) bool {
	def, ok := f.table.Signals[id]
	if !ok || !def.Active {
		return false
	}
	return f.table.SignalWhitelist[id]
}

// AllowGroupMember reports whether signal id may be forwarded as a member of
// group grp. Both the group and the signal must independently pass their own
// active+whitelist gate; membership alone is not sufficient. This is the
// tie-break this package enforces: a signal in an admitted group that is not
// individually whitelisted is rejected, and an individually whitelisted
// signal is rejected when its group's gate is closed.
func (f *Filter) AllowGroupMember(grp config.GroupID, id config.SignalID) bool {
	gdef, ok := f.table.Groups[grp]
	if !ok || !gdef.Active || !f.table.GroupWhitelist[grp] {
		return false
	}
	return f.AllowSignal(id)
}

// GroupOf reports the group id signals is a member of within this
// direction's table, if any. A signal belongs to at most one group in the
// static tables built by internal/config.
func (f *Filter) GroupOf(id config.SignalID) (config.GroupID, bool) {
	for grp, members := range f.table.GroupMembers {
		for _, m := range members {
			if m == id {
				return grp, true
			}
		}
	}
	return 0, false
}

// Allow checks id on its own: it resolves id's group membership (if any)
// from the direction table's GroupMembers and applies the matching gate.
// The framer handlers do not call it; they call AllowGroupMember or
// AllowSignal with the group id carried in each element.
func (f *Filter) Allow(id config.SignalID) bool {
	if grp, ok := f.GroupOf(id); ok {
		return f.AllowGroupMember(grp, id)
	}
	return f.AllowSignal(id)
}
