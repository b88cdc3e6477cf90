// File: internal/config/routing.go
// Author: momentics <momentics@gmail.com>

package config

import "github.com/momentics/ioc-mediator/api"

// GroupChannel maps a rx-direction group to the native channel its admitted
// signals are forwarded to. Groups absent from this table fall back to
// DefaultRxChannel. GrpLOC routes to the lifecycle channel; GrpBody and
// GrpDiag route to the signal and diagnostic channels respectively.
var GroupChannel = map[GroupID]api.ChannelID{
	GrpLOC:  api.ChLifecycle,
	GrpBody: api.ChSignal,
	GrpDiag: api.ChDiag,
}

// DefaultRxChannel is where an admitted signal with no group membership (or
// an unrouted group) is forwarded.
const DefaultRxChannel = api.ChSignal

// ChannelForGroup resolves grp to its target native channel.
func ChannelForGroup(grp GroupID) api.ChannelID {
	if ch, ok := GroupChannel[grp]; ok {
		return ch
	}
	return DefaultRxChannel
}
