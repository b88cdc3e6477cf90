// File: internal/config/channels.go
// Author: momentics <momentics@gmail.com>

package config

import "github.com/momentics/ioc-mediator/api"

// PlatformSentinelPath is the early-signal native device node whose presence
// signals that the host supports IOC. Its absence is fatal to Init.
const PlatformSentinelPath = "/dev/ioc_early_signal"

// ChannelSpec is one static channel table entry: identity plus where to find
// the backing device node. The virtual UART's Path is ignored; its path
// comes from the Init string instead.
type ChannelSpec struct {
	ID       api.ChannelID
	Name     string
	Kind     api.ChannelKind
	Path     string
	Enabled  bool
	Critical bool // must be open for the mediator to run
}

// ChannelTableSpec is the static channel registry: one entry per logical
// channel, in enumeration order.
var ChannelTableSpec = []ChannelSpec{
	{ID: api.ChLifecycle, Name: "lifecycle", Kind: api.KindNative, Path: "/dev/ioc_lifecycle", Enabled: true, Critical: true},
	{ID: api.ChSignal, Name: "signal", Kind: api.KindNative, Path: "/dev/ioc_signal", Enabled: true},
	{ID: api.ChRaw0, Name: "raw0", Kind: api.KindNative, Path: "/dev/ioc_raw0", Enabled: true},
	{ID: api.ChRaw1, Name: "raw1", Kind: api.KindNative, Path: "/dev/ioc_raw1", Enabled: true},
	{ID: api.ChRaw2, Name: "raw2", Kind: api.KindNative, Path: "/dev/ioc_raw2", Enabled: true},
	{ID: api.ChRaw3, Name: "raw3", Kind: api.KindNative, Path: "/dev/ioc_raw3", Enabled: true},
	{ID: api.ChRaw4, Name: "raw4", Kind: api.KindNative, Path: "/dev/ioc_raw4", Enabled: true},
	{ID: api.ChRaw5, Name: "raw5", Kind: api.KindNative, Path: "/dev/ioc_raw5", Enabled: true},
	{ID: api.ChRaw6, Name: "raw6", Kind: api.KindNative, Path: "/dev/ioc_raw6", Enabled: true},
	{ID: api.ChRaw7, Name: "raw7", Kind: api.KindNative, Path: "/dev/ioc_raw7", Enabled: true},
	{ID: api.ChRaw8, Name: "raw8", Kind: api.KindNative, Path: "/dev/ioc_raw8", Enabled: true},
	{ID: api.ChRaw9, Name: "raw9", Kind: api.KindNative, Path: "/dev/ioc_raw9", Enabled: true},
	{ID: api.ChRaw10, Name: "raw10", Kind: api.KindNative, Path: "/dev/ioc_raw10", Enabled: true},
	{ID: api.ChRaw11, Name: "raw11", Kind: api.KindNative, Path: "/dev/ioc_raw11", Enabled: true},
	{ID: api.ChDiag, Name: "diag", Kind: api.KindNative, Path: "/dev/ioc_diag", Enabled: true},
	// Debug-only dummy channels: disabled by default, each opened
	// independently (no fallthrough between dummy entries).
	{ID: api.ChDummy0, Name: "dummy0", Kind: api.KindNative, Path: "/dev/ioc_dummy0", Enabled: false},
	{ID: api.ChDummy1, Name: "dummy1", Kind: api.KindNative, Path: "/dev/ioc_dummy1", Enabled: false},
	{ID: api.ChDummy2, Name: "dummy2", Kind: api.KindNative, Path: "/dev/ioc_dummy2", Enabled: false},
	{ID: api.ChVirtualUART, Name: "virtual-uart", Kind: api.KindVirtual, Path: "", Enabled: true, Critical: true},
}
