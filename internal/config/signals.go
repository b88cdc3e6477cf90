// File: internal/config/signals.go
// Author: momentics <momentics@gmail.com>

package config

// SignalID identifies one CBC signal; GroupID identifies a named collection
// of signals transported together. Both are looked up by numeric id.
type SignalID uint16
type GroupID uint16

// Named signals/groups used by the end-to-end tests and the tables below.
// Unlisted numeric ids are still valid table entries; these constants just
// name the ones the tests care about.
const (
	SigATEMP SignalID = 0x0101 // ambient temperature, width 16
	SigSTFR  SignalID = 0x0102 // seat-frame status
	SigSWLB  SignalID = 0x0103 // steering-wheel lane-bias (duplicated in tx table)
	SigDoor  SignalID = 0x0104
	SigSpeed SignalID = 0x0105
)

const (
	GrpLOC    GroupID = 0x01 // location/lifecycle group
	GrpBody   GroupID = 0x02
	GrpDiag   GroupID = 0x03
)

// SignalDef is one entry of the per-direction signal table.
type SignalDef struct {
	ID     SignalID
	Width  uint8 // bit width of the signal's value
	Active bool
}

// GroupDef is one entry of the per-direction group table.
type GroupDef struct {
	ID     GroupID
	Active bool
}

// DirectionTable bundles the signal/group definitions and whitelists for one
// direction, plus which signals belong to which group (used for the
// group/signal admission tie-break in internal/whitelist).
type DirectionTable struct {
	Signals         map[SignalID]SignalDef
	Groups          map[GroupID]GroupDef
	SignalWhitelist map[SignalID]bool
	GroupWhitelist  map[GroupID]bool
	GroupMembers    map[GroupID][]SignalID
}

func buildTable(signals []SignalDef, groups []GroupDef, members map[GroupID][]SignalID, sigWL []SignalID, grpWL []GroupID) *DirectionTable {
	t := &DirectionTable{
		Signals:         make(map[SignalID]SignalDef, len(signals)),
		Groups:          make(map[GroupID]GroupDef, len(groups)),
		SignalWhitelist: make(map[SignalID]bool, len(sigWL)),
		GroupWhitelist:  make(map[GroupID]bool, len(grpWL)),
		GroupMembers:    members,
	}
	for _, s := range signals {
		t.Signals[s.ID] = s // last entry wins on duplicate ids, e.g. SigSWLB below
	}
	for _, g := range groups {
		t.Groups[g.ID] = g
	}
	for _, id := range sigWL {
		t.SignalWhitelist[id] = true
	}
	for _, id := range grpWL {
		t.GroupWhitelist[id] = true
	}
	return t
}

// RxTable is the virtual-UART-to-native (rx) direction's configuration:
// signals and groups arriving from the guest over the virtual UART,
// filtered before reaching native devices.
func RxTable() *DirectionTable {
	return buildTable(
		[]SignalDef{
			{ID: SigATEMP, Width: 16, Active: true},
			{ID: SigSTFR, Width: 8, Active: true},
			{ID: SigSWLB, Width: 8, Active: true},
			{ID: SigDoor, Width: 1, Active: true},
			{ID: SigSpeed, Width: 16, Active: false}, // defined but inactive
		},
		[]GroupDef{
			{ID: GrpLOC, Active: true},
			{ID: GrpBody, Active: true},
			{ID: GrpDiag, Active: false},
		},
		map[GroupID][]SignalID{
			GrpLOC:  {SigATEMP},
			GrpBody: {SigSTFR, SigDoor},
		},
		[]SignalID{SigATEMP, SigSTFR, SigDoor},
		[]GroupID{GrpLOC, GrpBody},
	)
}

// TxTable is the native-to-virtual-UART (tx) direction's configuration.
// SigSWLB is intentionally listed twice in the signal slice: the source
// table carries a duplicate id, and buildTable's map assignment makes the
// later entry win (last-wins), so Signals holds a single SigSWLB entry. No
// test in the tree refers to SigSWLB.
func TxTable() *DirectionTable {
	return buildTable(
		[]SignalDef{
			{ID: SigATEMP, Width: 16, Active: true},
			{ID: SigSWLB, Width: 8, Active: true},
			{ID: SigSWLB, Width: 8, Active: true}, // duplicate id, see doc comment above
			{ID: SigSTFR, Width: 8, Active: true},
		},
		[]GroupDef{
			{ID: GrpLOC, Active: true},
			{ID: GrpBody, Active: true},
		},
		map[GroupID][]SignalID{
			GrpLOC:  {SigSWLB},
			GrpBody: {SigATEMP},
		},
		// SigSTFR is deliberately NOT whitelisted in tx; see filter tests.
		[]SignalID{SigATEMP, SigSWLB},
		[]GroupID{GrpLOC, GrpBody},
	)
}
