// File: api/channel.go
// Author: momentics <momentics@gmail.com>
//
// ChannelIO is the contract the mediator core depends on for byte transfer;
// internal/chantab is its concrete implementation. Kept as an interface so
// the mediator and framer packages can be tested against an in-memory fake
// without opening real device nodes.

package api

// ChannelIO exposes per-channel byte transfer plus the static metadata the
// core task needs to register fds with the reactor and dispatch by kind.
type ChannelIO interface {
	// Recv reads at most one level-triggered readiness worth of data into buf.
	// Returns bytes read, or an error if the channel's fd is invalid or buf is empty.
	Recv(id ChannelID, buf []byte) (int, error)

	// Xmit makes one write attempt and returns the bytes accepted, which may
	// be fewer than len(buf); a would-block condition is reported as (0, nil).
	// Writing the whole buffer is the caller's loop (framer's xmitAll).
	Xmit(id ChannelID, buf []byte) (int, error)

	// FD returns the channel's live file descriptor and whether it is open.
	FD(id ChannelID) (fd uintptr, open bool)

	// Kind reports whether id names a native device or the virtual UART.
	Kind(id ChannelID) ChannelKind

	// Enabled reports whether id is configured on (never true without a live fd).
	Enabled(id ChannelID) bool

	// Channels enumerates every id the table knows about, enabled or not.
	Channels() []ChannelID
}
