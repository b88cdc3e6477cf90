//go:build !linux

// File: internal/chantab/stub.go
// Author: momentics <momentics@gmail.com>
//
// Portable fallback: the mediator's channel I/O is Linux-specific (epoll,
// PTY, raw termios), so every other platform reports unsupported rather
// than partially implementing it.
package chantab

import "github.com/momentics/ioc-mediator/api"

// Open always fails on non-Linux platforms.
func Open(uartPath string) (*Table, error) {
	return nil, api.NewInitError(api.ErrCodePlatformUnsupported, "ioc mediator requires linux", api.ErrNotSupported)
}

// Close is a no-op; no platform resources were ever acquired.
func (t *Table) Close() error { return nil }

// Recv always reports ErrNotSupported.
func (t *Table) Recv(id api.ChannelID, buf []byte) (int, error) {
	return 0, api.ErrNotSupported
}

// Xmit always reports ErrNotSupported.
func (t *Table) Xmit(id api.ChannelID, buf []byte) (int, error) {
	return 0, api.ErrNotSupported
}
