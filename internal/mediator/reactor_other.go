//go:build !linux

// File: internal/mediator/reactor_other.go
// Author: momentics <momentics@gmail.com>

package mediator

import "github.com/momentics/ioc-mediator/api"

func newReactor() (api.Reactor, error) {
	return nil, api.NewInitError(api.ErrCodePlatformUnsupported, "ioc mediator requires linux", api.ErrNotSupported)
}
