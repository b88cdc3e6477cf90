// File: internal/config/init.go
// Author: momentics <momentics@gmail.com>
//
// Package config parses the mediator's init string and holds the static,
// compile-time configuration tables: channel device paths, signal/group
// definitions and per-direction whitelists, and the platform-support
// sentinel. These tables are compile-time constants; a runtime-configurable
// variant would replace only the loader step below, which is why ParseInit
// and the table builders are kept as the narrow seam between "static data"
// and "how it got here".
package config

import (
	"strconv"
	"strings"

	"github.com/momentics/ioc-mediator/api"
)

// MaxUARTPathLen is the init string's path field capacity, matching the
// fixed 32-byte path buffer used on the wire.
const MaxUARTPathLen = 32

// BootReason is the opaque integer stamped into every packet context.
type BootReason uint32

// Init holds the parsed contents of the "<virtual-uart-path>,<boot-reason>" string.
type Init struct {
	UARTPath   string
	BootReason BootReason
}

// ParseInit parses the init string. A boot reason of 0, a missing comma, an
// unparsable boot reason, or a path exceeding MaxUARTPathLen are all rejected.
func ParseInit(s string) (Init, error) {
	idx := strings.LastIndexByte(s, ',')
	if idx < 0 {
		return Init{}, api.NewInitError(api.ErrCodeInvalidBootReason, "init string missing ','", nil)
	}
	path, reasonStr := s[:idx], s[idx+1:]
	if len(path) == 0 || len(path) > MaxUARTPathLen {
		return Init{}, api.NewInitError(api.ErrCodeInvalidBootReason, "uart path empty or too long", nil)
	}
	reason, err := strconv.ParseUint(reasonStr, 0, 32) // base auto-detected (0x.., 0.., decimal)
	if err != nil {
		return Init{}, api.NewInitError(api.ErrCodeInvalidBootReason, "boot reason not an unsigned integer", err)
	}
	if reason == 0 {
		return Init{}, api.NewInitError(api.ErrCodeInvalidBootReason, "boot reason must be nonzero", nil)
	}
	return Init{UARTPath: path, BootReason: BootReason(reason)}, nil
}
