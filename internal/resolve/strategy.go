package resolve

import (
	"fmt"

	"github.com/avbuild/avconf/pkgs/library"
)

// Mode is the global build-mode switch. It is threaded explicitly
// through resolution; nothing reads process-wide state.
type Mode string

const (
	// PreferSystem discovers each library through the system's package
	// metadata registry.
	PreferSystem Mode = "system"
	// ForceFromSource compiles every library from vendored source.
	ForceFromSource Mode = "source"
)

// ParseMode validates a raw mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case PreferSystem, ForceFromSource:
		return Mode(name), nil
	}
	return "", fmt.Errorf("unknown build mode %q (want %q or %q)", name, PreferSystem, ForceFromSource)
}

// Strategy is the per-library build decision, chosen once per library
// per resolution run.
type Strategy string

const (
	SystemInstall Strategy = "system"
	FromSource    Strategy = "source"
)

// SelectStrategy decides how one library is obtained. An explicit
// per-library override always wins over the global mode. Pure function,
// no I/O.
func SelectStrategy(id library.ID, mode Mode, overrides map[library.ID]Strategy) Strategy {
	if strategy, ok := overrides[id]; ok {
		return strategy
	}
	if mode == ForceFromSource {
		return FromSource
	}
	return SystemInstall
}
