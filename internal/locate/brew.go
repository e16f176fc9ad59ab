package locate

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
)

// BrewPkgConfigPath returns the pkg-config directory of a Homebrew keg,
// e.g. BrewPkgConfigPath(ctx, "ffmpeg@6"). Used on macOS as an extra
// search path; a missing brew is not an error for the caller to act on,
// it simply yields no hint.
func BrewPkgConfigPath(ctx context.Context, keg string) (string, error) {
	cmd := exec.CommandContext(ctx, "brew", "--prefix", keg)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	prefix := strings.TrimSpace(stdout.String())
	if prefix == "" {
		return "", nil
	}
	return filepath.Join(prefix, "lib", "pkgconfig"), nil
}
