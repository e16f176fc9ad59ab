package library

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/avbuild/avconf/pkgs/verscmp"
)

// TooOldError reports a discovered library version below the supported
// minimum.
type TooOldError struct {
	ID      ID
	Found   string
	Minimum string
}

func (e *TooOldError) Error() string {
	return fmt.Sprintf("library %s version %s is too old, minimum supported is %s", e.ID, e.Found, e.Minimum)
}

// Canonical normalizes a raw version string for semver comparison:
// surrounding space is trimmed and the "v" prefix added. pkg-config
// reports bare numbers like "6.1.1" or "60.31.102".
func Canonical(version string) string {
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}

// CompareVersions compares two raw version strings. Both semver rules
// apply when both sides are valid semver, including pre-release ordering
// (a release compares above its own release candidates). Versions that
// are not semver, such as x264's "0.164.3095 M", fall back to GNU-style
// segment comparison.
func CompareVersions(a, b string) int {
	ca, cb := Canonical(a), Canonical(b)
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return verscmp.Compare(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CheckVersion validates a discovered version against the library's
// declared minimum. Equal versions pass; no upper bound is enforced.
func CheckVersion(spec Spec, found string) error {
	if strings.TrimSpace(found) == "" {
		return fmt.Errorf("library %s: empty version string", spec.ID)
	}
	if CompareVersions(found, spec.Minimum) < 0 {
		return &TooOldError{ID: spec.ID, Found: strings.TrimSpace(found), Minimum: spec.Minimum}
	}
	return nil
}
