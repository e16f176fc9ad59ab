package feature

import "fmt"

// License names the restrictive license terms a feature may be gated
// behind. A gated feature is usable only when the corresponding terms
// have been explicitly accepted.
type License string

const (
	GPL      License = "gpl"
	NonFree  License = "nonfree"
	Version3 License = "version3"
)

// ParseLicense validates a raw license name.
func ParseLicense(name string) (License, error) {
	switch License(name) {
	case GPL, NonFree, Version3:
		return License(name), nil
	}
	return "", fmt.Errorf("unknown license kind %q", name)
}

// ViolationError reports a feature enabled without its required license
// acceptance.
type ViolationError struct {
	Flag     Flag
	Required License
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("feature %q requires accepting %s license terms", e.Flag, e.Required)
}

// CheckLicenses verifies that every flag in the expanded set whose
// declaration names a license has that license in the accepted list.
// It performs no I/O and must run before any library discovery so that
// a misconfigured invocation fails before touching the environment.
func (g *Graph) CheckLicenses(expanded Set, accepted []License) error {
	ok := make(map[License]bool, len(accepted))
	for _, license := range accepted {
		ok[license] = true
	}
	for _, flag := range expanded.Sorted() {
		decl, declared := g.decls[flag]
		if !declared || decl.License == "" {
			continue
		}
		if !ok[decl.License] {
			return &ViolationError{Flag: flag, Required: decl.License}
		}
	}
	return nil
}
