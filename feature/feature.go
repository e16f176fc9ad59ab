package feature

import (
	"fmt"
	"sort"

	"github.com/avbuild/avconf/pkgs/library"
)

// Flag identifies one user-selectable build feature: a suite component
// such as "avcodec", or an optional third-party codec such as
// "build-lib-x264".
type Flag string

// Decl describes a single feature flag: the flags it pulls in, the native
// libraries it needs, the license it is gated behind (if any), and the
// symbol prefixes the binding generator may emit for it.
type Decl struct {
	Implies   []Flag
	License   License
	Libraries []library.ID
	Symbols   []string
}

// Graph is the declared implication graph over all known feature flags.
// It is immutable after construction.
type Graph struct {
	decls map[Flag]Decl
}

// NewGraph builds a Graph from flag declarations. Every implied flag must
// itself be declared; dangling edges are rejected here so that Expand can
// assume a well-formed table.
func NewGraph(decls map[Flag]Decl) (*Graph, error) {
	for flag, decl := range decls {
		for _, implied := range decl.Implies {
			if _, ok := decls[implied]; !ok {
				return nil, fmt.Errorf("feature %q implies undeclared feature %q", flag, implied)
			}
		}
	}
	return &Graph{decls: decls}, nil
}

// ParseFlag validates a raw flag name against the graph's declarations.
// Unknown names are rejected at construction time rather than silently
// resolving to nothing later.
func (g *Graph) ParseFlag(name string) (Flag, error) {
	flag := Flag(name)
	if _, ok := g.decls[flag]; !ok {
		return "", fmt.Errorf("unknown feature flag %q", name)
	}
	return flag, nil
}

// Decl returns the declaration for a flag.
func (g *Graph) Decl(flag Flag) (Decl, bool) {
	decl, ok := g.decls[flag]
	return decl, ok
}

// Flags returns all declared flags in sorted order.
func (g *Graph) Flags() []Flag {
	flags := make([]Flag, 0, len(g.decls))
	for flag := range g.decls {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// CycleError reports that the implication relation contains a cycle
// reachable from the named flag.
type CycleError struct {
	Flag Flag
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("feature implication graph is cyclic at %q", e.Flag)
}

// Expand computes the transitive closure of the requested flags under the
// implication relation. The walk depth is bounded by the total number of
// declared flags; exceeding it means the table has a cycle and Expand
// fails with a *CycleError naming a flag on the cycle.
//
// Expand is deterministic and idempotent: Expand(Expand(S)) == Expand(S),
// and the result is always a superset of the request.
func (g *Graph) Expand(requested Set) (Set, error) {
	expanded := NewSet()
	onPath := make(map[Flag]bool)

	var visit func(flag Flag, depth int) error
	visit = func(flag Flag, depth int) error {
		if depth > len(g.decls) {
			return &CycleError{Flag: flag}
		}
		if onPath[flag] {
			return &CycleError{Flag: flag}
		}
		if expanded.Has(flag) {
			return nil
		}
		decl, ok := g.decls[flag]
		if !ok {
			return fmt.Errorf("unknown feature flag %q", flag)
		}
		onPath[flag] = true
		for _, implied := range decl.Implies {
			if err := visit(implied, depth+1); err != nil {
				return err
			}
		}
		onPath[flag] = false
		expanded.Add(flag)
		return nil
	}

	for _, flag := range requested.Sorted() {
		if err := visit(flag, 0); err != nil {
			return nil, err
		}
	}
	return expanded, nil
}

// Libraries returns the sorted union of native libraries required by the
// given flag set.
func (g *Graph) Libraries(flags Set) []library.ID {
	seen := make(map[library.ID]bool)
	var ids []library.ID
	for _, flag := range flags.Sorted() {
		decl, ok := g.decls[flag]
		if !ok {
			continue
		}
		for _, id := range decl.Libraries {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FlagsFor returns the subset of flags that require the given library,
// in sorted order. This is what a vendored build receives as its enabled
// sub-feature set.
func (g *Graph) FlagsFor(flags Set, id library.ID) Set {
	sub := NewSet()
	for _, flag := range flags.Sorted() {
		decl, ok := g.decls[flag]
		if !ok {
			continue
		}
		for _, lib := range decl.Libraries {
			if lib == id {
				sub.Add(flag)
				break
			}
		}
	}
	return sub
}
