package feature

import "sort"

// Set is an unordered collection of feature flags. Use Sorted when a
// deterministic order is needed.
type Set map[Flag]struct{}

// NewSet creates a Set from the given flags.
func NewSet(flags ...Flag) Set {
	s := make(Set, len(flags))
	for _, flag := range flags {
		s[flag] = struct{}{}
	}
	return s
}

// Has reports whether flag is in the set.
func (s Set) Has(flag Flag) bool {
	_, ok := s[flag]
	return ok
}

// Add inserts flag into the set.
func (s Set) Add(flag Flag) {
	s[flag] = struct{}{}
}

// Sorted returns the flags in lexical order.
func (s Set) Sorted() []Flag {
	flags := make([]Flag, 0, len(s))
	for flag := range s {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// Equal reports whether two sets contain the same flags.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for flag := range s {
		if !other.Has(flag) {
			return false
		}
	}
	return true
}
