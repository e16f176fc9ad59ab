package resolve

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/avbuild/avconf/feature"
	"github.com/avbuild/avconf/pkgs/library"
)

// mockLocator serves canned pkg-config results keyed by pkg-config
// name and counts queries.
type mockLocator struct {
	results map[string]library.Metadata
	errs    map[string]error

	mu      sync.Mutex
	queried []string
}

func (m *mockLocator) Locate(ctx context.Context, name string) (library.Metadata, error) {
	m.mu.Lock()
	m.queried = append(m.queried, name)
	m.mu.Unlock()

	if err, ok := m.errs[name]; ok {
		return library.Metadata{}, err
	}
	if meta, ok := m.results[name]; ok {
		return meta, nil
	}
	return library.Metadata{}, &notFoundError{name: name}
}

type notFoundError struct {
	name string
}

func (e *notFoundError) Error() string {
	return "library " + e.name + " not found by pkg-config"
}

func (m *mockLocator) queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queried)
}

// mockBuilder fabricates vendored build results.
type mockBuilder struct {
	version string
	err     error
	builds  atomic.Int32
}

func (m *mockBuilder) Build(ctx context.Context, spec library.Spec, subfeatures feature.Set, accepted []feature.License) (library.Metadata, error) {
	m.builds.Add(1)
	if m.err != nil {
		return library.Metadata{}, m.err
	}
	version := m.version
	if version == "" {
		version = "6.1.1"
	}
	return library.Metadata{
		IncludePaths: []string{"/vendored/" + string(spec.ID) + "/include"},
		SearchPaths:  []string{"/vendored/" + string(spec.ID) + "/lib"},
		Links:        []library.LinkDirective{{Kind: library.Static, Name: string(spec.ID)}},
		Version:      version,
	}, nil
}

// systemMeta is a canned system install for one suite library.
func systemMeta(name, version string) library.Metadata {
	return library.Metadata{
		IncludePaths: []string{"/usr/include"},
		SearchPaths:  []string{"/usr/lib"},
		Links:        []library.LinkDirective{{Kind: library.Dylib, Name: name}},
		Version:      version,
	}
}

// suiteLocator returns a locator that knows every suite component at
// the given version.
func suiteLocator(version string) *mockLocator {
	names := []string{
		"libavutil", "libavcodec", "libavformat", "libavdevice",
		"libavfilter", "libswscale", "libswresample", "libpostproc",
	}
	results := make(map[string]library.Metadata, len(names))
	for _, name := range names {
		results[name] = systemMeta(name[len("lib"):], version)
	}
	return &mockLocator{results: results}
}
