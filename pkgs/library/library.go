package library

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// ID identifies one native library of the suite, e.g. "avcodec" or "x264".
type ID string

// LinkKind is how a library is linked.
type LinkKind string

const (
	Dylib     LinkKind = "dylib"
	Static    LinkKind = "static"
	Framework LinkKind = "framework"
)

// LinkDirective is one (kind, name) pair handed to the linker.
type LinkDirective struct {
	Kind LinkKind `json:"kind"`
	Name string   `json:"name"`
}

// Metadata describes a located or freshly built library installation.
// It has the same shape whether it came from a system pkg-config query
// or from a vendored source build.
type Metadata struct {
	IncludePaths []string        `json:"include_paths"`
	SearchPaths  []string        `json:"search_paths"`
	Links        []LinkDirective `json:"links"`
	Version      string          `json:"version"`
}

// Vendored describes how to build a library from source when it is not
// taken from a system install. The resolver passes it through opaquely;
// only the vendored builder interprets it.
type Vendored struct {
	Repo          string   `yaml:"repo"`
	Ref           string   `yaml:"ref"`
	BuildSys      string   `yaml:"buildsys"`
	ConfigureArgs []string `yaml:"configure_args"`

	// FeatureArgs marks descriptors whose configure script understands
	// the suite's --enable-* feature and license switches (the FFmpeg
	// tree itself, as opposed to a standalone codec tree).
	FeatureArgs bool `yaml:"feature_args"`
}

// Spec is the static declaration of one library: how to find it on the
// system, the minimum supported version, and how to build it vendored.
type Spec struct {
	ID        ID       `yaml:"-"`
	PkgConfig string   `yaml:"pkg_config"`
	Minimum   string   `yaml:"minimum"`
	Vendored  Vendored `yaml:"vendored"`
}

// Table holds the declarations of all known libraries.
type Table struct {
	specs map[ID]Spec
}

type tableFile struct {
	Libraries map[string]Spec `yaml:"libraries"`
}

// LoadTable parses a library table from YAML.
func LoadTable(r io.Reader) (*Table, error) {
	var file tableFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse library table: %w", err)
	}
	specs := make(map[ID]Spec, len(file.Libraries))
	for name, spec := range file.Libraries {
		id := ID(name)
		spec.ID = id
		if spec.PkgConfig == "" {
			return nil, fmt.Errorf("library %q: missing pkg_config name", name)
		}
		if spec.Minimum == "" {
			return nil, fmt.Errorf("library %q: missing minimum version", name)
		}
		specs[id] = spec
	}
	return &Table{specs: specs}, nil
}

// Lookup returns the declaration of a library.
func (t *Table) Lookup(id ID) (Spec, bool) {
	spec, ok := t.specs[id]
	return spec, ok
}

// IDs returns all declared library ids in sorted order.
func (t *Table) IDs() []ID {
	ids := make([]ID, 0, len(t.specs))
	for id := range t.specs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
