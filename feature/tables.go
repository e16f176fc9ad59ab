package feature

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/avbuild/avconf/pkgs/library"
)

//go:embed features.yaml
var defaultTable []byte

type declFile struct {
	Features map[string]struct {
		Implies   []string `yaml:"implies"`
		License   string   `yaml:"license"`
		Libraries []string `yaml:"libraries"`
		Symbols   []string `yaml:"symbols"`
	} `yaml:"features"`
}

// LoadGraph parses a feature table from YAML and builds the implication
// graph from it.
func LoadGraph(r io.Reader) (*Graph, error) {
	var file declFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse feature table: %w", err)
	}
	decls := make(map[Flag]Decl, len(file.Features))
	for name, raw := range file.Features {
		decl := Decl{Symbols: raw.Symbols}
		for _, implied := range raw.Implies {
			decl.Implies = append(decl.Implies, Flag(implied))
		}
		for _, lib := range raw.Libraries {
			decl.Libraries = append(decl.Libraries, library.ID(lib))
		}
		if raw.License != "" {
			license, err := ParseLicense(raw.License)
			if err != nil {
				return nil, fmt.Errorf("feature %q: %w", name, err)
			}
			decl.License = license
		}
		decls[Flag(name)] = decl
	}
	return NewGraph(decls)
}

var (
	defaultOnce  sync.Once
	defaultGraph *Graph
)

// DefaultGraph returns the built-in feature graph.
func DefaultGraph() *Graph {
	defaultOnce.Do(func() {
		graph, err := LoadGraph(bytes.NewReader(defaultTable))
		if err != nil {
			panic("feature: invalid embedded table: " + err.Error())
		}
		defaultGraph = graph
	})
	return defaultGraph
}
