// Package plan aggregates per-library metadata into the final, immutable
// resolution plan consumed by the linker directive sink and the binding
// generator.
package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/avbuild/avconf/feature"
	"github.com/avbuild/avconf/pkgs/library"
)

// Plan is the final output of one resolution run: everything downstream
// needs to link against the suite and to generate bindings for the
// enabled features. It is read-only once emitted.
type Plan struct {
	Features       []feature.Flag                  `json:"features"`
	Libraries      map[library.ID]library.Metadata `json:"libraries"`
	IncludePaths   []string                        `json:"include_paths"`
	SearchPaths    []string                        `json:"search_paths"`
	LinkDirectives []library.LinkDirective         `json:"link_directives"`
	Defines        []string                        `json:"defines"`
	Allowlist      []string                        `json:"allowlist"`
}

// appleFrameworks is the fixed set of system frameworks the device
// component links against on macOS.
var appleFrameworks = []string{
	"AppKit",
	"AudioToolbox",
	"AVFoundation",
	"CoreFoundation",
	"CoreGraphics",
	"CoreMedia",
	"CoreServices",
	"CoreVideo",
	"Foundation",
	"OpenCL",
	"OpenGL",
	"QTKit",
	"QuartzCore",
	"Security",
	"VideoDecodeAcceleration",
	"VideoToolbox",
}

// Emitter builds plans. GOOS is a field so tests can pin the platform;
// zero value means the host platform.
type Emitter struct {
	GOOS string
}

// Emit aggregates expanded features and gathered metadata into a Plan.
// Output order is fully determined by the inputs: libraries sorted by
// id, directives within a library sorted by kind then name, and paths
// deduplicated by first occurrence. Two runs with identical inputs
// produce byte-identical rendered output.
func (e *Emitter) Emit(graph *feature.Graph, expanded feature.Set, metadata map[library.ID]library.Metadata) *Plan {
	goos := e.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	p := &Plan{
		Features:  expanded.Sorted(),
		Libraries: metadata,
	}

	ids := make([]library.ID, 0, len(metadata))
	for id := range metadata {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	seenInclude := make(map[string]bool)
	seenSearch := make(map[string]bool)
	seenLink := make(map[library.LinkDirective]bool)

	for _, id := range ids {
		meta := metadata[id]
		for _, path := range meta.IncludePaths {
			if !seenInclude[path] {
				seenInclude[path] = true
				p.IncludePaths = append(p.IncludePaths, path)
			}
		}
		for _, path := range meta.SearchPaths {
			if !seenSearch[path] {
				seenSearch[path] = true
				p.SearchPaths = append(p.SearchPaths, path)
			}
		}
		links := append([]library.LinkDirective{}, meta.Links...)
		sort.Slice(links, func(i, j int) bool {
			if links[i].Kind != links[j].Kind {
				return links[i].Kind < links[j].Kind
			}
			return links[i].Name < links[j].Name
		})
		for _, link := range links {
			if !seenLink[link] {
				seenLink[link] = true
				p.LinkDirectives = append(p.LinkDirectives, link)
			}
		}
	}

	if goos == "darwin" && expanded.Has("avdevice") {
		for _, framework := range appleFrameworks {
			link := library.LinkDirective{Kind: library.Framework, Name: framework}
			if !seenLink[link] {
				seenLink[link] = true
				p.LinkDirectives = append(p.LinkDirectives, link)
			}
		}
	}

	seenSymbol := make(map[string]bool)
	for _, flag := range p.Features {
		p.Defines = append(p.Defines, defineFor(flag))
		decl, ok := graph.Decl(flag)
		if !ok {
			continue
		}
		for _, symbol := range decl.Symbols {
			if !seenSymbol[symbol] {
				seenSymbol[symbol] = true
				p.Allowlist = append(p.Allowlist, symbol)
			}
		}
	}
	sort.Strings(p.Allowlist)

	return p
}

// defineFor maps a feature flag to its conditional-compilation symbol,
// e.g. "build-lib-x264" becomes "AVCONF_FEATURE_BUILD_LIB_X264".
func defineFor(flag feature.Flag) string {
	name := strings.ToUpper(string(flag))
	name = strings.ReplaceAll(name, "-", "_")
	return "AVCONF_FEATURE_" + name
}

// WriteDirectives renders the line protocol consumed by the downstream
// build: one directive per line, applied in emitted order.
func (p *Plan) WriteDirectives(w io.Writer) error {
	for _, path := range p.IncludePaths {
		if _, err := fmt.Fprintf(w, "include: %s\n", path); err != nil {
			return err
		}
	}
	for _, path := range p.SearchPaths {
		if _, err := fmt.Fprintf(w, "link-search: %s\n", path); err != nil {
			return err
		}
	}
	for _, link := range p.LinkDirectives {
		if _, err := fmt.Fprintf(w, "link-lib: %s=%s\n", link.Kind, link.Name); err != nil {
			return err
		}
	}
	for _, define := range p.Defines {
		if _, err := fmt.Fprintf(w, "define: %s\n", define); err != nil {
			return err
		}
	}
	for _, symbol := range p.Allowlist {
		if _, err := fmt.Fprintf(w, "allow: %s\n", symbol); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders the plan as indented JSON.
func (p *Plan) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(p)
}
