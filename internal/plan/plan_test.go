package plan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/avbuild/avconf/feature"
	"github.com/avbuild/avconf/pkgs/library"
)

func testMetadata() map[library.ID]library.Metadata {
	return map[library.ID]library.Metadata{
		"avcodec": {
			IncludePaths: []string{"/usr/include"},
			SearchPaths:  []string{"/usr/lib"},
			Links:        []library.LinkDirective{{Kind: library.Dylib, Name: "avcodec"}},
			Version:      "6.1.1",
		},
		"avutil": {
			IncludePaths: []string{"/usr/include"},
			SearchPaths:  []string{"/usr/lib"},
			Links:        []library.LinkDirective{{Kind: library.Dylib, Name: "avutil"}},
			Version:      "6.1.1",
		},
	}
}

func TestEmitDeterministic(t *testing.T) {
	graph := feature.DefaultGraph()
	emitter := &Emitter{GOOS: "linux"}
	expanded := feature.NewSet("avcodec", "avutil")

	var first, second bytes.Buffer
	if err := emitter.Emit(graph, expanded, testMetadata()).WriteDirectives(&first); err != nil {
		t.Fatal(err)
	}
	if err := emitter.Emit(graph, expanded, testMetadata()).WriteDirectives(&second); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("identical inputs rendered differently:\n%s\nvs\n%s", first.String(), second.String())
	}
}

func TestEmitDeduplicatesPaths(t *testing.T) {
	graph := feature.DefaultGraph()
	emitter := &Emitter{GOOS: "linux"}

	p := emitter.Emit(graph, feature.NewSet("avcodec", "avutil"), testMetadata())
	if len(p.IncludePaths) != 1 || p.IncludePaths[0] != "/usr/include" {
		t.Errorf("IncludePaths = %v, want single /usr/include", p.IncludePaths)
	}
	if len(p.SearchPaths) != 1 {
		t.Errorf("SearchPaths = %v, want single entry", p.SearchPaths)
	}
}

func TestEmitLinkOrderSortedByLibrary(t *testing.T) {
	graph := feature.DefaultGraph()
	emitter := &Emitter{GOOS: "linux"}

	p := emitter.Emit(graph, feature.NewSet("avcodec", "avutil"), testMetadata())
	if len(p.LinkDirectives) != 2 {
		t.Fatalf("LinkDirectives = %v", p.LinkDirectives)
	}
	// avcodec sorts before avutil
	if p.LinkDirectives[0].Name != "avcodec" || p.LinkDirectives[1].Name != "avutil" {
		t.Errorf("link order = %v", p.LinkDirectives)
	}
}

// A library pulled in only as a link dependency contributes no
// allowlist entries unless its feature is enabled.
func TestEmitAllowlistScopedToFeatures(t *testing.T) {
	graph := feature.DefaultGraph()
	emitter := &Emitter{GOOS: "linux"}

	metadata := testMetadata()
	p := emitter.Emit(graph, feature.NewSet("avutil"), metadata)

	for _, symbol := range p.Allowlist {
		if strings.HasPrefix(symbol, "avcodec_") {
			t.Errorf("allowlist leaked avcodec symbol %q with avcodec disabled", symbol)
		}
	}
	if _, ok := p.Libraries["avcodec"]; !ok {
		t.Error("avcodec metadata should survive in the plan even with its feature disabled")
	}
}

func TestEmitDefines(t *testing.T) {
	graph := feature.DefaultGraph()
	emitter := &Emitter{GOOS: "linux"}

	p := emitter.Emit(graph, feature.NewSet("build-lib-x264"), nil)
	found := false
	for _, define := range p.Defines {
		if define == "AVCONF_FEATURE_BUILD_LIB_X264" {
			found = true
		}
	}
	if !found {
		t.Errorf("Defines = %v, missing AVCONF_FEATURE_BUILD_LIB_X264", p.Defines)
	}
}

func TestEmitAppleFrameworks(t *testing.T) {
	graph := feature.DefaultGraph()

	linux := (&Emitter{GOOS: "linux"}).Emit(graph, feature.NewSet("avdevice"), testMetadata())
	for _, link := range linux.LinkDirectives {
		if link.Kind == library.Framework {
			t.Fatalf("linux plan has framework directive %v", link)
		}
	}

	darwin := (&Emitter{GOOS: "darwin"}).Emit(graph, feature.NewSet("avdevice"), testMetadata())
	var frameworks int
	for _, link := range darwin.LinkDirectives {
		if link.Kind == library.Framework {
			frameworks++
		}
	}
	if frameworks != len(appleFrameworks) {
		t.Errorf("darwin plan has %d framework directives, want %d", frameworks, len(appleFrameworks))
	}

	// Frameworks are tied to avdevice, not to macOS alone.
	noDevice := (&Emitter{GOOS: "darwin"}).Emit(graph, feature.NewSet("avcodec"), testMetadata())
	for _, link := range noDevice.LinkDirectives {
		if link.Kind == library.Framework {
			t.Fatalf("plan without avdevice has framework directive %v", link)
		}
	}
}

func TestWriteDirectivesFormat(t *testing.T) {
	graph := feature.DefaultGraph()
	emitter := &Emitter{GOOS: "linux"}

	var buf bytes.Buffer
	p := emitter.Emit(graph, feature.NewSet("avutil"), map[library.ID]library.Metadata{
		"avutil": {
			IncludePaths: []string{"/opt/include"},
			SearchPaths:  []string{"/opt/lib"},
			Links:        []library.LinkDirective{{Kind: library.Dylib, Name: "avutil"}},
			Version:      "6.0",
		},
	})
	if err := p.WriteDirectives(&buf); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"include: /opt/include\n",
		"link-search: /opt/lib\n",
		"link-lib: dylib=avutil\n",
		"define: AVCONF_FEATURE_AVUTIL\n",
		"allow: av_\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("directives missing %q:\n%s", want, out)
		}
	}
}
