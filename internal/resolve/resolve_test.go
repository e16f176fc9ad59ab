package resolve

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/avbuild/avconf/feature"
	"github.com/avbuild/avconf/internal/plan"
	"github.com/avbuild/avconf/pkgs/library"
)

func newTestResolver(locator Locator, builder *mockBuilder) *Resolver {
	return &Resolver{
		Graph:     feature.DefaultGraph(),
		Libraries: library.DefaultTable(),
		Locator:   locator,
		Builder:   builder,
		Emitter:   plan.Emitter{GOOS: "linux"},
	}
}

// Requesting avformat must pull in avcodec (and avutil) through the
// implication chain, and the allowlist must carry both components'
// symbol patterns.
func TestResolveExpandsImpliedComponents(t *testing.T) {
	r := newTestResolver(suiteLocator("6.1.1"), &mockBuilder{})

	p, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"avformat"},
		Mode:     PreferSystem,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	got := feature.NewSet(p.Features...)
	for _, want := range []feature.Flag{"avformat", "avcodec", "avutil"} {
		if !got.Has(want) {
			t.Errorf("plan features missing %s: %v", want, p.Features)
		}
	}

	allow := make(map[string]bool)
	for _, symbol := range p.Allowlist {
		allow[symbol] = true
	}
	if !allow["avformat_"] || !allow["avcodec_"] {
		t.Errorf("allowlist missing component patterns: %v", p.Allowlist)
	}
}

// A GPL-gated flag without GPL acceptance fails before any discovery
// query is performed.
func TestResolveLicenseViolationBeforeDiscovery(t *testing.T) {
	locator := suiteLocator("6.1.1")
	r := newTestResolver(locator, &mockBuilder{})

	_, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"build-lib-x264"},
		Mode:     PreferSystem,
	})

	var violation *feature.ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected *feature.ViolationError, got %v", err)
	}
	if violation.Flag != "build-lib-x264" || violation.Required != feature.GPL {
		t.Errorf("violation = {%s %s}, want {build-lib-x264 gpl}", violation.Flag, violation.Required)
	}
	if locator.queries() != 0 {
		t.Errorf("license violation must fail before discovery, saw %d queries", locator.queries())
	}
}

// A discovered version below the minimum fails the whole run with a
// TooOldError naming the library.
func TestResolveVersionTooOld(t *testing.T) {
	r := newTestResolver(suiteLocator("3.0.0"), &mockBuilder{})

	_, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"avcodec"},
		Mode:     PreferSystem,
	})

	var tooOld *library.TooOldError
	if !errors.As(err, &tooOld) {
		t.Fatalf("expected *library.TooOldError, got %v", err)
	}
	if tooOld.Found != "3.0.0" {
		t.Errorf("TooOldError.Found = %s, want 3.0.0", tooOld.Found)
	}
}

// One requested flag, three libraries in the plan: avdevice implies
// avformat implies avcodec (plus the avutil base).
func TestResolveTransitiveLibraries(t *testing.T) {
	r := newTestResolver(suiteLocator("6.1.1"), &mockBuilder{})

	p, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"avdevice"},
		Mode:     PreferSystem,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	for _, id := range []library.ID{"avdevice", "avformat", "avcodec", "avutil"} {
		if _, ok := p.Libraries[id]; !ok {
			t.Errorf("plan missing library %s", id)
		}
	}
}

func TestResolveNotFoundIsFatal(t *testing.T) {
	locator := suiteLocator("6.1.1")
	delete(locator.results, "libavcodec")
	r := newTestResolver(locator, &mockBuilder{})

	_, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"avcodec"},
		Mode:     PreferSystem,
	})
	if err == nil {
		t.Fatal("expected discovery failure")
	}
}

// ForceFromSource routes every library through the vendored builder; a
// per-library override back to the system wins over the global mode.
func TestResolveStrategies(t *testing.T) {
	locator := suiteLocator("6.1.1")
	builder := &mockBuilder{}
	r := newTestResolver(locator, builder)

	p, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"avcodec"},
		Mode:     ForceFromSource,
		Overrides: map[library.ID]Strategy{
			"avutil": SystemInstall,
		},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if builder.builds.Load() != 1 {
		t.Errorf("expected 1 vendored build (avcodec), got %d", builder.builds.Load())
	}
	if locator.queries() != 1 {
		t.Errorf("expected 1 system query (avutil override), got %d", locator.queries())
	}
	if p.Libraries["avutil"].Links[0].Kind != library.Dylib {
		t.Error("avutil should come from the system install")
	}
	if p.Libraries["avcodec"].Links[0].Kind != library.Static {
		t.Error("avcodec should come from the vendored build")
	}
}

func TestResolveBuildErrorIsFatal(t *testing.T) {
	builder := &mockBuilder{err: errors.New("nasm missing")}
	r := newTestResolver(suiteLocator("6.1.1"), builder)

	_, err := r.Resolve(context.Background(), Options{
		Features: []feature.Flag{"avutil"},
		Mode:     ForceFromSource,
	})
	if err == nil {
		t.Fatal("expected vendored build failure to abort resolution")
	}
}

// Two runs with identical inputs render byte-identical directives, and
// a parallel run matches a serial one.
func TestResolveDeterminism(t *testing.T) {
	render := func(jobs int) string {
		r := newTestResolver(suiteLocator("6.1.1"), &mockBuilder{})
		p, err := r.Resolve(context.Background(), Options{
			Features: []feature.Flag{"avdevice", "avfilter", "swscale"},
			Mode:     PreferSystem,
			Jobs:     jobs,
		})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		var buf bytes.Buffer
		if err := p.WriteDirectives(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}

	serial1 := render(0)
	serial2 := render(0)
	parallel := render(4)

	if serial1 != serial2 {
		t.Error("two serial runs rendered differently")
	}
	if serial1 != parallel {
		t.Errorf("parallel run rendered differently:\nserial:\n%s\nparallel:\n%s", serial1, parallel)
	}
}

func TestSelectStrategyOverrideWins(t *testing.T) {
	overrides := map[library.ID]Strategy{"x264": FromSource}

	for _, mode := range []Mode{PreferSystem, ForceFromSource} {
		if got := SelectStrategy("x264", mode, overrides); got != FromSource {
			t.Errorf("SelectStrategy(x264, %s, override) = %s, want %s", mode, got, FromSource)
		}
	}
	if got := SelectStrategy("x264", PreferSystem, nil); got != SystemInstall {
		t.Errorf("SelectStrategy without override = %s, want %s", got, SystemInstall)
	}
	if got := SelectStrategy("x264", ForceFromSource, nil); got != FromSource {
		t.Errorf("SelectStrategy under ForceFromSource = %s, want %s", got, FromSource)
	}
}

func TestParseMode(t *testing.T) {
	if _, err := ParseMode("systemd"); err == nil {
		t.Error("expected error for unknown mode")
	}
	mode, err := ParseMode("source")
	if err != nil || mode != ForceFromSource {
		t.Errorf("ParseMode(source) = %s, %v", mode, err)
	}
}
