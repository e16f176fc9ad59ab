// Package resolve turns a requested feature-flag set into a validated
// resolution plan: expansion, license gating, strategy selection,
// metadata gathering, version validation, and plan emission.
package resolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/qiniu/x/log"

	"github.com/avbuild/avconf/feature"
	"github.com/avbuild/avconf/internal/plan"
	"github.com/avbuild/avconf/internal/resolve/par"
	"github.com/avbuild/avconf/internal/vendored"
	"github.com/avbuild/avconf/pkgs/library"
)

// state tracks the progress of one resolution run. Any failure is
// terminal; the caller re-invokes from the start with corrected inputs.
type state int

const (
	stateStart state = iota
	stateFeaturesExpanded
	stateLicenseChecked
	stateStrategiesSelected
	stateMetadataGathered
	stateVersionsValidated
	statePlanEmitted
	stateFailed
)

var stateNames = [...]string{
	"Start",
	"FeaturesExpanded",
	"LicenseChecked",
	"StrategiesSelected",
	"MetadataGathered",
	"VersionsValidated",
	"PlanEmitted",
	"Failed",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Locator discovers a system-installed library's metadata by its
// pkg-config name. One query attempt per library; a failure is fatal
// for the run, never a silent fallback to another strategy.
type Locator interface {
	Locate(ctx context.Context, name string) (library.Metadata, error)
}

// Resolver wires the collaborators of one resolution run.
type Resolver struct {
	Graph     *feature.Graph
	Libraries *library.Table
	Locator   Locator
	Builder   vendored.Builder

	// Emitter pins the plan emitter; zero value targets the host
	// platform.
	Emitter plan.Emitter
}

// Options are the external inputs of a run. Flag and license parsing is
// the caller's concern; by the time Options exist everything is typed.
type Options struct {
	Features  []feature.Flag
	Accepted  []feature.License
	Mode      Mode
	Overrides map[library.ID]Strategy

	// Jobs bounds parallel metadata gathering. Values below 2 keep the
	// run fully serial. Gathering is independent across libraries; the
	// emitter's sort step restores determinism regardless of
	// completion order.
	Jobs int
}

// Resolve runs the whole pipeline and returns the emitted plan, or the
// first error with enough context to correct the invocation. The plan
// is immutable and safe to share once returned.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*plan.Plan, error) {
	run := stateStart
	step := func(next state) {
		log.Debugf("resolve: %s -> %s", run, next)
		run = next
	}
	fail := func(err error) error {
		log.Debugf("resolve: %s -> %s: %v", run, stateFailed, err)
		run = stateFailed
		return err
	}

	expanded, err := r.Graph.Expand(feature.NewSet(opts.Features...))
	if err != nil {
		return nil, fail(err)
	}
	step(stateFeaturesExpanded)

	if err := r.Graph.CheckLicenses(expanded, opts.Accepted); err != nil {
		return nil, fail(err)
	}
	step(stateLicenseChecked)

	ids := r.Graph.Libraries(expanded)
	specs := make([]library.Spec, 0, len(ids))
	strategies := make(map[library.ID]Strategy, len(ids))
	for _, id := range ids {
		spec, ok := r.Libraries.Lookup(id)
		if !ok {
			return nil, fail(fmt.Errorf("feature table names undeclared library %q", id))
		}
		specs = append(specs, spec)
		strategies[id] = SelectStrategy(id, opts.Mode, opts.Overrides)
	}
	step(stateStrategiesSelected)

	metadata, err := r.gather(ctx, specs, strategies, expanded, opts)
	if err != nil {
		return nil, fail(err)
	}
	step(stateMetadataGathered)

	for _, spec := range specs {
		if err := library.CheckVersion(spec, metadata[spec.ID].Version); err != nil {
			return nil, fail(err)
		}
	}
	step(stateVersionsValidated)

	emitted := r.Emitter.Emit(r.Graph, expanded, metadata)
	step(statePlanEmitted)

	return emitted, nil
}

// gather obtains metadata for every required library, either from the
// system registry or from a vendored build, serially or on a bounded
// pool. No two workers ever target the same library.
func (r *Resolver) gather(ctx context.Context, specs []library.Spec, strategies map[library.ID]Strategy, expanded feature.Set, opts Options) (map[library.ID]library.Metadata, error) {
	metadata := make(map[library.ID]library.Metadata, len(specs))

	one := func(ctx context.Context, spec library.Spec) (library.Metadata, error) {
		switch strategies[spec.ID] {
		case FromSource:
			log.Debugf("resolve: building %s from source", spec.ID)
			return r.Builder.Build(ctx, spec, r.Graph.FlagsFor(expanded, spec.ID), opts.Accepted)
		default:
			log.Debugf("resolve: locating %s via %s", spec.ID, spec.PkgConfig)
			return r.Locator.Locate(ctx, spec.PkgConfig)
		}
	}

	if opts.Jobs > 1 {
		var mu sync.Mutex
		err := par.Do(ctx, opts.Jobs, specs, func(ctx context.Context, spec library.Spec) error {
			meta, err := one(ctx, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			metadata[spec.ID] = meta
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, err
		}
		return metadata, nil
	}

	for _, spec := range specs {
		meta, err := one(ctx, spec)
		if err != nil {
			return nil, err
		}
		metadata[spec.ID] = meta
	}
	return metadata, nil
}
