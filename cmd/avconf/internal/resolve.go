package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/avbuild/avconf/feature"
	"github.com/avbuild/avconf/internal/locate"
	"github.com/avbuild/avconf/internal/resolve"
	"github.com/avbuild/avconf/internal/vendored"
	"github.com/avbuild/avconf/pkgs/library"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	resolveFeatures   []string
	resolveAcceptGPL  bool
	resolveAcceptNF   bool
	resolveAcceptV3   bool
	resolveMode       string
	resolveFromSource []string
	resolveJobs       int
	resolveJSON       bool
	resolveVerbose    bool
	resolveTables     string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve feature flags into a build plan",
	Long: `Resolve expands the requested feature flags, checks license gates,
locates or builds every required library, and prints the resulting
compiler and linker plan.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringArrayVarP(&resolveFeatures, "feature", "f", nil, "Feature flag to enable (repeatable)")
	resolveCmd.Flags().BoolVar(&resolveAcceptGPL, "accept-gpl", false, "Accept GPL-licensed features")
	resolveCmd.Flags().BoolVar(&resolveAcceptNF, "accept-nonfree", false, "Accept nonfree features")
	resolveCmd.Flags().BoolVar(&resolveAcceptV3, "accept-version3", false, "Accept (L)GPL version 3 features")
	resolveCmd.Flags().StringVar(&resolveMode, "mode", string(resolve.PreferSystem), "Build mode: system or source")
	resolveCmd.Flags().StringSliceVar(&resolveFromSource, "from-source", nil, "Libraries to build from source regardless of mode")
	resolveCmd.Flags().IntVar(&resolveJobs, "jobs", 1, "Parallel metadata gathering workers")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the plan as JSON instead of directives")
	resolveCmd.Flags().StringVar(&resolveTables, "tables", "", "Directory with features.yaml/libraries.yaml overriding the built-in tables")
	resolveCmd.Flags().BoolVarP(&resolveVerbose, "verbose", "v", false, "Enable verbose resolution output")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if resolveVerbose {
		log.SetOutputLevel(log.Ldebug)
	}

	graph, table, err := loadTables(resolveTables)
	if err != nil {
		return err
	}

	opts, err := resolveOptions(graph, table)
	if err != nil {
		return err
	}

	ctx := context.Background()

	locator, err := newLocator(ctx)
	if err != nil {
		return err
	}
	builder, err := vendored.NewSourceBuilder()
	if err != nil {
		return fmt.Errorf("failed to init source builder: %w", err)
	}

	r := &resolve.Resolver{
		Graph:     graph,
		Libraries: table,
		Locator:   locator,
		Builder:   builder,
	}
	p, err := r.Resolve(ctx, opts)
	if err != nil {
		return err
	}

	if resolveJSON {
		return p.WriteJSON(os.Stdout)
	}
	return p.WriteDirectives(os.Stdout)
}

// resolveOptions turns raw command-line input into typed Options,
// rejecting unknown flags, modes, and library names up front.
func resolveOptions(graph *feature.Graph, table *library.Table) (resolve.Options, error) {
	if len(resolveFeatures) == 0 {
		return resolve.Options{}, fmt.Errorf("no features requested, pass at least one -f flag")
	}

	flags := make([]feature.Flag, 0, len(resolveFeatures))
	for _, name := range resolveFeatures {
		flag, err := graph.ParseFlag(name)
		if err != nil {
			return resolve.Options{}, err
		}
		flags = append(flags, flag)
	}

	var accepted []feature.License
	if resolveAcceptGPL {
		accepted = append(accepted, feature.GPL)
	}
	if resolveAcceptNF {
		accepted = append(accepted, feature.NonFree)
	}
	if resolveAcceptV3 {
		accepted = append(accepted, feature.Version3)
	}

	mode, err := resolve.ParseMode(resolveMode)
	if err != nil {
		return resolve.Options{}, err
	}

	overrides := make(map[library.ID]resolve.Strategy, len(resolveFromSource))
	for _, name := range resolveFromSource {
		id := library.ID(strings.TrimSpace(name))
		if _, ok := table.Lookup(id); !ok {
			return resolve.Options{}, fmt.Errorf("unknown library %q in --from-source", name)
		}
		overrides[id] = resolve.FromSource
	}

	return resolve.Options{
		Features:  flags,
		Accepted:  accepted,
		Mode:      mode,
		Overrides: overrides,
		Jobs:      resolveJobs,
	}, nil
}

// loadTables returns the feature graph and library table, preferring
// files under dir over the embedded defaults.
func loadTables(dir string) (*feature.Graph, *library.Table, error) {
	graph := feature.DefaultGraph()
	table := library.DefaultTable()
	if dir == "" {
		return graph, table, nil
	}

	if f, err := os.Open(filepath.Join(dir, "features.yaml")); err == nil {
		graph, err = feature.LoadGraph(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load feature table: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, nil, err
	}

	if f, err := os.Open(filepath.Join(dir, "libraries.yaml")); err == nil {
		table, err = library.LoadTable(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load library table: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, nil, err
	}

	return graph, table, nil
}

// newLocator builds the pkg-config locator. On macOS a Homebrew keg
// prefix, when present, joins the search path so keg-only installs
// resolve without manual PKG_CONFIG_PATH setup.
func newLocator(ctx context.Context) (*locate.PkgConfig, error) {
	var opts []locate.Option
	if runtime.GOOS == "darwin" {
		if dir, err := locate.BrewPkgConfigPath(ctx, "ffmpeg"); err == nil {
			opts = append(opts, locate.WithSearchPath(dir))
		}
	}
	return locate.NewPkgConfig(opts...), nil
}
