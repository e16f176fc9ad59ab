package internal

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/avbuild/avconf/feature"
	"github.com/spf13/cobra"
)

var licensesCmd = &cobra.Command{
	Use:   "licenses",
	Short: "List license gates and the flags behind them",
	Long:  `Licenses lists each restrictive license kind together with the feature flags gated behind it.`,
	Args:  cobra.NoArgs,
	RunE:  runLicenses,
}

func init() {
	rootCmd.AddCommand(licensesCmd)
}

func runLicenses(cmd *cobra.Command, args []string) error {
	graph := feature.DefaultGraph()

	gated := map[feature.License][]feature.Flag{}
	for _, flag := range graph.Flags() {
		decl, _ := graph.Decl(flag)
		if decl.License != "" {
			gated[decl.License] = append(gated[decl.License], flag)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LICENSE\tACCEPT FLAG\tGATED FEATURES")
	for _, license := range []feature.License{feature.GPL, feature.NonFree, feature.Version3} {
		flags := gated[license]
		names := make([]string, len(flags))
		for i, f := range flags {
			names[i] = string(f)
		}
		fmt.Fprintf(w, "%s\t--accept-%s\t%s\n", license, license, dashIfEmpty(strings.Join(names, ",")))
	}
	return w.Flush()
}
