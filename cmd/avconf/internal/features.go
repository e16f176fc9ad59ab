package internal

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/avbuild/avconf/feature"
	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List known feature flags",
	Long:  `Features lists every known feature flag with its implications, license gate, and required libraries.`,
	Args:  cobra.NoArgs,
	RunE:  runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	graph := feature.DefaultGraph()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FLAG\tIMPLIES\tLICENSE\tLIBRARIES")
	for _, flag := range graph.Flags() {
		decl, _ := graph.Decl(flag)
		implies := make([]string, len(decl.Implies))
		for i, f := range decl.Implies {
			implies[i] = string(f)
		}
		libs := make([]string, len(decl.Libraries))
		for i, id := range decl.Libraries {
			libs[i] = string(id)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			flag, dashIfEmpty(strings.Join(implies, ",")),
			dashIfEmpty(string(decl.License)), dashIfEmpty(strings.Join(libs, ",")))
	}
	return w.Flush()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
