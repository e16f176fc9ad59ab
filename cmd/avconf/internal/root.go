package internal

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "avconf",
	Short: "avconf resolves feature flags into a build plan",
	Long:  `avconf expands media feature flags, locates or builds the native libraries they require, and emits the compiler and linker plan for them.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
