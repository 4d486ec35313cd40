// Package cmd implements the tc CLI, laid out the way go-dws's
// cmd/dwscript/cmd package is: a cobra root command with one file per
// subcommand, each registering itself in an init().
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the tc release string, set by build flags the way
// go-dws's cmd/dwscript/cmd/root.go sets Version/GitCommit/BuildDate.
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "tc",
	Short: "A tree-walking interpreter with a dataflow-driven optimizer",
	Long: `tc parses, resolves, type-checks, and evaluates a small statically
typed imperative language. Between type checking and evaluation it runs
a reaching-definitions dataflow analysis and three optimization passes:
dead-code elimination, common-subexpression sharing, and algebraic
simplification.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
