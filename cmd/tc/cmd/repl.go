package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/enthyp/tc/internal/cerrors"
	"github.com/enthyp/tc/internal/config"
	"github.com/enthyp/tc/internal/pipeline"
)

var replNoOptimize bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop",
	Args:  cobra.NoArgs,
	RunE:  runReplCmd,
}

func init() {
	replCmd.Flags().BoolVar(&replNoOptimize, "no-optimize", false, "disable the dataflow optimization pipeline")
	rootCmd.AddCommand(replCmd)
}

func runReplCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if replNoOptimize {
		off := false
		cfg.Optimize = &off
	}

	// Suppress prompts on piped/redirected stdin, the way funvibe-funxy's
	// REPL checks isatty.IsTerminal before writing its own prompt — a
	// script feeding tc on stdin shouldn't see "calc> " interleaved with
	// its own input.
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	scanner := bufio.NewScanner(os.Stdin)
	var pending strings.Builder

	prompt := func() {
		if !interactive {
			return
		}
		if pending.Len() == 0 {
			fmt.Print(cfg.Prompt)
		} else {
			fmt.Print(cfg.ContinuationPrompt)
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		pending.WriteString(line)
		pending.WriteString("\n")

		// A line ending in whitespace (before the newline we just added)
		// signals the statement continues onto the next line.
		if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
			prompt()
			continue
		}

		source := pending.String()
		pending.Reset()

		if strings.TrimSpace(source) != "" {
			ip := pipeline.New(os.Stdout, cfg)
			result, err := ip.Run(source, "<repl>")
			if err != nil {
				fmt.Fprintf(os.Stderr, "internal error: %v\n", err)
			} else if result.HasErrors() {
				fmt.Fprintln(os.Stderr, cerrors.FormatAll(result.Diagnostics, interactive))
			}
		}

		prompt()
	}

	if interactive {
		fmt.Println()
	}
	return scanner.Err()
}
