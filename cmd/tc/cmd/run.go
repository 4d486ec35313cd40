package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/enthyp/tc/internal/cerrors"
	"github.com/enthyp/tc/internal/config"
	"github.com/enthyp/tc/internal/pipeline"
)

var (
	runWatch      bool
	runNoOptimize bool
	runDumpAST    bool
)

var runCmd = &cobra.Command{
	Use:   "run <path>",
	Short: "Run a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunCmd,
}

func init() {
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "re-run the file on every save")
	runCmd.Flags().BoolVar(&runNoOptimize, "no-optimize", false, "disable the dataflow optimization pipeline")
	runCmd.Flags().BoolVar(&runDumpAST, "dump-ast", false, "print the (possibly optimized) AST after running it")
	rootCmd.AddCommand(runCmd)
}

func runRunCmd(_ *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfigFor(path)
	if err != nil {
		return err
	}
	if runNoOptimize {
		off := false
		cfg.Optimize = &off
	}

	if err := runOnce(path, cfg); err != nil {
		exitWithError("%v", err)
	}

	if !runWatch {
		return nil
	}
	return watchAndRerun(path, cfg)
}

func runOnce(path string, cfg *config.Config) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ip := pipeline.New(os.Stdout, cfg)
	result, err := ip.Run(string(source), path)
	if err != nil {
		return fmt.Errorf("internal pipeline error: %w", err)
	}

	if result.HasErrors() {
		fmt.Fprintln(os.Stderr, cerrors.FormatAll(result.Diagnostics, true))
	}

	if runDumpAST {
		fmt.Println(result.Program.String())
	}

	return nil
}

// watchAndRerun follows SeleniaProject-Orizon's fsnotify.Watcher wrapping
// pattern: one watcher, one goroutine-free select loop over its Events
// channel, reacting only to write and create events on the watched
// file (an editor's rename-based save shows up as a create).
func watchAndRerun(path string, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl-c to stop)\n", path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := runOnce(path, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func loadConfigFor(path string) (*config.Config, error) {
	dir := filepath.Dir(path)
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
