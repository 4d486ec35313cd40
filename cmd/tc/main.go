// Command tc is the CLI entry point: run a source file or start the
// REPL, following go-dws's cmd/dwscript layout of a thin main.go
// delegating to an internal cobra command tree.
package main

import (
	"os"

	"github.com/enthyp/tc/cmd/tc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
