// Package main is the entry point for the roost CLI and TUI.
package main

import (
	"fmt"
	"os"

	"github.com/roostchat/roost/internal/cli"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	// Default entrypoint: launch the TUI when invoked with no args.
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"ui"}
		os.Args = append(os.Args[:1], args...)
	}

	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
