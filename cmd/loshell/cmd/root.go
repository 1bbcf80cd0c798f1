// Package cmd wires the expansion core, its sub-packages, and the
// process-backed collaborators in internal/runtime into a urfave/cli/v3
// command tree, the same shape tally's cmd/tally/cmd uses to wire its
// linter core to a CLI.
package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/loshellproject/loshell/internal/version"
)

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "loshell",
		Usage:   "A standalone POSIX/bash word-expansion engine",
		Version: version.Version(),
		Description: `loshell expands shell words the way a POSIX/bash shell does:
tilde, parameter, command, and arithmetic expansion, followed by field
splitting, pathname expansion, and quote removal.

Examples:
  loshell expand 'echo $HOME/*.go'
  echo 'FOO=bar' | loshell repl
  loshell shopt --list`,
		Commands: []*cli.Command{
			expandCommand(),
			replCommand(),
			shoptCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
