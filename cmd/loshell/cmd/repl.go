package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// replCommand reads lines from stdin, expands each, and prints the
// resulting fields, one per line prefixed with its index — a minimal
// read-eval-print loop for interactively exercising the expansion core.
func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Read lines from stdin, expand each, and print the resulting fields",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to shell-option config file (default: auto-discover)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := loadOptions(cmd.String("config"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("loshell repl: %v", err), ExitConfigError)
			}
			driver := newDriver(opts)

			interactive := isatty.IsTerminal(os.Stdin.Fd())
			scanner := bufio.NewScanner(os.Stdin)
			for {
				if interactive {
					fmt.Fprint(os.Stderr, "loshell> ")
				}
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				if line == "" {
					continue
				}
				fields, err := expandLine(ctx, driver, line)
				if err != nil {
					fmt.Fprintf(os.Stderr, "loshell: %v\n", err)
					continue
				}
				for i, f := range fields {
					fmt.Printf("[%d] %s\n", i, f)
				}
			}
			return scanner.Err()
		},
	}
}
