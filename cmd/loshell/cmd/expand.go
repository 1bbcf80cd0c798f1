package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/loshellproject/loshell/internal/arith"
	"github.com/loshellproject/loshell/internal/expand"
	"github.com/loshellproject/loshell/internal/parser"
	"github.com/loshellproject/loshell/internal/runtime"
	"github.com/loshellproject/loshell/internal/shopt"
)

// Exit codes, matching tally's cmd/tally/cmd exit-code convention.
const (
	ExitSuccess     = 0
	ExitExpandError = 1
	ExitConfigError = 2
)

func expandCommand() *cli.Command {
	return &cli.Command{
		Name:      "expand",
		Usage:     "Expand a shell word or command line and print the resulting fields",
		ArgsUsage: "WORDS...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to shell-option config file (default: auto-discover)",
			},
			&cli.BoolFlag{
				Name:  "quoted",
				Usage: "Print each resulting field quoted, one per line",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			line := strings.Join(cmd.Args().Slice(), " ")
			if line == "" {
				return cli.Exit("loshell expand: no input given", ExitConfigError)
			}

			opts, err := loadOptions(cmd.String("config"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("loshell expand: %v", err), ExitConfigError)
			}

			driver := newDriver(opts)
			fields, err := expandLine(ctx, driver, line)
			if err != nil {
				return cli.Exit(fmt.Sprintf("loshell expand: %v", err), ExitExpandError)
			}

			for _, f := range fields {
				if cmd.Bool("quoted") {
					fmt.Printf("%q\n", f)
				} else {
					fmt.Println(f)
				}
			}
			return nil
		},
	}
}

func loadOptions(configFlag string) (*shopt.Options, error) {
	if configFlag != "" {
		return shopt.LoadFromFile(configFlag)
	}
	return shopt.Load(".")
}

func newDriver(opts *shopt.Options) *expand.Driver {
	store := runtime.NewStore(nil)
	return &expand.Driver{
		Vars:   store,
		Exec:   &runtime.SubshellExecutor{},
		Opts:   opts,
		FS:     runtime.Filesystem{},
		Prompt: &runtime.Prompt{},
		Arith:  &arith.Evaluator{Assign: func(name, value string) error { return store.Set(name, value, false) }},
		IFS:    func() string { return opts.IFS },
	}
}

// expandLine splits line into its simple-command word boundaries via
// internal/parser, then runs every word through the Driver, flattening the
// resulting fields in order, mirroring how a command line's argv is built
// up word by word before exec.
func expandLine(ctx context.Context, driver *expand.Driver, line string) ([]string, error) {
	commands, err := parser.SplitWords(line, parser.VariantBash)
	if err != nil {
		return nil, err
	}

	var fields []string
	for _, words := range commands {
		for _, w := range words {
			result, err := driver.Expand(ctx, w, expand.DefaultCommandWordFlags())
			if err != nil {
				return nil, err
			}
			fields = append(fields, result.Strings()...)
		}
	}
	return fields, nil
}
