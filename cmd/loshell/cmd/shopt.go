package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// shoptCommand prints the effective shell-option set after config
// discovery and environment overrides, so a user can check why a given
// word expanded the way it did without reading config files by hand.
func shoptCommand() *cli.Command {
	return &cli.Command{
		Name:  "shopt",
		Usage: "Print the effective shell option set",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to shell-option config file (default: auto-discover)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts, err := loadOptions(cmd.String("config"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("loshell shopt: %v", err), ExitConfigError)
			}

			rows := []struct {
				name string
				on   bool
			}{
				{"nounset", opts.NoUnset()},
				{"noglob", opts.NoGlob()},
				{"nullglob", opts.NullGlob()},
				{"failglob", opts.FailGlob()},
				{"nocasematch", opts.NoCaseMatch()},
				{"extglob", opts.ExtGlob()},
				{"dotglob", opts.DotGlob()},
				{"globasciiranges", opts.GlobAsciiRanges()},
				{"globstar", opts.GlobStar()},
				{"braceexpand", opts.Brace()},
				{"errexit", opts.ErrExit()},
			}
			for _, r := range rows {
				state := "off"
				if r.on {
					state = "on"
				}
				fmt.Printf("%-16s %s\n", r.name, state)
			}
			fmt.Printf("%-16s %q\n", "ifs", opts.IFS)
			if opts.ConfigFile != "" {
				fmt.Printf("# loaded from %s\n", opts.ConfigFile)
			}
			return nil
		},
	}
}
