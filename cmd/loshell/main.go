// Command loshell is the CLI entrypoint for the word-expansion engine.
package main

import (
	"fmt"
	"os"

	"github.com/loshellproject/loshell/cmd/loshell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
