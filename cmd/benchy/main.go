// Command benchy records benchmark measurements into schema-checked tables
// and reports on them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/benchy/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// ExitErrors have already been reported in the selected format.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
