// Command mheg runs, validates and tests MHEG-5 applications.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mheg/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mheg:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
