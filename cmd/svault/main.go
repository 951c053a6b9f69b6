// Command svault is the CLI for the superposed state vault.
package main

import (
	"fmt"
	"os"

	"github.com/tesseract-labs/svault/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
