package main

import (
	"os"

	"github.com/roach88/turtle/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		format, _ := root.PersistentFlags().GetString("format")
		cli.WriteError(os.Stderr, format, err)
		os.Exit(cli.GetExitCode(err))
	}
}
