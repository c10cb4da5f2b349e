package main

import (
	"fmt"
	"os"

	"github.com/roach88/turnstile/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "turnstile:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
