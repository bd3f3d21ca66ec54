package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/structcc/structcc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands format their own errors before returning an ExitError;
		// anything else (flag parsing, bad format) still needs a line here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
