package main

import (
	"errors"
	"os"
	"os/exec"

	"github.com/jonpo-sc/AID/internal/cli"
	"github.com/jonpo-sc/AID/internal/logging"
)

// main is the entry point for the aid CLI binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)

		// Failed subprocesses surface their own exit status to the caller.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
