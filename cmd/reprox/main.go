// Package main provides the reprox CLI entrypoint.
//
// Usage:
//
//	reprox <command> [options]
//
// Exit codes for validate and promote:
//   - 0: valid / promoted
//   - 1: validation failed
//   - 2: destination already exists (promote only)
//   - 3: any other error
//
// promote-all exits 0 once the batch has run; per-directory failures
// are reported in its summary.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/reprox/cli/cmd"
	"github.com/justapithecus/reprox/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

// exitUnexpected matches the "any other error" code of the commands.
const exitUnexpected = 3

func main() {
	app := &cli.App{
		Name:           "reprox",
		Usage:          "Validate run directories and promote them to production",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ValidateCommand(),
			cmd.PromoteCommand(),
			cmd.PromoteAllCommand(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(exitUnexpected)
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	msg, code := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus returns the message to print and the process exit code for err.
// cli.Exit("", N) carries no message worth printing.
func exitStatus(err error) (string, int) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return msg, code
	}
	return fmt.Sprintf("Error: %v", err), exitUnexpected
}
