// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/aibor/piboot/internal/exitcode"
)

// Command describes a single child process invocation.
type Command struct {
	// Name of the executable. Looked up in PATH if it contains no path
	// separator.
	Name string

	// Args are the arguments without the executable itself.
	Args []string

	// Dir is the working directory of the child. Empty means the current
	// working directory of the calling process.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String returns the command line in a human readable form.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs [Command]s.
type Runner interface {
	// Run runs the command and blocks until it exits. It returns an error
	// matching [ErrStart] if the command could not be started and an error
	// wrapping [exitcode.Error] if it exited with a non-zero exit code.
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner is a [Runner] that runs commands with [exec.CommandContext].
type ExecRunner struct{}

// Run implements [Runner].
func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return &StartError{Name: cmd.Name, Err: err}
	}

	execCmd := exec.CommandContext(ctx, path, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Stdin = cmd.Stdin
	execCmd.Stdout = cmd.Stdout
	execCmd.Stderr = cmd.Stderr

	slog.Debug("Run command",
		slog.String("command", cmd.String()),
		slog.String("dir", cmd.Dir))

	err = execCmd.Start()
	if err != nil {
		return &StartError{Name: cmd.Name, Err: err}
	}

	err = execCmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return fmt.Errorf("%s: %w", cmd.Name, exitcode.Error(exitErr.ExitCode()))
		}

		// Killed by signal, e.g. on context cancellation.
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}

	return nil
}
