// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aibor/piboot/internal/proc"
	"github.com/aibor/piboot/internal/sys"
)

// Command is a single QEMU command that can be run.
type Command struct {
	name   string
	args   []string
	runner proc.Runner
}

// NewCommand creates a new [Command] from the given [CommandSpec] that is run
// with the given [proc.Runner].
func NewCommand(spec CommandSpec, runner proc.Runner) (*Command, error) {
	args, err := spec.Args()
	if err != nil {
		return nil, err
	}

	return &Command{
		name:   spec.Executable,
		args:   args,
		runner: runner,
	}, nil
}

// String returns the full command line.
func (c *Command) String() string {
	return c.command(nil, nil, nil).String()
}

// Run runs the emulator with the given standard streams and blocks until it
// exits.
//
// It returns an error matching [ErrLaunchFailed] if the emulator could not be
// located or started. A non-zero exit code of the emulator is returned as
// [exitcode.Error].
//
// If stdin is a terminal, its mode is restored after the emulator exited.
func (c *Command) Run(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	if file, ok := stdin.(*os.File); ok {
		defer sys.SaveTerminal(file).Restore()
	}

	slog.Debug("QEMU command", slog.String("command", c.String()))

	err := c.runner.Run(ctx, c.command(stdin, stdout, stderr))
	if err != nil {
		if errors.Is(err, proc.ErrStart) {
			return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
		}

		return fmt.Errorf("qemu: %w", err)
	}

	return nil
}

func (c *Command) command(
	stdin io.Reader,
	stdout, stderr io.Writer,
) proc.Command {
	return proc.Command{
		Name:   c.name,
		Args:   c.args,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
}
