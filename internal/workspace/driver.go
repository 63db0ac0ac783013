// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aibor/piboot/internal/proc"
)

// DefaultTool is the build tool used if none is configured.
const DefaultTool = "cargo"

// ErrNoArgs is returned if the driver is run without build tool arguments.
var ErrNoArgs = errors.New("no build tool arguments given")

// Driver runs the build tool in each [Unit].
type Driver struct {
	// Tool is the build tool executable.
	Tool string

	// Args are passed to the build tool unchanged.
	Args []string

	// KeepGoing continues with the remaining units after a failure. By
	// default the first failure aborts the run.
	KeepGoing bool

	Runner proc.Runner
	Stdout io.Writer
	Stderr io.Writer
}

// UnitError is the failure of a single [Unit].
type UnitError struct {
	Dir string
	Err error
}

// Error implements the [error] interface.
func (e *UnitError) Error() string {
	return "unit " + e.Dir + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*UnitError) Is(other error) bool {
	_, ok := other.(*UnitError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *UnitError) Unwrap() error {
	return e.Err
}

// Run runs the build tool in the given units in order.
//
// In fail-fast mode, the returned error is the [UnitError] of the failed unit
// and no further units are built. With [Driver.KeepGoing], all unit errors
// are joined in order. Once ctx is done no further units are built, even
// with [Driver.KeepGoing].
func (d *Driver) Run(ctx context.Context, units []Unit) error {
	if len(d.Args) == 0 {
		return ErrNoArgs
	}

	var errs []error

	for _, unit := range units {
		if ctx.Err() != nil {
			stopErr := fmt.Errorf("stopped before %s: %w", unit.Dir, context.Cause(ctx))
			return errors.Join(append(errs, stopErr)...)
		}

		err := d.build(ctx, unit)
		if err == nil {
			continue
		}

		err = &UnitError{Dir: unit.Dir, Err: err}

		if !d.KeepGoing {
			return err
		}

		slog.Warn("Unit failed, continuing", slog.String("dir", unit.Dir))

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (d *Driver) build(ctx context.Context, unit Unit) error {
	restore, err := enterDir(unit.Dir)
	if err != nil {
		return err
	}
	defer restore()

	slog.Info("Build unit", slog.String("dir", unit.Dir))

	return d.Runner.Run(ctx, proc.Command{ //nolint:wrapcheck
		Name:   d.tool(),
		Args:   d.Args,
		Stdout: d.Stdout,
		Stderr: d.Stderr,
	})
}

func (d *Driver) tool() string {
	if d.Tool == "" {
		return DefaultTool
	}

	return d.Tool
}

// enterDir changes the working directory of the process to dir and returns a
// function that changes back to the previous one.
func enterDir(dir string) (func(), error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	err = os.Chdir(dir)
	if err != nil {
		return nil, fmt.Errorf("enter unit directory: %w", err)
	}

	return func() {
		err := os.Chdir(prev)
		if err != nil {
			slog.Error("Failed to return to working directory",
				slog.String("dir", prev),
				slog.Any("error", err))
		}
	}, nil
}
