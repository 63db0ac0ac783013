// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package disasm disassembles flat kernel images with objdump.
package disasm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aibor/piboot/internal/board"
	"github.com/aibor/piboot/internal/proc"
)

// DefaultExecutable is the objdump used if none is configured.
const DefaultExecutable = "aarch64-linux-gnu-objdump"

// ErrDisassemblyFailed is returned if objdump could not be run or exited
// with a non-zero exit code.
var ErrDisassemblyFailed = errors.New("disassembly failed")

// Disassembler treats the image as raw binary of the profile's architecture
// and shifts all addresses by the profile's load address, so they match the
// addresses the kernel runs at.
type Disassembler struct {
	Executable string
	Profile    board.Profile
	Runner     proc.Runner

	Stdout io.Writer
	Stderr io.Writer
}

// Args returns the objdump arguments for the given image.
func (d *Disassembler) Args(image string) []string {
	return []string{
		"-D",
		"-b", "binary",
		"-m", d.Profile.DisasmArch,
		"--adjust-vma=" + d.Profile.LoadAddress.String(),
		image,
	}
}

// Disassemble writes the disassembly of the flat image to Stdout.
func (d *Disassembler) Disassemble(ctx context.Context, image string) error {
	executable := d.Executable
	if executable == "" {
		executable = DefaultExecutable
	}

	err := d.Runner.Run(ctx, proc.Command{
		Name:   executable,
		Args:   d.Args(image),
		Stdout: d.Stdout,
		Stderr: d.Stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDisassemblyFailed, err)
	}

	return nil
}
