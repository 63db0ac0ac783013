// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package convert runs the external converter that turns a linked ELF
// executable into a flat image and reports the image layout.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aibor/piboot/internal/layout"
	"github.com/aibor/piboot/internal/proc"
)

// DefaultExecutable is the converter used if none is configured.
const DefaultExecutable = "elf2bin"

// ErrConversionFailed is returned if the converter could not be run or exited
// with a non-zero exit code.
var ErrConversionFailed = errors.New("conversion failed")

// Converter runs the converter "<executable> <elf-input> <flat-output>". It
// expects exactly one line on stdout: "<base> <entry> <size>" in hexadecimal.
type Converter struct {
	Executable string
	Runner     proc.Runner

	// Stderr receives the converter's stderr. Its output is never
	// suppressed.
	Stderr io.Writer
}

// Convert converts the ELF file input into the flat image output and returns
// the reported layout.
func (c *Converter) Convert(
	ctx context.Context,
	input, output string,
) (layout.ImageLayout, error) {
	var stdout bytes.Buffer

	cmd := proc.Command{
		Name:   c.executable(),
		Args:   []string{input, output},
		Stdout: &stdout,
		Stderr: c.Stderr,
	}

	err := c.Runner.Run(ctx, cmd)
	if err != nil {
		return layout.ImageLayout{}, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	imageLayout, err := layout.Parse(stdout.String())
	if err != nil {
		return layout.ImageLayout{}, fmt.Errorf("converter report: %w", err)
	}

	slog.Debug("Converted image",
		slog.String("input", input),
		slog.String("output", output),
		slog.String("layout", imageLayout.String()))

	return imageLayout, nil
}

func (c *Converter) executable() string {
	if c.Executable == "" {
		return DefaultExecutable
	}

	return c.Executable
}
