// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aibor/piboot/internal/convert"
	"github.com/aibor/piboot/internal/proc"
	"github.com/aibor/piboot/internal/sys"
)

// Defaults for [Config].
const (
	DefaultExamplesDir  = "expi_examples"
	DefaultBuildTool    = "cargo"
	DefaultTargetTriple = "aarch64-unknown-none"
	DefaultDestination  = "/srv/tftp/kernel8.img"
)

// TempSuffix is appended to the destination path for the upload before it is
// renamed to the destination.
const TempSuffix = ".piboot-tmp"

var (
	// ErrBuildFailed is returned if the build tool failed.
	ErrBuildFailed = errors.New("build failed")

	// ErrTransferFailed is returned if the image could not be transferred.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrInvalidTarget is returned if the [Target] is incomplete.
	ErrInvalidTarget = errors.New("invalid deployment target")
)

// Target is a single deployment request.
type Target struct {
	// Host is the remote host as understood by the [Transport].
	Host string
	// Binary is the name of the binary target to build.
	Binary string
}

// Validate checks that host and binary are set, the host is well-formed and
// the binary is a plain name.
func (t Target) Validate() error {
	switch {
	case t.Host == "":
		return fmt.Errorf("%w: empty host", ErrInvalidTarget)
	case t.Binary == "":
		return fmt.Errorf("%w: empty binary name", ErrInvalidTarget)
	case strings.ContainsRune(t.Binary, filepath.Separator):
		return fmt.Errorf("%w: binary name %q contains path separator",
			ErrInvalidTarget, t.Binary)
	}

	_, err := parseRemoteHost(t.Host)

	return err
}

// Config defines where binaries are built and where images are deployed to.
type Config struct {
	// Workspace is the root directory of the source tree.
	Workspace string

	// ExamplesDir is the sub workspace relative to Workspace the binaries
	// are built in.
	ExamplesDir string

	// BuildTool is the build tool executable.
	BuildTool string

	// TargetTriple is the compilation target the binaries are built for.
	// It determines the output path of the build.
	TargetTriple string

	// Destination is the path of the image on the remote host.
	Destination string
}

// WithDefaults returns a copy of the config with defaults set for empty
// values.
func (c Config) WithDefaults() Config {
	setDefault(&c.ExamplesDir, DefaultExamplesDir)
	setDefault(&c.BuildTool, DefaultBuildTool)
	setDefault(&c.TargetTriple, DefaultTargetTriple)
	setDefault(&c.Destination, DefaultDestination)

	return c
}

func setDefault(value *string, def string) {
	if *value == "" {
		*value = def
	}
}

// BuildDir returns the directory the build tool is run in.
func (c Config) BuildDir() string {
	return filepath.Join(c.Workspace, c.ExamplesDir)
}

// BinaryPath returns the path of the built release binary with the given
// name.
func (c Config) BinaryPath(name string) string {
	return filepath.Join(c.BuildDir(), "target", c.TargetTriple, "release", name)
}

// Driver runs deployments.
type Driver struct {
	Config    Config
	Runner    proc.Runner
	Converter *convert.Converter
	Transport Transport

	// KeepImage keeps the temporary flat image instead of removing it.
	KeepImage bool

	Stdout io.Writer
	Stderr io.Writer
}

// Deploy builds, converts and transfers the given [Target]. Stages run in
// order and the first failing one aborts the deployment.
func (d *Driver) Deploy(ctx context.Context, target Target) error {
	err := target.Validate()
	if err != nil {
		return err
	}

	cfg := d.Config.WithDefaults()

	err = d.build(ctx, cfg, target.Binary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	image, err := sys.CreateTempPath("piboot-" + target.Binary + "-*.img")
	if err != nil {
		return err //nolint:wrapcheck
	}

	if d.KeepImage {
		defer slog.Info("Preserving flat image", slog.String("path", image))
	} else {
		defer removeImage(image)
	}

	imageLayout, err := d.Converter.Convert(ctx, cfg.BinaryPath(target.Binary), image)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if d.Stdout != nil {
		err = imageLayout.Fprint(d.Stdout)
		if err != nil {
			return fmt.Errorf("print layout: %w", err)
		}
	}

	slog.Info("Transfer image",
		slog.String("host", target.Host),
		slog.String("destination", cfg.Destination))

	err = d.Transport.Transfer(ctx, image, target.Host, cfg.Destination)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	return nil
}

func (d *Driver) build(ctx context.Context, cfg Config, binary string) error {
	return d.Runner.Run(ctx, proc.Command{ //nolint:wrapcheck
		Name:   cfg.BuildTool,
		Args:   []string{"build", "--release", "--bin", binary},
		Dir:    cfg.BuildDir(),
		Stdout: d.Stdout,
		Stderr: d.Stderr,
	})
}

func removeImage(path string) {
	slog.Debug("Removing flat image", slog.String("path", path))

	err := os.Remove(path)
	if err != nil {
		slog.Error("Failed to remove flat image",
			slog.String("path", path),
			slog.Any("error", err))
	}
}
