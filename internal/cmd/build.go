// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"log/slog"

	"github.com/aibor/piboot/internal/workspace"
)

const buildDescription = `Runs the build tool with the given arguments in every directory below the
workspace root that contains a manifest file. Stops at the first failing
unit unless -keep-going is set.

Leading flags listed below are consumed by rcargo. Everything from the first
other argument on is passed to the build tool unchanged. Use "--" to pass a
flag that has the same name as one of rcargo's.`

func (a *app) buildWorkspace(ctx context.Context, args []string) error {
	flagSet := newCommandFlagSet(a.io.Stderr, "rcargo",
		"[flags...] [--] build-tool-args...", buildDescription)

	keepGoing := flagSet.Bool("keep-going", false,
		"build all units even if one fails")
	tool := flagSet.String("tool", workspace.DefaultTool,
		"build tool to run")
	manifest := flagSet.String("manifest", workspace.DefaultManifest,
		"manifest file name that marks a unit")
	root := flagSet.String("root", ".",
		"workspace root directory")

	known, toolArgs := splitKnownFlags(flagSet, args)

	err := parseFlagSet(flagSet, known)
	if err != nil {
		return err
	}

	if len(toolArgs) == 0 {
		return fail(flagSet, "no build tool arguments given", nil)
	}

	units, err := workspace.Discover(*root, *manifest)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if len(units) == 0 {
		slog.Warn("No units found",
			slog.String("root", *root),
			slog.String("manifest", *manifest))
	}

	driver := workspace.Driver{
		Tool:      *tool,
		Args:      toolArgs,
		KeepGoing: *keepGoing,
		Runner:    a.runner,
		Stdout:    a.io.Stdout,
		Stderr:    a.io.Stderr,
	}

	return driver.Run(ctx, units) //nolint:wrapcheck
}
