// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aibor/piboot/internal/qemu"
	"github.com/aibor/piboot/internal/sys"
)

const emulateDescription = `Converts the ELF kernel into a flat image, prints its layout and boots it
in the emulator of the board. All arguments after the kernel are passed to
the emulator unchanged. The emulator's exit code is piboot's exit code.`

func (a *app) emulate(ctx context.Context, args []string) error {
	flagSet := newCommandFlagSet(a.io.Stderr, "run",
		"[flags...] kernel [emulator-flags...]", emulateDescription)

	keepImage := flagSet.Bool("keep-image", false,
		"do not delete the flat image once the emulator is done. "+
			"The path to the file is logged")
	emulator := flagSet.String("emulator", "",
		"emulator binary to use instead of the one of the board")

	err := parseFlagSet(flagSet, args)
	if err != nil {
		return err
	}

	if flagSet.NArg() < 1 {
		return fail(flagSet, "no kernel given", nil)
	}

	kernel, err := sys.AbsolutePath(flagSet.Arg(0))
	if err != nil {
		return fail(flagSet, "kernel path", err)
	}

	err = sys.ValidateFilePath(kernel)
	if err != nil {
		return fmt.Errorf("kernel: %w", err)
	}

	profile, err := a.loadProfile()
	if err != nil {
		return err
	}

	if *emulator != "" {
		profile.Emulator = *emulator
	}

	err = sys.ValidateELFArch(kernel, profile.Arch)
	if err != nil {
		return fmt.Errorf("kernel: %w", err)
	}

	image, err := sys.CreateTempPath("piboot-*.img")
	if err != nil {
		return err //nolint:wrapcheck
	}

	if *keepImage {
		defer slog.Info("Preserving flat image", slog.String("path", image))
	} else {
		defer removeImage(image)
	}

	spec := qemu.NewCommandSpec(profile, image, flagSet.Args()[1:])

	cmd, err := qemu.NewCommand(spec, a.runner)
	if err != nil {
		return fmt.Errorf("board %s: %w", profile.Name, err)
	}

	imageLayout, err := a.converter().Convert(ctx, kernel, image)
	if err != nil {
		return err //nolint:wrapcheck
	}

	err = imageLayout.Fprint(a.io.Stdout)
	if err != nil {
		return fmt.Errorf("print layout: %w", err)
	}

	err = imageLayout.Validate()
	if err != nil {
		slog.Warn("Unexpected image layout", slog.Any("error", err))
	}

	return cmd.Run(ctx, a.io.Stdin, a.io.Stdout, a.io.Stderr) //nolint:wrapcheck
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
