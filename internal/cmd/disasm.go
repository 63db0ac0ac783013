// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"

	"github.com/aibor/piboot/internal/disasm"
)

const disasmDescription = `Disassembles the flat image with addresses relative to the load address
of the board.`

func (a *app) disassemble(ctx context.Context, args []string) error {
	flagSet := newCommandFlagSet(a.io.Stderr, "dis", "image", disasmDescription)

	err := parseFlagSet(flagSet, args)
	if err != nil {
		return err
	}

	err = requireArgs(flagSet, 1, "image")
	if err != nil {
		return err
	}

	profile, err := a.loadProfile()
	if err != nil {
		return err
	}

	disassembler := disasm.Disassembler{
		Executable: a.flags.objdump,
		Profile:    profile,
		Runner:     a.runner,
		Stdout:     a.io.Stdout,
		Stderr:     a.io.Stderr,
	}

	return disassembler.Disassemble(ctx, flagSet.Arg(0)) //nolint:wrapcheck
}
