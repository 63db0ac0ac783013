// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadELFArch returns the [Arch] of the given ELF file.
//
// Bare metal images are usually built with OSABI none, so only the machine
// type is taken into account.
func ReadELFArch(fileName string) (Arch, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	defer file.Close()

	return readELFArch(file)
}

func readELFArch(r io.ReaderAt) (Arch, error) {
	elfFile, err := elf.NewFile(r)
	if err != nil {
		var formatErr *elf.FormatError
		if errors.As(err, &formatErr) {
			return "", fmt.Errorf("%w: %v", ErrNotELFFile, err)
		}

		return "", fmt.Errorf("read ELF header: %w", err)
	}
	defer elfFile.Close()

	if elfFile.Type != elf.ET_EXEC {
		return "", fmt.Errorf("%w: %s", ErrNotExecutable, elfFile.Type)
	}

	return archFromMachine(elfFile.Machine)
}

// ValidateELFArch checks that the given ELF file is an executable built for
// the given [Arch].
func ValidateELFArch(fileName string, arch Arch) error {
	actual, err := ReadELFArch(fileName)
	if err != nil {
		return err
	}

	if actual != arch {
		return fmt.Errorf("%w: %s, want %s", ErrArchMismatch, actual, arch)
	}

	return nil
}
