// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"debug/elf"
	"fmt"
)

// Arch is the CPU architecture a kernel is built for.
type Arch string

// Supported target architectures.
const (
	ARM64   Arch = "arm64"
	ARM     Arch = "arm"
	RISCV64 Arch = "riscv64"
)

func (a Arch) String() string {
	return string(a)
}

// Set implements [flag.Value].
func (a *Arch) Set(s string) error {
	switch Arch(s) {
	case ARM64, ARM, RISCV64:
		*a = Arch(s)
	default:
		return fmt.Errorf("%w: %s", ErrArchNotSupported, s)
	}

	return nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Arch) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}

// MarshalText implements [encoding.TextMarshaler].
func (a Arch) MarshalText() ([]byte, error) {
	return []byte(a), nil
}

func archFromMachine(machine elf.Machine) (Arch, error) {
	switch machine {
	case elf.EM_AARCH64:
		return ARM64, nil
	case elf.EM_ARM:
		return ARM, nil
	case elf.EM_RISCV:
		return RISCV64, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMachineNotSupported, machine)
	}
}
