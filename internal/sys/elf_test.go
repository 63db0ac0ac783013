// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys_test

import (
	"debug/elf"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/piboot/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadELFArch(t *testing.T) {
	tests := []struct {
		name        string
		machine     elf.Machine
		typ         elf.Type
		expected    sys.Arch
		expectedErr error
	}{
		{
			name:     "aarch64",
			machine:  elf.EM_AARCH64,
			typ:      elf.ET_EXEC,
			expected: sys.ARM64,
		},
		{
			name:     "arm",
			machine:  elf.EM_ARM,
			typ:      elf.ET_EXEC,
			expected: sys.ARM,
		},
		{
			name:     "riscv",
			machine:  elf.EM_RISCV,
			typ:      elf.ET_EXEC,
			expected: sys.RISCV64,
		},
		{
			name:        "x86_64",
			machine:     elf.EM_X86_64,
			typ:         elf.ET_EXEC,
			expectedErr: sys.ErrMachineNotSupported,
		},
		{
			name:        "relocatable",
			machine:     elf.EM_AARCH64,
			typ:         elf.ET_REL,
			expectedErr: sys.ErrNotExecutable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "kernel")
			sys.WriteELFHeader(t, path, tt.machine, tt.typ)

			actual, err := sys.ReadELFArch(path)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestReadELFArch_NotELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o600))

	_, err := sys.ReadELFArch(path)
	require.ErrorIs(t, err, sys.ErrNotELFFile)
}

func TestReadELFArch_Missing(t *testing.T) {
	_, err := sys.ReadELFArch(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestValidateELFArch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel")
	sys.WriteELFHeader(t, path, elf.EM_AARCH64, elf.ET_EXEC)

	require.NoError(t, sys.ValidateELFArch(path, sys.ARM64))
	require.ErrorIs(t, sys.ValidateELFArch(path, sys.RISCV64),
		sys.ErrArchMismatch)
}
