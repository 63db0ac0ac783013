// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"
)

// WriteELFHeader writes a file that consists of a bare 64 bit little endian
// ELF header with the given machine and type only. It is enough for
// [ReadELFArch].
func WriteELFHeader(tb testing.TB, path string, machine elf.Machine, typ elf.Type) {
	tb.Helper()

	hdr := elf.Header64{
		Type:      uint16(typ),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     0x80000,
		Ehsize:    64,
		Phentsize: 56,
		Shentsize: 64,
	}

	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var buf bytes.Buffer

	err := binary.Write(&buf, binary.LittleEndian, hdr)
	if err != nil {
		tb.Fatalf("encode ELF header: %v", err)
	}

	err = os.WriteFile(path, buf.Bytes(), 0o600)
	if err != nil {
		tb.Fatalf("write ELF header %s: %v", path, err)
	}
}
