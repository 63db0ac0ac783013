// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package proc runs the external tools piboot sequences: build tool,
// converter, emulator, disassembler and remote copy. Each run is a blocking
// child process with the standard streams supplied by the caller. A non-zero
// exit is returned as [exitcode.Error] so callers up the stack can propagate
// it unchanged.
package proc
