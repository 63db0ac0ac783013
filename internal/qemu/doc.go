// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu provides utilities for composing and running QEMU system
// emulation commands that boot a flat kernel image on an emulated board. It
// expects the required QEMU binary to be present on the system.
//
// The guest is run headless. Its first serial port and the QEMU monitor are
// multiplexed onto the standard streams of the calling process.
package qemu
