// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package sys

import "golang.org/x/sys/unix"

type termios = unix.Termios

func getTermios(fd int) (*termios, error) {
	return unix.IoctlGetTermios(fd, unix.TCGETS) //nolint:wrapcheck
}

func setTermios(fd int, t *termios) error {
	return unix.IoctlSetTermios(fd, unix.TCSETS, t) //nolint:wrapcheck
}
