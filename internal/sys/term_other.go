// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package sys

import "errors"

type termios struct{}

var errNoTermios = errors.New("terminal state not supported on this platform")

func getTermios(int) (*termios, error) {
	return nil, errNoTermios
}

func setTermios(int, *termios) error {
	return errNoTermios
}
