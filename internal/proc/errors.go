// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package proc

import "errors"

// ErrStart is matched by errors of commands that could not be started.
var ErrStart = errors.New("start failed")

// StartError is returned if a command could not be located or started.
type StartError struct {
	Name string
	Err  error
}

// Error implements the [error] interface.
func (e *StartError) Error() string {
	return e.Name + ": " + ErrStart.Error() + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*StartError) Is(other error) bool {
	if other == ErrStart {
		return true
	}

	_, ok := other.(*StartError)

	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *StartError) Unwrap() error {
	return e.Err
}
