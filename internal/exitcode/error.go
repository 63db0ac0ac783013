// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exitcode

import (
	"errors"
	"fmt"
)

// Generic is the exit code used for errors that do not carry an exit code of
// a child process.
const Generic = 1

// Usage is the exit code for invalid invocations.
const Usage = 2

// Error is a non-zero exit code of a child process that is considered an
// error.
type Error int

func (e Error) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}

func (Error) Is(other error) bool {
	_, ok := other.(Error)
	return ok
}

// Code returns the exit code as basic int type.
func (e Error) Code() int {
	return int(e)
}

// From returns an exit code based on the given error and if the error was an
// [Error].
//
// If the error is nil, the exit code is 0. If the error is or wraps an [Error]
// the exit code is the return value of [Error.Code]. Otherwise the exit code
// is [Generic].
func From(err error) (int, bool) {
	if err == nil {
		return 0, false
	}

	var exitErr Error
	if errors.As(err, &exitErr) {
		return exitErr.Code(), true
	}

	return Generic, false
}
