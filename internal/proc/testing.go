// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package proc

import (
	"context"
	"os"
)

// RecordingRunner is a [Runner] for tests. It records every command and the
// working directory of the calling process at the time of the call. Handler,
// if set, decides the outcome of each command.
type RecordingRunner struct {
	Commands []Command
	Dirs     []string
	Handler  func(cmd Command) error
}

// Run implements [Runner].
func (r *RecordingRunner) Run(_ context.Context, cmd Command) error {
	r.Commands = append(r.Commands, cmd)

	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}

	r.Dirs = append(r.Dirs, wd)

	if r.Handler == nil {
		return nil
	}

	return r.Handler(cmd)
}

// Names returns the executable names of all recorded commands.
func (r *RecordingRunner) Names() []string {
	names := make([]string, 0, len(r.Commands))
	for _, cmd := range r.Commands {
		names = append(names, cmd.Name)
	}

	return names
}
