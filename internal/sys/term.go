// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"log/slog"
	"os"
)

// TerminalState is the saved mode of a terminal. The zero value restores
// nothing.
type TerminalState struct {
	fd    int
	saved *termios
}

// SaveTerminal saves the terminal mode of the given file, if it is a
// terminal. Emulators with a serial console on stdio switch the terminal to
// raw mode and may not restore it when they are killed.
func SaveTerminal(file *os.File) TerminalState {
	if file == nil {
		return TerminalState{}
	}

	fd := int(file.Fd())

	saved, err := getTermios(fd)
	if err != nil {
		slog.Debug("Not saving terminal state",
			slog.Int("fd", fd),
			slog.Any("error", err))

		return TerminalState{}
	}

	return TerminalState{fd: fd, saved: saved}
}

// Restore sets the terminal back to the saved mode.
func (s TerminalState) Restore() {
	if s.saved == nil {
		return
	}

	err := setTermios(s.fd, s.saved)
	if err != nil {
		slog.Warn("Failed to restore terminal state",
			slog.Int("fd", s.fd),
			slog.Any("error", err))
	}
}
