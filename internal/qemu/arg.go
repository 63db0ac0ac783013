// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aibor/piboot/internal/board"
)

// Arg is a single QEMU flag. Name is given without the leading dash. Value
// is omitted from the command line if empty.
type Arg struct {
	Name       string
	Value      string
	Repeatable bool
}

// Flag returns a non-repeatable [Arg].
func Flag(name string, value ...string) Arg {
	return Arg{Name: name, Value: strings.Join(value, ",")}
}

// String returns the flag as it appears on the command line.
func (a Arg) String() string {
	if a.Value == "" {
		return "-" + a.Name
	}

	return "-" + a.Name + " " + a.Value
}

// collidesWith reports whether both flags may not be used together. Flags
// with different names never collide. Repeatable flags collide only if
// their values are equal, too.
func (a Arg) collidesWith(other Arg) bool {
	switch {
	case a.Name != other.Name:
		return false
	case a.Repeatable && other.Repeatable:
		return a.Value == other.Value
	default:
		return true
	}
}

func (a Arg) validate() error {
	if a.Name == "" || strings.HasPrefix(a.Name, "-") {
		return &ArgumentError{fmt.Sprintf("invalid flag name %q", a.Name)}
	}

	return nil
}

// argsFromProfile converts the additional emulator arguments of a board
// profile.
func argsFromProfile(extra []board.EmulatorArg) []Arg {
	if len(extra) == 0 {
		return nil
	}

	args := make([]Arg, 0, len(extra))
	for _, e := range extra {
		args = append(args, Arg{
			Name:       e.Name,
			Value:      e.Value,
			Repeatable: e.Repeatable,
		})
	}

	return args
}

// CompileArgs renders the flags into a command line argument list.
//
// It returns an error matching [ErrArgumentCollision] if any two flags
// collide and an [ArgumentError] for malformed flag names.
func CompileArgs(args []Arg) ([]string, error) {
	out := make([]string, 0, 2*len(args))

	for idx, arg := range args {
		err := arg.validate()
		if err != nil {
			return nil, err
		}

		prior := slices.IndexFunc(args[:idx], arg.collidesWith)
		if prior >= 0 {
			return nil, fmt.Errorf("%w: %s, %s",
				ErrArgumentCollision, args[prior], arg)
		}

		out = append(out, "-"+arg.Name)
		if arg.Value != "" {
			out = append(out, arg.Value)
		}
	}

	return out, nil
}
