// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"github.com/aibor/piboot/internal/board"
)

// SerialStdio multiplexes the first serial port and the QEMU monitor onto
// stdio. The monitor is reachable with Ctrl-A c.
const SerialStdio = "mon:stdio"

// CommandSpec defines the parameters for an emulator run of a flat image.
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// QEMU machine model of the board.
	Machine string

	// QEMU CPU model of the board.
	CPU string

	// Path to the device tree blob of the board.
	DTB string

	// Path to the flat image to boot.
	Kernel string

	// Serial backend of the first serial port.
	Serial string

	// Extra arguments from the board profile, added after the fixed
	// arguments. They must not collide with the fixed arguments or with
	// each other.
	Extra []Arg

	// Passthrough arguments are appended verbatim after all fixed arguments.
	// They are not validated.
	Passthrough []string
}

// NewCommandSpec returns a [CommandSpec] for booting the flat image kernel on
// the given board.
func NewCommandSpec(
	profile board.Profile,
	kernel string,
	passthrough []string,
) CommandSpec {
	return CommandSpec{
		Executable:  profile.Emulator,
		Machine:     profile.Machine,
		CPU:         profile.CPU,
		DTB:         profile.DTB,
		Kernel:      kernel,
		Serial:      SerialStdio,
		Extra:       argsFromProfile(profile.EmulatorArgs),
		Passthrough: passthrough,
	}
}

// Validate checks that all required values are set.
func (s *CommandSpec) Validate() error {
	for name, value := range map[string]string{
		"executable": s.Executable,
		"machine":    s.Machine,
		"cpu":        s.CPU,
		"dtb":        s.DTB,
		"kernel":     s.Kernel,
		"serial":     s.Serial,
	} {
		if value == "" {
			return &ArgumentError{name + " must not be empty"}
		}
	}

	return nil
}

// arguments returns the fixed arguments followed by the extra arguments.
func (s *CommandSpec) arguments() []Arg {
	fixed := []Arg{
		// No default devices, no video output.
		Flag("nodefaults"),
		Flag("nographic"),
		Flag("cpu", s.CPU),
		Flag("machine", s.Machine),
		Flag("dtb", s.DTB),
		Flag("serial", s.Serial),
		Flag("kernel", s.Kernel),
	}

	return append(fixed, s.Extra...)
}

// Args returns the complete argument list for the QEMU command: the fixed
// arguments, the extra arguments and finally the unchecked passthrough
// arguments.
func (s *CommandSpec) Args() ([]string, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	args, err := CompileArgs(s.arguments())
	if err != nil {
		return nil, err
	}

	return append(args, s.Passthrough...), nil
}
