// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package board describes the target boards piboot can provision kernels for.
//
// A [Profile] is passed explicitly to the emulation launcher and the
// disassembly helper. Additional profiles can be loaded from a YAML file with
// [Registry.LoadFile].
package board

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/aibor/piboot/internal/sys"
)

// DefaultName is the name of the profile used if none is selected.
const DefaultName = "raspi3b"

var (
	// ErrUnknownProfile is returned if no profile with the requested name
	// exists.
	ErrUnknownProfile = errors.New("unknown board profile")

	// ErrInvalidProfile is returned if a profile misses required values.
	ErrInvalidProfile = errors.New("invalid board profile")
)

// Profile is the description of a single board.
type Profile struct {
	// Name the profile is selected by.
	Name string `yaml:"name"`

	// Arch the kernel must be built for.
	Arch sys.Arch `yaml:"arch"`

	// Emulator is the QEMU system emulator binary.
	Emulator string `yaml:"emulator"`

	// CPU is the QEMU CPU model.
	CPU string `yaml:"cpu"`

	// Machine is the QEMU machine model.
	Machine string `yaml:"machine"`

	// DTB is the path to the device tree blob of the board.
	DTB string `yaml:"dtb"`

	// LoadAddress is the address the firmware loads the flat image to.
	LoadAddress Address `yaml:"loadAddress"`

	// DisasmArch is the architecture name as understood by objdump's -m
	// flag.
	DisasmArch string `yaml:"disasmArch"`

	// EmulatorArgs are added to the fixed emulator arguments, e.g. memory
	// size or additional devices.
	EmulatorArgs []EmulatorArg `yaml:"emulatorArgs"`
}

// EmulatorArg is a single emulator flag without the leading dash. Only
// repeatable flags may be given more than once, and then only with different
// values.
type EmulatorArg struct {
	Name       string `yaml:"name"`
	Value      string `yaml:"value"`
	Repeatable bool   `yaml:"repeatable"`
}

// Raspi3B is the built-in profile for the Raspberry Pi 3 Model B with a 64
// bit kernel.
var Raspi3B = Profile{
	Name:        DefaultName,
	Arch:        sys.ARM64,
	Emulator:    "qemu-system-aarch64",
	CPU:         "cortex-a53",
	Machine:     "raspi3b",
	DTB:         "bcm2710-rpi-3-b.dtb",
	LoadAddress: 0x80000,
	DisasmArch:  "aarch64",
}

// Validate checks that all required values are set.
func (p Profile) Validate() error {
	var missing []string

	for field, value := range map[string]string{
		"name":       p.Name,
		"arch":       string(p.Arch),
		"emulator":   p.Emulator,
		"cpu":        p.CPU,
		"machine":    p.Machine,
		"dtb":        p.DTB,
		"disasmArch": p.DisasmArch,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)

		return fmt.Errorf("%w: %s: missing %v", ErrInvalidProfile, p.Name, missing)
	}

	return nil
}

// Address is a memory address. In YAML and on the command line it may be
// given in any notation accepted by [strconv.ParseUint] with base 0.
type Address uint64

// String returns the address in hexadecimal notation with 0x prefix.
func (a Address) String() string {
	return "0x" + strconv.FormatUint(uint64(a), 16)
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Address) UnmarshalText(text []byte) error {
	value, err := strconv.ParseUint(string(text), 0, 64)
	if err != nil {
		return fmt.Errorf("parse address: %w", err)
	}

	*a = Address(value)

	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Registry holds the known profiles by name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns a [Registry] with the built-in profiles.
func NewRegistry() *Registry {
	return &Registry{
		profiles: map[string]Profile{
			Raspi3B.Name: Raspi3B,
		},
	}
}

// Add adds or replaces the given profiles.
func (r *Registry) Add(profiles ...Profile) error {
	for _, profile := range profiles {
		err := profile.Validate()
		if err != nil {
			return err
		}

		r.profiles[profile.Name] = profile
	}

	return nil
}

// Get returns the profile with the given name.
func (r *Registry) Get(name string) (Profile, error) {
	profile, exists := r.profiles[name]
	if !exists {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	return profile, nil
}

// Names returns the sorted names of all known profiles.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.profiles))
}
