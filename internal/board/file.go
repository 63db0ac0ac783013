// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package board

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// File is the YAML document format of board profile files:
//
//	boards:
//	  - name: raspi3b-dev
//	    arch: arm64
//	    emulator: qemu-system-aarch64
//	    cpu: cortex-a53
//	    machine: raspi3b
//	    dtb: /usr/share/raspi/bcm2710-rpi-3-b.dtb
//	    loadAddress: 0x80000
//	    disasmArch: aarch64
//	    emulatorArgs:
//	      - name: m
//	        value: 1G
//	      - name: device
//	        value: usb-kbd
//	        repeatable: true
//
// Profiles may set "base" to the name of an already known profile. Unset
// values are then taken from it.
type File struct {
	Boards []FileProfile `yaml:"boards"`
}

// FileProfile is a [Profile] entry in a [File].
type FileProfile struct {
	Profile `yaml:",inline"`

	Base string `yaml:"base"`
}

// LoadFile reads profiles from the given YAML file and adds them to the
// [Registry].
func (r *Registry) LoadFile(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read board file: %w", err)
	}

	var file File

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err = decoder.Decode(&file)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode board file %s: %w", name, err)
	}

	for _, entry := range file.Boards {
		profile := entry.Profile

		if entry.Base != "" {
			base, err := r.Get(entry.Base)
			if err != nil {
				return fmt.Errorf("board %s: base: %w", profile.Name, err)
			}

			profile = merge(base, profile)
		}

		err := r.Add(profile)
		if err != nil {
			return err
		}
	}

	return nil
}

func merge(base, override Profile) Profile {
	result := base
	result.Name = override.Name

	setIfNotEmpty(&result.Emulator, override.Emulator)
	setIfNotEmpty(&result.CPU, override.CPU)
	setIfNotEmpty(&result.Machine, override.Machine)
	setIfNotEmpty(&result.DTB, override.DTB)
	setIfNotEmpty(&result.DisasmArch, override.DisasmArch)

	if override.Arch != "" {
		result.Arch = override.Arch
	}

	if len(override.EmulatorArgs) > 0 {
		result.EmulatorArgs = override.EmulatorArgs
	}

	if override.LoadAddress != 0 {
		result.LoadAddress = override.LoadAddress
	}

	return result
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
