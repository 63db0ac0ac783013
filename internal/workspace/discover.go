// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// DefaultManifest is the manifest file name units are identified by.
const DefaultManifest = "Cargo.toml"

// Unit is a single buildable project in a workspace.
type Unit struct {
	// Dir is the directory of the unit.
	Dir string
	// Manifest is the path of the manifest file.
	Manifest string
}

// Discover walks the tree under root and returns a [Unit] for every regular
// file named manifest.
//
// The walk is lexical and complete, so the order is deterministic. Paths are
// joined to root, so they are absolute if root is.
func Discover(root, manifest string) ([]Unit, error) {
	var units []Unit

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.Name() != manifest || !entry.Type().IsRegular() {
			return nil
		}

		units = append(units, Unit{
			Dir:      filepath.Dir(path),
			Manifest: path,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover units: %w", err)
	}

	return units, nil
}
