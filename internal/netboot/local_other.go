// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package netboot

import (
	"errors"
	"net/netip"
)

// LocalPrefixes is only supported on Linux.
func LocalPrefixes(string) ([]netip.Prefix, error) {
	return nil, errors.ErrUnsupported
}
