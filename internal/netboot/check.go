// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package netboot

import (
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"slices"
	"strings"
)

// PiBootService is the PXE service name the Raspberry Pi 3 boot ROM
// requires in the DHCP offer.
const PiBootService = "Raspberry Pi Boot"

var (
	// ErrTFTPDisabled is returned if enable-tftp is missing.
	ErrTFTPDisabled = errors.New("tftp not enabled")

	// ErrNoTFTPRoot is returned if tftp-root is missing.
	ErrNoTFTPRoot = errors.New("no tftp-root set")

	// ErrOutsideTFTPRoot is returned if the destination is not below
	// tftp-root and thus not served.
	ErrOutsideTFTPRoot = errors.New("destination outside of tftp-root")

	// ErrNoDHCPRange is returned if the config has no dhcp-range, not even
	// a proxy one.
	ErrNoDHCPRange = errors.New("no dhcp-range set")

	// ErrNoPiBootService is returned if no pxe-service announces
	// [PiBootService].
	ErrNoPiBootService = errors.New("no pxe-service for " + PiBootService)

	// ErrRelativeLocation is returned for a destination that is not an
	// absolute path.
	ErrRelativeLocation = errors.New("destination is not absolute")

	// ErrNoLocalRange is returned by [CheckLocal] if no dhcp-range lies in
	// a network of the host.
	ErrNoLocalRange = errors.New("no dhcp-range in a local network")
)

// Check verifies that the config serves the file at destination over TFTP
// to a Raspberry Pi. All mismatches are returned joined.
func Check(cfg Config, destination string) error {
	var errs []error

	if !cfg.TFTPEnabled {
		errs = append(errs, ErrTFTPDisabled)
	}

	if len(cfg.DHCPRanges) == 0 {
		errs = append(errs, ErrNoDHCPRange)
	}

	if !hasPiBootService(cfg.PXEServices) {
		errs = append(errs, ErrNoPiBootService)
	}

	switch {
	case cfg.TFTPRoot == "":
		errs = append(errs, ErrNoTFTPRoot)
	case !filepath.IsAbs(destination):
		errs = append(errs, fmt.Errorf("%w: %s", ErrRelativeLocation, destination))
	case !within(cfg.TFTPRoot, destination):
		errs = append(errs, fmt.Errorf("%w: %s not in %s",
			ErrOutsideTFTPRoot, destination, cfg.TFTPRoot))
	}

	return errors.Join(errs...)
}

// CheckLocal verifies that at least one of the DHCP ranges of the config
// lies in one of the given prefixes, usually the [LocalPrefixes] of the boot
// server. A proxy range matches by its address, a regular range only if both
// ends are in the same prefix.
func CheckLocal(cfg Config, prefixes []netip.Prefix) error {
	if len(cfg.DHCPRanges) == 0 {
		return ErrNoDHCPRange
	}

	for _, dhcpRange := range cfg.DHCPRanges {
		if slices.ContainsFunc(prefixes, dhcpRange.inPrefix) {
			return nil
		}
	}

	return ErrNoLocalRange
}

func (r DHCPRange) inPrefix(prefix netip.Prefix) bool {
	if !prefix.Contains(r.Start) {
		return false
	}

	return r.Proxy || !r.End.IsValid() || prefix.Contains(r.End)
}

func hasPiBootService(services []string) bool {
	for _, service := range services {
		if strings.Contains(service, PiBootService) {
			return true
		}
	}

	return false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
