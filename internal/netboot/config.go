// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package netboot checks that a dnsmasq configuration serves the image the
// deploy command writes.
package netboot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/netip"
	"strings"
)

// ErrInvalidConfig is returned if the config contains malformed values.
var ErrInvalidConfig = errors.New("invalid dnsmasq config")

// DHCPRange is a single dhcp-range option. In proxy mode only Start is set.
type DHCPRange struct {
	Start netip.Addr
	End   netip.Addr
	Proxy bool
}

// Config holds the dnsmasq options relevant for network booting.
type Config struct {
	TFTPEnabled bool
	TFTPRoot    string
	DHCPRanges  []DHCPRange
	BootFiles   []string
	PXEServices []string
}

// ParseFile parses the dnsmasq config file with the given name in fsys.
func ParseFile(fsys fs.FS, name string) (Config, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return Config{}, err //nolint:wrapcheck
	}
	defer file.Close()

	return Parse(file)
}

// Parse parses a dnsmasq config. Lines are "option" or "option=value", "#"
// starts a comment. Options not relevant for network booting are ignored.
func Parse(r io.Reader) (Config, error) {
	var (
		cfg     Config
		scanner = bufio.NewScanner(r)
		lineNum int
	)

	for scanner.Scan() {
		lineNum++

		line, _, _ := strings.Cut(scanner.Text(), "#")

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		err := cfg.set(key, value)
		if err != nil {
			return Config{}, fmt.Errorf("%w: line %d: %w", ErrInvalidConfig, lineNum, err)
		}
	}

	err := scanner.Err()
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return cfg, nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "enable-tftp":
		c.TFTPEnabled = true
	case "tftp-root":
		root, _, _ := strings.Cut(value, ",")
		c.TFTPRoot = root
	case "dhcp-range":
		dhcpRange, err := parseDHCPRange(value)
		if err != nil {
			return err
		}

		c.DHCPRanges = append(c.DHCPRanges, dhcpRange)
	case "dhcp-boot":
		fields := withoutTags(strings.Split(value, ","))
		if len(fields) == 0 || fields[0] == "" {
			return errors.New("dhcp-boot without file name")
		}

		c.BootFiles = append(c.BootFiles, fields[0])
	case "pxe-service":
		c.PXEServices = append(c.PXEServices, value)
	}

	return nil
}

func parseDHCPRange(value string) (DHCPRange, error) {
	var (
		dhcpRange DHCPRange
		addrs     []netip.Addr
	)

	for _, field := range withoutTags(strings.Split(value, ",")) {
		if field == "proxy" {
			dhcpRange.Proxy = true
			continue
		}

		addr, err := netip.ParseAddr(field)
		if err == nil {
			addrs = append(addrs, addr)
		}
	}

	if len(addrs) == 0 {
		return DHCPRange{}, fmt.Errorf("dhcp-range without address: %s", value)
	}

	dhcpRange.Start = addrs[0]

	if !dhcpRange.Proxy && len(addrs) > 1 {
		dhcpRange.End = addrs[1]

		if dhcpRange.Start.Is4() != dhcpRange.End.Is4() ||
			dhcpRange.End.Less(dhcpRange.Start) {
			return DHCPRange{}, fmt.Errorf("dhcp-range end before start: %s", value)
		}
	}

	return dhcpRange, nil
}

// withoutTags drops leading "tag:", "set:" and interface selectors.
func withoutTags(fields []string) []string {
	for len(fields) > 0 {
		field := strings.TrimSpace(fields[0])
		if !strings.HasPrefix(field, "tag:") &&
			!strings.HasPrefix(field, "set:") &&
			!strings.HasPrefix(field, "interface:") {
			break
		}

		fields = fields[1:]
	}

	for idx := range fields {
		fields[idx] = strings.TrimSpace(fields[idx])
	}

	return fields
}
