// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package netboot

import (
	"fmt"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// LocalPrefixes returns the address prefixes configured on the interface
// with the given name, or on all interfaces if the name is empty.
func LocalPrefixes(iface string) ([]netip.Prefix, error) {
	var link netlink.Link

	if iface != "" {
		var err error

		link, err = netlink.LinkByName(iface)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", iface, err)
		}
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	prefixes := make([]netip.Prefix, 0, len(addrs))

	for _, addr := range addrs {
		if addr.IPNet == nil {
			continue
		}

		ip, ok := netip.AddrFromSlice(addr.IP)
		if !ok {
			continue
		}

		ones, _ := addr.Mask.Size()
		prefixes = append(prefixes, netip.PrefixFrom(ip.Unmap(), ones))
	}

	return prefixes, nil
}
