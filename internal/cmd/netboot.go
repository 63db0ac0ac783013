// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aibor/piboot/internal/deploy"
	"github.com/aibor/piboot/internal/netboot"
)

const netbootDescription = `Checks that the dnsmasq config of the boot server enables TFTP and DHCP for
the Raspberry Pi boot ROM and serves the path the deploy command writes to.

With -local, piboot runs on the boot server and additionally checks that a
dhcp-range lies in a network of one of its interfaces.`

// localPrefixes lists the networks of the host.
var localPrefixes = netboot.LocalPrefixes

func (a *app) netbootCheck(_ context.Context, args []string) error {
	flagSet := newCommandFlagSet(a.io.Stderr, "netboot-check",
		"[flags...] dnsmasq-config", netbootDescription)

	destination := flagSet.String("destination", deploy.DefaultDestination,
		"path of the image on the boot server")
	local := flagSet.Bool("local", false,
		"check dhcp-range against the networks of this host")
	iface := flagSet.String("interface", "",
		"only consider this interface with -local")

	err := parseFlagSet(flagSet, args)
	if err != nil {
		return err
	}

	err = requireArgs(flagSet, 1, "dnsmasq-config")
	if err != nil {
		return err
	}

	path, err := filepath.Abs(flagSet.Arg(0))
	if err != nil {
		return fmt.Errorf("config path: %w", err)
	}

	cfg, err := netboot.ParseFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("%s: %w", flagSet.Arg(0), err)
	}

	err = netboot.Check(cfg, *destination)

	if *local {
		err = errors.Join(err, checkLocal(cfg, *iface))
	}

	if err != nil {
		return fmt.Errorf("%s: %w", flagSet.Arg(0), err)
	}

	fmt.Fprintf(a.io.Stdout, "%s serves %s\n", flagSet.Arg(0), *destination)

	return nil
}

func checkLocal(cfg netboot.Config, iface string) error {
	prefixes, err := localPrefixes(iface)
	if err != nil {
		return err //nolint:wrapcheck
	}

	slog.Debug("Local networks", slog.Any("prefixes", prefixes))

	return netboot.CheckLocal(cfg, prefixes) //nolint:wrapcheck
}
