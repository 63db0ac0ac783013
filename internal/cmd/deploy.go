// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"

	"github.com/aibor/piboot/internal/deploy"
	"github.com/aibor/piboot/internal/sys"
)

const deployDescription = `Builds the binary in the examples workspace, converts it into a flat image
and copies the image to the TFTP root of the boot server. The next network
boot of the board runs the new kernel.`

type deployFlags struct {
	config       deploy.Config
	transport    deploy.TransportType
	keepImage    bool
	user         string
	identity     string
	knownHosts   string
	scp          string
	ssh          string
	workspaceDir string
}

func (a *app) deploy(ctx context.Context, args []string) error {
	flagSet := newCommandFlagSet(a.io.Stderr, "deploy",
		"[flags...] host binary-name", deployDescription)

	flags := deployFlags{
		config:       deploy.Config{}.WithDefaults(),
		transport:    deploy.TransportSCP,
		workspaceDir: ".",
	}

	flagSet.StringVar(&flags.workspaceDir, "workspace", flags.workspaceDir,
		"workspace root directory")
	flagSet.StringVar(&flags.config.ExamplesDir, "examples-dir", flags.config.ExamplesDir,
		"sub workspace the binaries are built in, relative to the workspace")
	flagSet.StringVar(&flags.config.BuildTool, "tool", flags.config.BuildTool,
		"build tool to run")
	flagSet.StringVar(&flags.config.TargetTriple, "target", flags.config.TargetTriple,
		"compilation target of the binaries")
	flagSet.StringVar(&flags.config.Destination, "destination", flags.config.Destination,
		"path of the image on the boot server")
	flagSet.Var(&flags.transport, "transport",
		"transport used for the copy: scp, ssh, local")
	flagSet.BoolVar(&flags.keepImage, "keep-image", flags.keepImage,
		"do not delete the flat image. The path to the file is logged")
	flagSet.StringVar(&flags.scp, "scp", "scp",
		"scp binary for the scp transport")
	flagSet.StringVar(&flags.ssh, "ssh", "ssh",
		"ssh binary for the scp transport")
	flagSet.StringVar(&flags.user, "user", flags.user,
		"remote user for the ssh transport (default current user)")
	flagSet.StringVar(&flags.identity, "identity", flags.identity,
		"private key file for the ssh transport in addition to the agent")
	flagSet.StringVar(&flags.knownHosts, "known-hosts", flags.knownHosts,
		"known hosts file for the ssh transport (default ~/.ssh/known_hosts)")

	err := parseFlagSet(flagSet, args)
	if err != nil {
		return err
	}

	err = requireArgs(flagSet, 2, "host", "binary-name")
	if err != nil {
		return err
	}

	flags.config.Workspace, err = sys.AbsolutePath(flags.workspaceDir)
	if err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	driver := deploy.Driver{
		Config:    flags.config,
		Runner:    a.runner,
		Converter: a.converter(),
		Transport: a.transport(flags),
		KeepImage: flags.keepImage,
		Stdout:    a.io.Stdout,
		Stderr:    a.io.Stderr,
	}

	return driver.Deploy(ctx, deploy.Target{ //nolint:wrapcheck
		Host:   flagSet.Arg(0),
		Binary: flagSet.Arg(1),
	})
}

func (a *app) transport(flags deployFlags) deploy.Transport {
	switch flags.transport {
	case deploy.TransportSSH:
		return &deploy.SSHTransport{
			User:           flags.user,
			IdentityFile:   flags.identity,
			KnownHostsFile: flags.knownHosts,
			Stderr:         a.io.Stderr,
		}
	case deploy.TransportLocal:
		return deploy.LocalTransport{}
	default:
		return &deploy.SCPTransport{
			Runner: a.runner,
			SCP:    flags.scp,
			SSH:    flags.ssh,
			Stdout: a.io.Stdout,
			Stderr: a.io.Stderr,
		}
	}
}
