// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aibor/piboot/internal/proc"
)

// ErrUnknownTransport is returned by [TransportType.Set] for unknown names.
var ErrUnknownTransport = errors.New("unknown transport")

// Transport copies a local file to a path on a host, replacing the previous
// file at that path atomically from the host's point of view.
type Transport interface {
	Transfer(ctx context.Context, src, host, dst string) error
}

// TransportType names a [Transport] implementation.
type TransportType string

// Known transport types.
const (
	TransportSCP   TransportType = "scp"
	TransportSSH   TransportType = "ssh"
	TransportLocal TransportType = "local"
)

func (t TransportType) String() string {
	return string(t)
}

// Set implements [flag.Value].
func (t *TransportType) Set(s string) error {
	switch TransportType(s) {
	case TransportSCP, TransportSSH, TransportLocal:
		*t = TransportType(s)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTransport, s)
	}

	return nil
}

// SCPTransport copies with the scp and ssh command line tools. The host may
// be any host alias of the ssh client config, optionally with "user@" prefix
// and ":port" suffix.
type SCPTransport struct {
	Runner proc.Runner

	// SCP is the scp executable. Default "scp".
	SCP string
	// SSH is the ssh executable. Default "ssh".
	SSH string

	Stdout io.Writer
	Stderr io.Writer
}

// Transfer implements [Transport]. It uploads to a temporary path and renames
// it to dst on the remote host.
func (t *SCPTransport) Transfer(ctx context.Context, src, host, dst string) error {
	remote, err := parseRemoteHost(host)
	if err != nil {
		return err
	}

	tmp := dst + TempSuffix

	scpArgs := []string{"-q"}
	sshArgs := []string{}

	if remote.port != "" {
		scpArgs = append(scpArgs, "-P", remote.port)
		sshArgs = append(sshArgs, "-p", remote.port)
	}

	err = t.Runner.Run(ctx, proc.Command{
		Name:   defaultString(t.SCP, "scp"),
		Args:   append(scpArgs, "--", src, remote.location(tmp)),
		Stdout: t.Stdout,
		Stderr: t.Stderr,
	})
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	err = t.Runner.Run(ctx, proc.Command{
		Name:   defaultString(t.SSH, "ssh"),
		Args:   append(sshArgs, "--", remote.login(), renameCommand(tmp, dst)),
		Stdout: t.Stdout,
		Stderr: t.Stderr,
	})
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// LocalTransport copies to the local file system, e.g. onto a mounted SD
// card or into the TFTP root of a boot server running on this host. The host
// is ignored.
type LocalTransport struct{}

// Transfer implements [Transport].
func (LocalTransport) Transfer(_ context.Context, src, _, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+TempSuffix+"*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, err = io.Copy(tmp, in)
	if err == nil {
		err = tmp.Sync()
	}

	closeErr := tmp.Close()

	err = errors.Join(err, closeErr)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temporary file: %w", err)
	}

	err = os.Chmod(tmp.Name(), 0o644)
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace image: %w", err)
	}

	return nil
}

func defaultString(value, def string) string {
	if value == "" {
		return def
	}

	return value
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func renameCommand(tmp, dst string) string {
	return "mv -f " + shellQuote(tmp) + " " + shellQuote(dst)
}

func uploadCommand(tmp, dst string) string {
	return "cat > " + shellQuote(tmp) + " && " + renameCommand(tmp, dst)
}
