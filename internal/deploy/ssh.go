// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/sync/errgroup"

	"github.com/aibor/piboot/internal/exitcode"
)

// ErrNoAuthMethod is returned if neither an agent nor an identity file is
// available.
var ErrNoAuthMethod = errors.New("no ssh authentication method available")

// SSHTransport copies with a native SSH client. The image is streamed into
// a shell command on the remote host that writes it to a temporary path and
// renames it to the destination.
type SSHTransport struct {
	// User is used if the host has no "user@" prefix. Defaults to the
	// current user.
	User string

	// IdentityFile is a private key file used in addition to the agent.
	IdentityFile string

	// KnownHostsFile is used to verify host keys. Defaults to
	// ~/.ssh/known_hosts.
	KnownHostsFile string

	// AgentSocket is the ssh agent socket. Defaults to $SSH_AUTH_SOCK.
	AgentSocket string

	// Stderr receives the remote command's stderr.
	Stderr io.Writer
}

// Transfer implements [Transport].
func (t *SSHTransport) Transfer(ctx context.Context, src, host, dst string) error {
	remote, err := parseRemoteHost(host)
	if err != nil {
		return err
	}

	image, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer image.Close()

	config, closeAuth, err := t.clientConfig(t.userName(remote))
	if err != nil {
		return err
	}
	defer closeAuth()

	client, err := dial(ctx, remote.dialAddress(), config)
	if err != nil {
		return err
	}
	defer client.Close()

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	session.Stderr = t.Stderr

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	cmd := uploadCommand(dst+TempSuffix, dst)
	slog.Debug("Run remote command",
		slog.String("host", remote.dialAddress()),
		slog.String("command", cmd))

	err = session.Start(cmd)
	if err != nil {
		return fmt.Errorf("start remote command: %w", err)
	}

	var group errgroup.Group

	group.Go(func() error {
		_, err := io.Copy(stdin, image)
		closeErr := stdin.Close()

		if err != nil {
			return fmt.Errorf("stream image: %w", err)
		}

		return closeErr //nolint:wrapcheck
	})

	waitErr := session.Wait()
	copyErr := group.Wait()

	if ctx.Err() != nil {
		return ctx.Err() //nolint:wrapcheck
	}

	var exitErr *ssh.ExitError
	if errors.As(waitErr, &exitErr) {
		return fmt.Errorf("remote command: %w", exitcode.Error(exitErr.ExitStatus()))
	}

	if waitErr != nil {
		return fmt.Errorf("remote command: %w", waitErr)
	}

	return copyErr
}

func (t *SSHTransport) clientConfig(userName string) (*ssh.ClientConfig, func(), error) {
	closeAuth := func() {}

	var signers []ssh.Signer

	socket := t.AgentSocket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}

	if socket != "" {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			slog.Warn("Failed to connect ssh agent", slog.Any("error", err))
		} else {
			closeAuth = func() { _ = conn.Close() }

			agentSigners, err := agent.NewClient(conn).Signers()
			if err != nil {
				slog.Warn("Failed to get ssh agent keys", slog.Any("error", err))
			}

			signers = append(signers, agentSigners...)
		}
	}

	if t.IdentityFile != "" {
		signer, err := readSigner(t.IdentityFile)
		if err != nil {
			closeAuth()
			return nil, nil, err
		}

		signers = append(signers, signer)
	}

	if len(signers) == 0 {
		closeAuth()
		return nil, nil, ErrNoAuthMethod
	}

	knownHostsFile, err := t.knownHostsFile()
	if err != nil {
		closeAuth()
		return nil, nil, err
	}

	hostKeyCallback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		closeAuth()
		return nil, nil, fmt.Errorf("known hosts: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            userName,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKeyCallback,
	}

	return config, closeAuth, nil
}

func (t *SSHTransport) knownHostsFile() (string, error) {
	if t.KnownHostsFile != "" {
		return t.KnownHostsFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("known hosts: %w", err)
	}

	return filepath.Join(home, ".ssh", "known_hosts"), nil
}

func readSigner(path string) (ssh.Signer, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse identity %s: %w", path, err)
	}

	return signer, nil
}

func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// userName returns the user of the host argument, falling back to the
// configured and then the current user.
func (t *SSHTransport) userName(remote remoteHost) string {
	if remote.user != "" {
		return remote.user
	}

	if t.User != "" {
		return t.User
	}

	current, err := user.Current()
	if err != nil {
		return ""
	}

	return current.Username
}
