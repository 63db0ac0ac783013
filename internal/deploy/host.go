// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package deploy

import (
	"fmt"
	"net"
	"strings"
)

const defaultSSHPort = "22"

// remoteHost is a parsed "[user@]host[:port]" argument. IPv6 addresses with
// port are given in brackets.
type remoteHost struct {
	user string
	name string
	port string
}

func parseRemoteHost(host string) (remoteHost, error) {
	var remote remoteHost

	rest := host
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		remote.user, rest = rest[:at], rest[at+1:]
	}

	name, port, err := net.SplitHostPort(rest)
	if err != nil {
		name, port = strings.Trim(rest, "[]"), ""
	}

	remote.name, remote.port = name, port

	switch {
	case remote.name == "":
		return remoteHost{}, fmt.Errorf("%w: empty host name in %q",
			ErrInvalidTarget, host)
	case strings.HasPrefix(remote.name, "-"), strings.HasPrefix(remote.user, "-"):
		return remoteHost{}, fmt.Errorf("%w: host %q starts with a dash",
			ErrInvalidTarget, host)
	}

	return remote, nil
}

// login returns "[user@]name" as the ssh command expects it.
func (r remoteHost) login() string {
	if r.user == "" {
		return r.name
	}

	return r.user + "@" + r.name
}

// location returns "[user@]name:path" as the scp command expects it.
func (r remoteHost) location(path string) string {
	name := r.name
	if strings.Contains(name, ":") {
		name = "[" + name + "]"
	}

	if r.user != "" {
		name = r.user + "@" + name
	}

	return name + ":" + path
}

// dialAddress returns the TCP address of the SSH server.
func (r remoteHost) dialAddress() string {
	port := r.port
	if port == "" {
		port = defaultSSHPort
	}

	return net.JoinHostPort(r.name, port)
}
