// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workspace discovers the independently buildable units of a multi
// project source tree and runs a build tool in each of them.
//
// Units are directories containing a manifest file. The build tool is run
// with the unit directory as working directory of the calling process, which
// is restored after every unit, also on failure.
package workspace
