// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd provides the CLI entry point for piboot. It handles flag
// parsing, sub command dispatch, error handling and exit codes.
package cmd
