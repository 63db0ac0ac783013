// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package deploy builds a named kernel binary, converts it into a flat image
// and transfers the image to the location a network boot server serves it
// from.
//
// The image is always written to a temporary name next to the destination
// and renamed afterwards, so a failed transfer leaves a previously deployed
// image untouched.
package deploy
