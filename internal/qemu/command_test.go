// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aibor/piboot/internal/board"
	"github.com/aibor/piboot/internal/exitcode"
	"github.com/aibor/piboot/internal/proc"
	"github.com/aibor/piboot/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, runner proc.Runner) *qemu.Command {
	t.Helper()

	spec := qemu.NewCommandSpec(board.Raspi3B, "kernel.img", []string{"-s"})

	cmd, err := qemu.NewCommand(spec, runner)
	require.NoError(t, err)

	return cmd
}

func TestCommand_Run(t *testing.T) {
	runner := &proc.RecordingRunner{}
	cmd := newCommand(t, runner)

	var stdout, stderr bytes.Buffer

	stdin := strings.NewReader("")

	err := cmd.Run(context.Background(), stdin, &stdout, &stderr)
	require.NoError(t, err)

	require.Len(t, runner.Commands, 1)

	actual := runner.Commands[0]
	assert.Equal(t, "qemu-system-aarch64", actual.Name)
	assert.Equal(t, []string{
		"-nodefaults",
		"-nographic",
		"-cpu", "cortex-a53",
		"-machine", "raspi3b",
		"-dtb", "bcm2710-rpi-3-b.dtb",
		"-serial", "mon:stdio",
		"-kernel", "kernel.img",
		"-s",
	}, actual.Args)
	assert.Equal(t, stdin, actual.Stdin)
	assert.Equal(t, &stdout, actual.Stdout)
	assert.Equal(t, &stderr, actual.Stderr)
}

func TestCommand_Run_Errors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedErr  error
		expectedCode int
	}{
		{
			name:         "not found",
			err:          &proc.StartError{Name: "qemu-system-aarch64", Err: assert.AnError},
			expectedErr:  qemu.ErrLaunchFailed,
			expectedCode: exitcode.Generic,
		},
		{
			name:         "non-zero exit",
			err:          fmt.Errorf("qemu-system-aarch64: %w", exitcode.Error(7)),
			expectedErr:  exitcode.Error(7),
			expectedCode: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &proc.RecordingRunner{
				Handler: func(proc.Command) error { return tt.err },
			}

			err := newCommand(t, runner).Run(context.Background(), nil, nil, nil)
			require.ErrorIs(t, err, tt.expectedErr)

			actualCode, _ := exitcode.From(err)
			assert.Equal(t, tt.expectedCode, actualCode)
			assert.Len(t, runner.Commands, 1, "must not retry")
		})
	}
}

func TestCommand_Run_ExitCodeNotLaunchFailure(t *testing.T) {
	runner := &proc.RecordingRunner{
		Handler: func(proc.Command) error { return exitcode.Error(1) },
	}

	err := newCommand(t, runner).Run(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, qemu.ErrLaunchFailed)
}

func TestCommand_String(t *testing.T) {
	cmd := newCommand(t, &proc.RecordingRunner{})

	assert.Equal(t,
		"qemu-system-aarch64 -nodefaults -nographic -cpu cortex-a53 "+
			"-machine raspi3b -dtb bcm2710-rpi-3-b.dtb -serial mon:stdio "+
			"-kernel kernel.img -s",
		cmd.String(),
	)
}
