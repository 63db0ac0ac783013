// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"context"
	"debug/elf"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aibor/piboot/internal/convert"
	"github.com/aibor/piboot/internal/exitcode"
	"github.com/aibor/piboot/internal/proc"
	"github.com/aibor/piboot/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type result struct {
	exitCode int
	stdout   string
	stderr   string
}

func executeWith(t *testing.T, runner *proc.RecordingRunner, args ...string) result {
	t.Helper()
	t.Setenv("PIBOOT_ARGS", "")

	var stdout, stderr bytes.Buffer

	exitCode := execute(context.Background(), args, IO{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, runner)

	return result{exitCode, stdout.String(), stderr.String()}
}

// pipelineRunner fakes converter and emulator. The converter reports the
// given layout and writes a flat image to its output path.
func pipelineRunner(report string, exitCodes map[string]int) *proc.RecordingRunner {
	return &proc.RecordingRunner{
		Handler: func(cmd proc.Command) error {
			if cmd.Name == convert.DefaultExecutable {
				_, _ = io.WriteString(cmd.Stdout, report)
				_ = os.WriteFile(cmd.Args[1], []byte("flat image"), 0o600)
			}

			if code := exitCodes[cmd.Name]; code != 0 {
				return fmt.Errorf("%s: %w", cmd.Name, exitcode.Error(code))
			}

			return nil
		},
	}
}

func writeKernel(t *testing.T, machine elf.Machine) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kernel")
	sys.WriteELFHeader(t, path, machine, elf.ET_EXEC)

	return path
}

func TestExecute_UsageErrors(t *testing.T) {
	tests := []struct {
		name             string
		args             []string
		expectedExitCode int
		expectedStderr   string
	}{
		{
			name:             "no command",
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "no command given",
		},
		{
			name:             "unknown command",
			args:             []string{"flash"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   `unknown command "flash"`,
		},
		{
			name:             "unknown global flag",
			args:             []string{"-kernel", "x", "run"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "flag provided but not defined: -kernel",
		},
		{
			name:           "global help",
			args:           []string{"-h"},
			expectedStderr: "Usage of 'piboot'",
		},
		{
			name:           "command help",
			args:           []string{"rcargo", "-h"},
			expectedStderr: "Usage of 'piboot rcargo'",
		},
		{
			name:             "run without kernel",
			args:             []string{"run"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "no kernel given",
		},
		{
			name:             "rcargo without args",
			args:             []string{"rcargo"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "no build tool arguments given",
		},
		{
			name:             "rcargo with flags only",
			args:             []string{"rcargo", "-keep-going"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "no build tool arguments given",
		},
		{
			name:             "dis without args",
			args:             []string{"dis"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "expected 1 argument(s) (image), got 0",
		},
		{
			name:             "dis with two args",
			args:             []string{"dis", "a.img", "b.img"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "expected 1 argument(s) (image), got 2",
		},
		{
			name:             "deploy with one arg",
			args:             []string{"deploy", "bootserver"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "expected 2 argument(s) (host, binary-name), got 1",
		},
		{
			name:             "deploy with three args",
			args:             []string{"deploy", "bootserver", "blinky", "extra"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "got 3",
		},
		{
			name:             "deploy with unknown transport",
			args:             []string{"deploy", "-transport", "ftp", "bootserver", "blinky"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "unknown transport: ftp",
		},
		{
			name:             "dis with unknown board",
			args:             []string{"-board", "raspi5", "dis"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "expected 1 argument(s) (image), got 0",
		},
		{
			name:             "run with missing boards file",
			args:             []string{"-boards", "/nonexistent/boards.yaml", "run"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "no kernel given",
		},
		{
			name:             "deploy with missing boards file",
			args:             []string{"-boards", "/nonexistent/boards.yaml", "deploy", "bootserver"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "got 1",
		},
		{
			name:           "rcargo help with unknown board",
			args:           []string{"-board", "raspi5", "rcargo", "-h"},
			expectedStderr: "Usage of 'piboot rcargo'",
		},
		{
			name:             "netboot-check without config",
			args:             []string{"netboot-check"},
			expectedExitCode: exitcode.Usage,
			expectedStderr:   "dnsmasq-config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &proc.RecordingRunner{}

			res := executeWith(t, runner, tt.args...)

			assert.Equal(t, tt.expectedExitCode, res.exitCode)
			assert.Contains(t, res.stderr, tt.expectedStderr)
			assert.Empty(t, runner.Commands, "no tool must be run")
		})
	}
}

func TestExecute_Run(t *testing.T) {
	kernel := writeKernel(t, elf.EM_AARCH64)
	runner := pipelineRunner("80000 80000 1a40\n", nil)

	res := executeWith(t, runner, "run", kernel, "-s", "-S")
	require.Equal(t, 0, res.exitCode, res.stderr)

	require.Equal(t, []string{"elf2bin", "qemu-system-aarch64"}, runner.Names())

	conv := runner.Commands[0]
	require.Len(t, conv.Args, 2)
	assert.Equal(t, kernel, conv.Args[0])

	image := conv.Args[1]
	assert.NoFileExists(t, image, "flat image must be removed")

	assert.Equal(t, []string{
		"-nodefaults",
		"-nographic",
		"-cpu", "cortex-a53",
		"-machine", "raspi3b",
		"-dtb", "bcm2710-rpi-3-b.dtb",
		"-serial", "mon:stdio",
		"-kernel", image,
		"-s", "-S",
	}, runner.Commands[1].Args)

	assert.Equal(t, "base address: 80000\n"+
		"entry point:  80000\n"+
		"size:         1a40 (", res.stdout[:strings.Index(res.stdout, "(")+1])
}

func TestExecute_Run_KeepImage(t *testing.T) {
	kernel := writeKernel(t, elf.EM_AARCH64)
	runner := pipelineRunner("80000 80000 1a40\n", nil)

	res := executeWith(t, runner, "run", "-keep-image", "-emulator", "/opt/qemu", kernel)
	require.Equal(t, 0, res.exitCode, res.stderr)

	require.Equal(t, []string{"elf2bin", "/opt/qemu"}, runner.Names())

	image := runner.Commands[0].Args[1]
	assert.FileExists(t, image)
	require.NoError(t, os.Remove(image))
}

func TestExecute_Run_EmulatorArgs(t *testing.T) {
	boards := filepath.Join(t.TempDir(), "boards.yaml")
	require.NoError(t, os.WriteFile(boards, []byte(`boards:
  - name: raspi3b-usb
    base: raspi3b
    emulatorArgs:
      - name: device
        value: usb-kbd
        repeatable: true
      - name: device
        value: usb-mouse
        repeatable: true
  - name: raspi3b-broken
    base: raspi3b
    emulatorArgs:
      - name: kernel
        value: other.img
`), 0o600))

	t.Run("added before passthrough", func(t *testing.T) {
		kernel := writeKernel(t, elf.EM_AARCH64)
		runner := pipelineRunner("80000 80000 1a40\n", nil)

		res := executeWith(t, runner,
			"-boards", boards, "-board", "raspi3b-usb", "run", kernel, "-s")
		require.Equal(t, 0, res.exitCode, res.stderr)

		require.Equal(t, []string{"elf2bin", "qemu-system-aarch64"}, runner.Names())
		assert.Equal(t, []string{
			"-nodefaults",
			"-nographic",
			"-cpu", "cortex-a53",
			"-machine", "raspi3b",
			"-dtb", "bcm2710-rpi-3-b.dtb",
			"-serial", "mon:stdio",
			"-kernel", runner.Commands[0].Args[1],
			"-device", "usb-kbd",
			"-device", "usb-mouse",
			"-s",
		}, runner.Commands[1].Args)
	})

	t.Run("collision with fixed argument", func(t *testing.T) {
		kernel := writeKernel(t, elf.EM_AARCH64)
		runner := pipelineRunner("80000 80000 1a40\n", nil)

		res := executeWith(t, runner,
			"-boards", boards, "-board", "raspi3b-broken", "run", kernel)

		assert.Equal(t, exitcode.Generic, res.exitCode)
		assert.Contains(t, res.stderr, "board raspi3b-broken: colliding args: -kernel")
		assert.Empty(t, runner.Commands, "nothing must be run")
	})
}

func TestExecute_Run_Failures(t *testing.T) {
	tests := []struct {
		name             string
		machine          elf.Machine
		report           string
		exitCodes        map[string]int
		expectedNames    []string
		expectedExitCode int
		expectedStderr   string
	}{
		{
			name:             "emulator exit code",
			machine:          elf.EM_AARCH64,
			report:           "80000 80000 1a40\n",
			exitCodes:        map[string]int{"qemu-system-aarch64": 3},
			expectedNames:    []string{"elf2bin", "qemu-system-aarch64"},
			expectedExitCode: 3,
		},
		{
			name:             "converter exit code",
			machine:          elf.EM_AARCH64,
			exitCodes:        map[string]int{"elf2bin": 5},
			expectedNames:    []string{"elf2bin"},
			expectedExitCode: 5,
			expectedStderr:   "conversion failed",
		},
		{
			name:             "malformed report",
			machine:          elf.EM_AARCH64,
			report:           "80000 80000\n",
			expectedNames:    []string{"elf2bin"},
			expectedExitCode: exitcode.Generic,
			expectedStderr:   "malformed",
		},
		{
			name:             "host kernel",
			machine:          elf.EM_X86_64,
			expectedExitCode: exitcode.Generic,
			expectedStderr:   "Error [piboot]: kernel:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel := writeKernel(t, tt.machine)
			runner := pipelineRunner(tt.report, tt.exitCodes)

			res := executeWith(t, runner, "run", kernel)

			assert.Equal(t, tt.expectedExitCode, res.exitCode)
			assert.Equal(t, tt.expectedNames, nilIfEmpty(runner.Names()))
			assert.Contains(t, res.stderr, tt.expectedStderr)
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}

	return s
}

func TestExecute_Run_MissingKernel(t *testing.T) {
	runner := &proc.RecordingRunner{}

	res := executeWith(t, runner, "run", filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, exitcode.Generic, res.exitCode)
	assert.Contains(t, res.stderr, "no such file or directory")
	assert.Empty(t, runner.Commands)
}

func TestExecute_RCargo(t *testing.T) {
	root := t.TempDir()

	for _, dir := range []string{"a", "b", "c"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "Cargo.toml"), nil, 0o600))
	}

	failFirst := func() *proc.RecordingRunner {
		return &proc.RecordingRunner{
			Handler: func(proc.Command) error {
				wd, _ := os.Getwd()
				if filepath.Base(wd) == "a" {
					return fmt.Errorf("cargo: %w", exitcode.Error(101))
				}

				return nil
			},
		}
	}

	t.Run("fail fast", func(t *testing.T) {
		runner := failFirst()

		res := executeWith(t, runner, "rcargo", "-root", root, "build", "--release")

		assert.Equal(t, 101, res.exitCode)
		require.Len(t, runner.Commands, 1)
		assert.Equal(t, []string{"build", "--release"}, runner.Commands[0].Args)
	})

	t.Run("keep going", func(t *testing.T) {
		runner := failFirst()

		res := executeWith(t, runner, "rcargo", "-keep-going", "-root", root, "--", "clippy", "-q")

		assert.Equal(t, 101, res.exitCode)
		require.Len(t, runner.Commands, 3)
		assert.Equal(t, []string{"clippy", "-q"}, runner.Commands[2].Args)
	})

	t.Run("success", func(t *testing.T) {
		runner := &proc.RecordingRunner{}

		res := executeWith(t, runner, "rcargo", "-tool", "make", "-root", root, "all")

		assert.Equal(t, 0, res.exitCode)
		assert.Equal(t, []string{"make", "make", "make"}, runner.Names())
	})

	passthroughTests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "leading build tool flag",
			args:     []string{"-v", "build"},
			expected: []string{"-v", "build"},
		},
		{
			name:     "build tool long flag only",
			args:     []string{"--version"},
			expected: []string{"--version"},
		},
		{
			name:     "own flags before build tool flag",
			args:     []string{"-keep-going", "-v", "build"},
			expected: []string{"-v", "build"},
		},
		{
			name:     "own flag name after separator",
			args:     []string{"--", "-tool", "x"},
			expected: []string{"-tool", "x"},
		},
		{
			name:     "own flag name after first build tool argument",
			args:     []string{"test", "-root", "x"},
			expected: []string{"test", "-root", "x"},
		},
	}

	for _, tt := range passthroughTests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &proc.RecordingRunner{}

			args := append([]string{"rcargo", "-root", root}, tt.args...)
			res := executeWith(t, runner, args...)

			require.Equal(t, 0, res.exitCode, res.stderr)
			require.Len(t, runner.Commands, 3)

			for _, cmd := range runner.Commands {
				assert.Equal(t, "cargo", cmd.Name)
				assert.Equal(t, tt.expected, cmd.Args)
			}
		})
	}
}

func TestExecute_Dis(t *testing.T) {
	runner := &proc.RecordingRunner{}

	res := executeWith(t, runner, "dis", "kernel8.img")
	require.Equal(t, 0, res.exitCode, res.stderr)

	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "aarch64-linux-gnu-objdump", runner.Commands[0].Name)
	assert.Equal(t,
		[]string{"-D", "-b", "binary", "-m", "aarch64", "--adjust-vma=0x80000", "kernel8.img"},
		runner.Commands[0].Args)
}

func TestExecute_Dis_ExitCode(t *testing.T) {
	runner := pipelineRunner("", map[string]int{"objdump": 1})

	res := executeWith(t, runner, "-objdump", "objdump", "dis", "missing.img")

	assert.Equal(t, 1, res.exitCode)
	assert.Equal(t, []string{"objdump"}, runner.Names())
}

func TestExecute_Dis_BoardsFile(t *testing.T) {
	boards := filepath.Join(t.TempDir(), "boards.yaml")
	require.NoError(t, os.WriteFile(boards, []byte(`boards:
  - name: raspi3b-32
    base: raspi3b
    arch: arm
    loadAddress: 0x8000
    disasmArch: arm
`), 0o600))

	runner := &proc.RecordingRunner{}

	res := executeWith(t, runner, "-boards", boards, "-board", "raspi3b-32", "dis", "kernel7.img")
	require.Equal(t, 0, res.exitCode, res.stderr)

	require.Len(t, runner.Commands, 1)
	assert.Equal(t,
		[]string{"-D", "-b", "binary", "-m", "arm", "--adjust-vma=0x8000", "kernel7.img"},
		runner.Commands[0].Args)
}

func TestExecute_UnknownBoard(t *testing.T) {
	runner := &proc.RecordingRunner{}

	res := executeWith(t, runner, "-board", "raspi5", "dis", "kernel8.img")

	assert.Equal(t, exitcode.Generic, res.exitCode)
	assert.Contains(t, res.stderr, "unknown board profile: raspi5 (available: raspi3b)")
	assert.Empty(t, runner.Commands)
}

func TestExecute_Deploy(t *testing.T) {
	workspace := t.TempDir()
	destination := filepath.Join(t.TempDir(), "kernel8.img")
	runner := pipelineRunner("80000 80000 1a40\n", nil)

	res := executeWith(t, runner, "deploy",
		"-workspace", workspace,
		"-transport", "local",
		"-destination", destination,
		"bootserver", "blinky",
	)
	require.Equal(t, 0, res.exitCode, res.stderr)

	require.Equal(t, []string{"cargo", "elf2bin"}, runner.Names())
	assert.Equal(t, filepath.Join(workspace, "expi_examples"), runner.Commands[0].Dir)

	content, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.Equal(t, "flat image", string(content))
	assert.Contains(t, res.stdout, "size:         1a40")
}

func TestExecute_Deploy_SCP(t *testing.T) {
	runner := pipelineRunner("80000 80000 1a40\n", map[string]int{"scp": 1})

	res := executeWith(t, runner, "deploy", "-workspace", t.TempDir(), "pi@bootserver", "blinky")

	assert.Equal(t, 1, res.exitCode)
	assert.Equal(t, []string{"cargo", "elf2bin", "scp"}, runner.Names())
	assert.Contains(t, res.stderr, "transfer failed")
}

func TestExecute_Deploy_BuildFailure(t *testing.T) {
	runner := pipelineRunner("", map[string]int{"cargo": 101})

	res := executeWith(t, runner, "deploy", "-workspace", t.TempDir(), "bootserver", "blinky")

	assert.Equal(t, 101, res.exitCode)
	assert.Equal(t, []string{"cargo"}, runner.Names())
	assert.Contains(t, res.stderr, "build failed")
}

func TestExecute_NetbootCheck(t *testing.T) {
	config := filepath.Join(t.TempDir(), "dnsmasq.conf")
	require.NoError(t, os.WriteFile(config, []byte(
		"enable-tftp\n"+
			"tftp-root=/srv/tftp\n"+
			"dhcp-range=192.168.1.255,proxy\n"+
			"pxe-service=0,\"Raspberry Pi Boot\"\n",
	), 0o600))

	t.Run("default destination", func(t *testing.T) {
		res := executeWith(t, &proc.RecordingRunner{}, "netboot-check", config)

		assert.Equal(t, 0, res.exitCode, res.stderr)
		assert.Contains(t, res.stdout, "serves /srv/tftp/kernel8.img")
	})

	t.Run("other destination", func(t *testing.T) {
		res := executeWith(t, &proc.RecordingRunner{},
			"netboot-check", "-destination", "/var/lib/tftpboot/kernel8.img", config)

		assert.Equal(t, exitcode.Generic, res.exitCode)
		assert.Contains(t, res.stderr, "destination outside of tftp-root")
	})
}

func TestExecute_NetbootCheck_Local(t *testing.T) {
	config := filepath.Join(t.TempDir(), "dnsmasq.conf")
	require.NoError(t, os.WriteFile(config, []byte(
		"enable-tftp\n"+
			"tftp-root=/srv/tftp\n"+
			"dhcp-range=eth0,192.168.1.100,192.168.1.150,12h\n"+
			"pxe-service=0,\"Raspberry Pi Boot\"\n",
	), 0o600))

	tests := []struct {
		name              string
		args              []string
		prefixes          []string
		listErr           error
		expectedInterface string
		expectedExitCode  int
		expectedStderr    string
	}{
		{
			name:     "range in local network",
			args:     []string{"-local"},
			prefixes: []string{"127.0.0.1/8", "192.168.1.2/24"},
		},
		{
			name:              "selected interface",
			args:              []string{"-local", "-interface", "eth0"},
			prefixes:          []string{"192.168.1.2/24"},
			expectedInterface: "eth0",
		},
		{
			name:             "range in other network",
			args:             []string{"-local"},
			prefixes:         []string{"10.0.0.2/24"},
			expectedExitCode: exitcode.Generic,
			expectedStderr:   "no dhcp-range in a local network",
		},
		{
			name:             "listing fails",
			args:             []string{"-local"},
			listErr:          assert.AnError,
			expectedExitCode: exitcode.Generic,
			expectedStderr:   assert.AnError.Error(),
		},
		{
			name: "not requested",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requested []string

			orig := localPrefixes
			t.Cleanup(func() { localPrefixes = orig })

			localPrefixes = func(iface string) ([]netip.Prefix, error) {
				requested = append(requested, iface)

				prefixes := make([]netip.Prefix, 0, len(tt.prefixes))
				for _, prefix := range tt.prefixes {
					prefixes = append(prefixes, netip.MustParsePrefix(prefix))
				}

				return prefixes, tt.listErr
			}

			args := append(append([]string{"netboot-check"}, tt.args...), config)
			res := executeWith(t, &proc.RecordingRunner{}, args...)

			assert.Equal(t, tt.expectedExitCode, res.exitCode, res.stderr)
			assert.Contains(t, res.stderr, tt.expectedStderr)

			if len(tt.args) == 0 {
				assert.Empty(t, requested, "networks must not be listed")
			} else {
				assert.Equal(t, []string{tt.expectedInterface}, requested)
			}
		})
	}
}

func TestExecute_Version(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"-version"}} {
		res := executeWith(t, &proc.RecordingRunner{}, args...)

		assert.Equal(t, 0, res.exitCode, res.stderr)
		assert.Contains(t, res.stdout, "piboot: dev")
	}
}

func TestHandleRunError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedExitCode int
		expectedOutput   string
	}{
		{
			name: "no error",
		},
		{
			name:             "child exit code",
			err:              fmt.Errorf("qemu: %w", exitcode.Error(42)),
			expectedExitCode: 42,
			expectedOutput:   "Error [piboot]: qemu: exit code 42\n",
		},
		{
			name: "joined exit codes",
			err: fmt.Errorf("build: %w", errors.Join(
				exitcode.Error(3),
				exitcode.Error(4),
			)),
			expectedExitCode: 3,
			expectedOutput:   "Error [piboot]: build: exit code 3\nexit code 4\n",
		},
		{
			name:             "any error",
			err:              assert.AnError,
			expectedExitCode: exitcode.Generic,
			expectedOutput: "Error [piboot]: " +
				"assert.AnError general error for testing\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdErr bytes.Buffer
			actualExitCode := handleRunError(tt.err, &stdErr)

			assert.Equal(t, tt.expectedExitCode, actualExitCode,
				"exit code should be as expected")
			assert.Equal(t, tt.expectedOutput, stdErr.String(),
				"stderr output should be as expected")
		})
	}
}

func TestHandleParseArgsError(t *testing.T) {
	assert.Equal(t, 0, handleParseArgsError(flag.ErrHelp))
	assert.Equal(t, exitcode.Usage, handleParseArgsError(&UsageError{msg: "bad"}))
}
