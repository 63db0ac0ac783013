// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/aibor/piboot/internal/board"
	"github.com/aibor/piboot/internal/convert"
	"github.com/aibor/piboot/internal/disasm"
)

const (
	name = "piboot"

	usageMessage = `Usage of 'piboot':
    piboot [flags...] command [command flags...] [args...]

Commands:
    run            convert an ELF kernel and boot it in the emulator
    rcargo         run the build tool in every workspace unit
    deploy         build, convert and copy a kernel to the boot server
    dis            disassemble a flat image
    netboot-check  check a dnsmasq config serves the deployed image
    version        show version and exit

Run 'piboot command -h' for the flags of a command.

Global flags can also be provided via environment variable PIBOOT_ARGS:
    PIBOOT_ARGS="-debug -board raspi3b" piboot run ./kernel

Global flags can also be provided via file ./.piboot-args, with one
argument per line.
`
)

type globalFlags struct {
	flagSet *flag.FlagSet

	debug      bool
	version    bool
	boardName  string
	boardsFile string
	converter  string
	objdump    string
}

func newGlobalFlags(output io.Writer) *globalFlags {
	flags := &globalFlags{
		boardName: board.DefaultName,
		converter: convert.DefaultExecutable,
		objdump:   disasm.DefaultExecutable,
	}

	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(flagSet.Output(), usageMessage)
		fmt.Fprintln(flagSet.Output(), "\nFlags:")
		flagSet.PrintDefaults()
	}

	flagSet.StringVar(
		&flags.boardName,
		"board",
		flags.boardName,
		"board profile to use",
	)

	flagSet.StringVar(
		&flags.boardsFile,
		"boards",
		flags.boardsFile,
		"YAML file with additional board profiles",
	)

	flagSet.StringVar(
		&flags.converter,
		"converter",
		flags.converter,
		"ELF to flat image converter",
	)

	flagSet.StringVar(
		&flags.objdump,
		"objdump",
		flags.objdump,
		"objdump used for disassembly",
	)

	flagSet.BoolVar(
		&flags.debug,
		"debug",
		flags.debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&flags.version,
		"version",
		flags.version,
		"show version and exit",
	)

	flags.flagSet = flagSet

	return flags
}

// parse parses the global flags. The first remaining argument is the command.
func (f *globalFlags) parse(args []string) error {
	return parseFlagSet(f.flagSet, args)
}

// newCommandFlagSet creates the flag set of a sub command. The usage
// describes the positional arguments.
func newCommandFlagSet(output io.Writer, command, usage, description string) *flag.FlagSet {
	flagSet := flag.NewFlagSet(name+" "+command, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Usage of '%s %s':\n    %s %s %s\n\n%s\n",
			name, command, name, command, usage, description)

		if hasFlags(flagSet) {
			fmt.Fprintln(flagSet.Output(), "\nFlags:")
			flagSet.PrintDefaults()
		}
	}

	return flagSet
}

func hasFlags(flagSet *flag.FlagSet) bool {
	found := false

	flagSet.VisitAll(func(*flag.Flag) { found = true })

	return found
}

// parseFlagSet parses up to the first argument that is not prefixed with a
// "-" or is "--". The flag package prints errors and usage itself.
func parseFlagSet(flagSet *flag.FlagSet, args []string) error {
	err := flagSet.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return flag.ErrHelp
		}

		return &UsageError{msg: "flag parse", err: err}
	}

	return nil
}

// splitKnownFlags splits args after the leading flags defined in flagSet.
// The first argument that is not such a flag starts the remainder. A "--"
// ends the leading flags and is dropped. Help flags count as known.
func splitKnownFlags(flagSet *flag.FlagSet, args []string) ([]string, []string) {
	for idx := 0; idx < len(args); idx++ {
		if args[idx] == "--" {
			return args[:idx], args[idx+1:]
		}

		name, hasValue, ok := flagName(args[idx])
		if !ok {
			return args[:idx], args[idx:]
		}

		if name == "h" || name == "help" {
			continue
		}

		definition := flagSet.Lookup(name)
		if definition == nil {
			return args[:idx], args[idx:]
		}

		if !hasValue && !isBoolFlag(definition) {
			// Value is the next argument.
			idx++
		}
	}

	return args, nil
}

// flagName returns the name of a "-name", "--name" or "-name=value"
// argument.
func flagName(arg string) (string, bool, bool) {
	trimmed, found := strings.CutPrefix(arg, "-")
	if !found {
		return "", false, false
	}

	trimmed = strings.TrimPrefix(trimmed, "-")
	if trimmed == "" || strings.HasPrefix(trimmed, "-") {
		return "", false, false
	}

	name, _, hasValue := strings.Cut(trimmed, "=")

	return name, hasValue, true
}

func isBoolFlag(definition *flag.Flag) bool {
	boolFlag, ok := definition.Value.(interface{ IsBoolFlag() bool })
	return ok && boolFlag.IsBoolFlag()
}

// fail fails like flag does. It prints the error first and then usage.
func fail(flagSet *flag.FlagSet, msg string, err error) error {
	err = &UsageError{msg: msg, err: err}
	fmt.Fprintln(flagSet.Output(), err.Error())

	flagSet.Usage()

	return err
}

// requireArgs fails if the number of positional arguments is not exactly n.
func requireArgs(flagSet *flag.FlagSet, n int, names ...string) error {
	if flagSet.NArg() == n {
		return nil
	}

	msg := fmt.Sprintf("expected %d argument(s) (%s), got %d",
		n, strings.Join(names, ", "), flagSet.NArg())

	return fail(flagSet, msg, nil)
}
