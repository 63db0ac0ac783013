// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/aibor/piboot/internal/board"
	"github.com/aibor/piboot/internal/convert"
	"github.com/aibor/piboot/internal/exitcode"
	"github.com/aibor/piboot/internal/proc"
)

// Set on build.
var version = "dev"

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// app is a single invocation of piboot after the global flags have been
// parsed.
type app struct {
	io     IO
	runner proc.Runner
	flags  *globalFlags
}

type commandFunc func(a *app, ctx context.Context, args []string) error

var commands = map[string]commandFunc{
	"run":           (*app).emulate,
	"rcargo":        (*app).buildWorkspace,
	"deploy":        (*app).deploy,
	"dis":           (*app).disassemble,
	"netboot-check": (*app).netbootCheck,
	"version":       (*app).printVersion,
}

// Run is the main entry point for the CLI command. It returns the exit code
// the process is supposed to exit with.
func Run(ctx context.Context, args []string, cfg IO) int {
	return execute(ctx, args, cfg, proc.ExecRunner{})
}

func execute(ctx context.Context, args []string, cfg IO, runner proc.Runner) int {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return handleRunError(err, cfg.Stderr)
	}

	flags := newGlobalFlags(cfg.Stderr)

	err = flags.parse(args)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.debug)

	app := &app{
		io:     cfg,
		runner: runner,
		flags:  flags,
	}

	if flags.version {
		return handleRunError(app.printVersion(ctx, nil), cfg.Stderr)
	}

	commandArgs := flags.flagSet.Args()
	if len(commandArgs) == 0 {
		return handleParseArgsError(fail(flags.flagSet, "no command given", nil))
	}

	command, exists := commands[commandArgs[0]]
	if !exists {
		msg := fmt.Sprintf("unknown command %q", commandArgs[0])
		return handleParseArgsError(fail(flags.flagSet, msg, nil))
	}

	err = command(app, ctx, commandArgs[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, &UsageError{}) {
			return handleParseArgsError(err)
		}

		return handleRunError(err, cfg.Stderr)
	}

	return 0
}

// loadProfile resolves the selected board. Commands call it after their own
// arguments are validated.
func (a *app) loadProfile() (board.Profile, error) {
	boardsFile, boardName := a.flags.boardsFile, a.flags.boardName
	registry := board.NewRegistry()

	if boardsFile != "" {
		path, err := filepath.Abs(boardsFile)
		if err != nil {
			return board.Profile{}, fmt.Errorf("boards file: %w", err)
		}

		err = registry.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return board.Profile{}, err //nolint:wrapcheck
		}
	}

	profile, err := registry.Get(boardName)
	if err != nil {
		return board.Profile{}, fmt.Errorf("%w (available: %s)",
			err, strings.Join(registry.Names(), ", "))
	}

	slog.Debug("Board profile", slog.String("name", profile.Name))

	return profile, nil
}

func (a *app) converter() *convert.Converter {
	return &convert.Converter{
		Executable: a.flags.converter,
		Runner:     a.runner,
		Stderr:     a.io.Stderr,
	}
}

func (a *app) printVersion(_ context.Context, _ []string) error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ErrReadBuildInfo
	}

	fmt.Fprintf(a.io.Stdout, "%s: %s (%s)\n", name, version, buildInfo.GoVersion)

	return nil
}

func setupLogging(writer io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(
		writer,
		&slog.HandlerOptions{
			Level: level,
		},
	)))
}

func handleParseArgsError(err error) int {
	// [flag.ErrHelp] is returned when help is requested. So exit without
	// error in this case.
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}

	return exitcode.Usage
}

func handleRunError(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "Error [%s]: %v\n", name, err)

	code, _ := exitcode.From(err)

	return code
}
