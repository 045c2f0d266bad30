// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/frontend"
	"github.com/lassandro/gochip8/pkg/frontend/console"
	"github.com/lassandro/gochip8/pkg/frontend/headless"
	"github.com/lassandro/gochip8/pkg/frontend/sdlgui"
	"github.com/lassandro/gochip8/pkg/frontend/window"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/lassandro/gochip8/pkg/settings"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/cli"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const SYMTABLE_EXT = ".c8db"

type options struct {
	Config      string `flag:"c,config" usage:"config file to load"`
	WriteConfig string `flag:"write-config" usage:"write the effective settings to a file and exit"`
	Debug       bool   `flag:"debug" usage:"run the machine in a debug CLI"`
	DebugLog    bool   `flag:"d,debug-log" usage:"enable debug logging"`
	Trace       bool   `flag:"trace" usage:"log every executed instruction"`
	Quiet       bool   `flag:"q,quiet" usage:"only log errors"`
	Frames      int    `flag:"frames" usage:"headless: stop after this many frames"`
	Keys        string `flag:"keys" usage:"headless: hex keypad keys held down, e.g. 5A"`
}

type arguments struct {
	Rom string `arg:"positional" usage:"program image to run" required:"true"`
}

func main() {
	os.Exit(gochip8())
}

func gochip8() int {
	var opts options
	var overrides settings.Overrides
	var args arguments

	flags := cli.NewFlagSet("gochip8")
	flags.AddSection("Flags", &opts)
	flags.AddSection("Settings", &overrides)
	flags.AddPositional(&args)

	if _, err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrHelpRequested) {
			return 0
		}

		logger := settings.CreateLogger(false, false, false)
		logger.Error(err.Error())
		flags.ShowUsage()
		return 1
	}

	logger := settings.CreateLogger(opts.DebugLog, opts.Trace, opts.Quiet)
	logger.Debug(buildinfo.Version(version, commit, date))

	cfg, err := loadSettings(opts.Config, overrides)

	if err != nil {
		logger.Error("Loading settings failed", log.Err(err))
		return 1
	}

	if opts.WriteConfig != "" {
		if err := writeSettings(opts.WriteConfig, cfg); err != nil {
			logger.Error("Writing settings failed", log.Err(err))
			return 1
		}

		return 0
	}

	if opts.Debug && cfg.Frontend == settings.FRONTEND_CONSOLE {
		logger.Error("The debugger and the console frontend both need the terminal")
		return 1
	}

	ctx, cancel := sessionContext(opts.Debug)
	defer cancel()

	mc := machine.New(
		machine.WithSeed(uint64(cfg.Seed)),
		machine.WithDrawMode(cfg.Mode()),
		machine.WithLogger(logger),
	)

	image, err := os.ReadFile(args.Rom)

	if err != nil {
		logger.Error("Reading program failed", log.Err(err))
		return 1
	}

	if err := mc.LoadProgram(bytes.NewReader(image)); err != nil {
		logger.Error("Loading program failed", log.Err(err))
		return 1
	}

	logger.Info(
		"Program loaded",
		log.String("rom", filepath.Base(args.Rom)),
		log.Int("size", len(image)),
	)

	if opts.Debug {
		dbg, closer := attachDebugger(logger, mc, args.Rom, image, cancel)
		defer closer()

		stop := forwardInterrupts(dbg)
		defer stop()

		dbg.REPL(mc)
	}

	err = run(ctx, logger, mc, cfg, opts)

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Info("Operation cancelled")
	default:
		report(logger, mc, err)
		return 1
	}

	return 0
}

// sessionContext returns the context that ends a run. In debug mode SIGINT
// belongs to the debugger, so only the returned cancel func (wired to the
// debugger's quit command) ends the session.
func sessionContext(debug bool) (context.Context, context.CancelFunc) {
	if debug {
		return context.WithCancel(context.Background())
	}

	return context.WithCancel(app.Context())
}

// forwardInterrupts turns SIGINT into debugger breaks until stop is called.
func forwardInterrupts(dbg *debugger.Debugger) (stop func()) {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, os.Interrupt)

	go func() {
		for {
			select {
			case <-sig:
				dbg.Interrupt()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sig)
		close(done)
	}
}

func loadSettings(path string, overrides settings.Overrides) (settings.Settings, error) {
	cfg := settings.Defaults()

	if path != "" {
		var err error

		if cfg, err = settings.Load(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.Apply(overrides); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func writeSettings(path string, cfg settings.Settings) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	if err := cfg.Write(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// attachDebugger hooks a debugger into mc. The symbol table is looked up
// next to the program image with the SYMTABLE_EXT extension.
func attachDebugger(
	logger *log.Logger,
	mc *machine.Machine,
	rom string,
	image []byte,
	cancel context.CancelFunc,
) (*debugger.Debugger, func()) {
	dbg := debugger.New(os.Stdin, os.Stdout)
	dbg.Program = image
	dbg.Quit = cancel
	mc.Debugger = dbg

	closer := func() {}

	filename := strings.TrimSuffix(rom, filepath.Ext(rom)) + SYMTABLE_EXT

	if file, err := os.Open(filename); err == nil {
		var symtable assembler.SymTable

		if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
			dbg.SymTable = &symtable
		} else {
			logger.Warn("Error loading symbol file", log.Err(err))
		}

		file.Close()
	} else {
		logger.Debug("No symbol file", log.String("path", filename))
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
			closer = func() { file.Close() }
		} else {
			logger.Warn("Error loading source file", log.Err(err))
		}
	}

	return dbg, closer
}

func run(
	ctx context.Context,
	logger *log.Logger,
	mc *machine.Machine,
	cfg settings.Settings,
	opts options,
) error {
	palette := frontend.NewPalette(cfg.Foreground, cfg.Background)

	newRunner := func(input runner.Input, presenter runner.Presenter) *runner.Runner {
		return runner.New(
			mc, input, presenter,
			runner.WithSpeed(cfg.Speed),
			runner.WithTimerRate(cfg.TimerRate),
			runner.WithLogger(logger),
		)
	}

	logger.Debug("Starting frontend", log.String("frontend", cfg.Frontend))

	switch cfg.Frontend {
	case settings.FRONTEND_WINDOW:
		w := window.New(palette, cfg.Scale, logger)
		return w.Run(ctx, newRunner(w, w))

	case settings.FRONTEND_SDL:
		backend := sdlgui.New(palette, cfg.Scale)
		return backend.Run(ctx, newRunner(backend, backend))

	case settings.FRONTEND_CONSOLE:
		con := console.New(os.Stdin, os.Stdout, palette, logger)
		return con.Run(ctx, newRunner(con, con))

	case settings.FRONTEND_HEADLESS:
		keys, err := parseKeys(opts.Keys)

		if err != nil {
			return err
		}

		hl := headless.New(opts.Frames, keys...)
		return hl.Run(ctx, newRunner(hl, hl), os.Stdout)
	}

	return fmt.Errorf("%w: unknown frontend '%s'", settings.ErrInvalidSetting, cfg.Frontend)
}

// parseKeys reads one hex digit per held key.
func parseKeys(s string) ([]int, error) {
	keys := make([]int, 0, len(s))

	for _, r := range s {
		key, err := strconv.ParseUint(string(r), 16, 8)

		if err != nil {
			return nil, fmt.Errorf("invalid key '%c'", r)
		}

		keys = append(keys, int(key))
	}

	return keys, nil
}

// report logs a machine failure with the faulting instruction and dumps
// the register file to stderr.
func report(logger *log.Logger, mc *machine.Machine, err error) {
	pc := mc.State.Program

	var unknown *machine.UnknownOpcodeError
	if errors.As(err, &unknown) {
		pc = unknown.Addr
	}

	fields := []log.Field{log.Err(err), log.Hex("pc", pc)}

	if word, fetchErr := mc.State.Fetch(pc); fetchErr == nil {
		fields = append(fields, log.Hex("opcode", word))
	}

	logger.Error("Machine stopped", fields...)

	dump := debugger.New(strings.NewReader(""), os.Stderr)
	dump.PrintDisasm(&mc.State, pc, 1)
	dump.PrintRegisters(&mc.State)
	dump.PrintStack(&mc.State)
}
