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
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/settings"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/cli"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const (
	IMAGE_EXT    = ".ch8"
	SYMTABLE_EXT = ".c8db"
	LISTING_EXT  = ".asm"
	STDIN_OUT    = "out" + IMAGE_EXT
)

type options struct {
	Debug  bool   `flag:"debug" usage:"also write a symbol table next to the output with extension '.c8db'"`
	Out    string `flag:"o,out" usage:"name of the output file, overriding the default"`
	Disasm bool   `flag:"disasm" usage:"disassemble a program image instead of assembling source"`
	Quiet  bool   `flag:"q,quiet" usage:"only log errors"`
}

type arguments struct {
	File string `arg:"positional" usage:"source file, or stdin when piped"`
}

func main() {
	os.Exit(gochip8asm())
}

func gochip8asm() int {
	var opts options
	var args arguments

	flags := cli.NewFlagSet("gochip8-asm")
	flags.AddSection("Flags", &opts)
	flags.AddPositional(&args)

	if _, err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrHelpRequested) {
			return 0
		}

		fmt.Fprintln(os.Stderr, err)
		flags.ShowUsage()
		return 1
	}

	logger := settings.CreateLogger(false, false, opts.Quiet)
	logger.Debug(buildinfo.Version(version, commit, date))

	var infile string
	var input io.ReadSeeker

	if args.File == "" && piped(os.Stdin) {
		input = os.Stdin

		if opts.Out == "" {
			opts.Out = STDIN_OUT
		}
	} else {
		if args.File == "" {
			flags.ShowUsage()
			return 1
		}

		file, err := os.Open(args.File)

		if err != nil {
			logger.Error("Opening input failed", log.Err(err))
			return 1
		}

		defer file.Close()

		if stat, err := file.Stat(); err != nil {
			logger.Error("Opening input failed", log.Err(err))
			return 1
		} else if stat.IsDir() {
			logger.Error(fmt.Sprintf("%s is not a valid CHIP-8 file", args.File))
			return 1
		}

		input = file
		infile = file.Name()

		if opts.Out == "" {
			ext := IMAGE_EXT
			if opts.Disasm {
				ext = LISTING_EXT
			}

			base := filepath.Base(infile)
			opts.Out = strings.TrimSuffix(base, filepath.Ext(base)) + ext
		}
	}

	if opts.Disasm {
		return disassemble(logger, input, opts.Out)
	}

	var symtable assembler.SymTable
	var symtarget *assembler.SymTable

	if opts.Debug {
		if infile != "" {
			var err error
			if symtable.Source, err = filepath.Abs(infile); err != nil {
				logger.Warn("Resolving source path failed", log.Err(err))
				symtable.Source = ""
			}
		}
		symtable.Symbols = make(map[uint16]int64)
		symtable.Labels = make(map[uint16]string)
		symtarget = &symtable
	}

	result, errs := assembler.AssembleSource(input, symtarget)

	if len(errs) > 0 {
		name := "<stdin>"
		if infile != "" {
			name = filepath.Base(infile)
		}

		for _, err := range errs {
			printError(os.Stderr, name, input, infile != "", err)
		}

		return 1
	}

	if err := os.WriteFile(opts.Out, result, 0666); err != nil {
		logger.Error("Error writing output file", log.Err(err))
		return 1
	}

	logger.Info(
		"Assembled",
		log.String("out", opts.Out),
		log.Int("size", len(result)),
	)

	if opts.Debug {
		filename := strings.TrimSuffix(opts.Out, filepath.Ext(opts.Out)) + SYMTABLE_EXT

		if err := writeSymTable(filename, &symtable); err != nil {
			logger.Error("Error writing symbol table", log.Err(err))
			return 1
		}
	}

	return 0
}

func piped(file *os.File) bool {
	stat, err := file.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice == 0
}

// printError reports an assembler error. Positioned errors from a seekable
// file also show the offending line with the token underlined.
func printError(w io.Writer, name string, input io.ReadSeeker, seekable bool, err error) {
	var tokenErr assembler.TokenError

	if !seekable || !errors.As(err, &tokenErr) {
		fmt.Fprintf(w, "\033[1m%s:\033[0m %s\n", name, err)
		return
	}

	cursor := tokenErr.GetPosition()

	if _, seekErr := input.Seek(cursor.LineByte, io.SeekStart); seekErr != nil {
		fmt.Fprintf(w, "\033[1m%s:\033[0m %s\n", name, err)
		return
	}

	line, _ := bufio.NewReader(input).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	size := max(int(cursor.Size), 1)

	fmt.Fprintf(
		w,
		"\033[1m%s:\033[0m %s\n%s\n\033[31m%s%s\033[0m\n",
		name,
		err,
		line,
		strings.Repeat(" ", int(cursor.Byte-cursor.LineByte)),
		"^"+strings.Repeat("~", size-1),
	)
}

func writeSymTable(filename string, symtable *assembler.SymTable) error {
	file, err := os.Create(filename)

	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(symtable); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func disassemble(logger *log.Logger, input io.Reader, out string) int {
	image, err := io.ReadAll(input)

	if err != nil {
		logger.Error("Reading program failed", log.Err(err))
		return 1
	}

	file, err := os.Create(out)

	if err != nil {
		logger.Error("Error creating listing", log.Err(err))
		return 1
	}

	defer file.Close()

	if err := disasm.Write(file, image, machine.PROGRAM_START); err != nil {
		logger.Error("Error writing listing", log.Err(err))
		return 1
	}

	return 0
}
