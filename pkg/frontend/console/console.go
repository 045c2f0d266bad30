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

// Package console presents the machine on an ANSI terminal, two display
// rows per text line, and reads the keypad from raw stdin.
package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/lassandro/gochip8/pkg/frontend"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"golang.org/x/term"
)

// Terminals report key presses only, so a key stays down for this many
// frames after its last byte arrives. Auto-repeat keeps it held.
const KEY_HOLD_FRAMES = 6

const (
	ESCAPE = 0x1B

	CURSOR_HOME = "\033[H"
	CLEAR       = "\033[2J"
	HIDE_CURSOR = "\033[?25l"
	SHOW_CURSOR = "\033[?25h"
	RESET       = "\033[0m"

	// Upper half block: foreground paints the top row, background the bottom
	HALF_BLOCK = "▀"
)

var ErrNotTerminal = errors.New("console frontend needs a terminal")

type Console struct {
	In      io.Reader
	Out     io.Writer
	Palette frontend.Palette
	Logger  *log.Logger

	held  [machine.KEY_COUNT]int
	read  []byte
	frame bytes.Buffer
	quit  bool
}

func New(in io.Reader, out io.Writer, palette frontend.Palette, logger *log.Logger) *Console {
	if logger == nil {
		logger = log.NewNop()
	}

	return &Console{
		In:      in,
		Out:     out,
		Palette: palette,
		Logger:  logger,
		read:    make([]byte, 64),
	}
}

// Run puts stdin in raw mode and paces rn until Escape, cancellation or a
// machine error. The terminal is restored on return.
func (con *Console) Run(ctx context.Context, rn *runner.Runner) error {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}

	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if width < machine.DISPLAY_WIDTH || height < machine.DISPLAY_HEIGHT/2 {
			con.Logger.Warn(
				"Terminal smaller than display",
				log.Int("columns", width),
				log.Int("lines", height),
			)
		}
	}

	raw, err := EnterRaw(fd)

	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}

	defer func() {
		if err := raw.Restore(); err != nil {
			con.Logger.Error("Restoring terminal failed", log.Err(err))
		}
	}()

	fmt.Fprint(con.Out, CLEAR+HIDE_CURSOR)
	defer fmt.Fprint(con.Out, RESET+SHOW_CURSOR+"\r\n")

	var blank machine.Framebuffer
	if err := con.Present(blank); err != nil {
		return err
	}

	return rn.Run(ctx)
}

func (con *Console) Poll(keys *set.BitSet) bool {
	for {
		n, err := con.In.Read(con.read)

		if n > 0 {
			con.feed(con.read[:n])
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				con.Logger.Warn("Reading keyboard failed", log.Err(err))
			}
			break
		}

		if n < len(con.read) {
			break
		}
	}

	keys.Clear()

	for index := range con.held {
		if con.held[index] > 0 {
			keys.Add(index)
			con.held[index]--
		}
	}

	return con.quit
}

// feed consumes a chunk of raw input. A lone Escape quits; escape
// sequences such as arrow keys are skipped.
func (con *Console) feed(data []byte) {
	for i := 0; i < len(data); i++ {
		if data[i] != ESCAPE {
			if index, ok := frontend.KeypadIndexForRune(rune(data[i])); ok {
				con.held[index] = KEY_HOLD_FRAMES
			}
			continue
		}

		if i+1 >= len(data) {
			con.quit = true
			return
		}

		if data[i+1] != '[' && data[i+1] != 'O' {
			con.quit = true
			continue
		}

		// CSI/SS3: parameters until a final byte in 0x40-0x7E
		i += 2
		for i < len(data) && (data[i] < 0x40 || data[i] > 0x7E) {
			i++
		}
	}
}

func (con *Console) Present(fb machine.Framebuffer) error {
	con.frame.Reset()
	con.frame.WriteString(CURSOR_HOME)

	for y := 0; y < machine.DISPLAY_HEIGHT; y += 2 {
		var fg, bg color.RGBA

		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			top := con.shade(fb[y][x])
			bottom := con.shade(fb[y+1][x])

			if x == 0 || top != fg || bottom != bg {
				fg, bg = top, bottom
				fmt.Fprintf(
					&con.frame, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm",
					fg.R, fg.G, fg.B, bg.R, bg.G, bg.B,
				)
			}

			con.frame.WriteString(HALF_BLOCK)
		}

		con.frame.WriteString(RESET + "\r\n")
	}

	_, err := con.Out.Write(con.frame.Bytes())
	return err
}

func (con *Console) shade(lit bool) color.RGBA {
	if lit {
		return con.Palette.Foreground
	}

	return con.Palette.Background
}
