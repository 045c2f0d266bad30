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

// Package window presents the machine in an ebiten window and reads the
// keypad from the keyboard.
package window

import (
	"context"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/lassandro/gochip8/pkg/frontend"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/retroenv/retrogolib/input"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"golang.org/x/image/font/basicfont"
)

var keyMapping = map[input.Key]ebiten.Key{
	input.Key1: ebiten.KeyDigit1,
	input.Key2: ebiten.KeyDigit2,
	input.Key3: ebiten.KeyDigit3,
	input.Key4: ebiten.KeyDigit4,
	input.Q:    ebiten.KeyQ,
	input.W:    ebiten.KeyW,
	input.E:    ebiten.KeyE,
	input.R:    ebiten.KeyR,
	input.A:    ebiten.KeyA,
	input.S:    ebiten.KeyS,
	input.D:    ebiten.KeyD,
	input.F:    ebiten.KeyF,
	input.Z:    ebiten.KeyZ,
	input.X:    ebiten.KeyX,
	input.C:    ebiten.KeyC,
	input.V:    ebiten.KeyV,
}

const (
	PAUSE_KEY = ebiten.KeyP
	QUIT_KEY  = ebiten.KeyEscape
)

type Window struct {
	Palette frontend.Palette
	Scale   int
	Logger  *log.Logger

	ctx    context.Context
	runner *runner.Runner
	image  *image.RGBA
	screen *ebiten.Image
	paused bool
	err    error
}

func New(palette frontend.Palette, scale int, logger *log.Logger) *Window {
	if scale <= 0 {
		scale = 1
	}

	if logger == nil {
		logger = log.NewNop()
	}

	w := &Window{
		Palette: palette,
		Scale:   scale,
		Logger:  logger,
		image:   frontend.NewImage(),
	}

	var blank machine.Framebuffer
	frontend.Rasterize(w.image, &blank, palette)

	return w
}

// Run opens the window and drives rn from the ebiten game loop, one
// runner frame per tick. It returns once the window closes, Escape is
// pressed, ctx is cancelled or the machine fails.
func (w *Window) Run(ctx context.Context, rn *runner.Runner) error {
	w.ctx = ctx
	w.runner = rn

	ebiten.SetWindowSize(
		machine.DISPLAY_WIDTH*w.Scale, machine.DISPLAY_HEIGHT*w.Scale,
	)
	ebiten.SetWindowTitle(frontend.WINDOW_TITLE)
	ebiten.SetTPS(rn.TimerRate)

	if err := ebiten.RunGame(w); err != nil {
		return err
	}

	return w.err
}

func (w *Window) Poll(keys *set.BitSet) bool {
	if ebiten.IsKeyPressed(QUIT_KEY) {
		return true
	}

	keys.Clear()

	for index, key := range frontend.Keymap {
		if ebiten.IsKeyPressed(keyMapping[key]) {
			keys.Add(index)
		}
	}

	return false
}

func (w *Window) Present(fb machine.Framebuffer) error {
	frontend.Rasterize(w.image, &fb, w.Palette)
	return nil
}

func (w *Window) Update() error {
	if err := w.ctx.Err(); err != nil {
		w.err = err
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(PAUSE_KEY) {
		w.paused = !w.paused
		w.Logger.Debug("Pause", log.Bool("paused", w.paused))
	}

	if w.paused {
		return nil
	}

	quit, err := w.runner.Frame(w.ctx)

	if err != nil {
		w.err = err
		return ebiten.Termination
	}

	if quit {
		return ebiten.Termination
	}

	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.screen == nil {
		w.screen = ebiten.NewImage(machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT)
	}

	w.screen.WritePixels(w.image.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w.Scale), float64(w.Scale))
	screen.DrawImage(w.screen, op)

	if w.paused {
		text.Draw(screen, "PAUSED", basicfont.Face7x13, 4, 14, w.Palette.Foreground)
	}
}

func (w *Window) Layout(_, _ int) (int, int) {
	return machine.DISPLAY_WIDTH * w.Scale, machine.DISPLAY_HEIGHT * w.Scale
}
