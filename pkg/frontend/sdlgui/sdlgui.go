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

// Package sdlgui presents the machine through the retrogolib SDL2 backend.
package sdlgui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/lassandro/gochip8/pkg/frontend"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/retroenv/retrogolib/gui"
	_ "github.com/retroenv/retrogolib/gui/sdl2"
	"github.com/retroenv/retrogolib/input"
	"github.com/retroenv/retrogolib/set"
)

var ErrUnavailable = errors.New("SDL renderer unavailable")

// Backend implements gui.Backend for the SDL renderer and acts as both
// input and presenter for the runner.
type Backend struct {
	Palette frontend.Palette
	Scale   int

	image *image.RGBA
	latch frontend.Latch
	quit  bool
}

func New(palette frontend.Palette, scale int) *Backend {
	if scale <= 0 {
		scale = 1
	}

	backend := &Backend{
		Palette: palette,
		Scale:   scale,
		image:   frontend.NewImage(),
	}

	var blank machine.Framebuffer
	frontend.Rasterize(backend.image, &blank, palette)

	return backend
}

func (backend *Backend) Image() *image.RGBA {
	return backend.image
}

func (backend *Backend) Dimensions() gui.Dimensions {
	return gui.Dimensions{
		ScaleFactor: float64(backend.Scale),
		Width:       machine.DISPLAY_WIDTH,
		Height:      machine.DISPLAY_HEIGHT,
	}
}

func (backend *Backend) WindowTitle() string {
	return frontend.WINDOW_TITLE
}

func (backend *Backend) KeyDown(key input.Key) {
	backend.latch.KeyDown(key)
}

func (backend *Backend) KeyUp(key input.Key) {
	backend.latch.KeyUp(key)
}

func (backend *Backend) Poll(keys *set.BitSet) bool {
	*keys = backend.latch.Keys()
	return backend.quit
}

func (backend *Backend) Present(fb machine.Framebuffer) error {
	frontend.Rasterize(backend.image, &fb, backend.Palette)
	return nil
}

// Run opens the SDL window and alternates event handling with runner
// frames on the calling goroutine, paced at the runner's timer rate.
func (backend *Backend) Run(ctx context.Context, rn *runner.Runner) error {
	if gui.Setup == nil {
		return ErrUnavailable
	}

	render, cleanup, err := gui.Setup(backend)

	if err != nil {
		return fmt.Errorf("setting up SDL: %w", err)
	}

	defer cleanup()

	ticker := time.NewTicker(time.Second / time.Duration(rn.TimerRate))
	defer ticker.Stop()

	for {
		running, err := render()

		if err != nil {
			return fmt.Errorf("rendering: %w", err)
		}

		// Window closed or Escape
		backend.quit = !running

		quit, err := rn.Frame(ctx)

		if err != nil || quit {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
