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

// Package headless runs the machine without a display for batch runs and
// tests. Keys are held for the whole run and the last presented frame is
// kept for inspection.
package headless

import (
	"context"
	"fmt"
	"io"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/retroenv/retrogolib/set"
)

type Headless struct {
	Keys   set.BitSet
	Frames int

	Last     machine.Framebuffer
	Presents int
}

// New returns a headless frontend that stops after frames frames. Zero
// runs until cancelled.
func New(frames int, keys ...int) *Headless {
	hl := &Headless{Frames: frames}

	for _, key := range keys {
		if key >= 0 && key < machine.KEY_COUNT {
			hl.Keys.Add(key)
		}
	}

	return hl
}

func (hl *Headless) Poll(keys *set.BitSet) bool {
	*keys = hl.Keys
	return false
}

func (hl *Headless) Present(fb machine.Framebuffer) error {
	hl.Last = fb
	hl.Presents++
	return nil
}

// Run executes the configured number of frames without pacing, then
// writes the final display as text to out.
func (hl *Headless) Run(ctx context.Context, rn *runner.Runner, out io.Writer) error {
	var err error

	if hl.Frames > 0 {
		err = rn.RunFrames(ctx, hl.Frames)
	} else {
		err = rn.Run(ctx)
	}

	if out != nil {
		fmt.Fprint(out, hl.Last.String())
	}

	return err
}
