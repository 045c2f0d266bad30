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

// Package runner drives a machine at a configurable instruction rate while
// counting its timers down at a fixed rate, independent of each other.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

const (
	DEFAULT_SPEED      = 700
	DEFAULT_TIMER_RATE = 60
)

// Input refreshes the key latch once per frame. Returning true stops the
// run.
type Input interface {
	Poll(keys *set.BitSet) (quit bool)
}

// Presenter receives a copy of the framebuffer whenever it changed.
type Presenter interface {
	Present(fb machine.Framebuffer) error
}

type Runner struct {
	Machine   *machine.Machine
	Input     Input
	Presenter Presenter
	Logger    *log.Logger

	// Instructions per second
	Speed int
	// Timer decrements per second, also the frame rate
	TimerRate int

	// Instructions owed to the next frame, in units of 1/TimerRate
	pending  int
	frames   uint64
	sounding bool
}

type Option func(rn *Runner)

func New(mc *machine.Machine, input Input, presenter Presenter, opts ...Option) *Runner {
	rn := &Runner{
		Machine:   mc,
		Input:     input,
		Presenter: presenter,
		Speed:     DEFAULT_SPEED,
		TimerRate: DEFAULT_TIMER_RATE,
	}

	for _, opt := range opts {
		opt(rn)
	}

	if rn.Logger == nil {
		rn.Logger = log.NewNop()
	}

	return rn
}

func WithSpeed(hz int) Option {
	return func(rn *Runner) {
		if hz > 0 {
			rn.Speed = hz
		}
	}
}

func WithTimerRate(hz int) Option {
	return func(rn *Runner) {
		if hz > 0 {
			rn.TimerRate = hz
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(rn *Runner) { rn.Logger = logger }
}

// Frames returns how many frames have completed.
func (rn *Runner) Frames() uint64 {
	return rn.frames
}

// Cycles reports how many instructions the next frame will execute.
func (rn *Runner) Cycles() int {
	return (rn.pending + rn.Speed) / rn.TimerRate
}

// Frame runs one timer period: poll input, execute the instructions owed
// for this period, decrement the timers once and present the display if it
// changed. The first machine error ends the frame and is returned.
func (rn *Runner) Frame(ctx context.Context) (bool, error) {
	state := &rn.Machine.State

	if rn.Input != nil {
		keys := state.Keypad

		if rn.Input.Poll(&keys) {
			return true, nil
		}

		state.SetKeypad(keys)
	}

	rn.pending += rn.Speed
	cycles := rn.pending / rn.TimerRate
	rn.pending %= rn.TimerRate

	for i := 0; i < cycles; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		// The final instruction of the frame also counts the timers down
		var err error
		if i == cycles-1 {
			err = rn.Machine.Tick()
		} else {
			err = rn.Machine.Step()
		}

		if err != nil {
			return false, err
		}
	}

	if cycles == 0 {
		state.DecrementTimers()
	}

	rn.frames++
	rn.updateSound()

	if state.Redraw && rn.Presenter != nil {
		state.Redraw = false

		if err := rn.Presenter.Present(state.Display.Snapshot()); err != nil {
			return false, fmt.Errorf("presenting frame: %w", err)
		}
	}

	return false, nil
}

// Run paces frames at TimerRate until the input asks to quit, the context
// is cancelled or the machine fails.
func (rn *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(rn.TimerRate))
	defer ticker.Stop()

	rn.Logger.Debug(
		"Running",
		log.Int("speed", rn.Speed),
		log.Int("timer_rate", rn.TimerRate),
	)

	for {
		quit, err := rn.Frame(ctx)

		if err != nil {
			return err
		}

		if quit {
			rn.Logger.Debug("Quit requested", log.Uint64("frames", rn.frames))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunFrames executes count frames without pacing.
func (rn *Runner) RunFrames(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		quit, err := rn.Frame(ctx)

		if err != nil {
			return err
		}

		if quit {
			return nil
		}
	}

	return nil
}

// No tone is produced; the sound timer is only reported.
func (rn *Runner) updateSound() {
	sounding := rn.Machine.State.SoundTimer > 0

	if sounding != rn.sounding {
		rn.sounding = sounding
		rn.Logger.Debug("Sound", log.Bool("on", sounding))
	}
}
