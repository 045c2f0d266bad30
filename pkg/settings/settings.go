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

package settings

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/config"
	"github.com/retroenv/retrogolib/log"
)

const (
	FRONTEND_WINDOW   = "window"
	FRONTEND_SDL      = "sdl"
	FRONTEND_CONSOLE  = "console"
	FRONTEND_HEADLESS = "headless"
)

const (
	DEFAULT_SPEED      = 700
	DEFAULT_TIMER_RATE = 60
	DEFAULT_SCALE      = 10
	MAX_COLOR          = 0xFFFFFF
)

var Frontends = []string{
	FRONTEND_WINDOW,
	FRONTEND_SDL,
	FRONTEND_CONSOLE,
	FRONTEND_HEADLESS,
}

// Settings is the emulator configuration as stored in a config file.
type Settings struct {
	Speed      int    `config:"cpu.speed,default=700"`
	TimerRate  int    `config:"timer.rate,default=60"`
	Scale      int    `config:"display.scale,default=10"`
	Foreground int    `config:"display.foreground,default=0xFFFFFF"`
	Background int    `config:"display.background,default=0x000000"`
	DrawMode   string `config:"display.draw_mode,default=clamp"`
	Frontend   string `config:"display.frontend,default=window"`
	Seed       int64  `config:"random.seed,default=0"`
}

// Overrides are command-line values layered on top of a config file. Zero
// values leave the loaded setting untouched.
type Overrides struct {
	Speed      int    `flag:"speed" usage:"instructions executed per second"`
	TimerRate  int    `flag:"timer-rate" usage:"delay and sound timer rate in Hz"`
	Scale      int    `flag:"scale" usage:"window pixels per display pixel"`
	Foreground string `flag:"fg" usage:"foreground color as RRGGBB"`
	Background string `flag:"bg" usage:"background color as RRGGBB"`
	DrawMode   string `flag:"draw-mode" usage:"sprite edge handling: clamp, clip or wrap"`
	Frontend   string `flag:"f,frontend" usage:"window, sdl, console or headless"`
	Seed       int64  `flag:"seed" usage:"random seed, 0 seeds from the clock"`
}

func Defaults() Settings {
	settings, err := Parse(strings.NewReader(""))

	if err != nil {
		panic(fmt.Sprintf("invalid default settings: %v", err))
	}

	return settings
}

// Load reads settings from a config file. An empty path yields the
// defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		return Defaults(), nil
	}

	document, err := config.Open(path, config.Options{})

	if err != nil {
		return Settings{}, fmt.Errorf("opening config '%s': %w", path, err)
	}

	return decode(document)
}

func Parse(reader io.Reader) (Settings, error) {
	document, err := config.Parse(reader, config.Options{})

	if err != nil {
		return Settings{}, fmt.Errorf("parsing config: %w", err)
	}

	return decode(document)
}

func decode(document *config.Config) (Settings, error) {
	var settings Settings

	if err := document.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}

	settings.DrawMode = strings.ToLower(settings.DrawMode)
	settings.Frontend = strings.ToLower(settings.Frontend)

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// Write stores the settings in config file format.
func (s Settings) Write(w io.Writer) error {
	document, err := config.Parse(bytes.NewReader(nil), config.Options{})

	if err != nil {
		return err
	}

	if err := document.Marshal(s); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	data, err := document.SaveBytes()

	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = w.Write(data)
	return err
}

// Apply layers command-line overrides on top of the settings and validates
// the result.
func (s *Settings) Apply(overrides Overrides) error {
	if overrides.Speed != 0 {
		s.Speed = overrides.Speed
	}

	if overrides.TimerRate != 0 {
		s.TimerRate = overrides.TimerRate
	}

	if overrides.Scale != 0 {
		s.Scale = overrides.Scale
	}

	if overrides.Foreground != "" {
		color, err := ParseColor(overrides.Foreground)

		if err != nil {
			return err
		}

		s.Foreground = color
	}

	if overrides.Background != "" {
		color, err := ParseColor(overrides.Background)

		if err != nil {
			return err
		}

		s.Background = color
	}

	if overrides.DrawMode != "" {
		s.DrawMode = strings.ToLower(overrides.DrawMode)
	}

	if overrides.Frontend != "" {
		s.Frontend = strings.ToLower(overrides.Frontend)
	}

	if overrides.Seed != 0 {
		s.Seed = overrides.Seed
	}

	return s.Validate()
}

func (s Settings) Validate() error {
	if s.Speed <= 0 {
		return fmt.Errorf("%w: speed must be positive, got %d", ErrInvalidSetting, s.Speed)
	}

	if s.TimerRate <= 0 {
		return fmt.Errorf(
			"%w: timer rate must be positive, got %d", ErrInvalidSetting, s.TimerRate,
		)
	}

	if s.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %d", ErrInvalidSetting, s.Scale)
	}

	for _, color := range []int{s.Foreground, s.Background} {
		if color < 0 || color > MAX_COLOR {
			return fmt.Errorf("%w: color %#x out of range", ErrInvalidSetting, color)
		}
	}

	if _, err := machine.ParseDrawMode(s.DrawMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}

	for _, frontend := range Frontends {
		if s.Frontend == frontend {
			return nil
		}
	}

	return fmt.Errorf(
		"%w: unknown frontend '%s', valid options: %s",
		ErrInvalidSetting, s.Frontend, strings.Join(Frontends, ", "),
	)
}

func (s Settings) Mode() machine.DrawMode {
	mode, _ := machine.ParseDrawMode(s.DrawMode)
	return mode
}

// ParseColor accepts RRGGBB with an optional '#', '$' or '0x' prefix.
func ParseColor(s string) (int, error) {
	digits := s

	for _, prefix := range []string{"#", "$", "0x", "0X"} {
		if strings.HasPrefix(digits, prefix) {
			digits = digits[len(prefix):]
			break
		}
	}

	if len(digits) != 6 {
		return 0, fmt.Errorf("%w: color '%s' is not RRGGBB", ErrInvalidSetting, s)
	}

	value, err := strconv.ParseUint(digits, 16, 32)

	if err != nil {
		return 0, fmt.Errorf("%w: color '%s' is not RRGGBB", ErrInvalidSetting, s)
	}

	return int(value), nil
}

// RGB splits a 0xRRGGBB color.
func RGB(color int) (r, g, b uint8) {
	return uint8(color >> 16), uint8(color >> 8), uint8(color)
}

// CreateLogger maps the logging flags to a level. Trace wins over debug,
// and both win over quiet.
func CreateLogger(debug, trace, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()

	switch {
	case trace:
		cfg.Level = log.TraceLevel
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}

	return log.NewWithConfig(cfg)
}
