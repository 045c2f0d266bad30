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

// Package frontend holds what every presentation backend shares: the
// keyboard layout of the hex keypad and framebuffer rasterization.
package frontend

import (
	"image"
	"image/color"
	"unicode"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/input"
	"github.com/retroenv/retrogolib/set"
)

const WINDOW_TITLE = "CHIP 8 emulator"

// Keyboard characters for keypad keys 0x0-0xF, in keypad order
const LAYOUT = "X123QWEASDZC4RFV"

var Keymap = [machine.KEY_COUNT]input.Key{
	input.X, input.Key1, input.Key2, input.Key3,
	input.Q, input.W, input.E, input.A,
	input.S, input.D, input.Z, input.C,
	input.Key4, input.R, input.F, input.V,
}

// KeypadIndex maps a keyboard key to the keypad key it stands for.
func KeypadIndex(key input.Key) (int, bool) {
	for index, mapped := range Keymap {
		if mapped == key {
			return index, true
		}
	}

	return -1, false
}

func KeypadIndexForRune(r rune) (int, bool) {
	r = unicode.ToUpper(r)

	for index, mapped := range LAYOUT {
		if mapped == r {
			return index, true
		}
	}

	return -1, false
}

// Latch tracks held keypad keys from key down/up events.
type Latch struct {
	keys set.BitSet
}

func (latch *Latch) KeyDown(key input.Key) {
	if index, ok := KeypadIndex(key); ok {
		latch.keys.Add(index)
	}
}

func (latch *Latch) KeyUp(key input.Key) {
	if index, ok := KeypadIndex(key); ok {
		latch.keys.Remove(index)
	}
}

func (latch *Latch) Keys() set.BitSet {
	return latch.keys
}

type Palette struct {
	Foreground color.RGBA
	Background color.RGBA
}

// NewPalette builds a palette from two 0xRRGGBB colors.
func NewPalette(foreground, background int) Palette {
	return Palette{
		Foreground: rgba(foreground),
		Background: rgba(background),
	}
}

func rgba(value int) color.RGBA {
	return color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xFF,
	}
}

func NewImage() *image.RGBA {
	return image.NewRGBA(
		image.Rect(0, 0, machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT),
	)
}

// Rasterize paints the framebuffer into img, one image pixel per display
// pixel. img must be at least DISPLAY_WIDTH x DISPLAY_HEIGHT.
func Rasterize(img *image.RGBA, fb *machine.Framebuffer, palette Palette) {
	for y := 0; y < machine.DISPLAY_HEIGHT; y++ {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			c := palette.Background
			if fb[y][x] {
				c = palette.Foreground
			}

			offset := img.PixOffset(x, y)
			img.Pix[offset+0] = c.R
			img.Pix[offset+1] = c.G
			img.Pix[offset+2] = c.B
			img.Pix[offset+3] = c.A
		}
	}
}
