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

package frontend_test

import (
	"image/color"
	"testing"

	"github.com/lassandro/gochip8/pkg/frontend"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/input"
	"github.com/retroenv/retrogolib/set"
)

func TestKeymap(t *testing.T) {
	testCases := []struct {
		Key   input.Key
		Rune  rune
		Index int
	}{
		{input.X, 'x', 0x0},
		{input.Key1, '1', 0x1},
		{input.Key3, '3', 0x3},
		{input.Q, 'q', 0x4},
		{input.E, 'E', 0x6},
		{input.A, 'a', 0x7},
		{input.D, 'd', 0x9},
		{input.Z, 'z', 0xA},
		{input.C, 'c', 0xB},
		{input.Key4, '4', 0xC},
		{input.R, 'r', 0xD},
		{input.F, 'f', 0xE},
		{input.V, 'V', 0xF},
	}

	for _, test := range testCases {
		index, ok := frontend.KeypadIndex(test.Key)
		assert.True(t, ok)
		assert.Equal(t, test.Index, index, string(test.Rune))

		index, ok = frontend.KeypadIndexForRune(test.Rune)
		assert.True(t, ok)
		assert.Equal(t, test.Index, index, string(test.Rune))
	}

	for _, key := range []input.Key{input.Key0, input.Key5, input.P, input.Escape} {
		_, ok := frontend.KeypadIndex(key)
		assert.False(t, ok)
	}

	for _, r := range "05p \x1b" {
		_, ok := frontend.KeypadIndexForRune(r)
		assert.False(t, ok)
	}

	// Every keypad key has exactly one keyboard key
	seen := set.New[input.Key]()
	for _, key := range frontend.Keymap {
		assert.False(t, seen.Contains(key))
		seen.Add(key)
	}
	assert.Len(t, frontend.LAYOUT, machine.KEY_COUNT)
}

func TestLatch(t *testing.T) {
	var latch frontend.Latch

	latch.KeyDown(input.W)
	latch.KeyDown(input.V)
	latch.KeyDown(input.P)

	keys := latch.Keys()
	assert.Equal(t, []int{0x5, 0xF}, keys.ToSlice())

	latch.KeyUp(input.W)
	latch.KeyUp(input.P)

	keys = latch.Keys()
	assert.Equal(t, []int{0xF}, keys.ToSlice())
}

func TestRasterize(t *testing.T) {
	var fb machine.Framebuffer
	fb.Toggle(0, 0)
	fb.Toggle(63, 31)

	palette := frontend.NewPalette(0x33FF66, 0x101010)
	assert.Equal(t, color.RGBA{0x33, 0xFF, 0x66, 0xFF}, palette.Foreground)

	img := frontend.NewImage()
	frontend.Rasterize(img, &fb, palette)

	assert.Equal(t, palette.Foreground, img.RGBAAt(0, 0))
	assert.Equal(t, palette.Foreground, img.RGBAAt(63, 31))
	assert.Equal(t, palette.Background, img.RGBAAt(1, 0))
	assert.Equal(t, palette.Background, img.RGBAAt(0, 31))
}
