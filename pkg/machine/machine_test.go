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

package machine_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type fixedRandom uint8

func (rnd fixedRandom) Byte() uint8 {
	return uint8(rnd)
}

type pixel struct {
	X, Y int
}

type testMachineState struct {
	Registers  [16]uint8
	Index      uint16
	Program    uint16
	Stack      []uint16
	DelayTimer uint8
	SoundTimer uint8
	Keys       []int
	Code       []uint16
	Memory     map[uint16]byte
	Pixels     []pixel
}

type testCase struct {
	Name     string
	Steps    uint
	DrawMode machine.DrawMode
	Random   machine.Random
	Input    testMachineState
	Output   testMachineState
}

func newTestMachine(t *testing.T, test *testCase) *machine.Machine {
	t.Helper()

	random := test.Random
	if random == nil {
		random = fixedRandom(0)
	}

	mc := machine.New(
		machine.WithRandom(random),
		machine.WithDrawMode(test.DrawMode),
		machine.WithLogger(log.NewTestLogger(t)),
	)

	mc.State.Registers = test.Input.Registers
	mc.State.Index = test.Input.Index
	mc.State.Program = test.Input.Program
	mc.State.DelayTimer = test.Input.DelayTimer
	mc.State.SoundTimer = test.Input.SoundTimer

	for _, addr := range test.Input.Stack {
		mc.State.Stack[mc.State.StackPtr] = addr
		mc.State.StackPtr++
	}

	for _, key := range test.Input.Keys {
		mc.State.PressKey(key)
	}

	for i, word := range test.Input.Code {
		addr := test.Input.Program + uint16(i*2)
		mc.State.Memory[addr] = byte(word >> 8)
		mc.State.Memory[addr+1] = byte(word)
	}

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	for _, p := range test.Input.Pixels {
		mc.State.Display[p.Y][p.X] = true
	}

	return mc
}

func testMachineSuccess(t *testing.T, test *testCase) {
	mc := newTestMachine(t, test)

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Tick(); err != nil {
			t.Fatalf("Unexpected error on step %d\nhave:%v", i, err)
		}
	}

	for i := 0; i < 16; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#02x (test.Output.Registers[%X])\nhave:%#02x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program counter mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if mc.State.Index != test.Output.Index {
		t.Errorf(
			"Index register mismatch"+
				"\nwant:%#04x (test.Output.Index)\nhave:%#04x",
			test.Output.Index,
			mc.State.Index,
		)
	}

	if int(mc.State.StackPtr) != len(test.Output.Stack) {
		t.Errorf(
			"Stack pointer mismatch"+
				"\nwant:%d (len(test.Output.Stack))\nhave:%d",
			len(test.Output.Stack),
			mc.State.StackPtr,
		)
	} else {
		for i, want := range test.Output.Stack {
			if have := mc.State.Stack[i]; have != want {
				t.Errorf(
					"Stack mismatch"+
						"\nwant:%#04x (test.Output.Stack[%d])\nhave:%#04x",
					want,
					i,
					have,
				)
			}
		}
	}

	if mc.State.DelayTimer != test.Output.DelayTimer {
		t.Errorf(
			"Delay timer mismatch"+
				"\nwant:%d (test.Output.DelayTimer)\nhave:%d",
			test.Output.DelayTimer,
			mc.State.DelayTimer,
		)
	}

	if mc.State.SoundTimer != test.Output.SoundTimer {
		t.Errorf(
			"Sound timer mismatch"+
				"\nwant:%d (test.Output.SoundTimer)\nhave:%d",
			test.Output.SoundTimer,
			mc.State.SoundTimer,
		)
	}

	for addr, want := range test.Output.Memory {
		if have := mc.State.Memory[addr]; have != want {
			t.Errorf(
				"Memory mismatch"+
					"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
				want,
				addr,
				have,
			)
		}
	}

	if test.Output.Pixels != nil {
		var want machine.Framebuffer
		for _, p := range test.Output.Pixels {
			want[p.Y][p.X] = true
		}

		if want != mc.State.Display {
			t.Errorf(
				"Display mismatch\nwant:\n%s\nhave:\n%s",
				want.String(),
				mc.State.Display.String(),
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			testMachineSuccess(t, &test)
		})
	}
}

func rowPixels(x, y, count int) []pixel {
	pixels := make([]pixel, 0, count)

	for i := 0; i < count; i++ {
		pixels = append(pixels, pixel{x + i, y})
	}

	return pixels
}

func TestReset(t *testing.T) {
	mc := machine.New()

	assert.Equal(t, uint16(machine.PROGRAM_START), mc.State.Program)
	assert.Equal(t, machine.FontSet[:], mc.State.Memory[:80])
	assert.Equal(t, uint8(0), mc.State.StackPtr)
	assert.Equal(t, 0, mc.State.Display.Lit())
	assert.False(t, mc.State.Redraw)

	for addr := 80; addr < machine.MEMORY_SIZE; addr++ {
		if mc.State.Memory[addr] != 0 {
			t.Fatalf("Memory not cleared at %#04x", addr)
		}
	}
}

func TestLoadProgram(t *testing.T) {
	mc := machine.New()
	mc.State.Registers[3] = 0x42

	err := mc.LoadProgram(bytes.NewReader([]byte{0x60, 0x2A, 0x12, 0x00}))

	assert.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x2A, 0x12, 0x00}, mc.State.Memory[0x200:0x204])
	assert.Equal(t, uint8(0), mc.State.Registers[3])
	assert.Equal(t, uint16(0x200), mc.State.Program)

	full := make([]byte, machine.PROGRAM_MAX_SIZE)
	full[len(full)-1] = 0xAB
	assert.NoError(t, mc.LoadProgram(bytes.NewReader(full)))
	assert.Equal(t, byte(0xAB), mc.State.Memory[machine.MEMORY_SIZE-1])

	err = mc.LoadProgram(bytes.NewReader(make([]byte, machine.PROGRAM_MAX_SIZE+1)))
	assert.ErrorIs(t, err, machine.ErrProgramTooLarge)
}

func TestControlFlow(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JP",
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0x1ABC},
			},
			Output: testMachineState{
				Program: 0xABC,
			},
		},
		{
			Name: "JP V0",
			Input: testMachineState{
				Registers: [16]uint8{0x10},
				Program:   0x200,
				Code:      []uint16{0xB300},
			},
			Output: testMachineState{
				Registers: [16]uint8{0x10},
				Program:   0x310,
			},
		},
		{
			Name: "CALL",
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0x2400},
			},
			Output: testMachineState{
				Program: 0x400,
				Stack:   []uint16{0x202},
			},
		},
		{
			Name: "RET",
			Input: testMachineState{
				Program: 0x400,
				Stack:   []uint16{0x202, 0x30A},
				Code:    []uint16{0x00EE},
			},
			Output: testMachineState{
				Program: 0x30A,
				Stack:   []uint16{0x202},
			},
		},
		{
			Name:  "CALL then RET",
			Steps: 2,
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0x2204, 0x0000, 0x00EE},
			},
			Output: testMachineState{
				Program: 0x202,
			},
		},
		{
			Name: "SE byte taken",
			Input: testMachineState{
				Registers: [16]uint8{0, 0x33},
				Program:   0x200,
				Code:      []uint16{0x3133},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0x33},
				Program:   0x204,
			},
		},
		{
			Name: "SE byte not taken",
			Input: testMachineState{
				Registers: [16]uint8{0, 0x32},
				Program:   0x200,
				Code:      []uint16{0x3133},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0x32},
				Program:   0x202,
			},
		},
		{
			Name: "SNE byte taken",
			Input: testMachineState{
				Registers: [16]uint8{0, 0x32},
				Program:   0x200,
				Code:      []uint16{0x4133},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0x32},
				Program:   0x204,
			},
		},
		{
			Name: "SE register taken",
			Input: testMachineState{
				Registers: [16]uint8{0, 7, 7},
				Program:   0x200,
				Code:      []uint16{0x5120},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 7, 7},
				Program:   0x204,
			},
		},
		{
			Name: "SNE register not taken",
			Input: testMachineState{
				Registers: [16]uint8{0, 7, 7},
				Program:   0x200,
				Code:      []uint16{0x9120},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 7, 7},
				Program:   0x202,
			},
		},
		{
			Name: "SKP pressed",
			Input: testMachineState{
				Registers: [16]uint8{0, 0xA},
				Program:   0x200,
				Keys:      []int{0xA},
				Code:      []uint16{0xE19E},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0xA},
				Program:   0x204,
			},
		},
		{
			Name: "SKP key out of range",
			Input: testMachineState{
				Registers: [16]uint8{0, 0x1A},
				Program:   0x200,
				Keys:      []int{0xA},
				Code:      []uint16{0xE19E},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0x1A},
				Program:   0x202,
			},
		},
		{
			Name: "SKNP not pressed",
			Input: testMachineState{
				Registers: [16]uint8{0, 0xA},
				Program:   0x200,
				Keys:      []int{0xB},
				Code:      []uint16{0xE1A1},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0xA},
				Program:   0x204,
			},
		},
	})
}

func TestLoadAndArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD byte",
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0x6A2A},
			},
			Output: testMachineState{
				Registers: [16]uint8{10: 0x2A},
				Program:   0x202,
			},
		},
		{
			Name: "ADD byte wraps without flag",
			Input: testMachineState{
				Registers: [16]uint8{0, 0xFF, 15: 0x7},
				Program:   0x200,
				Code:      []uint16{0x7102},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0x01, 15: 0x7},
				Program:   0x202,
			},
		},
		{
			Name: "LD register",
			Input: testMachineState{
				Registers: [16]uint8{0, 0, 0x99},
				Program:   0x200,
				Code:      []uint16{0x8120},
			},
			Output: testMachineState{
				Registers: [16]uint8{0, 0x99, 0x99},
				Program:   0x202,
			},
		},
		{
			Name: "OR AND XOR",
			Steps: 3,
			Input: testMachineState{
				Registers: [16]uint8{0xF0, 0x0F, 0x3C, 0x55},
				Program:   0x200,
				Code:      []uint16{0x8011, 0x8122, 0x8233},
			},
			Output: testMachineState{
				Registers: [16]uint8{0xFF, 0x0C, 0x69, 0x55},
				Program:   0x206,
			},
		},
		{
			Name: "ADD register into VF keeps result",
			Input: testMachineState{
				Registers: [16]uint8{1: 0x01, 15: 0xFF},
				Program:   0x200,
				Code:      []uint16{0x8F14},
			},
			Output: testMachineState{
				Registers: [16]uint8{1: 0x01, 15: 0x00},
				Program:   0x202,
			},
		},
		{
			Name: "SUBN",
			Input: testMachineState{
				Registers: [16]uint8{0x10, 0x30},
				Program:   0x200,
				Code:      []uint16{0x8017},
			},
			Output: testMachineState{
				Registers: [16]uint8{0x20, 0x30, 15: 1},
				Program:   0x202,
			},
		},
		{
			Name: "SUBN borrow",
			Input: testMachineState{
				Registers: [16]uint8{0x30, 0x10},
				Program:   0x200,
				Code:      []uint16{0x8017},
			},
			Output: testMachineState{
				Registers: [16]uint8{0xE0, 0x10, 15: 0},
				Program:   0x202,
			},
		},
		{
			Name: "LD I",
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0xA123},
			},
			Output: testMachineState{
				Index:   0x123,
				Program: 0x202,
			},
		},
		{
			Name: "RND masks source byte",
			Random: fixedRandom(0xB7),
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0xC30F},
			},
			Output: testMachineState{
				Registers: [16]uint8{3: 0x07},
				Program:   0x202,
			},
		},
		{
			Name: "ADD I",
			Input: testMachineState{
				Registers: [16]uint8{2: 0x10, 15: 1},
				Index:     0x100,
				Program:   0x200,
				Code:      []uint16{0xF21E},
			},
			Output: testMachineState{
				Registers: [16]uint8{2: 0x10},
				Index:     0x110,
				Program:   0x202,
			},
		},
		{
			Name: "ADD I past 0xFFF",
			Input: testMachineState{
				Registers: [16]uint8{2: 0x02},
				Index:     0xFFF,
				Program:   0x200,
				Code:      []uint16{0xF21E},
			},
			Output: testMachineState{
				Registers: [16]uint8{2: 0x02, 15: 1},
				Index:     0x1001,
				Program:   0x202,
			},
		},
		{
			Name: "LD F",
			Input: testMachineState{
				Registers: [16]uint8{4: 0xA},
				Program:   0x200,
				Code:      []uint16{0xF429},
			},
			Output: testMachineState{
				Registers: [16]uint8{4: 0xA},
				Index:     50,
				Program:   0x202,
				Memory: map[uint16]byte{
					50: 0xF0, 51: 0x90, 52: 0xF0, 53: 0x90, 54: 0x90,
				},
			},
		},
		{
			Name: "LD B",
			Input: testMachineState{
				Registers: [16]uint8{7: 234},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xF733},
			},
			Output: testMachineState{
				Registers: [16]uint8{7: 234},
				Index:     0x300,
				Program:   0x202,
				Memory:    map[uint16]byte{0x300: 2, 0x301: 3, 0x302: 4},
			},
		},
		{
			Name: "LD B wraps address space",
			Input: testMachineState{
				Registers: [16]uint8{7: 105},
				Index:     0xFFF,
				Program:   0x200,
				Code:      []uint16{0xF733},
			},
			Output: testMachineState{
				Registers: [16]uint8{7: 105},
				Index:     0xFFF,
				Program:   0x202,
				Memory:    map[uint16]byte{0xFFF: 1, 0x000: 0, 0x001: 5},
			},
		},
		{
			Name: "LD [I] block store",
			Input: testMachineState{
				Registers: [16]uint8{0x11, 0x22, 0x33, 0x44},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xF255},
			},
			Output: testMachineState{
				Registers: [16]uint8{0x11, 0x22, 0x33, 0x44},
				Index:     0x303,
				Program:   0x202,
				Memory: map[uint16]byte{
					0x300: 0x11, 0x301: 0x22, 0x302: 0x33, 0x303: 0x00,
				},
			},
		},
		{
			Name: "LD [I] block load",
			Input: testMachineState{
				Registers: [16]uint8{3: 0x99},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xF265},
				Memory:    map[uint16]byte{0x300: 1, 0x301: 2, 0x302: 3},
			},
			Output: testMachineState{
				Registers: [16]uint8{1, 2, 3, 0x99},
				Index:     0x303,
				Program:   0x202,
			},
		},
	})
}

func TestTimers(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Tick counts down to zero floor",
			Input: testMachineState{
				Program:    0x200,
				DelayTimer: 5,
				Code:       []uint16{0x6000},
			},
			Output: testMachineState{
				Program:    0x202,
				DelayTimer: 4,
			},
		},
		{
			Name: "LD DT then LD Vx DT",
			Steps: 2,
			Input: testMachineState{
				Registers: [16]uint8{1: 9},
				Program:   0x200,
				Code:      []uint16{0xF115, 0xF207},
			},
			Output: testMachineState{
				Registers:  [16]uint8{1: 9, 2: 8},
				Program:    0x204,
				DelayTimer: 7,
			},
		},
		{
			Name: "LD ST",
			Input: testMachineState{
				Registers: [16]uint8{1: 3},
				Program:   0x200,
				Code:      []uint16{0xF118},
			},
			Output: testMachineState{
				Registers:  [16]uint8{1: 3},
				Program:    0x202,
				SoundTimer: 2,
			},
		},
	})
}

func TestKeyWait(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "No key holds PC",
			Steps: 3,
			Input: testMachineState{
				Program:    0x200,
				DelayTimer: 3,
				Code:       []uint16{0xF30A},
			},
			Output: testMachineState{
				Program: 0x200,
			},
		},
		{
			Name: "Single key",
			Input: testMachineState{
				Program: 0x200,
				Keys:    []int{5},
				Code:    []uint16{0xF30A},
			},
			Output: testMachineState{
				Registers: [16]uint8{3: 5},
				Program:   0x202,
			},
		},
		{
			Name: "Highest key wins",
			Input: testMachineState{
				Program: 0x200,
				Keys:    []int{3, 7},
				Code:    []uint16{0xF30A},
			},
			Output: testMachineState{
				Registers: [16]uint8{3: 7},
				Program:   0x202,
			},
		},
	})

	mc := machine.New(machine.WithRandom(fixedRandom(0)))
	mc.State.Memory[0x200] = 0xF3
	mc.State.Memory[0x201] = 0x0A

	assert.NoError(t, mc.Tick())
	assert.Equal(t, uint16(0x200), mc.State.Program)

	mc.State.PressKey(5)
	assert.NoError(t, mc.Tick())
	assert.Equal(t, uint8(5), mc.State.Registers[3])
	assert.Equal(t, uint16(0x202), mc.State.Program)
}

func TestDraw(t *testing.T) {
	sprite := map[uint16]byte{0x300: 0xFF, 0x301: 0xFF}

	testSuccess(t, []testCase{
		{
			Name: "Blank display",
			Input: testMachineState{
				Registers: [16]uint8{1: 4, 2: 6, 15: 1},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xD122},
				Memory:    sprite,
			},
			Output: testMachineState{
				Registers: [16]uint8{1: 4, 2: 6},
				Index:     0x300,
				Program:   0x202,
				Pixels:    append(rowPixels(4, 6, 8), rowPixels(4, 7, 8)...),
			},
		},
		{
			Name:  "Twice erases with collision",
			Steps: 2,
			Input: testMachineState{
				Registers: [16]uint8{1: 4, 2: 6},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xD122, 0xD122},
				Memory:    sprite,
			},
			Output: testMachineState{
				Registers: [16]uint8{1: 4, 2: 6, 15: 1},
				Index:     0x300,
				Program:   0x204,
				Pixels:    []pixel{},
			},
		},
		{
			Name: "Partial collision",
			Input: testMachineState{
				Registers: [16]uint8{1: 0, 2: 0},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xD121},
				Memory:    map[uint16]byte{0x300: 0xA0},
				Pixels:    []pixel{{0, 0}, {1, 0}},
			},
			Output: testMachineState{
				Registers: [16]uint8{15: 1},
				Index:     0x300,
				Program:   0x202,
				Pixels:    []pixel{{1, 0}, {2, 0}},
			},
		},
		{
			Name: "Clamp at right edge",
			Input: testMachineState{
				Registers: [16]uint8{1: 62, 2: 0},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xD121},
				Memory:    map[uint16]byte{0x300: 0xE0},
			},
			Output: testMachineState{
				// Columns 62, 63 and 63 again: the second hit on 63 collides
				Registers: [16]uint8{1: 62, 15: 1},
				Index:     0x300,
				Program:   0x202,
				Pixels:    []pixel{{62, 0}},
			},
		},
		{
			Name:     "Clip at right edge",
			DrawMode: machine.DRAW_CLIP,
			Input: testMachineState{
				Registers: [16]uint8{1: 62, 2: 0},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xD121},
				Memory:    map[uint16]byte{0x300: 0xE0},
			},
			Output: testMachineState{
				Registers: [16]uint8{1: 62},
				Index:     0x300,
				Program:   0x202,
				Pixels:    []pixel{{62, 0}, {63, 0}},
			},
		},
		{
			Name:     "Wrap at right and bottom edge",
			DrawMode: machine.DRAW_WRAP,
			Input: testMachineState{
				Registers: [16]uint8{1: 63, 2: 31},
				Index:     0x300,
				Program:   0x200,
				Code:      []uint16{0xD122},
				Memory:    map[uint16]byte{0x300: 0xC0, 0x301: 0x80},
			},
			Output: testMachineState{
				Registers: [16]uint8{1: 63, 2: 31},
				Index:     0x300,
				Program:   0x202,
				Pixels:    []pixel{{63, 31}, {0, 31}, {63, 0}},
			},
		},
		{
			Name:  "CLS",
			Input: testMachineState{
				Program: 0x200,
				Code:    []uint16{0x00E0},
				Pixels:  []pixel{{0, 0}, {63, 31}},
			},
			Output: testMachineState{
				Program: 0x202,
				Pixels:  []pixel{},
			},
		},
	})
}

func TestDrawSetsRedraw(t *testing.T) {
	mc := machine.New()
	mc.State.Memory[0x200] = 0xD0
	mc.State.Memory[0x201] = 0x00

	assert.NoError(t, mc.Tick())
	assert.True(t, mc.State.Redraw)
	assert.Equal(t, 0, mc.State.Display.Lit())
}

func TestAddProperty(t *testing.T) {
	mc := machine.New()

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			mc.State.Program = 0x200
			mc.State.Memory[0x200] = 0x81
			mc.State.Memory[0x201] = 0x24
			mc.State.Registers[1] = uint8(a)
			mc.State.Registers[2] = uint8(b)

			if err := mc.Tick(); err != nil {
				t.Fatal(err)
			}

			wantFlag := uint8(0)
			if a+b > 255 {
				wantFlag = 1
			}

			if have := mc.State.Registers[1]; have != uint8((a+b)%256) {
				t.Fatalf("ADD %d+%d\nwant:%d\nhave:%d", a, b, (a+b)%256, have)
			}

			if have := mc.State.Registers[0xF]; have != wantFlag {
				t.Fatalf("ADD %d+%d flag\nwant:%d\nhave:%d", a, b, wantFlag, have)
			}
		}
	}
}

func TestSubProperty(t *testing.T) {
	mc := machine.New()

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			mc.State.Program = 0x200
			mc.State.Memory[0x200] = 0x81
			mc.State.Memory[0x201] = 0x25
			mc.State.Registers[1] = uint8(a)
			mc.State.Registers[2] = uint8(b)

			if err := mc.Tick(); err != nil {
				t.Fatal(err)
			}

			wantFlag := uint8(0)
			if a > b {
				wantFlag = 1
			}

			if have := mc.State.Registers[1]; have != uint8((a-b+256)%256) {
				t.Fatalf("SUB %d-%d\nwant:%d\nhave:%d", a, b, (a-b+256)%256, have)
			}

			if have := mc.State.Registers[0xF]; have != wantFlag {
				t.Fatalf("SUB %d-%d flag\nwant:%d\nhave:%d", a, b, wantFlag, have)
			}
		}
	}
}

func TestShiftProperty(t *testing.T) {
	mc := machine.New()

	for a := 0; a < 256; a++ {
		for _, shift := range []byte{0x16, 0x1E} {
			mc.State.Program = 0x200
			mc.State.Memory[0x200] = 0x83
			mc.State.Memory[0x201] = shift
			mc.State.Registers[3] = uint8(a)

			if err := mc.Tick(); err != nil {
				t.Fatal(err)
			}

			var want, wantFlag uint8
			if shift == 0x16 {
				want, wantFlag = uint8(a>>1), uint8(a&0x01)
			} else {
				want, wantFlag = uint8(a<<1), uint8(a>>7)
			}

			assert.Equal(t, want, mc.State.Registers[3], fmt.Sprintf("shift %#02x of %d", shift, a))
			assert.Equal(t, wantFlag, mc.State.Registers[0xF], fmt.Sprintf("flag %#02x of %d", shift, a))
		}
	}
}

func TestStackLimits(t *testing.T) {
	mc := machine.New()

	// Every call targets the next instruction: CALL 0x202, CALL 0x204, ...
	for i := 0; i <= machine.STACK_DEPTH; i++ {
		addr := 0x200 + uint16(i*2)
		target := addr + 2
		mc.State.Memory[addr] = 0x20 | byte(target>>8)
		mc.State.Memory[addr+1] = byte(target)
	}

	mc.State.DelayTimer = 50

	for i := 0; i < machine.STACK_DEPTH; i++ {
		assert.NoError(t, mc.Tick())
	}

	assert.Equal(t, uint8(machine.STACK_DEPTH), mc.State.StackPtr)
	assert.Equal(t, uint8(50-machine.STACK_DEPTH), mc.State.DelayTimer)

	pc := mc.State.Program
	err := mc.Tick()
	assert.ErrorIs(t, err, machine.ErrStackOverflow)
	assert.Equal(t, pc, mc.State.Program)
	assert.Equal(t, uint8(machine.STACK_DEPTH), mc.State.StackPtr)
	assert.Equal(t, uint8(50-machine.STACK_DEPTH), mc.State.DelayTimer)

	mc = machine.New()
	mc.State.Memory[0x200] = 0x00
	mc.State.Memory[0x201] = 0xEE

	err = mc.Tick()
	assert.ErrorIs(t, err, machine.ErrStackUnderflow)
	assert.Equal(t, uint16(0x200), mc.State.Program)
}

func TestUnknownOpcode(t *testing.T) {
	for _, word := range []uint16{0x0123, 0x5121, 0x8008, 0x9AB1, 0xE1FF, 0xF1FF} {
		t.Run(fmt.Sprintf("%#04x", word), func(t *testing.T) {
			mc := machine.New()
			mc.State.Program = 0x300
			mc.State.Memory[0x300] = byte(word >> 8)
			mc.State.Memory[0x301] = byte(word)
			mc.State.DelayTimer = 2

			err := mc.Tick()

			var unknown *machine.UnknownOpcodeError
			assert.ErrorAs(t, err, &unknown)
			assert.Equal(t, word, unknown.Opcode)
			assert.Equal(t, uint16(0x300), unknown.Addr)
			assert.Equal(t, uint16(0x300), mc.State.Program)
			assert.Equal(t, uint8(2), mc.State.DelayTimer)
		})
	}
}

func TestFetchOutOfBounds(t *testing.T) {
	mc := machine.New()
	mc.State.Program = 0xFFF

	err := mc.Tick()
	assert.ErrorIs(t, err, machine.ErrFetchOutOfBounds)

	mc.State.Program = 0xFFE
	mc.State.Memory[0xFFE] = 0x60
	mc.State.Memory[0xFFF] = 0x01
	assert.NoError(t, mc.Tick())
	assert.Equal(t, uint8(1), mc.State.Registers[0])

	assert.True(t, errors.Is(mc.Tick(), machine.ErrFetchOutOfBounds))
}

func TestDecode(t *testing.T) {
	inst, err := machine.Decode(0xD12F)
	assert.NoError(t, err)
	assert.Equal(t, machine.OP_DRW, inst.Op)
	assert.Equal(t, uint8(1), inst.X)
	assert.Equal(t, uint8(2), inst.Y)
	assert.Equal(t, uint8(0xF), inst.N)
	assert.Equal(t, "DRW Vx, Vy, nibble", inst.Op.String())

	inst, err = machine.Decode(0xA3E8)
	assert.NoError(t, err)
	assert.Equal(t, machine.OP_LD_I, inst.Op)
	assert.Equal(t, uint16(0x3E8), inst.NNN)

	inst, err = machine.Decode(0x7C80)
	assert.NoError(t, err)
	assert.Equal(t, machine.OP_ADD_BYTE, inst.Op)
	assert.Equal(t, uint8(0xC), inst.X)
	assert.Equal(t, uint8(0x80), inst.KK)
}

func TestSeededRandom(t *testing.T) {
	first := machine.NewRandom(42)
	second := machine.NewRandom(42)

	for i := 0; i < 64; i++ {
		assert.Equal(t, first.Byte(), second.Byte())
	}

	assert.NotEqual(t, uint64(0), machine.NewRandom(0).Seed)
}

func TestParseDrawMode(t *testing.T) {
	mode, err := machine.ParseDrawMode("WRAP")
	assert.NoError(t, err)
	assert.Equal(t, machine.DRAW_WRAP, mode)
	assert.Equal(t, "wrap", mode.String())

	mode, err = machine.ParseDrawMode("")
	assert.NoError(t, err)
	assert.Equal(t, machine.DRAW_CLAMP, mode)

	_, err = machine.ParseDrawMode("mirror")
	assert.Error(t, err)
}
