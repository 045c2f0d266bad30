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

package machine

import (
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

type Operation uint8
type DrawMode uint8

// Framebuffer is indexed [row][column]; true is an "on" pixel.
type Framebuffer [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool

// Instruction is a decoded instruction word. Only the operands used by Op
// are meaningful.
type Instruction struct {
	Op   Operation
	Word uint16
	X    uint8
	Y    uint8
	N    uint8
	KK   uint8
	NNN  uint16
}

type MachineState struct {
	Memory    [MEMORY_SIZE]byte
	Registers [REGISTER_COUNT]uint8
	Index     uint16
	Program   uint16

	Stack    [STACK_DEPTH]uint16
	StackPtr uint8

	DelayTimer uint8
	SoundTimer uint8

	// Bits 0x0-0xF, owned by the input collaborator
	Keypad set.BitSet

	Display Framebuffer
	// Set whenever Display changes, cleared by presentation
	Redraw bool
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Random interface {
	Byte() uint8
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger
	Random   Random
	DrawMode DrawMode
	Logger   *log.Logger
}

type Option func(mc *Machine)
