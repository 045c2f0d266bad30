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
	"errors"
	"fmt"
	"io"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

func New(opts ...Option) *Machine {
	mc := &Machine{}

	for _, opt := range opts {
		opt(mc)
	}

	mc.State.Reset()
	return mc
}

func WithRandom(random Random) Option {
	return func(mc *Machine) { mc.Random = random }
}

func WithSeed(seed uint64) Option {
	return func(mc *Machine) { mc.Random = NewRandom(seed) }
}

func WithDrawMode(mode DrawMode) Option {
	return func(mc *Machine) { mc.DrawMode = mode }
}

func WithLogger(logger *log.Logger) Option {
	return func(mc *Machine) { mc.Logger = logger }
}

func WithDebugger(dbg MachineDebugger) Option {
	return func(mc *Machine) { mc.Debugger = dbg }
}

func (mc *MachineState) Reset() {
	*mc = MachineState{}

	copy(mc.Memory[FONT_START:], FontSet[:])

	mc.Program = PROGRAM_START
}

// LoadProgram resets the machine and copies a program image to
// PROGRAM_START.
func (mc *Machine) LoadProgram(reader io.Reader) error {
	mc.State.Reset()

	image, err := io.ReadAll(io.LimitReader(reader, PROGRAM_MAX_SIZE+1))

	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}

	if len(image) > PROGRAM_MAX_SIZE {
		return fmt.Errorf(
			"%w: image exceeds %d bytes", ErrProgramTooLarge, PROGRAM_MAX_SIZE,
		)
	}

	copy(mc.State.Memory[PROGRAM_START:], image)

	mc.logger().Debug("Program loaded", log.Int("size", len(image)))

	return nil
}

func (mc *MachineState) PressKey(key int) {
	if key >= 0 && key < KEY_COUNT {
		mc.Keypad.Add(key)
	}
}

func (mc *MachineState) ReleaseKey(key int) {
	if key >= 0 && key < KEY_COUNT {
		mc.Keypad.Remove(key)
	}
}

// SetKeypad replaces the whole key latch. Bits above 0xF are dropped.
func (mc *MachineState) SetKeypad(keys set.BitSet) {
	mc.Keypad = keys & (1<<KEY_COUNT - 1)
}

func (mc *MachineState) KeyPressed(key uint8) bool {
	return key < KEY_COUNT && mc.Keypad.Contains(int(key))
}

func (mc *MachineState) DecrementTimers() {
	if mc.DelayTimer > 0 {
		mc.DelayTimer--
	}

	if mc.SoundTimer > 0 {
		mc.SoundTimer--
	}
}

func (mc *Machine) logger() *log.Logger {
	if mc.Logger == nil {
		mc.Logger = log.NewNop()
	}

	return mc.Logger
}

func (mc *Machine) random() Random {
	if mc.Random == nil {
		mc.Random = NewRandom(0)
	}

	return mc.Random
}

func (mc *Machine) push(value uint16) error {
	if mc.State.StackPtr >= STACK_DEPTH {
		return ErrStackOverflow
	}

	mc.State.Stack[mc.State.StackPtr] = value
	mc.State.StackPtr++
	return nil
}

func (mc *Machine) pop() (uint16, error) {
	if mc.State.StackPtr == 0 {
		return 0, ErrStackUnderflow
	}

	mc.State.StackPtr--
	return mc.State.Stack[mc.State.StackPtr], nil
}

// Addresses derived from I wrap around the 4K address space.
func (mc *Machine) read(addr uint16) byte {
	addr &= ADDRESS_MASK

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value byte) {
	addr &= ADDRESS_MASK

	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) setFlag(set bool) {
	if set {
		mc.State.Registers[REGISTER_FLAG] = 1
	} else {
		mc.State.Registers[REGISTER_FLAG] = 0
	}
}

// Fetch returns the instruction word at addr.
func (mc *MachineState) Fetch(addr uint16) (uint16, error) {
	if int(addr)+1 >= MEMORY_SIZE {
		return 0, fmt.Errorf("%w: %#04x", ErrFetchOutOfBounds, addr)
	}

	return encoding.Word(mc.Memory[addr], mc.Memory[addr+1]), nil
}

// Tick executes one instruction and, only if it succeeded, counts both
// timers down by one.
func (mc *Machine) Tick() error {
	if err := mc.Step(); err != nil {
		return err
	}

	mc.State.DecrementTimers()
	return nil
}

// Step executes exactly one instruction. Timers are left untouched.
func (mc *Machine) Step() error {
	pc := mc.State.Program

	word, err := mc.State.Fetch(pc)

	if err != nil {
		return err
	}

	inst, err := Decode(word)

	if err != nil {
		var unknown *UnknownOpcodeError
		if errors.As(err, &unknown) {
			unknown.Addr = pc
		}

		return err
	}

	mc.logger().Trace(
		"Executing",
		log.Hex("pc", pc),
		log.Hex("opcode", word),
		log.Stringer("op", inst.Op),
	)

	if err := mc.execute(pc, inst); err != nil {
		return fmt.Errorf("executing %#04x at %#04x: %w", word, pc, err)
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

func (mc *Machine) execute(pc uint16, inst Instruction) error {
	state := &mc.State
	regs := &state.Registers
	x := inst.X
	y := inst.Y

	state.Program = pc + 2

	switch inst.Op {
	// CLS  |0000   |0000   |1110   |0000   | Clear display
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CLS:
		state.Display.Clear()
		state.Redraw = true

	// RET  |0000   |0000   |1110   |1110   | Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RET:
		addr, err := mc.pop()

		if err != nil {
			state.Program = pc
			return err
		}

		state.Program = addr

	// JP   |0001   |addr                   | Jump
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP:
		state.Program = inst.NNN

	// CALL |0010   |addr                   | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CALL:
		// The return address is the instruction after the call
		if err := mc.push(pc + 2); err != nil {
			state.Program = pc
			return err
		}

		state.Program = inst.NNN

	// SE   |0011   |x      |byte           | Skip if Vx == byte
	// SNE  |0100   |x      |byte           | Skip if Vx != byte
	// SE   |0101   |x      |y      |0000   | Skip if Vx == Vy
	// SNE  |1001   |x      |y      |0000   | Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE_BYTE:
		if regs[x] == inst.KK {
			state.Program += 2
		}

	case OP_SNE_BYTE:
		if regs[x] != inst.KK {
			state.Program += 2
		}

	case OP_SE_REG:
		if regs[x] == regs[y] {
			state.Program += 2
		}

	case OP_SNE_REG:
		if regs[x] != regs[y] {
			state.Program += 2
		}

	// LD   |0110   |x      |byte           | Load immediate
	// ADD  |0111   |x      |byte           | Add immediate (no carry)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_BYTE:
		regs[x] = inst.KK

	case OP_ADD_BYTE:
		regs[x] += inst.KK

	// LD   |1000   |x      |y      |0000   | Vx = Vy
	// OR   |1000   |x      |y      |0001   | Vx = Vx | Vy
	// AND  |1000   |x      |y      |0010   | Vx = Vx & Vy
	// XOR  |1000   |x      |y      |0011   | Vx = Vx ^ Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_REG:
		regs[x] = regs[y]

	case OP_OR:
		regs[x] |= regs[y]

	case OP_AND:
		regs[x] &= regs[y]

	case OP_XOR:
		regs[x] ^= regs[y]

	// ADD  |1000   |x      |y      |0100   | Vx = Vx + Vy, VF = carry
	// SUB  |1000   |x      |y      |0101   | Vx = Vx - Vy, VF = no borrow
	// SHR  |1000   |x      |y      |0110   | Vx = Vx >> 1, VF = bit 0
	// SUBN |1000   |x      |y      |0111   | Vx = Vy - Vx, VF = no borrow
	// SHL  |1000   |x      |y      |1110   | Vx = Vx << 1, VF = bit 7
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	//
	// VF is written before Vx so the result wins when x is 0xF.
	case OP_ADD_REG:
		vx, vy := regs[x], regs[y]
		mc.setFlag(uint16(vx)+uint16(vy) > 0xFF)
		regs[x] = vx + vy

	case OP_SUB:
		vx, vy := regs[x], regs[y]
		mc.setFlag(vx > vy)
		regs[x] = vx - vy

	case OP_SHR:
		vx := regs[x]
		mc.setFlag(vx&0x01 != 0)
		regs[x] = vx >> 1

	case OP_SUBN:
		vx, vy := regs[x], regs[y]
		mc.setFlag(vx < vy)
		regs[x] = vy - vx

	case OP_SHL:
		vx := regs[x]
		mc.setFlag(vx&0x80 != 0)
		regs[x] = vx << 1

	// LD   |1010   |addr                   | I = addr
	// JP   |1011   |addr                   | Jump to V0 + addr
	// RND  |1100   |x      |byte           | Vx = random & byte
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_I:
		state.Index = inst.NNN

	case OP_JP_V0:
		state.Program = uint16(regs[0]) + inst.NNN

	case OP_RND:
		regs[x] = mc.random().Byte() & inst.KK

	// DRW  |1101   |x      |y      |n      | Draw n-row sprite at (Vx, Vy)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DRW:
		mc.draw(regs[x], regs[y], int(inst.N))

	// SKP  |1110   |x      |1001   |1110   | Skip if key Vx pressed
	// SKNP |1110   |x      |1010   |0001   | Skip if key Vx not pressed
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SKP:
		if state.KeyPressed(regs[x]) {
			state.Program += 2
		}

	case OP_SKNP:
		if !state.KeyPressed(regs[x]) {
			state.Program += 2
		}

	// LD   |1111   |x      |0000   |0111   | Vx = DT
	// LD   |1111   |x      |0000   |1010   | Vx = key (wait)
	// LD   |1111   |x      |0001   |0101   | DT = Vx
	// LD   |1111   |x      |0001   |1000   | ST = Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_VX_DT:
		regs[x] = state.DelayTimer

	case OP_LD_VX_K:
		keys := state.Keypad & (1<<KEY_COUNT - 1)

		// Re-executed until a key is down; the highest index wins
		if key := keys.Max(); key >= 0 {
			regs[x] = uint8(key)
		} else {
			state.Program = pc
		}

	case OP_LD_DT_VX:
		state.DelayTimer = regs[x]

	case OP_LD_ST_VX:
		state.SoundTimer = regs[x]

	// ADD  |1111   |x      |0001   |1110   | I = I + Vx, VF = I > 0xFFF
	// LD   |1111   |x      |0010   |1001   | I = glyph address of Vx
	// LD   |1111   |x      |0011   |0011   | BCD of Vx to [I..I+2]
	// LD   |1111   |x      |0101   |0101   | [I..I+x] = V0..Vx
	// LD   |1111   |x      |0110   |0101   | V0..Vx = [I..I+x]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD_I_VX:
		sum := uint32(state.Index) + uint32(regs[x])
		mc.setFlag(sum > 0xFFF)
		state.Index = uint16(sum)

	case OP_LD_F_VX:
		state.Index = FONT_START + uint16(regs[x])*FONT_GLYPH_SIZE

	case OP_LD_B_VX:
		value := regs[x]
		mc.write(state.Index, value/100)
		mc.write(state.Index+1, (value/10)%10)
		mc.write(state.Index+2, value%10)

	case OP_LD_I_VX:
		for i := uint16(0); i <= uint16(x); i++ {
			mc.write(state.Index+i, regs[i])
		}

		state.Index += uint16(x) + 1

	case OP_LD_VX_I:
		for i := uint16(0); i <= uint16(x); i++ {
			regs[i] = mc.read(state.Index + i)
		}

		state.Index += uint16(x) + 1

	default:
		state.Program = pc
		return &UnknownOpcodeError{Addr: pc, Opcode: inst.Word}
	}

	return nil
}

// draw XORs an n-row sprite from [I] onto the display. VF ends up as the OR
// of every pixel collision in this draw.
func (mc *Machine) draw(vx, vy uint8, rows int) {
	state := &mc.State
	state.Registers[REGISTER_FLAG] = 0

	for row := 0; row < rows; row++ {
		line := mc.read(state.Index + uint16(row))

		py, visible := mc.DrawMode.resolve(vy, row, DISPLAY_HEIGHT)

		if !visible {
			continue
		}

		for bit := 0; bit < SPRITE_WIDTH; bit++ {
			if line&(0x80>>bit) == 0 {
				continue
			}

			px, visible := mc.DrawMode.resolve(vx, bit, DISPLAY_WIDTH)

			if !visible {
				continue
			}

			if state.Display.Toggle(px, py) {
				state.Registers[REGISTER_FLAG] = 1
			}
		}
	}

	state.Redraw = true
}
