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

// Package disasm renders CHIP-8 instruction words as assembly source that
// pkg/assembler accepts.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Line is one disassembled instruction word.
type Line struct {
	Addr     uint16
	Word     uint16
	Name     string
	Operands string
	Valid    bool
}

func (line Line) String() string {
	if line.Operands == "" {
		return line.Name
	}

	return line.Name + " " + line.Operands
}

// Lookup finds the opcode table entry matching word.
func Lookup(word uint16) (chip8.Opcode, bool) {
	for _, opcode := range chip8.Opcodes[word>>12] {
		if word&opcode.Info.Mask == opcode.Info.Value {
			return opcode, true
		}
	}

	return chip8.Opcode{}, false
}

// Disassemble decodes a single word. Words that are not instructions
// become a .WORD directive so the listing still reassembles.
func Disassemble(addr, word uint16) Line {
	line := Line{Addr: addr, Word: word}

	opcode, ok := Lookup(word)

	if !ok {
		line.Name = ".WORD"
		line.Operands = fmt.Sprintf("$%04X", word)
		return line
	}

	line.Valid = true
	line.Name = strings.ToUpper(opcode.Instruction.Name)
	line.Operands = formatOperands(opcode.Info.Value, word)
	return line
}

// Range disassembles count words starting at addr. It stops early at the
// end of memory.
func Range(memory []byte, addr uint16, count int) []Line {
	lines := make([]Line, 0, count)

	for i := 0; i < count; i++ {
		if int(addr)+1 >= len(memory) {
			break
		}

		word := encoding.Word(memory[addr], memory[addr+1])
		lines = append(lines, Disassemble(addr, word))
		addr += 2
	}

	return lines
}

// Write prints a program image loaded at origin as an assembly listing.
func Write(w io.Writer, image []byte, origin uint16) error {
	if _, err := fmt.Fprintf(w, "\t.ORIG $%03X\n", origin); err != nil {
		return err
	}

	for offset := 0; offset < len(image); offset += 2 {
		addr := origin + uint16(offset)

		var text string
		var raw string

		if offset+1 < len(image) {
			word := encoding.Word(image[offset], image[offset+1])
			text = Disassemble(addr, word).String()
			raw = fmt.Sprintf("%04X", word)
		} else {
			text = fmt.Sprintf(".BYTE $%02X", image[offset])
			raw = fmt.Sprintf("%02X", image[offset])
		}

		if _, err := fmt.Fprintf(
			w, "\t%-20s; $%03X: %s\n", text, addr, raw,
		); err != nil {
			return err
		}
	}

	return nil
}

func formatOperands(value, word uint16) string {
	x := encoding.Nibble(word, 2)
	y := encoding.Nibble(word, 1)
	n := encoding.Nibble(word, 0)
	kk := word & 0x00FF
	nnn := word & 0x0FFF

	switch value {
	case 0x00E0, 0x00EE:
		return ""
	case 0x1000, 0x2000:
		return fmt.Sprintf("$%03X", nnn)
	case 0xB000:
		return fmt.Sprintf("V0, $%03X", nnn)
	case 0xA000:
		return fmt.Sprintf("I, $%03X", nnn)
	case 0x3000, 0x4000, 0x6000, 0x7000, 0xC000:
		return fmt.Sprintf("V%X, $%02X", x, kk)
	case 0x5000, 0x9000,
		0x8000, 0x8001, 0x8002, 0x8003, 0x8004,
		0x8005, 0x8006, 0x8007, 0x800E:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xD000:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, n)
	case 0xE09E, 0xE0A1:
		return fmt.Sprintf("V%X", x)
	case 0xF007:
		return fmt.Sprintf("V%X, DT", x)
	case 0xF00A:
		return fmt.Sprintf("V%X, K", x)
	case 0xF015:
		return fmt.Sprintf("DT, V%X", x)
	case 0xF018:
		return fmt.Sprintf("ST, V%X", x)
	case 0xF01E:
		return fmt.Sprintf("I, V%X", x)
	case 0xF029:
		return fmt.Sprintf("F, V%X", x)
	case 0xF033:
		return fmt.Sprintf("B, V%X", x)
	case 0xF055:
		return fmt.Sprintf("[I], V%X", x)
	case 0xF065:
		return fmt.Sprintf("V%X, [I]", x)
	}

	return ""
}
