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

package disasm_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		Word   uint16
		Output string
		Valid  bool
	}{
		{0x00E0, "CLS", true},
		{0x00EE, "RET", true},
		{0x12A4, "JP $2A4", true},
		{0xB300, "JP V0, $300", true},
		{0x2400, "CALL $400", true},
		{0x3133, "SE V1, $33", true},
		{0x5120, "SE V1, V2", true},
		{0x63FF, "LD V3, $FF", true},
		{0x8346, "SHR V3, V4", true},
		{0xA123, "LD I, $123", true},
		{0xD12F, "DRW V1, V2, $F", true},
		{0xEA9E, "SKP VA", true},
		{0xF50A, "LD V5, K", true},
		{0xF51E, "ADD I, V5", true},
		{0xF555, "LD [I], V5", true},
		{0xF565, "LD V5, [I]", true},
		{0x0123, ".WORD $0123", false},
		{0x5121, ".WORD $5121", false},
		{0xF1FF, ".WORD $F1FF", false},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%#04x", test.Word), func(t *testing.T) {
			line := disasm.Disassemble(0x200, test.Word)

			assert.Equal(t, test.Output, line.String())
			assert.Equal(t, test.Valid, line.Valid)
		})
	}
}

func TestLookupMatchesDecode(t *testing.T) {
	for word := 0; word <= 0xFFFF; word++ {
		_, valid := disasm.Lookup(uint16(word))
		_, err := machine.Decode(uint16(word))

		if valid != (err == nil) {
			t.Fatalf(
				"Opcode table disagrees with decoder at %#04x\n"+
					"want:%v (machine.Decode)\nhave:%v",
				word,
				err == nil,
				valid,
			)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for word := 0; word <= 0xFFFF; word += 7 {
		text := disasm.Disassemble(0x200, uint16(word)).String()

		result, errs := assembler.AssembleSource(strings.NewReader(text), nil)

		if len(errs) > 0 {
			t.Fatalf("%q failed to assemble: %v", text, errs[0])
		}

		want := []byte{byte(word >> 8), byte(word)}

		if !bytes.Equal(result, want) {
			t.Fatalf(
				"Round trip mismatch for %q\nwant:% X\nhave:% X",
				text,
				want,
				result,
			)
		}
	}
}

func TestRange(t *testing.T) {
	memory := make([]byte, machine.MEMORY_SIZE)
	copy(memory[0x200:], []byte{0x60, 0x01, 0x70, 0x02, 0x12, 0x00})

	lines := disasm.Range(memory, 0x200, 3)

	assert.Len(t, lines, 3)
	assert.Equal(t, uint16(0x202), lines[1].Addr)
	assert.Equal(t, "ADD V0, $02", lines[1].String())
	assert.Equal(t, "JP $200", lines[2].String())

	assert.Len(t, disasm.Range(memory, 0xFFE, 4), 1)
	assert.Empty(t, disasm.Range(memory, 0xFFF, 4))
}

func TestWrite(t *testing.T) {
	image := []byte{0x00, 0xE0, 0xA2, 0x06, 0x12, 0x00, 0xF0}

	var listing bytes.Buffer
	assert.NoError(t, disasm.Write(&listing, image, machine.PROGRAM_START))

	assert.Contains(t, listing.String(), ".ORIG $200")
	assert.Contains(t, listing.String(), "LD I, $206")
	assert.Contains(t, listing.String(), ".BYTE $F0")

	result, errs := assembler.AssembleSource(&listing, nil)

	assert.Empty(t, errs)
	assert.Equal(t, image, result)
}
