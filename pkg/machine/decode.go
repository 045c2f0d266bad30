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
	"github.com/lassandro/gochip8/pkg/encoding"
)

var operationNames = [...]string{
	OP_INVALID:  "???",
	OP_CLS:      "CLS",
	OP_RET:      "RET",
	OP_JP:       "JP addr",
	OP_CALL:     "CALL addr",
	OP_SE_BYTE:  "SE Vx, byte",
	OP_SNE_BYTE: "SNE Vx, byte",
	OP_SE_REG:   "SE Vx, Vy",
	OP_LD_BYTE:  "LD Vx, byte",
	OP_ADD_BYTE: "ADD Vx, byte",
	OP_LD_REG:   "LD Vx, Vy",
	OP_OR:       "OR Vx, Vy",
	OP_AND:      "AND Vx, Vy",
	OP_XOR:      "XOR Vx, Vy",
	OP_ADD_REG:  "ADD Vx, Vy",
	OP_SUB:      "SUB Vx, Vy",
	OP_SHR:      "SHR Vx",
	OP_SUBN:     "SUBN Vx, Vy",
	OP_SHL:      "SHL Vx",
	OP_SNE_REG:  "SNE Vx, Vy",
	OP_LD_I:     "LD I, addr",
	OP_JP_V0:    "JP V0, addr",
	OP_RND:      "RND Vx, byte",
	OP_DRW:      "DRW Vx, Vy, nibble",
	OP_SKP:      "SKP Vx",
	OP_SKNP:     "SKNP Vx",
	OP_LD_VX_DT: "LD Vx, DT",
	OP_LD_VX_K:  "LD Vx, K",
	OP_LD_DT_VX: "LD DT, Vx",
	OP_LD_ST_VX: "LD ST, Vx",
	OP_ADD_I_VX: "ADD I, Vx",
	OP_LD_F_VX:  "LD F, Vx",
	OP_LD_B_VX:  "LD B, Vx",
	OP_LD_I_VX:  "LD [I], Vx",
	OP_LD_VX_I:  "LD Vx, [I]",
}

func (op Operation) String() string {
	if int(op) < len(operationNames) {
		return operationNames[op]
	}

	return operationNames[OP_INVALID]
}

// Decode classifies an instruction word and extracts its operands. Words
// that match no operation return an *UnknownOpcodeError.
func Decode(word uint16) (Instruction, error) {
	inst := Instruction{
		Word: word,
		X:    encoding.Nibble(word, 2),
		Y:    encoding.Nibble(word, 1),
		N:    encoding.Nibble(word, 0),
		KK:   uint8(word & 0xFF),
		NNN:  word & 0xFFF,
	}

	switch word >> 12 {
	case GROUP_SYS:
		switch word {
		case 0x00E0:
			inst.Op = OP_CLS
		case 0x00EE:
			inst.Op = OP_RET
		}

	case GROUP_JP:
		inst.Op = OP_JP

	case GROUP_CALL:
		inst.Op = OP_CALL

	case GROUP_SE_BYTE:
		inst.Op = OP_SE_BYTE

	case GROUP_SNE_BYTE:
		inst.Op = OP_SNE_BYTE

	// 5xyN and 9xyN with N != 0 are rejected rather than aliased
	case GROUP_SE_REG:
		if inst.N == 0x0 {
			inst.Op = OP_SE_REG
		}

	case GROUP_LD_BYTE:
		inst.Op = OP_LD_BYTE

	case GROUP_ADD_BYTE:
		inst.Op = OP_ADD_BYTE

	case GROUP_ALU:
		switch inst.N {
		case 0x0:
			inst.Op = OP_LD_REG
		case 0x1:
			inst.Op = OP_OR
		case 0x2:
			inst.Op = OP_AND
		case 0x3:
			inst.Op = OP_XOR
		case 0x4:
			inst.Op = OP_ADD_REG
		case 0x5:
			inst.Op = OP_SUB
		case 0x6:
			inst.Op = OP_SHR
		case 0x7:
			inst.Op = OP_SUBN
		case 0xE:
			inst.Op = OP_SHL
		}

	case GROUP_SNE_REG:
		if inst.N == 0x0 {
			inst.Op = OP_SNE_REG
		}

	case GROUP_LD_I:
		inst.Op = OP_LD_I

	case GROUP_JP_V0:
		inst.Op = OP_JP_V0

	case GROUP_RND:
		inst.Op = OP_RND

	case GROUP_DRW:
		inst.Op = OP_DRW

	case GROUP_KEY:
		switch inst.KK {
		case 0x9E:
			inst.Op = OP_SKP
		case 0xA1:
			inst.Op = OP_SKNP
		}

	case GROUP_MISC:
		switch inst.KK {
		case 0x07:
			inst.Op = OP_LD_VX_DT
		case 0x0A:
			inst.Op = OP_LD_VX_K
		case 0x15:
			inst.Op = OP_LD_DT_VX
		case 0x18:
			inst.Op = OP_LD_ST_VX
		case 0x1E:
			inst.Op = OP_ADD_I_VX
		case 0x29:
			inst.Op = OP_LD_F_VX
		case 0x33:
			inst.Op = OP_LD_B_VX
		case 0x55:
			inst.Op = OP_LD_I_VX
		case 0x65:
			inst.Op = OP_LD_VX_I
		}
	}

	if inst.Op == OP_INVALID {
		return inst, &UnknownOpcodeError{Opcode: word}
	}

	return inst, nil
}
