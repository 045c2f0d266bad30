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

const (
	MEMORY_SIZE      = 4096
	PROGRAM_START    = 0x200
	PROGRAM_MAX_SIZE = MEMORY_SIZE - PROGRAM_START
	ADDRESS_MASK     = MEMORY_SIZE - 1
)

const (
	REGISTER_COUNT = 16
	REGISTER_FLAG  = 0xF
	STACK_DEPTH    = 16
	KEY_COUNT      = 16
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	SPRITE_WIDTH   = 8
)

const (
	FONT_START      = 0x000
	FONT_GLYPH_SIZE = 5
)

// Hexadecimal digit glyphs 0-F, one 4-pixel wide row per byte
var FontSet = [FONT_GLYPH_SIZE * 16]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Instruction groups, selected by the high nibble of the instruction word
const (
	GROUP_SYS      uint16 = 0x0
	GROUP_JP       uint16 = 0x1
	GROUP_CALL     uint16 = 0x2
	GROUP_SE_BYTE  uint16 = 0x3
	GROUP_SNE_BYTE uint16 = 0x4
	GROUP_SE_REG   uint16 = 0x5
	GROUP_LD_BYTE  uint16 = 0x6
	GROUP_ADD_BYTE uint16 = 0x7
	GROUP_ALU      uint16 = 0x8
	GROUP_SNE_REG  uint16 = 0x9
	GROUP_LD_I     uint16 = 0xA
	GROUP_JP_V0    uint16 = 0xB
	GROUP_RND      uint16 = 0xC
	GROUP_DRW      uint16 = 0xD
	GROUP_KEY      uint16 = 0xE
	GROUP_MISC     uint16 = 0xF
)

const (
	OP_INVALID Operation = iota
	OP_CLS
	OP_RET
	OP_JP
	OP_CALL
	OP_SE_BYTE
	OP_SNE_BYTE
	OP_SE_REG
	OP_LD_BYTE
	OP_ADD_BYTE
	OP_LD_REG
	OP_OR
	OP_AND
	OP_XOR
	OP_ADD_REG
	OP_SUB
	OP_SHR
	OP_SUBN
	OP_SHL
	OP_SNE_REG
	OP_LD_I
	OP_JP_V0
	OP_RND
	OP_DRW
	OP_SKP
	OP_SKNP
	OP_LD_VX_DT
	OP_LD_VX_K
	OP_LD_DT_VX
	OP_LD_ST_VX
	OP_ADD_I_VX
	OP_LD_F_VX
	OP_LD_B_VX
	OP_LD_I_VX
	OP_LD_VX_I
)

const (
	// Coordinates past the display edge saturate at the last row/column
	DRAW_CLAMP DrawMode = iota
	// Pixels past the display edge are discarded
	DRAW_CLIP
	// Coordinates wrap around to the opposite edge
	DRAW_WRAP
)
