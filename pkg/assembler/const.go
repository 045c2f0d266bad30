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

package assembler

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_STRING
	TOKEN_LITERAL
)

const (
	LITERAL_NIBBLE LiteralType = 4
	LITERAL_BYTE               = 8
	LITERAL_ADDR               = 12
	LITERAL_WORD               = 16
)

// Operand kinds, both as classified from a token and as required by an
// instruction form
const (
	OPERAND_NONE OperandType = iota
	OPERAND_REGISTER
	OPERAND_V0
	OPERAND_INDEX
	OPERAND_INDIRECT
	OPERAND_DELAY
	OPERAND_SOUND
	OPERAND_KEY
	OPERAND_FONT
	OPERAND_BCD
	OPERAND_NIBBLE
	OPERAND_BYTE
	OPERAND_ADDR
	OPERAND_LITERAL
	OPERAND_LABEL
	OPERAND_STRING
)

const (
	INSTRUCTION_INVALID InstructionType = iota
	INSTRUCTION_CLS
	INSTRUCTION_RET
	INSTRUCTION_JP
	INSTRUCTION_CALL
	INSTRUCTION_SE
	INSTRUCTION_SNE
	INSTRUCTION_LD
	INSTRUCTION_ADD
	INSTRUCTION_OR
	INSTRUCTION_AND
	INSTRUCTION_XOR
	INSTRUCTION_SUB
	INSTRUCTION_SHR
	INSTRUCTION_SUBN
	INSTRUCTION_SHL
	INSTRUCTION_RND
	INSTRUCTION_DRW
	INSTRUCTION_SKP
	INSTRUCTION_SKNP
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_ORIG
	DIRECTIVE_BYTE
	DIRECTIVE_WORD
	DIRECTIVE_BLKB
	DIRECTIVE_TEXT
	DIRECTIVE_END
)

var instructionNames = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SHR":  INSTRUCTION_SHR,
	"SUBN": INSTRUCTION_SUBN,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

var directiveNames = map[string]DirectiveType{
	".ORIG": DIRECTIVE_ORIG,
	".BYTE": DIRECTIVE_BYTE,
	".WORD": DIRECTIVE_WORD,
	".BLKB": DIRECTIVE_BLKB,
	".TEXT": DIRECTIVE_TEXT,
	".END":  DIRECTIVE_END,
}

var operandNames = map[OperandType]string{
	OPERAND_REGISTER: "Register",
	OPERAND_V0:       "V0",
	OPERAND_INDEX:    "I",
	OPERAND_INDIRECT: "[I]",
	OPERAND_DELAY:    "DT",
	OPERAND_SOUND:    "ST",
	OPERAND_KEY:      "K",
	OPERAND_FONT:     "F",
	OPERAND_BCD:      "B",
	OPERAND_NIBBLE:   "Nibble",
	OPERAND_BYTE:     "Byte",
	OPERAND_ADDR:     "Address",
	OPERAND_LITERAL:  "Literal",
	OPERAND_LABEL:    "Label",
	OPERAND_STRING:   "String",
}

var keywordOperands = map[string]OperandType{
	"I":   OPERAND_INDEX,
	"[I]": OPERAND_INDIRECT,
	"DT":  OPERAND_DELAY,
	"ST":  OPERAND_SOUND,
	"K":   OPERAND_KEY,
	"F":   OPERAND_FONT,
	"B":   OPERAND_BCD,
}

// Registers are packed into the x nibble first and the y nibble second.
// A literal or label is packed according to its operand kind.
var instructionForms = map[InstructionType][]instructionForm{
	// CLS  |0000   |0000   |1110   |0000   |
	// RET  |0000   |0000   |1110   |1110   |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_CLS: {
		{0x00E0, nil},
	},
	INSTRUCTION_RET: {
		{0x00EE, nil},
	},

	// JP   |0001   |addr                   |
	// JP   |1011   |addr                   | V0 + addr
	// CALL |0010   |addr                   |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_JP: {
		{0x1000, []OperandType{OPERAND_ADDR}},
		{0xB000, []OperandType{OPERAND_V0, OPERAND_ADDR}},
	},
	INSTRUCTION_CALL: {
		{0x2000, []OperandType{OPERAND_ADDR}},
	},

	// SE   |0011   |x      |byte           |
	// SE   |0101   |x      |y      |0000   |
	// SNE  |0100   |x      |byte           |
	// SNE  |1001   |x      |y      |0000   |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SE: {
		{0x3000, []OperandType{OPERAND_REGISTER, OPERAND_BYTE}},
		{0x5000, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_SNE: {
		{0x4000, []OperandType{OPERAND_REGISTER, OPERAND_BYTE}},
		{0x9000, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},

	// LD   |0110   |x      |byte           |
	// LD   |1000   |x      |y      |0000   |
	// LD   |1010   |addr                   |
	// LD   |1111   |x      |0000   |0111   | Vx, DT
	// LD   |1111   |x      |0000   |1010   | Vx, K
	// LD   |1111   |x      |0001   |0101   | DT, Vx
	// LD   |1111   |x      |0001   |1000   | ST, Vx
	// LD   |1111   |x      |0010   |1001   | F, Vx
	// LD   |1111   |x      |0011   |0011   | B, Vx
	// LD   |1111   |x      |0101   |0101   | [I], Vx
	// LD   |1111   |x      |0110   |0101   | Vx, [I]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_LD: {
		{0x6000, []OperandType{OPERAND_REGISTER, OPERAND_BYTE}},
		{0x8000, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
		{0xA000, []OperandType{OPERAND_INDEX, OPERAND_ADDR}},
		{0xF007, []OperandType{OPERAND_REGISTER, OPERAND_DELAY}},
		{0xF00A, []OperandType{OPERAND_REGISTER, OPERAND_KEY}},
		{0xF015, []OperandType{OPERAND_DELAY, OPERAND_REGISTER}},
		{0xF018, []OperandType{OPERAND_SOUND, OPERAND_REGISTER}},
		{0xF029, []OperandType{OPERAND_FONT, OPERAND_REGISTER}},
		{0xF033, []OperandType{OPERAND_BCD, OPERAND_REGISTER}},
		{0xF055, []OperandType{OPERAND_INDIRECT, OPERAND_REGISTER}},
		{0xF065, []OperandType{OPERAND_REGISTER, OPERAND_INDIRECT}},
	},

	// ADD  |0111   |x      |byte           |
	// ADD  |1000   |x      |y      |0100   |
	// ADD  |1111   |x      |0001   |1110   | I, Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_ADD: {
		{0x7000, []OperandType{OPERAND_REGISTER, OPERAND_BYTE}},
		{0x8004, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
		{0xF01E, []OperandType{OPERAND_INDEX, OPERAND_REGISTER}},
	},

	// OR   |1000   |x      |y      |0001   |
	// AND  |1000   |x      |y      |0010   |
	// XOR  |1000   |x      |y      |0011   |
	// SUB  |1000   |x      |y      |0101   |
	// SHR  |1000   |x      |y      |0110   |
	// SUBN |1000   |x      |y      |0111   |
	// SHL  |1000   |x      |y      |1110   |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_OR: {
		{0x8001, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_AND: {
		{0x8002, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_XOR: {
		{0x8003, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_SUB: {
		{0x8005, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_SHR: {
		{0x8006, []OperandType{OPERAND_REGISTER}},
		{0x8006, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_SUBN: {
		{0x8007, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},
	INSTRUCTION_SHL: {
		{0x800E, []OperandType{OPERAND_REGISTER}},
		{0x800E, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER}},
	},

	// RND  |1100   |x      |byte           |
	// DRW  |1101   |x      |y      |n      |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_RND: {
		{0xC000, []OperandType{OPERAND_REGISTER, OPERAND_BYTE}},
	},
	INSTRUCTION_DRW: {
		{0xD000, []OperandType{OPERAND_REGISTER, OPERAND_REGISTER, OPERAND_NIBBLE}},
	},

	// SKP  |1110   |x      |1001   |1110   |
	// SKNP |1110   |x      |1010   |0001   |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SKP: {
		{0xE09E, []OperandType{OPERAND_REGISTER}},
	},
	INSTRUCTION_SKNP: {
		{0xE0A1, []OperandType{OPERAND_REGISTER}},
	},
}
