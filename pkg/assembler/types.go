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

import (
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/machine"
)

type LiteralType uint
type TokenType uint
type OperandType uint
type InstructionType uint
type DirectiveType uint

type Cursor struct {
	Line     int
	Column   int
	Byte     int64
	Size     int64
	LineByte int64
}

type Token struct {
	Type     TokenType
	Position Cursor
	Value    string
}

// SymTable maps assembled addresses back to the source they came from.
// Symbols holds the byte offset of the source line for each address.
type SymTable struct {
	Source  string
	Symbols map[uint16]int64
	Labels  map[uint16]string
}

type instructionForm struct {
	Opcode   uint16
	Operands []OperandType
}

type TokenError interface {
	GetPosition() Cursor
}

// Errors embed the Cursor of the offending token.
func (pos Cursor) GetPosition() Cursor {
	return pos
}

func (pos Cursor) location() string {
	return fmt.Sprintf("%02d:%02d", pos.Line, pos.Column)
}

func (kind OperandType) String() string {
	if name, exists := operandNames[kind]; exists {
		return name
	}

	return "<invalid>"
}

func joinOperands(kinds []OperandType) string {
	names := make([]string, len(kinds))

	for i, kind := range kinds {
		names[i] = kind.String()
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	}

	last := len(names) - 1
	return strings.Join(names[:last], ", ") + ", or " + names[last]
}

type InvalidOperandError struct {
	Cursor
	Required []OperandType
	Received OperandType
}

func (err *InvalidOperandError) Error() string {
	return fmt.Sprintf(
		"%s: Operand does not fit the instruction\n\twant:%s\n\thave:%s",
		err.location(), joinOperands(err.Required), err.Received,
	)
}

type InvalidNumArgumentsError struct {
	Cursor
	Required int
	Received int
}

func (err *InvalidNumArgumentsError) Error() string {
	return fmt.Sprintf(
		"%s: Wrong operand count\n\twant:%d\n\thave:%d",
		err.location(), err.Required, err.Received,
	)
}

type InvalidOriginError struct {
	Cursor
	Received uint16
}

func (err *InvalidOriginError) Error() string {
	return fmt.Sprintf(
		"%s: .ORIG must lie in program memory\n\twant:%#04x-%#04x\n\thave:%#04x",
		err.location(), machine.PROGRAM_START, machine.MEMORY_SIZE-1, err.Received,
	)
}

type InvalidLiteralError struct {
	Cursor
}

func (err *InvalidLiteralError) Error() string {
	return err.location() + ": Malformed numeric literal"
}

type InvalidStringError struct {
	Cursor
}

func (err *InvalidStringError) Error() string {
	return err.location() + ": Unterminated or malformed string"
}

type OversizedLiteralError struct {
	Cursor
	Required int32
	Received int32
}

func (err *OversizedLiteralError) Error() string {
	return fmt.Sprintf(
		"%s: Literal out of range\n\twant:<=%d\n\thave:%d",
		err.location(), err.Required, err.Received,
	)
}

type InvalidRegisterError struct {
	Cursor
}

func (err *InvalidRegisterError) Error() string {
	return err.location() + ": Expected a V0-VF register"
}

type UnexpectedCharacterError struct {
	Cursor
	Received rune
}

func (err *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf("%s: Unexpected %q", err.location(), err.Received)
}

type OversizedCharacterError struct {
	Cursor
}

func (err *OversizedCharacterError) Error() string {
	return err.location() + ": Non-ASCII character"
}

type RedeclaredLabelError struct {
	Cursor
	Received string
}

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf("%s: Label '%s' already declared", err.location(), err.Received)
}

type UnknownLabelError struct {
	Cursor
	Received string
}

func (err *UnknownLabelError) Error() string {
	return fmt.Sprintf("%s: Label '%s' is never declared", err.location(), err.Received)
}

type ReservedLabelError struct {
	Cursor
	Received string
}

func (err *ReservedLabelError) Error() string {
	return fmt.Sprintf(
		"%s: '%s' names a register or keyword and cannot be a label",
		err.location(), err.Received,
	)
}

type UnknownIdentifierError struct {
	Cursor
	Received string
}

func (err *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("%s: '%s' is not an instruction or directive", err.location(), err.Received)
}

type OversizedBinaryError struct{}

func (err *OversizedBinaryError) Error() string {
	return fmt.Sprintf(
		"Program does not fit in %d bytes of program memory", machine.PROGRAM_MAX_SIZE,
	)
}
