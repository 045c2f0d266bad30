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
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	return directiveNames[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructionNames[strings.ToUpper(ident)]
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	result, err := encoding.DecodeLiteral(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	// Negative values are accepted as two's complement of the field width
	limit := int32(1) << bits

	if result >= limit || result < -(limit>>1) {
		return 0, &OversizedLiteralError{token.Position, limit - 1, result}
	}

	return uint16(result) & uint16(limit-1), nil
}

func parseRegister(token *Token) (uint16, bool) {
	ident := token.Value

	if len(ident) != 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false
	}

	reg, err := strconv.ParseUint(ident[1:], 16, 8)

	if err != nil {
		return 0, false
	}

	return uint16(reg), true
}

// classifyOperand reports what an operand token is, independent of the
// instruction it is used with.
func classifyOperand(token *Token) OperandType {
	switch token.Type {
	case TOKEN_LITERAL:
		return OPERAND_LITERAL
	case TOKEN_STRING:
		return OPERAND_STRING
	case TOKEN_IDENT:
		if kind, exists := keywordOperands[strings.ToUpper(token.Value)]; exists {
			return kind
		}

		if _, ok := parseRegister(token); ok {
			return OPERAND_REGISTER
		}

		return OPERAND_LABEL
	}

	return OPERAND_NONE
}

func operandMatches(required, received OperandType) bool {
	switch required {
	case OPERAND_V0:
		return received == OPERAND_REGISTER
	case OPERAND_NIBBLE, OPERAND_BYTE:
		return received == OPERAND_LITERAL
	case OPERAND_ADDR:
		return received == OPERAND_LITERAL || received == OPERAND_LABEL
	}

	return required == received
}

// tokenizeLine splits one source line into tokens, dropping comments and
// operand separators.
func tokenizeLine(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int
	var tokenType = TOKEN_NONE
	var separator = false

	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, Token{
				Type: tokenType,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.Byte + int64(tokenStart-1),
					Size:     int64(builder.Len()),
					LineByte: cursor.LineByte,
				},
				Value: builder.String(),
			})
			builder.Reset()
		}

		tokenType = TOKEN_NONE
	}

	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		if tokenType == TOKEN_STRING {
			builder.WriteRune(char)

			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if char == '"' {
				flush()
			}

			continue
		}

		if !unicode.IsSpace(char) && char != ',' && char != ';' {
			separator = false
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush()
			continue

		// Comments
		case char == ';':
			flush()
			return tokens, errs

		// Operand Separator
		case char == ',':
			if separator || len(tokens) == 0 && builder.Len() == 0 {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			flush()
			separator = true
			continue

		// Label Terminator
		case char == ':':
			if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			flush()
			continue

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// String Literal
		case char == '"':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_STRING
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Hex (i.e. $2A, 0x2A) and base 10 (i.e. #42, 42) literals
		case char == '$', char == '#':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Sign (i.e. -1, #-1)
		case char == '-':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else if tokenType != TOKEN_LITERAL || builder.String() != "#" {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Underscore'd and indirect identifiers (i.e. [I])
		case char == '_', char == '[', char == ']':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Identifier
		case unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			}

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
		}

		builder.WriteRune(char)
	}

	if tokenType == TOKEN_STRING {
		errs = append(errs, &InvalidStringError{cursor})
	}

	if separator {
		errs = append(errs, &UnexpectedCharacterError{cursor, ','})
	}

	flush()
	return tokens, errs
}

// AssembleSource assembles CHIP-8 source into a program image that starts
// at machine.PROGRAM_START and ends at the last byte written or reserved.
func AssembleSource(input io.Reader, symtable *SymTable) (result []byte, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Size     LiteralType
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var memory [machine.MEMORY_SIZE]byte
	var program uint32 = machine.PROGRAM_START
	var end uint32 = machine.PROGRAM_START
	var oversized = false

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	errs = make([]error, 0)

	emit := func(value byte) {
		if program >= machine.MEMORY_SIZE {
			if !oversized {
				errs = append(errs, &OversizedBinaryError{})
				oversized = true
			}

			return
		}

		memory[program] = value
		program++
		end = max(end, program)
	}

	nextLine := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() && !oversized {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenizeLine(line, cursor)

		// Pass any potential assembler errors if we already had parser errors
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			nextLine(line)
			continue
		}

		if len(tokens) == 0 {
			nextLine(line)
			continue
		}

		// Assemble line
		// - Write instruction bytes to memory
		// - Save label refs for unknown labels
		// - Type check instruction arguments
		var directive DirectiveType
		var instruction InstructionType
		var keyword *Token
		var operands []Token

		if tokens[0].Type == TOKEN_IDENT {
			instruction = parseInstruction(tokens[0].Value)
		} else if tokens[0].Type == TOKEN_DIRECTIVE {
			directive = parseDirective(tokens[0].Value)
		}

		if instruction == INSTRUCTION_INVALID && directive == DIRECTIVE_INVALID {
			label := &tokens[0]

			if label.Type != TOKEN_IDENT {
				errs = append(
					errs, &UnknownIdentifierError{label.Position, label.Value},
				)
				nextLine(line)
				continue
			}

			if classifyOperand(label) != OPERAND_LABEL {
				errs = append(
					errs, &ReservedLabelError{label.Position, label.Value},
				)
			} else if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			tokens = tokens[1:]

			// No need to assemble label-only statements
			if len(tokens) == 0 {
				nextLine(line)
				continue
			}

			if tokens[0].Type == TOKEN_IDENT {
				instruction = parseInstruction(tokens[0].Value)
			} else if tokens[0].Type == TOKEN_DIRECTIVE {
				directive = parseDirective(tokens[0].Value)
			}
		}

		if instruction == INSTRUCTION_INVALID && directive == DIRECTIVE_INVALID {
			errs = append(
				errs,
				&UnknownIdentifierError{tokens[0].Position, tokens[0].Value},
			)
			nextLine(line)
			continue
		}

		keyword = &tokens[0]
		operands = tokens[1:]

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		start := uint16(program)
		emitted := false

		switch directive {
		// .ORIG addr
		case DIRECTIVE_ORIG:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_LITERAL},
						classifyOperand(&operands[0]),
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if literal < machine.PROGRAM_START || literal >= machine.MEMORY_SIZE {
				errs = append(
					errs, &InvalidOriginError{operands[0].Position, literal},
				)

				break
			}

			program = uint32(literal)

		// .BYTE #[, #...]
		case DIRECTIVE_BYTE:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				if operands[i].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]OperandType{OPERAND_LITERAL},
							classifyOperand(&operands[i]),
						},
					)

					continue
				}

				literal, err := parseLiteral(&operands[i], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				emit(byte(literal))
			}

			emitted = true

		// .WORD #|label[, #|label...]
		case DIRECTIVE_WORD:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				var value uint16

				switch kind := classifyOperand(&operands[i]); kind {
				case OPERAND_LITERAL:
					literal, err := parseLiteral(&operands[i], LITERAL_WORD)

					if err != nil {
						errs = append(errs, err)
					}

					value = literal

				case OPERAND_LABEL:
					labelRefs = append(
						labelRefs,
						LabelRef{
							operands[i].Value,
							uint16(program),
							LITERAL_WORD,
							operands[i].Position,
						},
					)

				default:
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]OperandType{OPERAND_LITERAL, OPERAND_LABEL},
							kind,
						},
					)
				}

				hi, lo := encoding.SplitWord(value)
				emit(hi)
				emit(lo)
			}

			emitted = true

		// .BLKB #
		case DIRECTIVE_BLKB:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_LITERAL},
						classifyOperand(&operands[0]),
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if program+uint32(literal) > machine.MEMORY_SIZE {
				errs = append(errs, &OversizedBinaryError{})
				oversized = true
				break
			}

			program += uint32(literal)
			end = max(end, program)

		// .TEXT "..."
		case DIRECTIVE_TEXT:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_STRING {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_STRING},
						classifyOperand(&operands[0]),
					},
				)

				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Position})
				break
			}

			for i := 0; i < len(s); i++ {
				emit(s[i])
			}

			emitted = true
		}

		if instruction != INSTRUCTION_INVALID {
			word, ref, err := assembleInstruction(instruction, keyword, operands)

			if err != nil {
				errs = append(errs, err)
			}

			if ref != nil {
				labelRefs = append(
					labelRefs,
					LabelRef{
						ref.Value,
						uint16(program),
						LITERAL_ADDR,
						ref.Position,
					},
				)
			}

			hi, lo := encoding.SplitWord(word)
			emit(hi)
			emit(lo)
			emitted = true
		}

		if symtable != nil && emitted {
			symtable.Symbols[start] = cursor.LineByte
		}

		nextLine(line)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		if int(ref.Addr)+1 >= machine.MEMORY_SIZE {
			continue
		}

		hi, lo := encoding.SplitWord(addr)

		if ref.Size == LITERAL_ADDR {
			memory[ref.Addr] |= hi & 0x0F
		} else {
			memory[ref.Addr] = hi
		}

		memory[ref.Addr+1] = lo
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	result = make([]byte, end-machine.PROGRAM_START)
	copy(result, memory[machine.PROGRAM_START:end])

	return
}

// assembleInstruction selects the form matching the operands and encodes
// it. A label operand is returned so the caller can resolve it once every
// label is known.
func assembleInstruction(
	instruction InstructionType, keyword *Token, operands []Token,
) (word uint16, ref *Token, err error) {
	forms := instructionForms[instruction]

	received := make([]OperandType, len(operands))
	for i := range operands {
		received[i] = classifyOperand(&operands[i])
	}

	var candidates []instructionForm
	for _, form := range forms {
		if len(form.Operands) == len(operands) {
			candidates = append(candidates, form)
		}
	}

	if len(candidates) == 0 {
		return 0, nil, &InvalidNumArgumentsError{
			keyword.Position, len(forms[len(forms)-1].Operands), len(operands),
		}
	}

	var form *instructionForm

	for i := range candidates {
		matches := true

		for j, required := range candidates[i].Operands {
			if !operandMatches(required, received[j]) {
				matches = false
				break
			}
		}

		if matches {
			form = &candidates[i]
			break
		}
	}

	if form == nil {
		return 0, nil, operandMismatch(candidates, operands, received)
	}

	word = form.Opcode
	registers := 0

	for i, required := range form.Operands {
		operand := &operands[i]

		switch required {
		case OPERAND_REGISTER, OPERAND_V0:
			reg, _ := parseRegister(operand)

			if required == OPERAND_V0 {
				if reg != 0 {
					return 0, nil, &InvalidRegisterError{operand.Position}
				}

				continue
			}

			if registers == 0 {
				word |= reg << 8
			} else {
				word |= reg << 4
			}

			registers++

		case OPERAND_NIBBLE:
			literal, err := parseLiteral(operand, LITERAL_NIBBLE)

			if err != nil {
				return 0, nil, err
			}

			word |= literal

		case OPERAND_BYTE:
			literal, err := parseLiteral(operand, LITERAL_BYTE)

			if err != nil {
				return 0, nil, err
			}

			word |= literal

		case OPERAND_ADDR:
			if received[i] == OPERAND_LABEL {
				ref = operand
				continue
			}

			literal, err := parseLiteral(operand, LITERAL_ADDR)

			if err != nil {
				return 0, nil, err
			}

			word |= literal
		}
	}

	return word, ref, nil
}

// operandMismatch reports the first operand no candidate form accepts.
func operandMismatch(
	candidates []instructionForm, operands []Token, received []OperandType,
) error {
	for i := range operands {
		var required []OperandType
		accepted := false

		for _, form := range candidates {
			if operandMatches(form.Operands[i], received[i]) {
				accepted = true
				break
			}

			if !containsOperand(required, form.Operands[i]) {
				required = append(required, form.Operands[i])
			}
		}

		if accepted {
			continue
		}

		if containsOperand(required, OPERAND_REGISTER) && received[i] == OPERAND_LABEL {
			return &InvalidRegisterError{operands[i].Position}
		}

		return &InvalidOperandError{operands[i].Position, required, received[i]}
	}

	// Each operand fits some form, but never all in the same one
	return &InvalidOperandError{
		operands[len(operands)-1].Position,
		candidates[0].Operands[len(operands)-1:],
		received[len(operands)-1],
	}
}

func containsOperand(kinds []OperandType, kind OperandType) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}

	return false
}
