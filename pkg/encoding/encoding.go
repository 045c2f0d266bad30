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

package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidLiteral = errors.New("invalid numeric literal")

// Decodes a hexadecimal string in the formats: 0xFFF, xFFF, $FFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		s = s[1:]
	default:
		return 0, fmt.Errorf("%w: '%s' is not a hex string", ErrInvalidLiteral, s)
	}

	if len(s) == 0 {
		return 0, fmt.Errorf("%w: empty hex string", ErrInvalidLiteral)
	}

	result, err := strconv.ParseUint(s, 16, 16)

	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidLiteral, err)
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123, #-1
func DecodeInt(s string) (int32, error) {
	s = strings.TrimPrefix(s, "#")

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidLiteral, err)
	}

	return int32(result), nil
}

// Decodes either a hexadecimal or a base-10 literal.
func DecodeLiteral(s string) (int32, error) {
	if IsHex(s) {
		value, err := DecodeHex(s)
		return int32(value), err
	}

	return DecodeInt(s)
}

func IsHex(s string) bool {
	return strings.HasPrefix(s, "$") ||
		strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") ||
		((strings.HasPrefix(s, "x") || strings.HasPrefix(s, "X")) && len(s) > 1)
}

// Word joins two bytes into a big-endian instruction word.
func Word(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func SplitWord(word uint16) (hi, lo byte) {
	return byte(word >> 8), byte(word & 0xFF)
}

// Nibble returns the 4-bit group at index (0 is the least significant).
func Nibble(word uint16, index uint) uint8 {
	return uint8((word >> (index * 4)) & 0xF)
}
