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
	"fmt"
	"strings"
)

func (fb *Framebuffer) Clear() {
	for row := range fb {
		for col := range fb[row] {
			fb[row][col] = false
		}
	}
}

func (fb *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}

	return fb[y][x]
}

// Toggle XORs a single pixel with "on" and reports whether it was lit.
func (fb *Framebuffer) Toggle(x, y int) bool {
	collision := fb[y][x]
	fb[y][x] = !collision
	return collision
}

// Snapshot returns a copy for presentation; the machine keeps ownership of
// the live buffer.
func (fb *Framebuffer) Snapshot() Framebuffer {
	return *fb
}

func (fb *Framebuffer) Lit() int {
	count := 0

	for row := range fb {
		for col := range fb[row] {
			if fb[row][col] {
				count++
			}
		}
	}

	return count
}

func (fb *Framebuffer) String() string {
	var builder strings.Builder
	builder.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)

	for row := range fb {
		for col := range fb[row] {
			if fb[row][col] {
				builder.WriteByte('#')
			} else {
				builder.WriteByte('.')
			}
		}

		builder.WriteByte('\n')
	}

	return builder.String()
}

// resolve maps a sprite pixel to a display coordinate along one axis.
func (mode DrawMode) resolve(origin uint8, offset, size int) (int, bool) {
	coord := int(origin) + offset

	switch mode {
	case DRAW_WRAP:
		return coord % size, true
	case DRAW_CLIP:
		return coord, coord < size
	default:
		if coord >= size {
			coord = size - 1
		}
		return coord, true
	}
}

func (mode DrawMode) String() string {
	switch mode {
	case DRAW_CLAMP:
		return "clamp"
	case DRAW_CLIP:
		return "clip"
	case DRAW_WRAP:
		return "wrap"
	}

	return fmt.Sprintf("DrawMode(%d)", uint8(mode))
}

func ParseDrawMode(s string) (DrawMode, error) {
	switch strings.ToLower(s) {
	case "", "clamp":
		return DRAW_CLAMP, nil
	case "clip":
		return DRAW_CLIP, nil
	case "wrap":
		return DRAW_WRAP, nil
	}

	return DRAW_CLAMP, fmt.Errorf("invalid draw mode '%s'", s)
}
