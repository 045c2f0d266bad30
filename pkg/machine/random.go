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
	"math/rand/v2"
	"time"
)

// SeededRandom is the default source for RND. A zero seed is replaced by
// the current time.
type SeededRandom struct {
	Seed uint64

	rng *rand.Rand
}

func NewRandom(seed uint64) *SeededRandom {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &SeededRandom{
		Seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

func (rnd *SeededRandom) Byte() uint8 {
	return uint8(rnd.rng.UintN(256))
}
