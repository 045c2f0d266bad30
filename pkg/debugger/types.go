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

package debugger

import (
	"bufio"
	"context"
	"io"
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/retroenv/retrogolib/set"
)

type WatchpointType uint

const (
	ReadWatch WatchpointType = iota + 1
	WriteWatch
	ReadWriteWatch
)

type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

type Debugger struct {
	// Stop after the next instruction
	Break bool

	Breakpoints set.Set[uint16]
	Watchpoints []Watchpoint

	Source   io.ReadSeeker
	Program  []byte
	SymTable *assembler.SymTable

	In  *bufio.Scanner
	Out io.Writer

	// Called when the session ends from the prompt
	Quit context.CancelFunc

	interrupt atomic.Bool
	lastcmd   []string
}
