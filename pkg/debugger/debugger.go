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
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/set"
)

func New(in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		Breakpoints: set.New[uint16](),
		In:          bufio.NewScanner(in),
		Out:         out,
	}
}

// Interrupt asks the debugger to stop after the instruction in flight. It
// is safe to call from a signal handler goroutine.
func (dbg *Debugger) Interrupt() {
	dbg.interrupt.Store(true)
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.interrupt.Swap(false) {
		fmt.Fprintln(dbg.Out)
		dbg.Break = false
		dbg.handleBreak(mc)
		return
	}

	if dbg.Break {
		dbg.handleBreak(mc)
		return
	}

	if dbg.Breakpoints.Contains(mc.State.Program) {
		dbg.handleBreak(mc)
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.watching(addr, ReadWatch) {
		dbg.handleAccess(addr, mc)
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.watching(addr, WriteWatch) {
		dbg.handleAccess(addr, mc)
	}
}

func (dbg *Debugger) watching(addr uint16, access WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type&access != 0 {
			return true
		}
	}

	return false
}

func (dbg *Debugger) handleBreak(mc *machine.Machine) {
	if !dbg.Break {
		fmt.Fprintln(dbg.Out)
		fmt.Fprintln(dbg.Out, "Program stopped")

		if dbg.Source != nil && dbg.SymTable != nil {
			dbg.PrintSource(mc.State.Program, 8)
		} else {
			dbg.PrintDisasm(&mc.State, mc.State.Program, 8)
		}
	}

	dbg.REPL(mc)
}

func (dbg *Debugger) handleAccess(addr uint16, mc *machine.Machine) {
	fmt.Fprintln(dbg.Out)
	fmt.Fprintln(dbg.Out, "Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	dbg.REPL(mc)
}

// lookupLabel resolves a label name from the symbol table.
func (dbg *Debugger) lookupLabel(name string) (uint16, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	for addr, label := range dbg.SymTable.Labels {
		if label == name {
			return addr, true
		}
	}

	return 0, false
}

func (dbg *Debugger) label(addr uint16) string {
	if dbg.SymTable == nil {
		return ""
	}

	return dbg.SymTable.Labels[addr]
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	if dbg.Source == nil {
		fmt.Fprintln(dbg.Out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Out, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(dbg.Out, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		foundaddr := false
		for lineaddr, linebyte := range dbg.SymTable.Symbols {
			if linebyte == offset {
				fmt.Fprintf(dbg.Out, "\033[1m[%#04x]\033[0m ", lineaddr)
				foundaddr = true
				break
			}
		}

		if !foundaddr {
			fmt.Fprint(dbg.Out, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(dbg.Out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(dbg.Out, err)
	}
}

// PrintDisasm lists count instructions from addr, marking the program
// counter and any labels.
func (dbg *Debugger) PrintDisasm(mc *machine.MachineState, addr uint16, count int) {
	for _, line := range disasm.Range(mc.Memory[:], addr, count) {
		if label := dbg.label(line.Addr); label != "" {
			fmt.Fprintf(dbg.Out, "\033[1;30m%s:\033[0m\n", label)
		}

		marker := "  "
		if line.Addr == mc.Program {
			marker = "=>"
		}

		if dbg.Breakpoints.Contains(line.Addr) {
			marker = "\033[31m*\033[0m" + marker[1:]
		}

		fmt.Fprintf(
			dbg.Out, "%s \033[1m[%#04x]\033[0m %04X  %s\n",
			marker, line.Addr, line.Word, line,
		)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	for i := 0; i < int(count) && int(addr)+i < machine.MEMORY_SIZE; i++ {
		at := addr + uint16(i)

		if i == 0 {
			fmt.Fprintf(dbg.Out, "\033[1m[%#04x]\033[0m ", at)
		} else if i%8 == 0 {
			fmt.Fprintln(dbg.Out)
			fmt.Fprintf(dbg.Out, "\033[1m[%#04x]\033[0m ", at)
		}

		result := mc.Memory[at]

		if result == 0 {
			fmt.Fprintf(dbg.Out, "\033[1;30m0x%02x\033[0m ", result)
		} else {
			fmt.Fprintf(dbg.Out, "0x%02x ", result)
		}
	}

	fmt.Fprintln(dbg.Out)
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	for i, register := range mc.Registers {
		fmt.Fprintf(dbg.Out, "\033[1mV%X:\033[0m 0x%02x\t", i, register)
		if i%8 == 7 {
			fmt.Fprintln(dbg.Out)
		}
	}

	fmt.Fprintf(
		dbg.Out,
		"\033[1mPC:\033[0m %#04x\t\033[1mI:\033[0m %#04x\t\033[1mSP:\033[0m %d\t"+
			"\033[1mDT:\033[0m 0x%02x\t\033[1mST:\033[0m 0x%02x\n",
		mc.Program, mc.Index, mc.StackPtr, mc.DelayTimer, mc.SoundTimer,
	)
}

func (dbg *Debugger) PrintStack(mc *machine.MachineState) {
	if mc.StackPtr == 0 {
		fmt.Fprintln(dbg.Out, "Stack empty")
		return
	}

	for i := int(mc.StackPtr) - 1; i >= 0; i-- {
		addr := mc.Stack[i]

		fmt.Fprintf(dbg.Out, "#%02d: %#04x", i, addr)

		if label := dbg.label(addr); label != "" {
			fmt.Fprintf(dbg.Out, " \033[1;30m(%s)\033[0m", label)
		}

		fmt.Fprintln(dbg.Out)
	}
}

func (dbg *Debugger) PrintKeys(mc *machine.MachineState) {
	if mc.Keypad.IsEmpty() {
		fmt.Fprintln(dbg.Out, "No keys held")
		return
	}

	held := make([]string, 0, machine.KEY_COUNT)
	mc.Keypad.ForEach(func(key int) {
		held = append(held, fmt.Sprintf("%X", key))
	})

	fmt.Fprintf(dbg.Out, "Keys held: %s\n", strings.Join(held, " "))
}
