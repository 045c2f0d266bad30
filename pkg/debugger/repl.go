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
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/set"
)

const PROMPT = "\033[1;30m(dbg)\033[0m "

const help = `break    [add|list|remove|clear]   breakpoints
watch    [add|list|remove|clear]   memory watchpoints
register [V#|I|PC|DT|ST] [value]   show or set registers
source   [addr|label] [#]          show assembly source
disasm   [addr|label] [#]          disassemble memory
labels                             list symbol table labels
jump     [addr|label]              set the program counter
memory   [addr] [#]                dump memory
set      [addr] [value]            write a byte of memory
stack                              show return addresses
display                            dump the framebuffer
key      [0-F] [down|up]           show or change held keys
timers                             show delay and sound timers
continue, next, reset, clear, quit`

// REPL reads commands until one resumes or ends the program.
func (dbg *Debugger) REPL(mc *machine.Machine) {
	for {
		fmt.Fprint(dbg.Out, PROMPT)

		if !dbg.In.Scan() {
			fmt.Fprintln(dbg.Out)
			dbg.quit()
			return
		}

		args := strings.Fields(dbg.In.Text())

		if len(args) == 0 {
			if len(dbg.lastcmd) == 0 {
				continue
			}
			args = dbg.lastcmd
		} else {
			dbg.lastcmd = make([]string, len(args))
			copy(dbg.lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			dbg.cmdBreak(args)

		case "w", "wp", "watch", "watchpoint":
			dbg.cmdWatch(args)

		case "r", "reg", "register", "registers":
			dbg.cmdRegister(&mc.State, args)

		case "s", "src", "source":
			dbg.cmdSource(&mc.State, args)

		case "d", "dis", "disasm":
			dbg.cmdDisasm(&mc.State, args)

		case "l", "label", "labels":
			dbg.cmdLabels(args)

		case "j", "jmp", "jump":
			dbg.cmdJump(&mc.State, args)

		case "m", "mem", "memory":
			dbg.cmdMemory(&mc.State, args)

		case "set":
			dbg.cmdSet(&mc.State, args)

		case "stack":
			dbg.PrintStack(&mc.State)

		case "display":
			fmt.Fprint(dbg.Out, mc.State.Display.String())

		case "k", "key", "keys":
			dbg.cmdKey(&mc.State, args)

		case "t", "timers":
			fmt.Fprintf(
				dbg.Out, "\033[1mDT:\033[0m %d\t\033[1mST:\033[0m %d\n",
				mc.State.DelayTimer, mc.State.SoundTimer,
			)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			dbg.quit()
			return

		case "clear":
			fmt.Fprint(dbg.Out, "\033[H\033[2J")

		case "reset":
			if err := mc.LoadProgram(bytes.NewReader(dbg.Program)); err != nil {
				fmt.Fprintln(dbg.Out, err)
			} else {
				fmt.Fprintln(dbg.Out, "Machine reset")
			}

		case "h", "help":
			fmt.Fprintln(dbg.Out, help)

		default:
			fmt.Fprintf(dbg.Out, "error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (dbg *Debugger) quit() {
	dbg.Break = false
	dbg.Breakpoints.Clear()
	dbg.Watchpoints = nil

	if dbg.Quit != nil {
		dbg.Quit()
	}
}

// parseAddr accepts a label or a hex address.
func (dbg *Debugger) parseAddr(arg string) (uint16, error) {
	if addr, ok := dbg.lookupLabel(arg); ok {
		return addr, nil
	}

	addr, err := encoding.DecodeHex(arg)

	if err != nil {
		return 0, err
	}

	if addr >= machine.MEMORY_SIZE {
		return 0, fmt.Errorf("address %#04x out of range", addr)
	}

	return addr, nil
}

func parseCount(arg string) (uint16, error) {
	value, err := strconv.ParseUint(arg, 10, 16)
	return uint16(value), err
}

func (dbg *Debugger) cmdBreak(args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###|label]"

		if len(args) != 1 {
			fmt.Fprintln(dbg.Out, usage)
			return
		}

		addr, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		if !dbg.Breakpoints.Contains(addr) {
			dbg.Breakpoints.Add(addr)
			fmt.Fprintf(dbg.Out, "Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		for _, addr := range set.Sorted(dbg.Breakpoints) {
			fmt.Fprintf(dbg.Out, "%#04x", addr)

			if label := dbg.label(addr); label != "" {
				fmt.Fprintf(dbg.Out, " \033[1;30m(%s)\033[0m", label)
			}

			fmt.Fprintln(dbg.Out)
		}

	case "r", "rm", "remove":
		const usage = "break remove [0x###|label]"

		if len(args) != 1 {
			fmt.Fprintln(dbg.Out, usage)
			return
		}

		addr, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		if !dbg.Breakpoints.Contains(addr) {
			fmt.Fprintln(dbg.Out, "No breakpoint at that address")
			return
		}

		dbg.Breakpoints.Remove(addr)
		fmt.Fprintf(dbg.Out, "Breakpoint removed [%#04x]\n", addr)

	case "clear":
		dbg.Breakpoints.Clear()
		fmt.Fprintln(dbg.Out, "Breakpoints reset")

	default:
		fmt.Fprintf(dbg.Out, "break: '%s' is not a valid command\n", cmd)
		fmt.Fprintln(dbg.Out, usage)
	}
}

func watchName(wtype WatchpointType) string {
	switch wtype {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "readwrite"
	}

	return "?"
}

func (dbg *Debugger) cmdWatch(args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###|label] [read|write|readwrite]"

		if len(args) != 2 {
			fmt.Fprintln(dbg.Out, usage)
			return
		}

		addr, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		var wtype WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = ReadWatch
		case "w", "write":
			wtype = WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = ReadWriteWatch
		default:
			fmt.Fprintln(dbg.Out, usage)
			return
		}

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				return
			}
		}

		dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
		fmt.Fprintf(
			dbg.Out, "Watchpoint added [%#04x] (%s)\n", addr, watchName(wtype),
		)

	case "l", "ls", "list":
		for i, watchpoint := range dbg.Watchpoints {
			fmt.Fprintf(
				dbg.Out, "#%d: %#04x %s\n",
				i, watchpoint.Addr, watchName(watchpoint.Type),
			)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			fmt.Fprintln(dbg.Out, usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			fmt.Fprintln(dbg.Out, "Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Fprintf(dbg.Out, "Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Fprintln(dbg.Out, "Watchpoints reset")

	default:
		fmt.Fprintf(dbg.Out, "watch: '%s' is not a valid command\n", cmd)
		fmt.Fprintln(dbg.Out, usage)
	}
}

func (dbg *Debugger) cmdRegister(mc *machine.MachineState, args []string) {
	const usage = "register [V#|I|PC|DT|ST] [0x##]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	name := strings.ToUpper(args[0])

	byteValue := func() (uint8, bool) {
		if value > 0xFF {
			fmt.Fprintf(dbg.Out, "%s holds a single byte\n", name)
			return 0, false
		}
		return uint8(value), true
	}

	switch {
	case name == "PC":
		mc.Program = value & machine.ADDRESS_MASK
	case name == "I":
		mc.Index = value
	case name == "DT":
		v, ok := byteValue()
		if !ok {
			return
		}
		mc.DelayTimer = v
	case name == "ST":
		v, ok := byteValue()
		if !ok {
			return
		}
		mc.SoundTimer = v
	case len(name) == 2 && name[0] == 'V':
		index, err := strconv.ParseUint(name[1:], 16, 8)
		if err != nil {
			fmt.Fprintln(dbg.Out, "Invalid register")
			return
		}
		v, ok := byteValue()
		if !ok {
			return
		}
		mc.Registers[index] = v
	default:
		fmt.Fprintln(dbg.Out, "Invalid register")
		return
	}

	if name == "PC" || name == "I" {
		fmt.Fprintf(dbg.Out, "\033[1m%s:\033[0m %#04x\n", name, value)
	} else {
		fmt.Fprintf(dbg.Out, "\033[1m%s:\033[0m %#02x\n", name, value)
	}
}

func (dbg *Debugger) cmdSource(mc *machine.MachineState, args []string) {
	const usage = "source [0x###|label] [#]"

	if len(args) > 2 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Out, "No symbol table loaded")
		return
	}

	addr, count, ok := dbg.parseRange(mc, args, 3)

	if ok {
		dbg.PrintSource(addr, count)
	}
}

func (dbg *Debugger) cmdDisasm(mc *machine.MachineState, args []string) {
	const usage = "disasm [0x###|label] [#]"

	if len(args) > 2 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	addr, count, ok := dbg.parseRange(mc, args, 8)

	if ok {
		dbg.PrintDisasm(mc, addr, int(count))
	}
}

// parseRange reads "[addr|label|count] [count]"; the address defaults to
// the program counter.
func (dbg *Debugger) parseRange(
	mc *machine.MachineState, args []string, count uint16,
) (uint16, uint16, bool) {
	addr := mc.Program

	if len(args) > 0 {
		if value, err := dbg.parseAddr(args[0]); err == nil {
			addr = value
		} else if value, err := parseCount(args[0]); err == nil {
			count = value
		} else {
			fmt.Fprintln(dbg.Out, err)
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := parseCount(args[1])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return 0, 0, false
		}

		count = value
	}

	return addr, count, true
}

func (dbg *Debugger) cmdLabels(args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Out, "No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Fprintf(
			dbg.Out, "\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func (dbg *Debugger) cmdJump(mc *machine.MachineState, args []string) {
	const usage = "jump [0x###|label]"

	if len(args) != 1 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	addr, err := dbg.parseAddr(args[0])

	if err != nil {
		fmt.Fprintf(dbg.Out, "Unable to find '%s'\n", args[0])
		return
	}

	mc.Program = addr

	if label := dbg.label(addr); label != "" {
		fmt.Fprintf(
			dbg.Out, "\033[1mPC:\033[0m %#04x \033[1;30m(%s)\033[0m\n", addr, label,
		)
	} else {
		fmt.Fprintf(dbg.Out, "\033[1mPC:\033[0m %#04x\n", addr)
	}
}

func (dbg *Debugger) cmdMemory(mc *machine.MachineState, args []string) {
	const usage = "memory [0x###|#] [#]"

	if len(args) > 2 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	addr, count, ok := dbg.parseRange(mc, args, 1)

	if ok {
		dbg.PrintMem(mc, addr, count)
	}
}

func (dbg *Debugger) cmdSet(mc *machine.MachineState, args []string) {
	const usage = "set [0x###] [0x##]"

	if len(args) != 2 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	addr, err := dbg.parseAddr(args[0])

	if err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	if value > 0xFF {
		fmt.Fprintln(dbg.Out, "Memory holds single bytes")
		return
	}

	mc.Memory[addr] = byte(value)
	dbg.PrintMem(mc, addr, 1)
}

func (dbg *Debugger) cmdKey(mc *machine.MachineState, args []string) {
	const usage = "key [0-F] [down|up]"

	if len(args) == 0 {
		dbg.PrintKeys(mc)
		return
	}

	if len(args) != 2 {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	key, err := strconv.ParseUint(args[0], 16, 8)

	if err != nil || key >= machine.KEY_COUNT {
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	switch args[1] {
	case "d", "down", "press":
		mc.PressKey(int(key))
	case "u", "up", "release":
		mc.ReleaseKey(int(key))
	default:
		fmt.Fprintln(dbg.Out, usage)
		return
	}

	dbg.PrintKeys(mc)
}
