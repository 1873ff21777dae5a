// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/internal"
	"github.com/ezrec/lc3/io"
)

// IN_PROMPT is written by the IN trap before reading a character.
const IN_PROMPT = "Input a character> "

var _emulator_defines = map[string]string{
	"CONSOLE_FIRST": fmt.Sprintf("0x%02x", cpu.TRAP_GETC),
	"CONSOLE_LAST":  fmt.Sprintf("0x%02x", cpu.TRAP_PUTSP),
}

// Emulator state. CPU + program listing + console.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
	Object   []uint16     // Object image to load instead of the Program, if set.
	MaxTicks int          // If positive, the instruction budget after a reset.

	Tape    io.Tape    // Byte stream console.
	Console io.Console // Console serving the traps; defaults to the Tape.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Console = &emu.Tape

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Console.Defines(),
	)
}

// Reset the machine, and load the program (or object image).
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	object := emu.Object
	if len(object) == 0 && emu.Program.Len() > 0 {
		object = emu.Program.Binary()
	}

	err = emu.Cpu.Load(object)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: loaded %d words at x%04X", len(object)-1, object[0])
	}

	return
}

// Code returns the instruction word at the PC.
func (emu *Emulator) Code() cpu.Code {
	return cpu.Code(emu.Cpu.Peek(emu.Cpu.Pc()))
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Cpu.Pc())
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Done() {
		done = true
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	if emu.MaxTicks > 0 && emu.Cpu.Ticks >= emu.MaxTicks {
		err = cpu.ErrTickLimit
		return
	}

	_, err = emu.execute()
	if err != nil {
		return
	}

	done = emu.Cpu.Done()

	return
}

// Step executes a single instruction, servicing console traps the same way
// Tick does. addr is the data address read by a load, or cpu.NO_ADDRESS.
// Unlike Tick, Step ignores the halted state and MaxTicks.
func (emu *Emulator) Step() (addr int, err error) {
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	addr, err = emu.execute()

	return
}

// execute runs the instruction at the PC, on the host for serviced traps.
func (emu *Emulator) execute() (addr int, err error) {
	addr = cpu.NO_ADDRESS

	pc := emu.Cpu.Pc()
	code := emu.Code()

	if code.Op() == cpu.OP_TRAP {
		var serviced bool
		serviced, err = emu.service(code.TrapVect())
		if err != nil {
			return
		}
		if serviced {
			emu.Cpu.SetRegister(cpu.REG_LINK, pc+1)
			emu.Cpu.SetPc(pc + 1)
			emu.Cpu.Ticks++
			return
		}
	}

	addr, status := emu.Cpu.Step()
	if status != cpu.STATUS_OK {
		err = &cpu.ErrExecute{Pc: pc, Code: code, Err: status.Err()}
		return
	}

	return
}

// Run ticks until the program is done, fails, or ctx is cancelled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}
