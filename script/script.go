// Package script drives an LC-3 emulator from Starlark.
//
// Scripts see a single predeclared module, lc3:
//
//	lc3.assemble(src)     assemble source, load it, and return the object words
//	lc3.load(words)       load object words (origin first) without a reset
//	lc3.reset()           reset the machine and reload the last program
//	lc3.step()            execute one instruction, returning the load address or None
//	lc3.run(limit=0)      run until halted, returning the instructions executed
//	lc3.reg(n)            read a general register
//	lc3.set_reg(n, value) write a general register
//	lc3.pc()              read the program counter
//	lc3.cond()            read the condition code as "n", "z" or "p"
//	lc3.peek(addr)        read a memory word
//	lc3.poke(addr, value) write a memory word
//	lc3.halted()          true once the program has halted
//	lc3.input(text)       replace the console input
//	lc3.output()          console output written so far
package script

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/emulator"
)

// Machine binds an emulator to a Starlark module.
type Machine struct {
	Emulator *emulator.Emulator
	Print    io.Writer // Destination of print(); discarded if nil.

	console bytes.Buffer
}

// NewMachine creates a machine around a fresh emulator, with the console
// output captured for lc3.output().
func NewMachine() (m *Machine) {
	m = &Machine{
		Emulator: emulator.NewEmulator(),
	}

	m.Emulator.Tape.Input = strings.NewReader("")
	m.Emulator.Tape.Output = &m.console

	return
}

// Module returns the lc3 module.
func (m *Machine) Module() *starlarkstruct.Module {
	members := starlark.StringDict{}
	for name, fn := range map[string]func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error){
		"assemble": m.assemble,
		"load":     m.load,
		"reset":    m.reset,
		"step":     m.step,
		"run":      m.run,
		"reg":      m.reg,
		"set_reg":  m.setReg,
		"pc":       m.pc,
		"cond":     m.cond,
		"peek":     m.peek,
		"poke":     m.poke,
		"halted":   m.halted,
		"input":    m.input,
		"output":   m.output,
	} {
		members[name] = starlark.NewBuiltin(name, fn)
	}

	return &starlarkstruct.Module{
		Name:    "lc3",
		Members: members,
	}
}

// Exec runs a script, returning its globals.
func (m *Machine) Exec(filename string, src any) (globals starlark.StringDict, err error) {
	thread := &starlark.Thread{
		Name: "lc3",
		Print: func(_ *starlark.Thread, msg string) {
			if m.Print != nil {
				fmt.Fprintln(m.Print, msg)
			}
		},
	}

	opts := syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
	}

	predeclared := starlark.StringDict{
		"lc3": m.Module(),
	}

	globals, err = starlark.ExecFileOptions(&opts, thread, filename, src, predeclared)

	return
}

func (m *Machine) assemble(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var src string
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src)
	if err != nil {
		return
	}

	asm := &cpu.Assembler{Verbose: m.Emulator.Verbose}
	prog, err := asm.Parse(strings.NewReader(src))
	if err != nil {
		return
	}

	m.Emulator.Program = prog
	m.Emulator.Object = nil
	err = m.Emulator.Reset()
	if err != nil {
		return
	}

	value = wordList(prog.Binary())

	return
}

func (m *Machine) load(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var iterable starlark.Iterable
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "words", &iterable)
	if err != nil {
		return
	}

	var words []uint16
	iter := iterable.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		var word uint16
		word, err = toWord(item)
		if err != nil {
			err = fmt.Errorf("%s: %w", b.Name(), err)
			return
		}
		words = append(words, word)
	}

	err = m.Emulator.Cpu.Load(words)
	if err != nil {
		return
	}

	m.Emulator.Object = words
	m.Emulator.Program = &cpu.Program{}
	value = starlark.None

	return
}

func (m *Machine) reset(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return
	}

	m.console.Reset()
	err = m.Emulator.Reset()
	value = starlark.None

	return
}

func (m *Machine) step(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return
	}

	addr, err := m.Emulator.Step()
	if err != nil {
		return
	}

	value = starlark.None
	if addr != cpu.NO_ADDRESS {
		value = starlark.MakeInt(addr)
	}

	return
}

func (m *Machine) run(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	limit := 0
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "limit?", &limit)
	if err != nil {
		return
	}

	emu := m.Emulator
	start := emu.Cpu.Ticks

	saved := emu.MaxTicks
	defer func() { emu.MaxTicks = saved }()
	if limit > 0 {
		emu.MaxTicks = start + limit
	}

	err = emu.Run(context.Background())
	if err != nil {
		return
	}

	value = starlark.MakeInt(emu.Cpu.Ticks - start)

	return
}

func (m *Machine) reg(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var n int
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "n", &n)
	if err != nil {
		return
	}

	r := cpu.Reg(n)
	if !r.Valid() {
		err = cpu.ErrRegisterInvalid
		return
	}

	value = starlark.MakeInt(int(m.Emulator.Cpu.Register(r)))

	return
}

func (m *Machine) setReg(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var n int
	var raw starlark.Value
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "n", &n, "value", &raw)
	if err != nil {
		return
	}

	word, err := toWord(raw)
	if err != nil {
		return
	}

	err = m.Emulator.Cpu.SetRegister(cpu.Reg(n), word)
	value = starlark.None

	return
}

func (m *Machine) pc(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return
	}

	value = starlark.MakeInt(int(m.Emulator.Cpu.Pc()))

	return
}

func (m *Machine) cond(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return
	}

	value = starlark.String(m.Emulator.Cpu.Cond().String())

	return
}

func (m *Machine) peek(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var raw starlark.Value
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &raw)
	if err != nil {
		return
	}

	addr, err := toWord(raw)
	if err != nil {
		return
	}

	value = starlark.MakeInt(int(m.Emulator.Cpu.Peek(addr)))

	return
}

func (m *Machine) poke(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var rawAddr, rawValue starlark.Value
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &rawAddr, "value", &rawValue)
	if err != nil {
		return
	}

	addr, err := toWord(rawAddr)
	if err != nil {
		return
	}
	word, err := toWord(rawValue)
	if err != nil {
		return
	}

	m.Emulator.Cpu.Poke(addr, word)
	value = starlark.None

	return
}

func (m *Machine) halted(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return
	}

	value = starlark.Bool(m.Emulator.Cpu.Done())

	return
}

func (m *Machine) input(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var text string
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text)
	if err != nil {
		return
	}

	m.Emulator.Tape.Input = strings.NewReader(text)
	value = starlark.None

	return
}

func (m *Machine) output(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return
	}

	value = starlark.String(m.console.String())

	return
}
