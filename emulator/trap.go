package emulator

import (
	"errors"
	goio "io"
	"log"

	"github.com/ezrec/lc3/cpu"
)

// service performs a console trap on the host, when the trap table has no
// routine for the vector. serviced is false if the CPU must execute the trap.
func (emu *Emulator) service(vect uint8) (serviced bool, err error) {
	if emu.Cpu.Peek(uint16(vect)) != 0 {
		return
	}

	console := emu.Console
	r0 := emu.Cpu.Register(cpu.REG_R0)

	switch vect {
	case cpu.TRAP_GETC:
		var c uint16
		c, err = emu.getc()
		if err != nil {
			return
		}
		emu.Cpu.SetRegister(cpu.REG_R0, c)
	case cpu.TRAP_OUT:
		err = console.Putc(r0 & 0xFF)
	case cpu.TRAP_PUTS:
		err = emu.puts(r0, false)
	case cpu.TRAP_IN:
		for _, c := range []byte(IN_PROMPT) {
			err = console.Putc(uint16(c))
			if err != nil {
				return
			}
		}
		var c uint16
		c, err = emu.getc()
		if err != nil {
			return
		}
		err = console.Putc(c)
		if err != nil {
			return
		}
		emu.Cpu.SetRegister(cpu.REG_R0, c)
	case cpu.TRAP_PUTSP:
		err = emu.puts(r0, true)
	default:
		return
	}

	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: serviced trap x%02X", vect)
	}

	serviced = true

	return
}

// getc reads a console character. End of input reads as CONSOLE_EOF.
func (emu *Emulator) getc() (c uint16, err error) {
	c, err = emu.Console.Getc()
	if errors.Is(err, goio.EOF) {
		err = nil
	}
	c &= 0xFF
	return
}

// puts writes the zero terminated string at addr. Packed strings hold two
// characters per word, low byte first.
func (emu *Emulator) puts(addr uint16, packed bool) (err error) {
	for range cpu.MEMORY_SIZE {
		word := emu.Cpu.Peek(addr)
		if word == 0 {
			return
		}

		if !packed {
			err = emu.Console.Putc(word & 0xFF)
		} else {
			err = emu.Console.Putc(word & 0xFF)
			if err == nil && word>>8 != 0 {
				err = emu.Console.Putc(word >> 8)
			}
		}
		if err != nil {
			return
		}

		addr++
	}

	return
}
