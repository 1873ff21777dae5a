package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

var _cpu_defines = map[string]string{
	"MEMSPACE_TRAP_TABLE": fmt.Sprintf("0x%04x", MEMSPACE_TRAP_TABLE),
	"MEMSPACE_INT_TABLE":  fmt.Sprintf("0x%04x", MEMSPACE_INT_TABLE),
	"MEMSPACE_SUPERVISOR": fmt.Sprintf("0x%04x", MEMSPACE_SUPERVISOR),
	"MEMSPACE_USER":       fmt.Sprintf("0x%04x", MEMSPACE_USER),
	"MEMSPACE_DEVICES":    fmt.Sprintf("0x%04x", MEMSPACE_DEVICES),
	"HALT_PC":             fmt.Sprintf("0x%04x", HALT_PC),
	"TRAP_GETC":           fmt.Sprintf("0x%02x", TRAP_GETC),
	"TRAP_OUT":            fmt.Sprintf("0x%02x", TRAP_OUT),
	"TRAP_PUTS":           fmt.Sprintf("0x%02x", TRAP_PUTS),
	"TRAP_IN":             fmt.Sprintf("0x%02x", TRAP_IN),
	"TRAP_PUTSP":          fmt.Sprintf("0x%02x", TRAP_PUTSP),
	"TRAP_HALT":           fmt.Sprintf("0x%02x", TRAP_HALT),
}

// NO_ADDRESS is the Step result when the instruction read no data memory.
const NO_ADDRESS = -1

// Status is the outcome of a single Step.
type Status int

const (
	STATUS_OK             = Status(iota) // Instruction applied.
	STATUS_UNKNOWN_OPCODE                // Reserved opcode; nothing changed.
	STATUS_INVALID                       // Structurally invalid; nothing changed.
)

func (status Status) String() string {
	switch status {
	case STATUS_OK:
		return "ok"
	case STATUS_UNKNOWN_OPCODE:
		return "unknown-opcode"
	case STATUS_INVALID:
		return "invalid"
	}
	return fmt.Sprintf("status(%d)", int(status))
}

// Err returns the error describing a non-OK status, or nil.
func (status Status) Err() error {
	switch status {
	case STATUS_OK:
		return nil
	case STATUS_UNKNOWN_OPCODE:
		return ErrOpcodeUnknown
	default:
		return ErrStackInvalid
	}
}

// Cpu is the architectural state of the machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Ticks int // Instructions applied since reset.

	memory   Memory
	register [REG_COUNT]uint16
	pc       uint16
	psr      uint16
	savedSp  uint16
	halted   bool
}

// NewCpu creates a CPU in the reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()
	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
//   - Clears memory and the general registers.
//   - Sets PC, the supervisor stack and the saved user stack.
//   - Parks the HALT trap vector on HALT_PC.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.memory.Reset()
	clear(cpu.register[:])
	cpu.register[REG_SP] = RESET_SSP
	cpu.savedSp = RESET_USP
	cpu.pc = RESET_PC
	cpu.psr = uint16(COND_Z)
	cpu.halted = false
	cpu.Ticks = 0

	cpu.memory.Write(uint16(TRAP_HALT), HALT_PC)
}

// Load an object word stream: the origin, then the words to place there.
// The PC is set to the origin. Other state is left as is.
func (cpu *Cpu) Load(object []uint16) (err error) {
	if len(object) == 0 {
		err = ErrLoadEmpty
		return
	}

	origin := object[0]
	err = cpu.memory.Load(origin, object[1:])
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: load x%04X words at x%04X", len(object)-1, origin)
	}

	cpu.pc = origin
	cpu.halted = false
	return
}

// setcc sets the condition codes from a result.
func (cpu *Cpu) setcc(value uint16) {
	cpu.psr = (cpu.psr &^ uint16(COND_NZP)) | uint16(condOf(value))
}

// setReg writes a general register from a computed value, updating the
// condition codes.
func (cpu *Cpu) setReg(r Reg, value uint16) {
	cpu.register[r] = value
	cpu.setcc(value)
}

// Step executes the instruction at PC.
// addr is the data address read by a load, or NO_ADDRESS.
func (cpu *Cpu) Step() (addr int, status Status) {
	addr = NO_ADDRESS

	pc := cpu.pc
	code := Code(cpu.memory.Read(pc))
	next := pc + 1

	if cpu.Verbose {
		log.Printf("cpu: x%04X: %v", pc, code)
	}

	reg := &cpu.register

	switch code.Op() {
	case OP_ADD:
		operand := code.Imm5()
		if !code.Immediate() {
			operand = reg[code.Sr2()]
		}
		cpu.setReg(code.Dr(), reg[code.Sr1()]+operand)
	case OP_AND:
		operand := code.Imm5()
		if !code.Immediate() {
			operand = reg[code.Sr2()]
		}
		cpu.setReg(code.Dr(), reg[code.Sr1()]&operand)
	case OP_NOT:
		cpu.setReg(code.Dr(), ^reg[code.Sr1()])
	case OP_BR:
		if code.Cond()&cpu.Cond() != 0 {
			next += code.PcOffset9()
		}
	case OP_JMP:
		next = reg[code.Sr1()]
	case OP_JSR:
		link := next
		if code.Link() {
			next += code.PcOffset11()
		} else {
			next = reg[code.Sr1()]
		}
		reg[REG_LINK] = link
	case OP_LD:
		ea := next + code.PcOffset9()
		cpu.setReg(code.Dr(), cpu.memory.Read(ea))
		addr = int(ea)
	case OP_LDI:
		ea := cpu.memory.Read(next + code.PcOffset9())
		cpu.setReg(code.Dr(), cpu.memory.Read(ea))
		addr = int(ea)
	case OP_LDR:
		ea := reg[code.Sr1()] + code.Offset6()
		cpu.setReg(code.Dr(), cpu.memory.Read(ea))
		addr = int(ea)
	case OP_LEA:
		cpu.setReg(code.Dr(), next+code.PcOffset9())
	case OP_ST:
		cpu.memory.Write(next+code.PcOffset9(), reg[code.Dr()])
	case OP_STI:
		cpu.memory.Write(cpu.memory.Read(next+code.PcOffset9()), reg[code.Dr()])
	case OP_STR:
		cpu.memory.Write(reg[code.Sr1()]+code.Offset6(), reg[code.Dr()])
	case OP_TRAP:
		vect := code.TrapVect()
		reg[REG_LINK] = next
		next = cpu.memory.Read(uint16(vect))
		if vect == TRAP_HALT {
			cpu.halted = true
			if cpu.Verbose {
				log.Printf("cpu: halt at x%04X", pc)
			}
		}
	case OP_RTI:
		var psr uint16
		var ok bool
		next, psr, ok = cpu.popFrame()
		if !ok {
			status = STATUS_INVALID
			return
		}
		cpu.psr = psr
	default:
		status = STATUS_UNKNOWN_OPCODE
		return
	}

	cpu.pc = next
	cpu.Ticks++

	return
}

// Interrupt enters a service routine through the vector table entry.
// The stack pointers are exchanged, the PC and PSR pushed to the new stack,
// and the PC loaded from memory[vector].
func (cpu *Cpu) Interrupt(vector uint8) (err error) {
	cpu.swapStack()
	if !cpu.pushFrame(cpu.pc, cpu.psr) {
		cpu.swapStack()
		err = ErrStackInvalid
		return
	}

	cpu.pc = cpu.memory.Read(uint16(vector))

	if cpu.Verbose {
		log.Printf("cpu: interrupt x%02X to x%04X", vector, cpu.pc)
	}

	return
}

// Done returns true once the program has halted, either by the HALT trap or
// by parking the PC on HALT_PC.
func (cpu *Cpu) Done() bool {
	return cpu.halted || cpu.pc == HALT_PC
}

// Run steps until Done.
func (cpu *Cpu) Run() (err error) {
	return cpu.RunLimit(0)
}

// RunLimit steps until Done, or until limit instructions have been
// executed when limit is positive.
func (cpu *Cpu) RunLimit(limit int) (err error) {
	for n := 0; !cpu.Done(); n++ {
		if limit > 0 && n >= limit {
			err = ErrTickLimit
			return
		}

		pc := cpu.pc
		_, status := cpu.Step()
		if status != STATUS_OK {
			err = &ErrExecute{Pc: pc, Code: Code(cpu.memory.Read(pc)), Err: status.Err()}
			return
		}
	}

	return
}

// Register returns the value of a general register, or 0 for an invalid
// index.
func (cpu *Cpu) Register(r Reg) uint16 {
	if !r.Valid() {
		return 0
	}
	return cpu.register[r]
}

// SetRegister sets a general register. The condition codes are unchanged.
func (cpu *Cpu) SetRegister(r Reg, value uint16) (err error) {
	if !r.Valid() {
		err = ErrRegisterInvalid
		return
	}
	cpu.register[r] = value
	return
}

// Registers returns a snapshot of the general registers.
func (cpu *Cpu) Registers() [REG_COUNT]uint16 {
	return cpu.register
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() uint16 {
	return cpu.pc
}

// SetPc sets the program counter.
func (cpu *Cpu) SetPc(pc uint16) {
	cpu.pc = pc
}

// Psr returns the processor status word.
func (cpu *Cpu) Psr() uint16 {
	return cpu.psr
}

// SetPsr sets the processor status word.
func (cpu *Cpu) SetPsr(psr uint16) {
	cpu.psr = psr
}

// SavedSp returns the stack pointer of the inactive mode.
func (cpu *Cpu) SavedSp() uint16 {
	return cpu.savedSp
}

// Cond returns the condition codes.
func (cpu *Cpu) Cond() CodeCond {
	return CodeCond(cpu.psr) & COND_NZP
}

func (cpu *Cpu) N() bool { return cpu.Cond()&COND_N != 0 }
func (cpu *Cpu) Z() bool { return cpu.Cond()&COND_Z != 0 }
func (cpu *Cpu) P() bool { return cpu.Cond()&COND_P != 0 }

// Halted returns true if the HALT trap has been executed.
func (cpu *Cpu) Halted() bool {
	return cpu.halted
}

// Peek reads a memory word.
func (cpu *Cpu) Peek(addr uint16) uint16 {
	return cpu.memory.Read(addr)
}

// Poke writes a memory word.
func (cpu *Cpu) Poke(addr uint16, value uint16) {
	cpu.memory.Write(addr, value)
}

// Memory returns a snapshot of all of memory.
func (cpu *Cpu) Memory() []uint16 {
	return cpu.memory.Snapshot()
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: x%04X\n", "pc", cpu.pc)
	text += fmt.Sprintf("% 5s: x%04X (%v)\n", "psr", cpu.psr, cpu.Cond())
	for r, val := range cpu.register {
		text += fmt.Sprintf("% 5s: x%04X\n", Reg(r), val)
	}
	text += fmt.Sprintf("% 5s: x%04X\n", "ssp", cpu.savedSp)
	return
}
