package cpu

// Interrupt frames are two words on the stack addressed by R6: the saved PC
// at R6 and the saved PSR at R6+1.

// frameFits returns true if a two word frame at sp lies within memory. The
// stack pointer itself wraps modulo 65536, so only a frame at 0xFFFF, split
// across both ends of memory, is rejected.
func frameFits(sp uint16) bool {
	return sp != 0xFFFF
}

// pushFrame pushes an interrupt frame onto the active stack.
func (cpu *Cpu) pushFrame(pc, psr uint16) (ok bool) {
	sp := cpu.register[REG_SP] - 2
	if !frameFits(sp) {
		return
	}

	cpu.memory.Write(sp, pc)
	cpu.memory.Write(sp+1, psr)
	cpu.register[REG_SP] = sp

	return true
}

// popFrame pops an interrupt frame from the active stack. If the frame does
// not fit, nothing is changed and ok is false.
func (cpu *Cpu) popFrame() (pc, psr uint16, ok bool) {
	sp := cpu.register[REG_SP]
	if !frameFits(sp) {
		return
	}

	pc = cpu.memory.Read(sp)
	sp++
	psr = cpu.memory.Read(sp)
	sp++
	cpu.register[REG_SP] = sp

	ok = true
	return
}

// swapStack exchanges the active stack pointer with the saved one.
func (cpu *Cpu) swapStack() {
	cpu.register[REG_SP], cpu.savedSp = cpu.savedSp, cpu.register[REG_SP]
}
