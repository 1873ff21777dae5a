package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// newTestCpu loads words at MEMSPACE_USER.
func newTestCpu(t *testing.T, words ...uint16) (cpu *Cpu) {
	cpu = NewCpu()
	err := cpu.Load(append([]uint16{MEMSPACE_USER}, words...))
	assert.NoError(t, err)
	return
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Poke(0x4000, 0x1234)
	cpu.SetRegister(REG_R3, 7)
	cpu.Reset()

	assert.Equal(RESET_PC, cpu.Pc())
	assert.Equal(RESET_SSP, cpu.Register(REG_SP))
	assert.Equal(RESET_USP, cpu.SavedSp())
	assert.Equal(uint16(0), cpu.Register(REG_R3))
	assert.Equal(uint16(0), cpu.Peek(0x4000))
	assert.Equal(HALT_PC, cpu.Peek(uint16(TRAP_HALT)))
	assert.True(cpu.Z())
	assert.False(cpu.N())
	assert.False(cpu.P())
	assert.False(cpu.Halted())
	assert.Equal(0, cpu.Ticks)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	assert.ErrorIs(cpu.Load(nil), ErrLoadEmpty)

	err := cpu.Load([]uint16{0xFFFF, 1, 2})
	var bounds *ErrLoadBounds
	assert.True(errors.As(err, &bounds))
	assert.Equal(&ErrLoadBounds{Origin: 0xFFFF, Size: 2}, bounds)
	assert.Equal(uint16(0), cpu.Peek(0xFFFF))

	assert.NoError(cpu.Load([]uint16{0xFFFF, 0xABCD}))
	assert.Equal(uint16(0xABCD), cpu.Peek(0xFFFF))
	assert.Equal(uint16(0xFFFF), cpu.Pc())

	assert.NoError(cpu.Load([]uint16{0x3000, 1, 2, 3}))
	assert.Equal(uint16(0x3000), cpu.Pc())
	assert.Equal([]uint16{1, 2, 3}, cpu.Memory()[0x3000:0x3003])
}

func TestRegisters(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	assert.NoError(cpu.SetRegister(REG_R5, 0x5555))
	assert.Equal(uint16(0x5555), cpu.Register(REG_R5))
	assert.Equal(uint16(0x5555), cpu.Registers()[5])

	assert.ErrorIs(cpu.SetRegister(Reg(8), 1), ErrRegisterInvalid)
	assert.ErrorIs(cpu.SetRegister(Reg(-1), 1), ErrRegisterInvalid)
	assert.Equal(uint16(0), cpu.Register(Reg(8)))
}

func TestConditionTotality(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	for value := range 1 << 16 {
		cpu.setcc(uint16(value))

		count := 0
		for _, flag := range []bool{cpu.N(), cpu.Z(), cpu.P()} {
			if flag {
				count++
			}
		}
		if count != 1 {
			assert.Equal(1, count, "value x%04X", value)
			return
		}

		signed := int16(value)
		if signed == 0 != cpu.Z() || signed < 0 != cpu.N() || signed > 0 != cpu.P() {
			assert.Fail("condition mismatch", "value x%04X cond %v", value, cpu.Cond())
			return
		}
	}
}

func TestStep(t *testing.T) {
	assert := assert.New(t)

	type state struct {
		reg map[Reg]uint16
		mem map[uint16]uint16
		psr CodeCond
	}

	table := []struct {
		name   string
		code   uint16
		before state
		after  state
		pc     uint16
		addr   int
	}{
		{"add-imm", 0b0001_010_111_1_00111,
			state{reg: map[Reg]uint16{REG_R7: 3}},
			state{reg: map[Reg]uint16{REG_R2: 10}, psr: COND_P}, 0x3001, NO_ADDRESS},
		{"add-reg", 0b0001_010_010_0_00_010,
			state{reg: map[Reg]uint16{REG_R2: 10}},
			state{reg: map[Reg]uint16{REG_R2: 20}, psr: COND_P}, 0x3001, NO_ADDRESS},
		{"add-neg", 0b0001_010_011_1_11011,
			state{reg: map[Reg]uint16{REG_R3: 2}},
			state{reg: map[Reg]uint16{REG_R2: 0xFFFD}, psr: COND_N}, 0x3001, NO_ADDRESS},
		{"add-wrap", 0b0001_001_001_1_00001,
			state{reg: map[Reg]uint16{REG_R1: 0xFFFF}},
			state{reg: map[Reg]uint16{REG_R1: 0}, psr: COND_Z}, 0x3001, NO_ADDRESS},
		{"and-imm", 0b0101_001_001_1_00000,
			state{reg: map[Reg]uint16{REG_R1: 5}},
			state{reg: map[Reg]uint16{REG_R1: 0}, psr: COND_Z}, 0x3001, NO_ADDRESS},
		{"and-reg", 0b0101_001_010_0_00_011,
			state{reg: map[Reg]uint16{REG_R2: 0xF0F0, REG_R3: 0xFF00}},
			state{reg: map[Reg]uint16{REG_R1: 0xF000}, psr: COND_N}, 0x3001, NO_ADDRESS},
		{"not", 0b1001_001_010_111111,
			state{reg: map[Reg]uint16{REG_R2: 0}},
			state{reg: map[Reg]uint16{REG_R1: 0xFFFF}, psr: COND_N}, 0x3001, NO_ADDRESS},
		{"br-taken", 0b0000_010_000000010,
			state{psr: COND_Z},
			state{psr: COND_Z}, 0x3003, NO_ADDRESS},
		{"br-not-taken", 0b0000_100_000000010,
			state{psr: COND_Z},
			state{psr: COND_Z}, 0x3001, NO_ADDRESS},
		{"br-never", 0b0000_000_000000010,
			state{psr: COND_P},
			state{psr: COND_P}, 0x3001, NO_ADDRESS},
		{"br-back", 0b0000_111_111111111,
			state{psr: COND_N},
			state{psr: COND_N}, 0x3000, NO_ADDRESS},
		{"jmp", 0b1100_000_011_000000,
			state{reg: map[Reg]uint16{REG_R3: 0x4000}},
			state{reg: map[Reg]uint16{REG_R3: 0x4000}, psr: COND_Z}, 0x4000, NO_ADDRESS},
		{"ret", 0b1100_000_111_000000,
			state{reg: map[Reg]uint16{REG_R7: 0x3456}},
			state{psr: COND_Z}, 0x3456, NO_ADDRESS},
		{"jsr", 0b0100_1_00000000101,
			state{},
			state{reg: map[Reg]uint16{REG_R7: 0x3001}, psr: COND_Z}, 0x3006, NO_ADDRESS},
		{"jsr-back", 0b0100_1_11111111111,
			state{},
			state{reg: map[Reg]uint16{REG_R7: 0x3001}, psr: COND_Z}, 0x3000, NO_ADDRESS},
		{"jsrr-link", 0b0100_0_00_111_000000,
			state{reg: map[Reg]uint16{REG_R7: 0x5000}},
			state{reg: map[Reg]uint16{REG_R7: 0x3001}, psr: COND_Z}, 0x5000, NO_ADDRESS},
		{"ld", 0b0010_001_000000010,
			state{mem: map[uint16]uint16{0x3003: 0x8000}},
			state{reg: map[Reg]uint16{REG_R1: 0x8000}, psr: COND_N}, 0x3001, 0x3003},
		{"ldi", 0b1010_001_000000001,
			state{mem: map[uint16]uint16{0x3002: 0x4000, 0x4000: 7}},
			state{reg: map[Reg]uint16{REG_R1: 7}, psr: COND_P}, 0x3001, 0x4000},
		{"ldr", 0b0110_001_010_111111,
			state{reg: map[Reg]uint16{REG_R1: 9, REG_R2: 0x4001}, psr: COND_P},
			state{reg: map[Reg]uint16{REG_R1: 0}, psr: COND_Z}, 0x3001, 0x4000},
		{"lea", 0b1110_001_111111110,
			state{psr: COND_N},
			state{reg: map[Reg]uint16{REG_R1: 0x2FFF}, psr: COND_P}, 0x3001, NO_ADDRESS},
		{"st", 0b0011_001_000000011,
			state{reg: map[Reg]uint16{REG_R1: 0x1234}},
			state{mem: map[uint16]uint16{0x3004: 0x1234}, psr: COND_Z}, 0x3001, NO_ADDRESS},
		{"sti", 0b1011_001_000000001,
			state{reg: map[Reg]uint16{REG_R1: 0x1234}, mem: map[uint16]uint16{0x3002: 0x5000}},
			state{mem: map[uint16]uint16{0x5000: 0x1234}, psr: COND_Z}, 0x3001, NO_ADDRESS},
		{"str", 0b0111_001_010_000101,
			state{reg: map[Reg]uint16{REG_R1: 0x1234, REG_R2: 0x4000}},
			state{mem: map[uint16]uint16{0x4005: 0x1234}, psr: COND_Z}, 0x3001, NO_ADDRESS},
		{"trap", 0b1111_0000_00110000,
			state{mem: map[uint16]uint16{0x0030: 0x1000}},
			state{reg: map[Reg]uint16{REG_R7: 0x3001}, psr: COND_Z}, 0x1000, NO_ADDRESS},
		{"rti", 0b1000_000000000000,
			state{reg: map[Reg]uint16{REG_R6: 0x2FFE}, mem: map[uint16]uint16{0x2FFE: 0x3100, 0x2FFF: uint16(COND_N)}},
			state{reg: map[Reg]uint16{REG_R6: 0x3000}, psr: COND_N}, 0x3100, NO_ADDRESS},
	}

	for _, entry := range table {
		cpu := newTestCpu(t, entry.code)
		for r, value := range entry.before.reg {
			cpu.SetRegister(r, value)
		}
		for addr, value := range entry.before.mem {
			cpu.Poke(addr, value)
		}
		if entry.before.psr != COND_NONE {
			cpu.SetPsr(uint16(entry.before.psr))
		}

		addr, status := cpu.Step()
		assert.Equal(STATUS_OK, status, entry.name)
		assert.Equal(entry.addr, addr, entry.name)
		assert.Equal(entry.pc, cpu.Pc(), entry.name)
		assert.Equal(entry.after.psr, cpu.Cond(), entry.name)
		for r, value := range entry.after.reg {
			assert.Equal(value, cpu.Register(r), "%v %v", entry.name, r)
		}
		for addr, value := range entry.after.mem {
			assert.Equal(value, cpu.Peek(addr), "%v x%04X", entry.name, addr)
		}
		assert.Equal(1, cpu.Ticks, entry.name)
	}
}

func TestStepHalt(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0xF025)

	_, status := cpu.Step()
	assert.Equal(STATUS_OK, status)
	assert.True(cpu.Halted())
	assert.True(cpu.Done())
	assert.Equal(HALT_PC, cpu.Pc())
	assert.Equal(uint16(0x3001), cpu.Register(REG_LINK))
}

func TestStepUnknown(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0xD123)
	before := cpu.Registers()

	addr, status := cpu.Step()
	assert.Equal(STATUS_UNKNOWN_OPCODE, status)
	assert.Equal(NO_ADDRESS, addr)
	assert.Equal(uint16(0x3000), cpu.Pc())
	assert.Equal(before, cpu.Registers())
	assert.Equal(0, cpu.Ticks)
	assert.ErrorIs(status.Err(), ErrOpcodeUnknown)
}

func TestStepRtiInvalid(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0x8000)
	cpu.SetRegister(REG_SP, 0xFFFF)

	_, status := cpu.Step()
	assert.Equal(STATUS_INVALID, status)
	assert.Equal(uint16(0x3000), cpu.Pc())
	assert.Equal(uint16(0xFFFF), cpu.Register(REG_SP))
	assert.ErrorIs(status.Err(), ErrStackInvalid)
}

func TestStepRtiTopOfMemory(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0x8000)
	cpu.SetRegister(REG_SP, 0xFFFE)
	cpu.Poke(0xFFFE, 0x4000)
	cpu.Poke(0xFFFF, uint16(COND_N))

	_, status := cpu.Step()
	assert.Equal(STATUS_OK, status)
	assert.Equal(uint16(0x4000), cpu.Pc())
	assert.True(cpu.N())
	// The stack pointer wraps past the top of memory.
	assert.Equal(uint16(0x0000), cpu.Register(REG_SP))
}

func TestInterruptBottomOfMemory(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0x1261)
	cpu.Poke(0x0080, 0x1000)
	cpu.SetRegister(REG_SP, 0)

	assert.NoError(cpu.Interrupt(0x80))
	assert.Equal(uint16(0), cpu.SavedSp())

	// The frame below x0000 wraps to the top of memory.
	cpu.SetPc(0x3000)
	assert.NoError(cpu.Interrupt(0x80))
	assert.Equal(uint16(0xFFFE), cpu.Register(REG_SP))
	assert.Equal(uint16(0x3000), cpu.Peek(0xFFFE))
}

func TestInterrupt(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0x1261)
	cpu.Poke(0x0080, 0x1000)
	cpu.Poke(0x1000, 0x8000) // RTI
	cpu.SetPsr(uint16(COND_P))

	assert.NoError(cpu.Interrupt(0x80))
	assert.Equal(uint16(0x1000), cpu.Pc())
	assert.Equal(uint16(0xFDFE), cpu.Register(REG_SP))
	assert.Equal(RESET_SSP, cpu.SavedSp())
	assert.Equal(uint16(0x3000), cpu.Peek(0xFDFE))
	assert.Equal(uint16(COND_P), cpu.Peek(0xFDFF))

	_, status := cpu.Step()
	assert.Equal(STATUS_OK, status)
	assert.Equal(uint16(0x3000), cpu.Pc())
	assert.Equal(uint16(0xFE00), cpu.Register(REG_SP))
	assert.True(cpu.P())
}

func TestInterruptInvalid(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SetRegister(REG_SP, 1)
	cpu.Interrupt(0x00) // Swap the low stack pointer into the saved slot.

	err := cpu.Interrupt(0x00)
	assert.ErrorIs(err, ErrStackInvalid)
	assert.Equal(uint16(1), cpu.SavedSp())
}

func TestScenarioAdd(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0x15E7, 0x1482)
	cpu.SetRegister(REG_R7, 3)

	cpu.Step()
	cpu.Step()

	assert.Equal(uint16(20), cpu.Register(REG_R2))
	assert.False(cpu.N())
	assert.False(cpu.Z())
	assert.True(cpu.P())
}

func TestScenarioBranch(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t,
		0x1261, // ADD R1, R1, #1
		0x0201, // BRp #1
		0x14A1, // ADD R2, R2, #1
		0x16E1, // ADD R3, R3, #1
	)

	for range 3 {
		_, status := cpu.Step()
		assert.Equal(STATUS_OK, status)
	}

	assert.Equal(uint16(0), cpu.Register(REG_R2))
	assert.Equal(uint16(1), cpu.Register(REG_R3))
	assert.Equal(uint16(0x3004), cpu.Pc())
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, 0x1265, 0xF025)
	assert.NoError(cpu.Run())
	assert.Equal(uint16(5), cpu.Register(REG_R1))
	assert.True(cpu.Halted())
	assert.Equal(2, cpu.Ticks)

	// Parking the PC on HALT_PC also stops.
	cpu = newTestCpu(t, 0xC040) // JMP R1
	cpu.SetRegister(REG_R1, HALT_PC)
	assert.NoError(cpu.Run())
	assert.False(cpu.Halted())
	assert.True(cpu.Done())

	cpu = newTestCpu(t, 0x0FFF) // BRnzp #-1
	assert.ErrorIs(cpu.RunLimit(10), ErrTickLimit)
	assert.Equal(10, cpu.Ticks)

	cpu = newTestCpu(t, 0x1261, 0xD000)
	err := cpu.Run()
	assert.ErrorIs(err, ErrOpcodeUnknown)
	var exec *ErrExecute
	assert.True(errors.As(err, &exec))
	assert.Equal(uint16(0x3001), exec.Pc)
	assert.Equal(Code(0xD000), exec.Code)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	text := cpu.String()
	assert.Contains(text, "   pc: x0200\n")
	assert.Contains(text, "   R6: x3000\n")
	assert.Contains(text, "  psr: x0002 (z)\n")
}

func TestDefines(t *testing.T) {
	assert := assert.New(t)

	defines := map[string]string{}
	for name, value := range NewCpu().Defines() {
		defines[name] = value
	}

	assert.Equal("0x25", defines["TRAP_HALT"])
	assert.Equal("0x3000", defines["MEMSPACE_USER"])
}
