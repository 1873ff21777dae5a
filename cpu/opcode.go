package cpu

import (
	"fmt"
)

// Op is an operation identifier.
type Op int

const (
	OP_NONE    = Op(iota) // No operation (a record without an instruction).
	OP_UNKNOWN            // Unrecognized opcode field.
	OP_ADD
	OP_AND
	OP_BR
	OP_JMP
	OP_JSR
	OP_LD
	OP_LDI
	OP_LDR
	OP_LEA
	OP_NOT
	OP_RTI
	OP_ST
	OP_STI
	OP_STR
	OP_TRAP
)

// opEntry is a row of the opcode table.
type opEntry struct {
	op   Op
	name string
}

// opTable maps the 4-bit opcode field to its operation. Both decode and
// encode are derived from it.
var opTable = [16]opEntry{
	0b0000: {OP_BR, "BR"},
	0b0001: {OP_ADD, "ADD"},
	0b0010: {OP_LD, "LD"},
	0b0011: {OP_ST, "ST"},
	0b0100: {OP_JSR, "JSR"},
	0b0101: {OP_AND, "AND"},
	0b0110: {OP_LDR, "LDR"},
	0b0111: {OP_STR, "STR"},
	0b1000: {OP_RTI, "RTI"},
	0b1001: {OP_NOT, "NOT"},
	0b1010: {OP_LDI, "LDI"},
	0b1011: {OP_STI, "STI"},
	0b1100: {OP_JMP, "JMP"},
	0b1101: {OP_UNKNOWN, "UNKNOWN"}, // Reserved.
	0b1110: {OP_LEA, "LEA"},
	0b1111: {OP_TRAP, "TRAP"},
}

// opField is the reverse index of opTable.
var opField = func() map[Op]uint16 {
	index := make(map[Op]uint16, len(opTable))
	for field, entry := range opTable {
		if entry.op == OP_UNKNOWN {
			continue
		}
		index[entry.op] = uint16(field)
	}
	return index
}()

// DecodeOp returns the operation encoded in bits 15..12 of word.
func DecodeOp(word uint16) Op {
	return opTable[FIELD_OPCODE.Get(word)].op
}

// Encode returns a word with only the opcode bits of op set.
// ok is false for OP_NONE and OP_UNKNOWN, which have no encoding.
func (op Op) Encode() (word uint16, ok bool) {
	field, ok := opField[op]
	if !ok {
		return
	}

	word = FIELD_OPCODE.Set(0, field)
	return
}

// String returns the mnemonic of the operation.
func (op Op) String() string {
	if op == OP_NONE {
		return "NONE"
	}

	if field, ok := opField[op]; ok {
		return opTable[field].name
	}

	return "UNKNOWN"
}

// Reg is a general-purpose register index.
type Reg int

const (
	REG_R0 = Reg(iota)
	REG_R1
	REG_R2
	REG_R3
	REG_R4
	REG_R5
	REG_R6
	REG_R7

	REG_COUNT = 8 // Number of general purpose registers.

	REG_SP   = REG_R6 // Active stack pointer.
	REG_LINK = REG_R7 // Subroutine return address.
)

// Valid returns true if the register index is in [0,7].
func (r Reg) Valid() bool {
	return r >= 0 && r < REG_COUNT
}

// String returns the register name.
func (r Reg) String() string {
	return fmt.Sprintf("R%d", int(r))
}

// CodeCond is a set of N/Z/P condition code bits. The same bit layout is
// used in the processor status word and in the BR instruction.
type CodeCond uint16

const (
	COND_NONE = CodeCond(0)
	COND_P    = CodeCond(1 << 0)
	COND_Z    = CodeCond(1 << 1)
	COND_N    = CodeCond(1 << 2)
	COND_NZP  = COND_N | COND_Z | COND_P
)

// String returns the lowercase n/z/p letters of the set.
func (cc CodeCond) String() (out string) {
	if cc&COND_N != 0 {
		out += "n"
	}
	if cc&COND_Z != 0 {
		out += "z"
	}
	if cc&COND_P != 0 {
		out += "p"
	}
	return
}

// condOf returns the single condition code describing value.
func condOf(value uint16) CodeCond {
	switch {
	case value == 0:
		return COND_Z
	case int16(value) < 0:
		return COND_N
	default:
		return COND_P
	}
}

// Code is a single instruction word.
type Code uint16

// MakeCode creates an instruction word with the opcode bits of op.
func MakeCode(op Op) Code {
	word, _ := op.Encode()
	return Code(word)
}

// With returns the code with field set to value.
func (code Code) With(field BitField, value uint16) Code {
	return Code(field.Set(uint16(code), value))
}

// Op returns the operation of the instruction word.
func (code Code) Op() Op {
	return DecodeOp(uint16(code))
}

// Dr returns the destination (or store source) register field.
func (code Code) Dr() Reg {
	return Reg(FIELD_DR.Get(uint16(code)))
}

// Sr1 returns the first source (or base) register field.
func (code Code) Sr1() Reg {
	return Reg(FIELD_SR1.Get(uint16(code)))
}

// Sr2 returns the second source register field.
func (code Code) Sr2() Reg {
	return Reg(FIELD_SR2.Get(uint16(code)))
}

// Immediate returns true if the ADD/AND immediate flag is set.
func (code Code) Immediate() bool {
	return FIELD_IMM_FLAG.Get(uint16(code)) == 1
}

// Imm5 returns the sign-extended 5-bit immediate.
func (code Code) Imm5() uint16 {
	return FIELD_IMM5.Signed(uint16(code))
}

// Offset6 returns the sign-extended 6-bit base offset.
func (code Code) Offset6() uint16 {
	return FIELD_OFFSET6.Signed(uint16(code))
}

// PcOffset9 returns the sign-extended 9-bit PC offset.
func (code Code) PcOffset9() uint16 {
	return FIELD_PCOFFSET9.Signed(uint16(code))
}

// PcOffset11 returns the sign-extended 11-bit PC offset.
func (code Code) PcOffset11() uint16 {
	return FIELD_PCOFFSET11.Signed(uint16(code))
}

// Cond returns the BR condition bits.
func (code Code) Cond() CodeCond {
	return CodeCond(FIELD_COND.Get(uint16(code)))
}

// Link returns true if the JSR PC-relative flag is set.
func (code Code) Link() bool {
	return FIELD_JSR_FLAG.Get(uint16(code)) == 1
}

// TrapVect returns the zero-extended trap vector.
func (code Code) TrapVect() uint8 {
	return uint8(FIELD_TRAPVECT8.Get(uint16(code)))
}

// trapNames are the assembler aliases for the standard trap vectors.
var trapNames = map[uint8]string{
	TRAP_GETC:  "GETC",
	TRAP_OUT:   "OUT",
	TRAP_PUTS:  "PUTS",
	TRAP_IN:    "IN",
	TRAP_PUTSP: "PUTSP",
	TRAP_HALT:  "HALT",
}

// String returns the assembly language representation of the word.
// PC offsets are shown relative, as the word does not know its address.
func (code Code) String() string {
	op := code.Op()

	switch op {
	case OP_ADD, OP_AND:
		if code.Immediate() {
			return fmt.Sprintf("%v %v, %v, #%d", op, code.Dr(), code.Sr1(), int16(code.Imm5()))
		}
		return fmt.Sprintf("%v %v, %v, %v", op, code.Dr(), code.Sr1(), code.Sr2())
	case OP_NOT:
		return fmt.Sprintf("%v %v, %v", op, code.Dr(), code.Sr1())
	case OP_BR:
		cond := code.Cond()
		if cond == COND_NONE {
			return "NOP"
		}
		return fmt.Sprintf("BR%v #%d", cond, int16(code.PcOffset9()))
	case OP_JMP:
		if code.Sr1() == REG_LINK {
			return "RET"
		}
		return fmt.Sprintf("%v %v", op, code.Sr1())
	case OP_JSR:
		if code.Link() {
			return fmt.Sprintf("%v #%d", op, int16(code.PcOffset11()))
		}
		return fmt.Sprintf("JSRR %v", code.Sr1())
	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		return fmt.Sprintf("%v %v, #%d", op, code.Dr(), int16(code.PcOffset9()))
	case OP_LDR, OP_STR:
		return fmt.Sprintf("%v %v, %v, #%d", op, code.Dr(), code.Sr1(), int16(code.Offset6()))
	case OP_TRAP:
		if name, ok := trapNames[code.TrapVect()]; ok {
			return name
		}
		return fmt.Sprintf("%v x%02X", op, code.TrapVect())
	case OP_RTI:
		return op.String()
	}

	return fmt.Sprintf(".FILL x%04X", uint16(code))
}

