// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"io"
	"log"
	"unicode/utf8"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Assembler is a two pass assembler. Parse() accepts assembly text, and
// Assemble() accepts pre-parsed records.
type Assembler struct {
	Verbose bool         // If set, verbosely logs the assembler actions.
	Symbols *SymbolTable // Labels of the last assembled program.

	predefine map[string]string   // Predefines
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Macro expansion counter, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	records, err := asm.ParseRecords(input)
	if err != nil {
		return
	}

	prog, err = asm.Assemble(records)
	return
}

// Assemble resolves labels and encodes the records into a Program.
//
// The first non-blank record must be a .ORIG. Every error is returned as
// an ErrSyntax locating the record that caused it.
func (asm *Assembler) Assemble(records []Record) (prog *Program, err error) {
	var rec *Record

	defer func() {
		if err != nil {
			prog = nil
			if rec != nil {
				err = &ErrSyntax{LineNo: rec.LineNo, Line: rec.Line, Err: err}
			} else {
				err = &ErrSyntax{Err: err}
			}
		}
	}()

	asm.Symbols = NewSymbolTable()

	// Origin
	start := -1
	for n := range records {
		if !records[n].Blank() {
			start = n
			break
		}
	}
	if start < 0 {
		err = ErrOriginMissing
		return
	}

	rec = &records[start]
	if rec.Directive != DIRECTIVE_ORIG || len(rec.Label) != 0 {
		err = ErrOriginMissing
		return
	}
	err = checkOperands(directiveLayout[DIRECTIVE_ORIG], rec.Operands)
	if err != nil {
		return
	}
	value, err := CheckUnsigned(rec.Operands[0].Value, 16)
	if err != nil {
		return
	}
	origin := value

	if asm.Verbose {
		log.Printf("asm: origin x%04X", origin)
	}

	// Pass 1: label collection.
	body := records[start+1:]
	addrs := make([]int, 0, len(body))
	addr := int(origin)
	for n := range body {
		rec = &body[n]

		if rec.Directive == DIRECTIVE_END {
			break
		}
		if rec.Directive == DIRECTIVE_ORIG {
			err = ErrOriginDuplicate
			return
		}

		var size int
		size, err = rec.Size()
		if err != nil {
			return
		}

		if addr+size > MEMORY_SIZE || (len(rec.Label) > 0 && addr >= MEMORY_SIZE) {
			err = ErrProgramTooLarge
			return
		}

		if len(rec.Label) > 0 {
			err = asm.Symbols.Define(rec.Label, uint16(addr))
			if err != nil {
				return
			}
			if asm.Verbose {
				log.Printf("asm: %v = x%04X", rec.Label, addr)
			}
		}

		addrs = append(addrs, addr)
		addr += size
	}

	// Pass 2: encode.
	prog = &Program{
		Origin:  origin,
		Symbols: asm.Symbols,
	}
	for n, addr := range addrs {
		rec = &body[n]

		var codes []Code
		codes, err = asm.encode(rec, uint16(addr))
		if err != nil {
			return
		}
		if len(codes) == 0 {
			continue
		}

		if asm.Verbose {
			log.Printf("asm: x%04X: %v", addr, rec)
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo: rec.LineNo,
			Ip:     uint16(addr),
			Line:   rec.Line,
			Codes:  codes,
		})
	}

	return
}

// resolve returns the address of a label operand.
func (asm *Assembler) resolve(operand Operand) (addr uint16, err error) {
	addr, ok := asm.Symbols.Lookup(operand.Label)
	if !ok {
		err = ErrLabelMissing(operand.Label)
	}
	return
}

// pcOffset encodes a PC-relative target. Labels are relative to the word
// after addr; immediates are the offset itself.
func (asm *Assembler) pcOffset(operand Operand, addr uint16, width uint) (bits uint16, err error) {
	offset := operand.Signed()
	if operand.Kind == OPERAND_LABEL {
		var target uint16
		target, err = asm.resolve(operand)
		if err != nil {
			return
		}
		offset = int(target) - (int(addr) + 1)
	}

	bits, err = CheckSigned(offset, width)
	return
}

// encodeDirective encodes the data words of a directive.
func (asm *Assembler) encodeDirective(rec *Record) (codes []Code, err error) {
	layout, ok := directiveLayout[rec.Directive]
	if !ok {
		err = ErrDirectiveInvalid
		return
	}

	err = checkOperands(layout, rec.Operands)
	if err != nil {
		return
	}

	switch rec.Directive {
	case DIRECTIVE_FILL:
		operand := rec.Operands[0]
		if operand.Kind == OPERAND_LABEL {
			var addr uint16
			addr, err = asm.resolve(operand)
			if err != nil {
				return
			}
			codes = []Code{Code(addr)}
			return
		}
		if operand.Value < -(1<<15) || operand.Value >= (1<<16) {
			err = &ErrImmediateOverflow{Width: 16, Value: operand.Value, Min: -(1 << 15), Max: (1 << 16) - 1}
			return
		}
		codes = []Code{Code(uint16(operand.Value))}
	case DIRECTIVE_BLKW:
		codes = make([]Code, rec.Operands[0].Value)
	case DIRECTIVE_STRINGZ:
		text := rec.Operands[0].Text
		codes = make([]Code, 0, utf8.RuneCountInString(text)+1)
		for _, r := range text {
			codes = append(codes, Code(uint16(r)))
		}
		codes = append(codes, 0)
	}

	return
}

// encode assembles a single record at addr.
func (asm *Assembler) encode(rec *Record, addr uint16) (codes []Code, err error) {
	if rec.Op == OP_NONE {
		if rec.Directive == DIRECTIVE_NONE {
			return
		}
		return asm.encodeDirective(rec)
	}

	layout, ok := opLayout[rec.Op]
	if !ok {
		err = ErrOpcodeInvalid(rec.Op.String())
		return
	}

	err = checkOperands(layout, rec.Operands)
	if err != nil {
		return
	}

	ops := rec.Operands
	code := MakeCode(rec.Op)

	var bits uint16
	switch rec.Op {
	case OP_ADD, OP_AND:
		code = code.With(FIELD_DR, uint16(ops[0].Register)).
			With(FIELD_SR1, uint16(ops[1].Register))
		if ops[2].Kind == OPERAND_REGISTER {
			code = code.With(FIELD_SR2, uint16(ops[2].Register))
		} else {
			bits, err = CheckSigned(ops[2].Signed(), FIELD_IMM5.Width)
			if err != nil {
				return
			}
			code = code.With(FIELD_IMM_FLAG, 1).With(FIELD_IMM5, bits)
		}
	case OP_NOT:
		code = code.With(FIELD_DR, uint16(ops[0].Register)).
			With(FIELD_SR1, uint16(ops[1].Register)).
			With(FIELD_NOT_ONES, fieldMask(FIELD_NOT_ONES.Width))
	case OP_BR:
		cond := rec.Cond
		if cond == COND_NONE {
			cond = COND_NZP
		}
		bits, err = asm.pcOffset(ops[0], addr, FIELD_PCOFFSET9.Width)
		if err != nil {
			return
		}
		code = code.With(FIELD_COND, uint16(cond)).With(FIELD_PCOFFSET9, bits)
	case OP_JMP:
		code = code.With(FIELD_SR1, uint16(ops[0].Register))
	case OP_JSR:
		if ops[0].Kind == OPERAND_REGISTER {
			code = code.With(FIELD_SR1, uint16(ops[0].Register))
			break
		}
		bits, err = asm.pcOffset(ops[0], addr, FIELD_PCOFFSET11.Width)
		if err != nil {
			return
		}
		code = code.With(FIELD_JSR_FLAG, 1).With(FIELD_PCOFFSET11, bits)
	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		bits, err = asm.pcOffset(ops[1], addr, FIELD_PCOFFSET9.Width)
		if err != nil {
			return
		}
		code = code.With(FIELD_DR, uint16(ops[0].Register)).With(FIELD_PCOFFSET9, bits)
	case OP_LDR, OP_STR:
		bits, err = CheckSigned(ops[2].Signed(), FIELD_OFFSET6.Width)
		if err != nil {
			return
		}
		code = code.With(FIELD_DR, uint16(ops[0].Register)).
			With(FIELD_SR1, uint16(ops[1].Register)).
			With(FIELD_OFFSET6, bits)
	case OP_TRAP:
		bits, err = CheckUnsigned(ops[0].Value, FIELD_TRAPVECT8.Width)
		if err != nil {
			return
		}
		code = code.With(FIELD_TRAPVECT8, bits)
	case OP_RTI:
		// No operands.
	}

	codes = []Code{code}
	return
}
