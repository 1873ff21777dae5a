package cpu

import (
	"iter"
)

// Opcode is the assembled output of a single source line.
type Opcode struct {
	LineNo int    // Source line number.
	Ip     uint16 // Address of the first word.
	Line   string // Source text.
	Codes  []Code // Assembled words.
}

// Program is an assembled program.
type Program struct {
	Origin  uint16       // Load address of the first word.
	Opcodes []Opcode     // Assembled lines, in address order.
	Symbols *SymbolTable // Labels defined by the program.
}

// Debug locates an address in the program listing.
type Debug struct {
	*Opcode
	Index int // Word index within the opcode.
}

// Debug finds the source line that generated the word at ip.
// The Opcode is nil if ip is not part of the program.
func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(ip) >= int(op.Ip) && int(ip) < int(op.Ip)+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(ip - op.Ip),
			}
			break
		}
	}

	return
}

// LineNo returns the source line of the word at ip, or 0.
func (prog *Program) LineNo(ip uint16) int {
	dbg := prog.Debug(ip)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Len is the number of words in the program.
func (prog *Program) Len() (size int) {
	for _, op := range prog.Opcodes {
		size += len(op.Codes)
	}
	return
}

// Binary returns the object word stream: the origin, then every word.
func (prog *Program) Binary() (words []uint16) {
	words = make([]uint16, 0, prog.Len()+1)
	words = append(words, prog.Origin)
	for _, code := range prog.Codes() {
		words = append(words, uint16(code))
	}

	return
}

// Codes iterates over the program words and their addresses.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(ip uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Ip+uint16(n), code) {
					return
				}
			}
		}
	}
}
