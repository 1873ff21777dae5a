package cpu

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// OperandKind is the syntactic class of an operand.
type OperandKind int

const (
	OPERAND_NONE = OperandKind(iota)
	OPERAND_REGISTER
	OPERAND_IMMEDIATE
	OPERAND_LABEL
	OPERAND_STRING
)

func (kind OperandKind) String() string {
	switch kind {
	case OPERAND_REGISTER:
		return "register"
	case OPERAND_IMMEDIATE:
		return "immediate"
	case OPERAND_LABEL:
		return "label"
	case OPERAND_STRING:
		return "string"
	}
	return "none"
}

// Operand is a single instruction or directive argument.
type Operand struct {
	Kind     OperandKind
	Register Reg    // OPERAND_REGISTER
	Value    int    // OPERAND_IMMEDIATE, as written.
	Width    uint   // OPERAND_IMMEDIATE source width; 0 for decimal literals.
	Negative bool   // OPERAND_IMMEDIATE was written with a minus sign.
	Label    string // OPERAND_LABEL
	Text     string // OPERAND_STRING
}

// RegisterOperand returns a register operand.
func RegisterOperand(r Reg) Operand {
	return Operand{Kind: OPERAND_REGISTER, Register: r}
}

// ImmediateOperand returns a decimal immediate operand.
func ImmediateOperand(value int) Operand {
	return Operand{Kind: OPERAND_IMMEDIATE, Value: value, Negative: value < 0}
}

// LiteralOperand returns an immediate operand written as a raw bit pattern
// of the given width, such as a hexadecimal literal.
func LiteralOperand(value int, width uint) Operand {
	return Operand{Kind: OPERAND_IMMEDIATE, Value: value, Width: width, Negative: value < 0}
}

// LabelOperand returns a label reference.
func LabelOperand(label string) Operand {
	return Operand{Kind: OPERAND_LABEL, Label: label}
}

// StringOperand returns a string operand.
func StringOperand(text string) Operand {
	return Operand{Kind: OPERAND_STRING, Text: text}
}

// Signed returns the immediate as a signed integer. A non-negative raw
// literal whose source-width sign bit is set is already a two's-complement
// pattern, and is returned sign-extended.
func (o Operand) Signed() int {
	if o.Negative || o.Width == 0 || o.Width > 16 {
		return o.Value
	}

	limit := 1 << o.Width
	if o.Value < limit && o.Value&(limit>>1) != 0 {
		return o.Value - limit
	}

	return o.Value
}

func (o Operand) String() string {
	switch o.Kind {
	case OPERAND_REGISTER:
		return o.Register.String()
	case OPERAND_IMMEDIATE:
		if o.Width > 0 && !o.Negative {
			return fmt.Sprintf("x%X", o.Value)
		}
		return fmt.Sprintf("#%d", o.Value)
	case OPERAND_LABEL:
		return o.Label
	case OPERAND_STRING:
		return fmt.Sprintf("%q", o.Text)
	}
	return ""
}

// Directive is an assembler pseudo-operation.
type Directive int

const (
	DIRECTIVE_NONE = Directive(iota)
	DIRECTIVE_ORIG
	DIRECTIVE_FILL
	DIRECTIVE_BLKW
	DIRECTIVE_STRINGZ
	DIRECTIVE_END
)

var directiveNames = map[Directive]string{
	DIRECTIVE_ORIG:    ".ORIG",
	DIRECTIVE_FILL:    ".FILL",
	DIRECTIVE_BLKW:    ".BLKW",
	DIRECTIVE_STRINGZ: ".STRINGZ",
	DIRECTIVE_END:     ".END",
}

func (dir Directive) String() string {
	return directiveNames[dir]
}

// Record is one structured source line: an optional label and at most one
// of a directive or an instruction.
type Record struct {
	LineNo    int       // 1-based source line.
	Line      string    // Source text.
	Label     string    // Label bound to the first word of the record.
	Directive Directive // Pseudo-operation, if any.
	Op        Op        // Operation, or OP_NONE.
	Cond      CodeCond  // BR condition; COND_NONE means unconditional.
	Operands  []Operand
}

// Blank returns true if the record has no label, directive or operation.
func (rec *Record) Blank() bool {
	return len(rec.Label) == 0 && rec.Directive == DIRECTIVE_NONE && rec.Op == OP_NONE
}

// Size returns the number of words the record occupies.
func (rec *Record) Size() (size int, err error) {
	if rec.Op != OP_NONE {
		size = 1
		return
	}

	switch rec.Directive {
	case DIRECTIVE_FILL:
		size = 1
	case DIRECTIVE_BLKW:
		err = checkOperands(directiveLayout[rec.Directive], rec.Operands)
		if err != nil {
			return
		}
		size = rec.Operands[0].Value
		if size < 1 {
			err = ErrBlockSize
			size = 0
		}
	case DIRECTIVE_STRINGZ:
		err = checkOperands(directiveLayout[rec.Directive], rec.Operands)
		if err != nil {
			return
		}
		// Characters are one byte wide.
		for _, r := range rec.Operands[0].Text {
			if r > 0xFF {
				err = ErrStringSyntax
				return
			}
		}
		size = utf8.RuneCountInString(rec.Operands[0].Text) + 1
	}

	return
}

func (rec *Record) String() string {
	var parts []string

	if len(rec.Label) > 0 {
		parts = append(parts, rec.Label)
	}

	switch {
	case rec.Op == OP_BR:
		parts = append(parts, "BR"+rec.Cond.String())
	case rec.Op != OP_NONE:
		parts = append(parts, rec.Op.String())
	case rec.Directive != DIRECTIVE_NONE:
		parts = append(parts, rec.Directive.String())
	}

	var args []string
	for _, operand := range rec.Operands {
		args = append(args, operand.String())
	}
	if len(args) > 0 {
		parts = append(parts, strings.Join(args, ", "))
	}

	return strings.Join(parts, " ")
}
