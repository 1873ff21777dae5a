package cpu

import (
	"errors"
	"strings"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From
var plain = translate.Plain

var (
	// Cpu errors
	ErrOpcodeUnknown   = errors.New(f("opcode unknown"))
	ErrStackInvalid    = errors.New(f("stack frame invalid"))
	ErrTickLimit       = errors.New(f("tick limit reached"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrLoadEmpty       = errors.New(f("object has no origin"))

	// Assembler errors
	ErrOriginMissing    = errors.New(f(".ORIG missing"))
	ErrOriginDuplicate  = errors.New(f(".ORIG duplicated"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrProgramTooLarge  = errors.New(f("program exceeds address space"))
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrStringSyntax     = errors.New(f("string syntax"))
	ErrDirectiveInvalid = errors.New(f("directive invalid"))
	ErrLabelInvalid     = errors.New(f("label invalid"))
	ErrBlockSize        = errors.New(f(".BLKW size must be positive"))

	// Macro errors
	ErrMacroSyntax     = errors.New(f(".macro syntax"))
	ErrMacroNesting    = errors.New(f(".macro nesting not permitted"))
	ErrMacroDuplicate  = errors.New(f(".macro duplicated"))
	ErrMacroLonelyEndm = errors.New(f(".endm without .macro"))
	ErrMacroLonely     = errors.New(f(".macro without .endm"))
)

// ErrLabelMissing is a reference to a label that was never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOperandCount is an instruction with the wrong number of operands.
type ErrOperandCount struct {
	Want int
	Have int
}

func (err *ErrOperandCount) Error() string {
	return f("want %v operands, have %v", err.Want, err.Have)
}

// ErrOperandKind is an operand of the wrong kind.
type ErrOperandKind struct {
	Index int           // 0-based operand index.
	Want  []OperandKind // Acceptable kinds.
	Have  OperandKind
}

func (err *ErrOperandKind) Error() string {
	want := make([]string, len(err.Want))
	for n, kind := range err.Want {
		want[n] = kind.String()
	}
	return f("operand %v must be %v, not %v", err.Index+1, strings.Join(want, " or "), err.Have)
}

// ErrImmediateOverflow is a value that does not fit its field.
type ErrImmediateOverflow struct {
	Width uint
	Value int
	Min   int
	Max   int
}

func (err *ErrImmediateOverflow) Error() string {
	return f("value %v overflows %v-bit field [%v, %v]", plain(err.Value), err.Width, plain(err.Min), plain(err.Max))
}

// ErrLoadBounds is an object that does not fit in memory at its origin.
type ErrLoadBounds struct {
	Origin uint16
	Size   int
}

func (err *ErrLoadBounds) Error() string {
	return f("%v words at origin x%04X exceed the address space", plain(err.Size), err.Origin)
}

// ErrSyntax locates an assembler error in the source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %v '%v' %v", plain(err.LineNo), err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrExecute locates a runtime error at an instruction.
type ErrExecute struct {
	Pc   uint16
	Code Code
	Err  error
}

func (err *ErrExecute) Error() string {
	return f("x%04X: x%04X (%v) %v", err.Pc, uint16(err.Code), err.Code.String(), err.Err)
}

func (err *ErrExecute) Unwrap() error {
	return err.Err
}

// ErrMacro locates an error inside a macro expansion.
type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err *ErrMacro) Error() string {
	return f("macro %v line %v: %v", err.Macro, plain(err.Line), err.Err)
}

func (err *ErrMacro) Unwrap() error {
	return err.Err
}

// ErrParseNumber is a malformed numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseRegister is a malformed register name.
type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

// ErrParseExpression is a $(...) expression that does not evaluate to an
// integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrOpcodeInvalid is an unknown mnemonic.
type ErrOpcodeInvalid string

func (err ErrOpcodeInvalid) Error() string {
	return f("'%v' is not an instruction", string(err))
}
