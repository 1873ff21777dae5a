package cpu

var (
	kindReg      = []OperandKind{OPERAND_REGISTER}
	kindImm      = []OperandKind{OPERAND_IMMEDIATE}
	kindRegImm   = []OperandKind{OPERAND_REGISTER, OPERAND_IMMEDIATE}
	kindTarget   = []OperandKind{OPERAND_LABEL, OPERAND_IMMEDIATE}
	kindSubr     = []OperandKind{OPERAND_LABEL, OPERAND_IMMEDIATE, OPERAND_REGISTER}
	kindImmLabel = []OperandKind{OPERAND_IMMEDIATE, OPERAND_LABEL}
	kindString   = []OperandKind{OPERAND_STRING}
)

// opLayout is the acceptable operand kinds, per position, of each operation.
var opLayout = map[Op][][]OperandKind{
	OP_ADD:  {kindReg, kindReg, kindRegImm},
	OP_AND:  {kindReg, kindReg, kindRegImm},
	OP_NOT:  {kindReg, kindReg},
	OP_BR:   {kindTarget},
	OP_JMP:  {kindReg},
	OP_JSR:  {kindSubr},
	OP_LD:   {kindReg, kindTarget},
	OP_LDI:  {kindReg, kindTarget},
	OP_LEA:  {kindReg, kindTarget},
	OP_ST:   {kindReg, kindTarget},
	OP_STI:  {kindReg, kindTarget},
	OP_LDR:  {kindReg, kindReg, kindImm},
	OP_STR:  {kindReg, kindReg, kindImm},
	OP_TRAP: {kindImm},
	OP_RTI:  {},
}

// directiveLayout is the acceptable operand kinds of each directive.
var directiveLayout = map[Directive][][]OperandKind{
	DIRECTIVE_ORIG:    {kindImm},
	DIRECTIVE_FILL:    {kindImmLabel},
	DIRECTIVE_BLKW:    {kindImm},
	DIRECTIVE_STRINGZ: {kindString},
	DIRECTIVE_END:     {},
}

// checkOperands validates operand count, kinds and register indices
// against a layout.
func checkOperands(layout [][]OperandKind, operands []Operand) (err error) {
	if len(operands) != len(layout) {
		err = &ErrOperandCount{Want: len(layout), Have: len(operands)}
		return
	}

	for n, operand := range operands {
		ok := false
		for _, kind := range layout[n] {
			if operand.Kind == kind {
				ok = true
				break
			}
		}
		if !ok {
			err = &ErrOperandKind{Index: n, Want: layout[n], Have: operand.Kind}
			return
		}
		if operand.Kind == OPERAND_REGISTER && !operand.Register.Valid() {
			err = ErrRegisterInvalid
			return
		}
	}

	return
}
