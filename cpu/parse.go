// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = func() map[string]string {
	equ := map[string]string{
		"LINENO": "#0",
	}
	for name, value := range _cpu_defines {
		equ[name] = value
	}
	return equ
}()

// opNames maps the mnemonics to their operations.
var opNames = func() map[string]Op {
	names := make(map[string]Op, len(opTable))
	for _, entry := range opTable {
		if entry.op == OP_UNKNOWN {
			continue
		}
		names[entry.name] = entry.op
	}
	return names
}()

var directiveByName = func() map[string]Directive {
	names := make(map[string]Directive, len(directiveNames))
	for dir, name := range directiveNames {
		names[name] = dir
	}
	return names
}()

// trapAlias maps the trap mnemonics to their vectors.
var trapAlias = func() map[string]uint8 {
	names := make(map[string]uint8, len(trapNames))
	for vect, name := range trapNames {
		names[name] = vect
	}
	return names
}()

var (
	reLabel    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	reRegister = regexp.MustCompile(`^[Rr][0-9]+$`)
)

// ParseRecords parses assembly text into structured records, using a
// default Assembler.
func ParseRecords(input io.Reader) (records []Record, err error) {
	asm := &Assembler{}
	return asm.ParseRecords(input)
}

// token is a single lexical word of a source line.
type token struct {
	text   string
	quoted bool // text is the contents of a "..." string.
}

// charEscape maps escaped characters to their values.
var charEscape = map[byte]byte{
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'0':  0,
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'e':  '\033',
}

// tokenize splits a line into words. Commas and whitespace separate words,
// ';' starts a comment, "..." is a string, '.' is a character and $(...) is
// a single word.
func tokenize(line string) (tokens []token, err error) {
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, token{text: word.String()})
			word.Reset()
		}
	}

	for n := 0; n < len(line); n++ {
		c := line[n]
		switch {
		case c == ';':
			flush()
			return
		case c == ' ' || c == '\t' || c == ',':
			flush()
		case c == '"':
			flush()
			var str strings.Builder
			n++
			for ; n < len(line) && line[n] != '"'; n++ {
				c = line[n]
				if c == '\\' {
					n++
					if n >= len(line) {
						break
					}
					esc, ok := charEscape[line[n]]
					if !ok {
						err = ErrStringSyntax
						return
					}
					c = esc
				}
				str.WriteByte(c)
			}
			if n >= len(line) {
				err = ErrStringSyntax
				return
			}
			tokens = append(tokens, token{text: str.String(), quoted: true})
		case c == '\'' && word.Len() == 0:
			end := strings.IndexByte(line[n+1:], '\'')
			if end < 0 {
				err = ErrStringSyntax
				return
			}
			end += n + 1
			word.WriteString(line[n : end+1])
			n = end
		case c == '$' && n+1 < len(line) && line[n+1] == '(':
			depth := 0
			start := n
			for ; n < len(line); n++ {
				if line[n] == '(' {
					depth++
				} else if line[n] == ')' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			if n >= len(line) {
				err = ErrParseExpression(line[start:])
				return
			}
			word.WriteString(line[start : n+1])
		default:
			word.WriteByte(c)
		}
	}

	flush()
	return
}

// charValue decodes a 'c' character literal.
func charValue(word string) (value int, err error) {
	str := word[1 : len(word)-1]
	if len(str) == 2 && str[0] == '\\' {
		esc, ok := charEscape[str[1]]
		if !ok {
			err = ErrParseNumber(word)
			return
		}
		value = int(esc)
		return
	}

	if len(str) != 1 {
		err = ErrParseNumber(word)
		return
	}

	value = int(str[0])
	return
}

// valueOf parses a numeric literal: #decimal, decimal, xHEX, 0xHEX, or a
// character.
func valueOf(word string) (operand Operand, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	if word[0] == '\'' {
		var value int
		value, err = charValue(word)
		if err != nil {
			return
		}
		operand = ImmediateOperand(value)
		return
	}

	text := word
	hex := false
	switch {
	case text[0] == '#':
		text = text[1:]
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		text = text[2:]
		hex = true
	case text[0] == 'x' || text[0] == 'X':
		text = text[1:]
		hex = true
	}

	negative := strings.HasPrefix(text, "-")
	base := 10
	if hex {
		base = 16
	}

	v64, perr := strconv.ParseInt(text, base, 32)
	if perr != nil {
		err = ErrParseNumber(word)
		return
	}

	if hex {
		operand = LiteralOperand(int(v64), 16)
	} else {
		operand = ImmediateOperand(int(v64))
	}
	operand.Negative = negative

	return
}

// isHexLiteral returns true if word reads as an xHEX literal, so could not
// be referenced as a label.
func isHexLiteral(word string) bool {
	if len(word) < 2 || (word[0] != 'x' && word[0] != 'X') {
		return false
	}
	_, err := valueOf(word)
	return err == nil
}

// parseOperand classifies a word as a register, immediate, label or string.
func parseOperand(tok token) (operand Operand, err error) {
	if tok.quoted {
		operand = StringOperand(tok.text)
		return
	}

	word := tok.text
	if reRegister.MatchString(word) {
		var index int
		index, err = strconv.Atoi(word[1:])
		if err != nil || index >= REG_COUNT {
			err = ErrParseRegister(word)
			return
		}
		operand = RegisterOperand(Reg(index))
		return
	}

	switch c := word[0]; {
	case c == '#' || c == '-' || c == '\'' || (c >= '0' && c <= '9'):
		operand, err = valueOf(word)
		return
	case isHexLiteral(word):
		operand, err = valueOf(word)
		return
	}

	if !reLabel.MatchString(word) {
		err = ErrParseNumber(word)
		return
	}

	operand = LabelOperand(word)
	return
}

// parseBranch decodes a BR mnemonic with its n/z/p suffix, in any order.
func parseBranch(mnemonic string) (cond CodeCond, ok bool) {
	if !strings.HasPrefix(mnemonic, "BR") {
		return
	}

	for _, c := range mnemonic[2:] {
		var bit CodeCond
		switch c {
		case 'N':
			bit = COND_N
		case 'Z':
			bit = COND_Z
		case 'P':
			bit = COND_P
		default:
			return
		}
		if cond&bit != 0 {
			return
		}
		cond |= bit
	}

	ok = true
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		operand, err := valueOf(str)
		if err != nil || operand.Kind != OPERAND_IMMEDIATE {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(operand.Value)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// expand substitutes character literals, $(...) expressions and equates.
func (asm *Assembler) expand(tokens []token) (err error) {
	for n, tok := range tokens {
		if tok.quoted {
			continue
		}

		word := tok.text
		switch {
		case strings.HasPrefix(word, "$("):
			var value int
			value, err = asm.parenEval(word[2 : len(word)-1])
			if err != nil {
				return
			}
			tokens[n].text = fmt.Sprintf("#%d", value)
		case strings.HasPrefix(word, "'"):
			var value int
			value, err = charValue(word)
			if err != nil {
				return
			}
			tokens[n].text = fmt.Sprintf("#%d", value)
		default:
			equate, ok := asm.Equate[word]
			if ok {
				tokens[n].text = equate
			}
		}
	}

	return
}

// parseLine parses a single line into zero or more records.
func (asm *Assembler) parseLine(line string, lineno int) (records []Record, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("#%d", lineno)

	tokens, err := tokenize(line)
	if err != nil {
		return
	}

	if len(tokens) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(tokens[0].text, ".equ") {
		if len(tokens) != 3 || tokens[2].quoted || !reLabel.MatchString(tokens[1].text) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[tokens[1].text]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		value := tokens[2:]
		err = asm.expand(value)
		if err != nil {
			return
		}
		asm.Equate[tokens[1].text] = value[0].text
		return
	}

	err = asm.expand(tokens[1:])
	if err != nil {
		return
	}

	rec := Record{
		LineNo: lineno,
		Line:   strings.TrimSpace(line),
	}

	// Label, with or without a trailing ':'
	first := tokens[0].text
	if strings.HasSuffix(first, ":") || !asm.isMnemonic(first) {
		label := strings.TrimSuffix(first, ":")
		if !reLabel.MatchString(label) || reRegister.MatchString(label) {
			if strings.HasSuffix(first, ":") {
				err = ErrLabelInvalid
			} else {
				err = ErrOpcodeInvalid(first)
			}
			return
		}
		if isHexLiteral(label) {
			err = ErrLabelInvalid
			return
		}
		rec.Label = label
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		records = append(records, rec)
		return
	}

	// .macro processing
	if macro, ok := asm.Macro[tokens[0].text]; ok {
		if len(rec.Label) > 0 {
			records = append(records, Record{LineNo: lineno, Line: rec.Line, Label: rec.Label})
		}
		var expanded []Record
		expanded, err = asm.expandMacro(tokens[0].text, macro, tokens[1:])
		if err != nil {
			return
		}
		records = append(records, expanded...)
		return
	}

	mnemonic := strings.ToUpper(tokens[0].text)
	args := tokens[1:]

	var operands []Operand
	for _, tok := range args {
		var operand Operand
		operand, err = parseOperand(tok)
		if err != nil {
			return
		}
		operands = append(operands, operand)
	}

	if dir, ok := directiveByName[mnemonic]; ok {
		rec.Directive = dir
		rec.Operands = operands
		records = append(records, rec)
		return
	}

	if vect, ok := trapAlias[mnemonic]; ok {
		if len(operands) != 0 {
			err = &ErrOperandCount{Want: 0, Have: len(operands)}
			return
		}
		rec.Op = OP_TRAP
		rec.Operands = []Operand{LiteralOperand(int(vect), 8)}
		records = append(records, rec)
		return
	}

	switch mnemonic {
	case "RET":
		if len(operands) != 0 {
			err = &ErrOperandCount{Want: 0, Have: len(operands)}
			return
		}
		rec.Op = OP_JMP
		operands = []Operand{RegisterOperand(REG_LINK)}
	case "JSRR":
		rec.Op = OP_JSR
		if len(operands) != 1 {
			err = &ErrOperandCount{Want: 1, Have: len(operands)}
			return
		}
		if operands[0].Kind != OPERAND_REGISTER {
			err = &ErrOperandKind{Index: 0, Want: kindReg, Have: operands[0].Kind}
			return
		}
	default:
		if cond, ok := parseBranch(mnemonic); ok {
			rec.Op = OP_BR
			rec.Cond = cond
			break
		}
		op, ok := opNames[mnemonic]
		if !ok {
			err = ErrOpcodeInvalid(tokens[0].text)
			return
		}
		rec.Op = op
	}

	rec.Operands = operands
	records = append(records, rec)
	return
}

// isMnemonic returns true if the word names an instruction, alias,
// directive or macro.
func (asm *Assembler) isMnemonic(word string) bool {
	if _, ok := asm.Macro[word]; ok {
		return true
	}

	upper := strings.ToUpper(word)
	if _, ok := opNames[upper]; ok {
		return true
	}
	if _, ok := directiveByName[upper]; ok {
		return true
	}
	if _, ok := trapAlias[upper]; ok {
		return true
	}
	if _, ok := parseBranch(upper); ok {
		return true
	}

	switch upper {
	case "RET", "JSRR":
		return true
	}

	return false
}

// expandMacro expands a macro invocation into records.
func (asm *Assembler) expandMacro(name string, macro *Macro, args []token) (records []Record, err error) {
	if len(args) != len(macro.Args) {
		err = ErrMacroSyntax
		return
	}

	asm.expansions++
	expansion := asm.expansions

	// Turn args into equs
	old_equate := maps.Clone(asm.Equate)
	for n, arg := range macro.Args {
		asm.Equate[arg] = args[n].text
	}
	defer func() { asm.Equate = old_equate }()

	for n, line := range macro.Lines {
		lineno := macro.LineNo + n

		line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, expansion))

		var expanded []Record
		expanded, err = asm.parseLine(line, lineno)
		if err != nil {
			err = &ErrMacro{Macro: name, Line: lineno, Err: err}
			return
		}
		records = append(records, expanded...)
	}

	return
}

// ParseRecords parses an input stream into structured records.
func (asm *Assembler) ParseRecords(input io.Reader) (records []Record, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			records = nil
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Macro = make(map[string](*Macro))
	asm.expansions = 0
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(text)

		var words []string
		if before, _, _ := strings.Cut(line, ";"); len(before) > 0 {
			words = strings.Fields(before)
		}

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 || !reLabel.MatchString(words[1]) {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		var parsed []Record
		parsed, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
		records = append(records, parsed...)
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	return
}
