package cpu

// BitField is a field of an instruction word, counted from the LSB.
type BitField struct {
	Offset uint // Bit position of the field LSB.
	Width  uint // Width of the field in bits.
}

// Instruction word fields.
var (
	FIELD_OPCODE     = BitField{12, 4}
	FIELD_DR         = BitField{9, 3} // Also SR for the store operations.
	FIELD_SR1        = BitField{6, 3} // Also BaseR.
	FIELD_SR2        = BitField{0, 3}
	FIELD_IMM_FLAG   = BitField{5, 1}
	FIELD_IMM5       = BitField{0, 5}
	FIELD_OFFSET6    = BitField{0, 6}
	FIELD_PCOFFSET9  = BitField{0, 9}
	FIELD_PCOFFSET11 = BitField{0, 11}
	FIELD_COND       = BitField{9, 3}
	FIELD_JSR_FLAG   = BitField{11, 1}
	FIELD_TRAPVECT8  = BitField{0, 8}
	FIELD_NOT_ONES   = BitField{0, 6}
)

// fieldMask returns the low 'width' bits set.
func fieldMask(width uint) uint16 {
	return uint16(1)<<width - 1
}

// Get extracts the field from a word.
func (bf BitField) Get(word uint16) uint16 {
	return (word >> bf.Offset) & fieldMask(bf.Width)
}

// Signed extracts the field from a word and sign-extends it to 16 bits.
func (bf BitField) Signed(word uint16) uint16 {
	return SignExtend(bf.Get(word), bf.Width)
}

// Set returns word with the field replaced by the low bits of value.
func (bf BitField) Set(word uint16, value uint16) uint16 {
	mask := fieldMask(bf.Width) << bf.Offset
	return (word &^ mask) | ((value << bf.Offset) & mask)
}

// SignExtend replicates bit (width-1) of value into all higher bits.
// Bits of value above width are ignored.
func SignExtend(value uint16, width uint) uint16 {
	if width == 0 || width >= 16 {
		return value
	}

	mask := fieldMask(width)
	value &= mask
	if value&(1<<(width-1)) != 0 {
		value |= ^mask
	}

	return value
}

// SignedRange returns the two's-complement bounds of a width-bit field.
func SignedRange(width uint) (min, max int) {
	min = -(1 << (width - 1))
	max = (1 << (width - 1)) - 1
	return
}

// CheckSigned range checks value against a signed width-bit field, and
// returns its encoded bit pattern.
func CheckSigned(value int, width uint) (bits uint16, err error) {
	min, max := SignedRange(width)
	if value < min || value > max {
		err = &ErrImmediateOverflow{Width: width, Value: value, Min: min, Max: max}
		return
	}

	bits = uint16(value) & fieldMask(width)
	return
}

// CheckUnsigned range checks value against an unsigned width-bit field.
func CheckUnsigned(value int, width uint) (bits uint16, err error) {
	max := (1 << width) - 1
	if value < 0 || value > max {
		err = &ErrImmediateOverflow{Width: width, Value: value, Min: 0, Max: max}
		return
	}

	bits = uint16(value)
	return
}
