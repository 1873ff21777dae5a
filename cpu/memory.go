package cpu

import (
	"slices"
)

// MEMORY_SIZE is the number of words in the address space.
const MEMORY_SIZE = 1 << 16

// Memory is the word-addressed main memory. Addresses are 16 bits, so every
// access is within bounds and wraps modulo the address space.
type Memory struct {
	word [MEMORY_SIZE]uint16
}

// Read returns the word at addr.
func (mem *Memory) Read(addr uint16) uint16 {
	return mem.word[addr]
}

// Write sets the word at addr.
func (mem *Memory) Write(addr uint16, value uint16) {
	mem.word[addr] = value
}

// Reset clears all of memory to zero.
func (mem *Memory) Reset() {
	clear(mem.word[:])
}

// Load copies words into memory starting at origin.
func (mem *Memory) Load(origin uint16, words []uint16) (err error) {
	if int(origin)+len(words) > MEMORY_SIZE {
		err = &ErrLoadBounds{Origin: origin, Size: len(words)}
		return
	}

	copy(mem.word[origin:], words)
	return
}

// Snapshot returns a copy of the whole memory.
func (mem *Memory) Snapshot() []uint16 {
	return slices.Clone(mem.word[:])
}
