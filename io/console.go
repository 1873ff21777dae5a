// Package io provides the host side I/O of the LC-3 emulator: the character
// console serviced by the GETC/OUT/PUTS/IN/PUTSP traps, and object file
// encoding.
package io

import (
	"iter"
)

// Console defines the interface for a character device behind the console
// traps. Characters are carried in the low byte of a word.
type Console interface {
	// Defines returns the assembler defines of the console.
	Defines() iter.Seq2[string, string]
	// Getc reads one character. err is io.EOF at end of input.
	Getc() (c uint16, err error)
	// Putc writes one character.
	Putc(c uint16) error
}
