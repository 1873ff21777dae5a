// Package cpu implements the execution engine and the assembler for a
// 16-bit LC-3 style machine.
//
// The machine has eight 16-bit general-purpose registers (R0-R7, with R6 the
// stack pointer and R7 the link register), a program counter, a processor
// status word whose low three bits are the N/Z/P condition codes, and 65536
// words of memory. Fifteen operations are encoded in the top four bits of
// each instruction word.
//
// The assembler is a two-pass assembler over structured source records: the
// first pass collects label addresses, the second encodes each record into
// instruction or data words. A small text front end (ParseRecords) turns
// assembly source into those records, with .equ constants and $(...)
// compile-time expressions.
package cpu
