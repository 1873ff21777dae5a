package io

import (
	"io"
	"iter"
	"maps"
)

const (
	CONSOLE_EOF       = uint16(0) // Character GETC returns once the input is exhausted.
	TAPE_READ_RETRIES = 100       // Empty reads tolerated before giving up.
)

// Tape is a byte stream console.
// Characters are read from Input one byte at a time, and written to Output.
// A nil Input is always at end of input.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	Received int // Count of characters read.
	Sent     int // Count of characters written.
}

var _ Console = (*Tape)(nil)

// Defines returns an iter of defines for the console.
func (tc *Tape) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"CONSOLE_EOF": "#0",
	})
}

// Rewind seeks the input back to the start, if the input supports it.
func (tc *Tape) Rewind() {
	if seeker, ok := tc.Input.(io.Seeker); ok {
		seeker.Seek(0, io.SeekStart)
	}
	tc.Received = 0
	tc.Sent = 0
}

// Getc reads the next byte of input. At end of input, c is CONSOLE_EOF and
// err is io.EOF. A reader that keeps returning no data fails with
// io.ErrNoProgress.
func (tc *Tape) Getc() (c uint16, err error) {
	c = CONSOLE_EOF

	if tc.Input == nil {
		err = io.EOF
		return
	}

	var one [1]byte
	for retry := 0; ; retry++ {
		var n int
		n, err = tc.Input.Read(one[:])
		if n == 1 {
			err = nil
			break
		}
		if err != nil {
			return
		}
		if retry >= TAPE_READ_RETRIES {
			err = io.ErrNoProgress
			return
		}
	}

	c = uint16(one[0])
	tc.Received++

	return
}

// Putc writes the low byte of c to the output.
func (tc *Tape) Putc(c uint16) (err error) {
	if tc.Output == nil {
		err = ErrConsoleClosed
		return
	}

	_, err = tc.Output.Write([]byte{byte(c)})
	if err != nil {
		return
	}

	tc.Sent++

	return
}
