package io

import (
	"encoding/binary"
	"io"
)

// ReadObject reads an object file: a stream of big-endian 16-bit words, the
// first of which is the load origin.
func ReadObject(r io.Reader) (words []uint16, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data) == 0 {
		err = ErrObjectEmpty
		return
	}

	if len(data)%2 != 0 {
		err = &ErrObject{Offset: len(data) - 1, Err: ErrObjectOdd}
		return
	}

	words = make([]uint16, len(data)/2)
	for n := range words {
		words[n] = binary.BigEndian.Uint16(data[n*2:])
	}

	return
}

// WriteObject writes words as a big-endian object file.
func WriteObject(w io.Writer, words []uint16) (err error) {
	if len(words) == 0 {
		err = ErrObjectEmpty
		return
	}

	err = binary.Write(w, binary.BigEndian, words)
	if err != nil {
		err = &ErrObject{Offset: 0, Err: err}
		return
	}

	return
}
