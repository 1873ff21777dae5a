package io

import (
	"errors"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From
var plain = translate.Plain

var (
	// Console errors
	ErrConsoleClosed = errors.New(f("console has no output"))

	// Object file errors
	ErrObjectOdd   = errors.New(f("object file is not a whole number of words"))
	ErrObjectEmpty = errors.New(f("object file has no origin"))
)

// ErrObject wraps an error reading or writing an object file.
type ErrObject struct {
	Offset int
	Err    error
}

func (err *ErrObject) Error() string {
	return f("object offset %v: %v", plain(err.Offset), err.Err)
}

func (err *ErrObject) Unwrap() error {
	return err.Err
}
