package script

import (
	"errors"

	"go.starlark.net/starlark"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From

var (
	// Conversion errors
	ErrWordRange = errors.New(f("value is not a 16-bit word"))
)

// toWord converts a Starlark int in [-32768, 65535] to a word.
func toWord(value starlark.Value) (word uint16, err error) {
	n, err := starlark.AsInt32(value)
	if err != nil {
		return
	}

	if n < -32768 || n > 0xFFFF {
		err = ErrWordRange
		return
	}

	word = uint16(n)

	return
}

// wordList converts words to a Starlark list of ints.
func wordList(words []uint16) *starlark.List {
	elems := make([]starlark.Value, len(words))
	for n, word := range words {
		elems[n] = starlark.MakeInt(int(word))
	}

	return starlark.NewList(elems)
}
