package emulator

import (
	"github.com/ezrec/lc3/translate"
)

var f = translate.From
var plain = translate.Plain

// ErrRuntime indicates the source line of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("runtime: %v", err.Err)
	}
	return f("line %v %v", plain(err.LineNo), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
