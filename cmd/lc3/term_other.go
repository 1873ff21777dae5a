//go:build !linux

package main

import (
	"os"
)

// rawTerm leaves the terminal alone on hosts without termios support.
func rawTerm(file *os.File) (restore func(), err error) {
	restore = func() {}
	return
}
