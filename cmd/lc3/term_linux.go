package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// rawTerm switches a terminal on file to character-at-a-time input without
// echo. The restore function puts it back; it is a no-op if file is not a
// terminal.
func rawTerm(file *os.File) (restore func(), err error) {
	restore = func() {}

	fd := int(file.Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		// Not a terminal.
		err = nil
		return
	}

	saved := *termios
	state := *termios

	state.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	state.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	state.Cflag &^= unix.CSIZE | unix.PARENB
	state.Cflag |= unix.CS8

	state.Cc[unix.VMIN] = 1
	state.Cc[unix.VTIME] = 0

	err = unix.IoctlSetTermios(fd, unix.TCSETS, &state)
	if err != nil {
		return
	}

	restore = func() {
		unix.IoctlSetTermios(fd, unix.TCSETS, &saved)
	}

	return
}
