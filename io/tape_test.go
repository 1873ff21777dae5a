package io

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken")
}

type emptyReader struct{ reads int }

func (er *emptyReader) Read(p []byte) (int, error) {
	er.reads++
	return 0, nil
}

type failReader struct{}

func (failReader) Read(p []byte) (int, error) {
	return 0, errors.New("unplugged")
}

func TestTapeGetc(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader("hi")}

	c, err := tape.Getc()
	assert.NoError(err)
	assert.Equal(uint16('h'), c)

	c, err = tape.Getc()
	assert.NoError(err)
	assert.Equal(uint16('i'), c)

	c, err = tape.Getc()
	assert.ErrorIs(err, io.EOF)
	assert.Equal(CONSOLE_EOF, c)
	assert.Equal(2, tape.Received)

	tape.Rewind()
	c, err = tape.Getc()
	assert.NoError(err)
	assert.Equal(uint16('h'), c)
	assert.Equal(1, tape.Received)
}

func TestTapeGetcNoInput(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	_, err := tape.Getc()
	assert.ErrorIs(err, io.EOF)

	// Rewind on a non-seekable input is harmless.
	tape.Rewind()
}

func TestTapeGetcErrors(t *testing.T) {
	assert := assert.New(t)

	empty := &emptyReader{}
	tape := &Tape{Input: empty}
	c, err := tape.Getc()
	assert.ErrorIs(err, io.ErrNoProgress)
	assert.Equal(CONSOLE_EOF, c)
	assert.Equal(TAPE_READ_RETRIES+1, empty.reads)

	tape = &Tape{Input: failReader{}}
	_, err = tape.Getc()
	assert.EqualError(err, "unplugged")
	assert.Equal(0, tape.Received)
}

func TestTapePutc(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	tape := &Tape{Output: &out}

	for _, c := range "ok\n" {
		assert.NoError(tape.Putc(uint16(c)))
	}
	// Only the low byte is written.
	assert.NoError(tape.Putc(0x4121))

	assert.Equal("ok\n!", out.String())
	assert.Equal(4, tape.Sent)

	tape = &Tape{}
	assert.ErrorIs(tape.Putc('x'), ErrConsoleClosed)

	tape = &Tape{Output: failWriter{}}
	assert.Error(tape.Putc('x'))
	assert.Equal(0, tape.Sent)
}

func TestTapeDefines(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	defines := maps.Collect(tape.Defines())
	assert.Equal("#0", defines["CONSOLE_EOF"])
}
