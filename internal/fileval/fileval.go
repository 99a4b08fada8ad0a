// Package fileval rejects files that are clearly not Dockerfiles before
// they reach the parser: too small, too large, executable or binary.
package fileval

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// MinSize is the length of the shortest Dockerfile, "FROM a".
const MinSize = 6

// utf8Window bounds the UTF-8 check when no maximum size is set.
const utf8Window = 1 << 20

var (
	ErrTooSmall   = errors.New("file is too small for a valid Dockerfile")
	ErrTooLarge   = errors.New("file too large")
	ErrExecutable = errors.New("unexpected executable Dockerfile")
	ErrNotUTF8    = errors.New("file does not appear to be valid UTF-8 text")
)

// Error is a failed check. It matches one of the Err values with
// errors.Is.
type Error struct {
	Path string
	Err  error
	// Size and MaxSize are set by the size checks.
	Size, MaxSize int64
}

func (e *Error) Error() string {
	switch e.Err {
	case ErrTooSmall:
		return fmt.Sprintf("%v (%d bytes; minimum is %d)", e.Err, e.Size, MinSize)
	case ErrTooLarge:
		return fmt.Sprintf("%v (%d > %d bytes); increase [file-validation] max-file-size in .docksift.toml to override",
			e.Err, e.Size, e.MaxSize)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidateFile checks the file at path. A maxSize of zero or less disables
// the size limit. The executable check does nothing on Windows.
func ValidateFile(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := checkSize(path, info.Size(), maxSize); err != nil {
		return err
	}
	if isExecutable(info) {
		return &Error{Path: path, Err: ErrExecutable}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return checkUTF8(path, f, window(maxSize))
}

// ValidateContent checks content read from somewhere other than a regular
// file, such as standard input. path only appears in errors.
func ValidateContent(path string, content []byte, maxSize int64) error {
	if err := checkSize(path, int64(len(content)), maxSize); err != nil {
		return err
	}
	return checkUTF8(path, bytes.NewReader(content), window(maxSize))
}

func checkSize(path string, size, maxSize int64) error {
	switch {
	case size < MinSize:
		return &Error{Path: path, Err: ErrTooSmall, Size: size}
	case maxSize > 0 && size > maxSize:
		return &Error{Path: path, Err: ErrTooLarge, Size: size, MaxSize: maxSize}
	}
	return nil
}

func window(maxSize int64) int64 {
	if maxSize > 0 {
		return maxSize
	}
	return utf8Window
}

// checkUTF8 validates the first n bytes of r. A code point cut off by the
// window is not held against the file.
func checkUTF8(path string, r io.Reader, n int64) error {
	data, err := io.ReadAll(io.LimitReader(r, n+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > n {
		data = data[:n]
		data = data[:len(data)-incompleteTail(data)]
	}
	if !utf8.Valid(data) {
		return &Error{Path: path, Err: ErrNotUTF8}
	}
	return nil
}

// incompleteTail returns how many bytes at the end of data begin a
// multi-byte sequence that is not finished.
func incompleteTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		start := data[len(data)-i:]
		if !utf8.RuneStart(start[0]) {
			continue
		}
		if start[0] < utf8.RuneSelf || utf8.FullRune(start) {
			return 0
		}
		return i
	}
	return 0
}
