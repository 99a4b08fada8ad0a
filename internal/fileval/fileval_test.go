package fileval

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Dockerfile")
	require.NoError(t, os.WriteFile(path, content, perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestValidateFile(t *testing.T) {
	t.Parallel()
	binary := make([]byte, 1024)
	_, err := rand.Read(binary)
	require.NoError(t, err)
	// Random bytes are valid UTF-8 with negligible odds; make sure.
	binary[0] = 0xFF

	tests := []struct {
		name    string
		content []byte
		maxSize int64
		want    error
	}{
		{"empty", nil, 0, ErrTooSmall},
		{"five bytes", []byte("FROM "), 0, ErrTooSmall},
		{"shortest", []byte("FROM a"), 0, nil},
		{"plain", []byte("FROM alpine\nRUN echo héllo\n"), 0, nil},
		{"over the limit", bytes.Repeat([]byte("#"), 200), 100, ErrTooLarge},
		{"at the limit", bytes.Repeat([]byte("#"), 200), 200, nil},
		{"no limit", bytes.Repeat([]byte("#"), 200), 0, nil},
		{"binary", binary, 0, ErrNotUTF8},
		{"invalid after text", append([]byte("FROM alpine\n"), 0xFF, 0xFE), 0, ErrNotUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateFile(writeFile(t, tt.content, 0o644), tt.maxSize)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateFileSizes(t *testing.T) {
	t.Parallel()
	path := writeFile(t, bytes.Repeat([]byte("#"), 200), 0o644)

	err := ValidateFile(path, 100)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, path, verr.Path)
	assert.Equal(t, int64(200), verr.Size)
	assert.Equal(t, int64(100), verr.MaxSize)
	assert.Contains(t, err.Error(), "(200 > 100 bytes)")

	err = ValidateFile(writeFile(t, []byte("FROM"), 0o644), 0)
	assert.EqualError(t, err, "file is too small for a valid Dockerfile (4 bytes; minimum is 6)")
}

func TestValidateFileExecutable(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("no executable bit on Windows")
	}
	path := writeFile(t, []byte("FROM alpine\n"), 0o755)
	assert.ErrorIs(t, ValidateFile(path, 0), ErrExecutable)

	require.NoError(t, os.Chmod(path, 0o600))
	assert.NoError(t, ValidateFile(path, 0))
}

func TestValidateFileMissing(t *testing.T) {
	t.Parallel()
	err := ValidateFile(filepath.Join(t.TempDir(), "nope"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateContent("-", []byte("FROM alpine\n"), 0))
	assert.ErrorIs(t, ValidateContent("-", []byte("FROM"), 0), ErrTooSmall)
	assert.ErrorIs(t, ValidateContent("-", bytes.Repeat([]byte("#"), 20), 10), ErrTooLarge)
	assert.ErrorIs(t, ValidateContent("-", []byte("FROM alpine\n\xC0"), 0), ErrNotUTF8)
}

func TestCheckUTF8Window(t *testing.T) {
	t.Parallel()
	euro := []byte("€")
	tests := []struct {
		name string
		data []byte
		n    int64
		ok   bool
	}{
		{"code point cut by the window", append([]byte("FROM a"), euro...), 7, true},
		{"whole input inside the window", append([]byte("FROM a"), euro[0]), 64, false},
		{"invalid byte inside the window", []byte("FROM\xFFa"), 5, false},
		{"invalid byte past the window", []byte("FROM a\xFF"), 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := checkUTF8("Dockerfile", bytes.NewReader(tt.data), tt.n)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNotUTF8)
			}
		})
	}
}

func TestIncompleteTail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"empty", nil, 0},
		{"ascii", []byte("abc"), 0},
		{"complete two bytes", []byte{0xC3, 0xA9}, 0},
		{"first of two", []byte{0xC3}, 1},
		{"two of three", []byte{'a', 0xE2, 0x82}, 2},
		{"three of four", []byte{0xF0, 0x9F, 0x90}, 3},
		{"stray continuation", []byte{0x80}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, incompleteTail(tt.data), tt.name)
	}
}
