// Package discovery expands command-line inputs into the Dockerfiles to
// lint. An input is "-" for standard input, a file, a directory searched
// recursively, or a doublestar glob.
package discovery

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// StdinPath is the input naming standard input.
const StdinPath = "-"

// DiscoveredFile is one file to lint.
type DiscoveredFile struct {
	// Path is the input as given for an explicit file, and absolute for
	// files found under a directory or by a glob.
	Path string
	// ConfigRoot is where config discovery starts for this file.
	ConfigRoot string
	Stdin      bool
}

// FileNotFoundError reports an explicit input that does not exist. Globs
// matching nothing are not an error.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return "file not found: " + e.Path
}

type Options struct {
	// Patterns select files by base name inside directories. Empty means
	// DefaultPatterns.
	Patterns []string
	// ExcludePatterns drop files by absolute path, base name or any
	// trailing run of path elements.
	ExcludePatterns []string
}

// DefaultPatterns are the usual Dockerfile and Containerfile names.
func DefaultPatterns() []string {
	return []string{
		"Dockerfile", "Dockerfile.*", "*.Dockerfile",
		"Containerfile", "Containerfile.*", "*.Containerfile",
	}
}

// ContainsGlobChars reports whether path would be expanded as a glob.
func ContainsGlobChars(path string) bool {
	return strings.ContainsAny(path, "*?[]")
}

// Discover returns the files named by inputs, each at most once and sorted
// by path.
func Discover(inputs []string, opts Options) ([]DiscoveredFile, error) {
	f := finder{opts: opts, seen: make(map[string]struct{})}
	if len(f.opts.Patterns) == 0 {
		f.opts.Patterns = DefaultPatterns()
	}
	for _, input := range inputs {
		if err := f.add(input); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(f.out, func(a, b DiscoveredFile) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return f.out, nil
}

type finder struct {
	opts Options
	seen map[string]struct{}
	out  []DiscoveredFile
}

func (f *finder) add(input string) error {
	if input == StdinPath {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		f.keep(StdinPath, DiscoveredFile{Path: StdinPath, ConfigRoot: wd, Stdin: true})
		return nil
	}

	// Globs are not stat'ed: a '*' is not a valid file name on every platform.
	if ContainsGlobChars(input) {
		matches, err := doublestar.FilepathGlob(input, doublestar.WithFilesOnly())
		if err != nil {
			return err
		}
		for _, m := range matches {
			if err := f.found(m); err != nil {
				return err
			}
		}
		return nil
	}

	info, err := os.Stat(input)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &FileNotFoundError{Path: input}
	case err != nil:
		return err
	case info.IsDir():
		return f.walk(input)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if !f.excluded(abs) {
		f.keep(abs, DiscoveredFile{Path: input, ConfigRoot: filepath.Dir(abs)})
	}
	return nil
}

func (f *finder) walk(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !f.selected(d.Name()) {
			return nil
		}
		return f.found(path)
	})
}

// found records a file located by a walk or a glob under its absolute path.
func (f *finder) found(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !f.excluded(abs) {
		f.keep(abs, DiscoveredFile{Path: abs, ConfigRoot: filepath.Dir(abs)})
	}
	return nil
}

func (f *finder) keep(key string, df DiscoveredFile) {
	if _, dup := f.seen[key]; dup {
		return
	}
	f.seen[key] = struct{}{}
	f.out = append(f.out, df)
}

func (f *finder) selected(name string) bool {
	return slices.ContainsFunc(f.opts.Patterns, func(p string) bool {
		ok, err := doublestar.Match(p, name)
		return err == nil && ok
	})
}

// excluded matches abs against each exclude pattern as a whole, then every
// suffix of its elements, so "vendor/*" drops vendor/Dockerfile at any
// depth and "*.bak" matches by base name.
func (f *finder) excluded(abs string) bool {
	slashed := filepath.ToSlash(abs)
	elems := strings.Split(strings.TrimPrefix(slashed, filepath.ToSlash(filepath.VolumeName(abs))), "/")
	for _, pattern := range f.opts.ExcludePatterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
		for i := range elems {
			if ok, err := doublestar.Match(pattern, strings.Join(elems[i:], "/")); err == nil && ok {
				return true
			}
		}
	}
	return false
}
