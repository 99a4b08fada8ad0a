package processor

import (
	"strings"
	"sync"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/dockerfile"
	"github.com/wharflab/docksift/internal/sourcemap"
	"github.com/wharflab/docksift/internal/tree"
)

// Context carries what processors need to know about the linted files.
// It is built once per run and shared by every processor in the chain.
type Context struct {
	// Config applies to files without an entry in FileConfigs.
	Config      *config.Config
	FileConfigs map[string]*config.Config
	FileSources map[string][]byte

	// FileTrees caches parsed files. Files missing here are parsed from
	// FileSources when first asked for.
	FileTrees map[string]*tree.File

	mu         sync.Mutex
	sourceMaps map[string]*sourcemap.SourceMap
}

func NewContext(cfg *config.Config, fileSources map[string][]byte) *Context {
	return NewContextWithFileConfigs(cfg, nil, fileSources)
}

func NewContextWithFileConfigs(
	cfg *config.Config,
	fileConfigs map[string]*config.Config,
	fileSources map[string][]byte,
) *Context {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Context{
		Config:      cfg,
		FileConfigs: fileConfigs,
		FileSources: fileSources,
		sourceMaps:  make(map[string]*sourcemap.SourceMap),
	}
}

// lookup finds file in m, comparing paths with slashes normalized so
// processors running after path normalization still find their entry.
func lookup[V any](m map[string]V, file string) (V, bool) {
	if v, ok := m[file]; ok {
		return v, true
	}
	want := toSlash(file)
	for path, v := range m {
		if toSlash(path) == want {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// ConfigForFile returns the configuration that applies to file.
func (ctx *Context) ConfigForFile(file string) *config.Config {
	if cfg, ok := lookup(ctx.FileConfigs, file); ok && cfg != nil {
		return cfg
	}
	return ctx.Config
}

func (ctx *Context) Source(file string) ([]byte, bool) {
	return lookup(ctx.FileSources, file)
}

// GetSourceMap returns the source map of file, or nil when its source is
// unknown.
func (ctx *Context) GetSourceMap(file string) *sourcemap.SourceMap {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if sm, ok := ctx.sourceMaps[file]; ok {
		return sm
	}
	source, ok := ctx.Source(file)
	if !ok {
		return nil
	}
	sm := sourcemap.New(source)
	ctx.sourceMaps[file] = sm
	return sm
}

// GetTree returns the parsed tree of file, or nil when the file has no
// source or does not parse.
func (ctx *Context) GetTree(file string) *tree.File {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if f, ok := ctx.FileTrees[file]; ok {
		return f
	}
	source, ok := ctx.Source(file)
	if !ok {
		return nil
	}
	var f *tree.File
	if result, err := dockerfile.ParseString(string(source)); err == nil {
		f = result.File
	}
	if ctx.FileTrees == nil {
		ctx.FileTrees = make(map[string]*tree.File)
	}
	ctx.FileTrees[file] = f
	return f
}

func toSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
