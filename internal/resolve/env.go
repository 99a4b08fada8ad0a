package resolve

import (
	"maps"
	"os"
	"slices"

	"github.com/containerd/platforms"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// DefaultPlatformEnv names the environment variable that overrides the
// target platform, as with the docker CLI.
const DefaultPlatformEnv = "DOCKER_DEFAULT_PLATFORM"

const defaultTargetStageName = "default"

// Scope is the set of variables known at one point of a Dockerfile. It
// implements BuildKit's shell.EnvGetter so that it can drive the word lexer.
// A nil *Scope is empty.
type Scope struct {
	vars map[string]string
}

// NewScope returns a scope holding a copy of vars.
func NewScope(vars map[string]string) *Scope {
	cp := make(map[string]string, len(vars))
	maps.Copy(cp, vars)
	return &Scope{vars: cp}
}

func (s *Scope) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.vars[key]
	return v, ok
}

func (s *Scope) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.vars))
}

// Set defines key.
func (s *Scope) Set(key, value string) {
	s.vars[key] = value
}

// Unset forgets key, making references to it unresolvable.
func (s *Scope) Unset(key string) {
	delete(s.vars, key)
}

// Clone returns an independent copy of the scope.
func (s *Scope) Clone() *Scope {
	if s == nil {
		return NewScope(nil)
	}
	return NewScope(s.vars)
}

// automaticArgs returns the platform ARGs BuildKit predefines for every
// build. TARGETPLATFORM respects DOCKER_DEFAULT_PLATFORM when set, matching
// BuildKit where --platform overrides the target platform.
func automaticArgs(targetStage string) map[string]string {
	bp := platforms.DefaultSpec()
	tp := targetPlatformSpec()
	if targetStage == "" {
		targetStage = defaultTargetStageName
	}

	kvs := [...][2]string{
		{"BUILDPLATFORM", platforms.Format(bp)},
		{"BUILDOS", bp.OS},
		{"BUILDOSVERSION", bp.OSVersion},
		{"BUILDARCH", bp.Architecture},
		{"BUILDVARIANT", bp.Variant},
		{"TARGETPLATFORM", platforms.FormatAll(tp)},
		{"TARGETOS", tp.OS},
		{"TARGETOSVERSION", tp.OSVersion},
		{"TARGETARCH", tp.Architecture},
		{"TARGETVARIANT", tp.Variant},
		{"TARGETSTAGE", targetStage},
	}

	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[kv[0]] = kv[1]
	}
	return out
}

// targetPlatformSpec returns the target platform spec, checking
// DOCKER_DEFAULT_PLATFORM first, then falling back to the host platform.
func targetPlatformSpec() ocispec.Platform {
	if dp := os.Getenv(DefaultPlatformEnv); dp != "" {
		if p, err := platforms.Parse(dp); err == nil {
			return p
		}
	}
	return platforms.DefaultSpec()
}
