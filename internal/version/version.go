// Package version reports the docksift build version and the versions of
// the libraries that shape its findings.
package version

import (
	"runtime"
	"runtime/debug"
	"sync"
)

var version = "dev"

// trackedModules are the dependencies whose versions change lint results.
var trackedModules = map[string]string{
	"github.com/moby/buildkit":           "buildkit",
	"github.com/zricethezav/gitleaks/v8": "gitleaks",
	"mvdan.cc/sh/v3":                     "sh",
}

// Version returns the semantic version string.
func Version() string {
	return version
}

// GoVersion returns the Go toolchain version used for the build.
func GoVersion() string {
	return runtime.Version()
}

type buildInfo struct {
	deps   map[string]string
	commit string
}

var readBuildInfo = sync.OnceValue(func() buildInfo {
	var bi buildInfo
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	for _, dep := range info.Deps {
		name, ok := trackedModules[dep.Path]
		if !ok {
			continue
		}
		if bi.deps == nil {
			bi.deps = make(map[string]string)
		}
		v := dep.Version
		if dep.Replace != nil && dep.Replace.Version != "" {
			v = dep.Replace.Version
		}
		bi.deps[name] = v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			bi.commit = s.Value
			if len(bi.commit) > 12 {
				bi.commit = bi.commit[:12]
			}
		}
	}
	return bi
})

// Info holds structured version information for machine-readable output.
type Info struct {
	Version      string            `json:"version"`
	Platform     Platform          `json:"platform"`
	GoVersion    string            `json:"goVersion"`
	GitCommit    string            `json:"gitCommit,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Platform describes the OS and architecture.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	bi := readBuildInfo()
	return Info{
		Version: Version(),
		Platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		GoVersion:    GoVersion(),
		GitCommit:    bi.commit,
		Dependencies: bi.deps,
	}
}
