package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wharflab/docksift/internal/rules"
)

// RuleConfig is the table of one rule. Keys other than severity and
// exclude are the rule's own options:
//
//	[rules.docksift.clear-text-protocol]
//	severity = "warning"
//	exclude.paths = ["test/**"]
//	allowed-hosts = ["mirror.internal"]
type RuleConfig struct {
	// Severity replaces the rule's default severity; "off" disables it.
	Severity string `json:"severity,omitempty" koanf:"severity"`

	Exclude ExcludeConfig `json:"exclude" koanf:"exclude"`

	Options map[string]any `json:"-" koanf:",remain"`
}

// ExcludeConfig lists glob patterns of files a rule skips.
type ExcludeConfig struct {
	Paths []string `json:"paths,omitempty" koanf:"paths"`
}

// RulesConfig selects rules and holds their tables, one map per namespace.
//
//	[rules]
//	include = ["hadolint/*"]
//	exclude = ["docksift/apt-no-install-recommends"]
//
//	[rules.hadolint.DL3007]
//	exclude.paths = ["examples/**"]
//
// Selection patterns are globs over rule codes. A pattern without a slash
// matches the bare rule name in either namespace, so "*" selects every
// rule and "DL3007" selects "hadolint/DL3007".
type RulesConfig struct {
	Include []string `json:"include,omitempty" koanf:"include"`
	Exclude []string `json:"exclude,omitempty" koanf:"exclude"`

	Docksift map[string]RuleConfig `json:"docksift,omitempty" koanf:"docksift"`
	Hadolint map[string]RuleConfig `json:"hadolint,omitempty" koanf:"hadolint"`
}

// RuleNamespaces lists the namespaces that take per-rule tables.
func RuleNamespaces() []string {
	return []string{"docksift", "hadolint"}
}

// table returns a pointer to the map holding ns's rule tables, or nil for
// an unknown namespace.
func (rc *RulesConfig) table(ns string) *map[string]RuleConfig {
	switch ns {
	case "docksift":
		return &rc.Docksift
	case "hadolint":
		return &rc.Hadolint
	}
	return nil
}

// Get returns a copy of the table configured for code, or nil.
func (rc *RulesConfig) Get(code string) *RuleConfig {
	if rc == nil {
		return nil
	}
	ns, name, ok := rules.Namespace(code)
	if !ok {
		return nil
	}
	cfg, found := (*rc.table(ns))[name]
	if !found {
		return nil
	}
	return &cfg
}

// Set stores cfg as code's table. It reports false for a code outside the
// known namespaces.
func (rc *RulesConfig) Set(code string, cfg RuleConfig) bool {
	ns, name, ok := rules.Namespace(code)
	if !ok {
		return false
	}
	m := rc.table(ns)
	if *m == nil {
		*m = make(map[string]RuleConfig)
	}
	(*m)[name] = cfg
	return true
}

// IsEnabled returns the selection for code, or nil when neither list names
// it. Include wins over Exclude.
func (rc *RulesConfig) IsEnabled(code string) *bool {
	if rc == nil {
		return nil
	}
	switch {
	case selects(rc.Include, code):
		return boolPtr(true)
	case selects(rc.Exclude, code):
		return boolPtr(false)
	}
	return nil
}

func selects(patterns []string, code string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		return matchesPattern(code, p)
	})
}

func matchesPattern(code, pattern string) bool {
	target := code
	if !strings.Contains(pattern, "/") {
		_, target, _ = rules.Namespace(code)
	}
	ok, err := doublestar.Match(pattern, target)
	return err == nil && ok
}

// GetSeverity returns the configured severity for code, or "".
func (rc *RulesConfig) GetSeverity(code string) string {
	if cfg := rc.Get(code); cfg != nil {
		return cfg.Severity
	}
	return ""
}

// GetExcludePaths returns a copy of code's excluded path patterns.
func (rc *RulesConfig) GetExcludePaths(code string) []string {
	if cfg := rc.Get(code); cfg != nil {
		return slices.Clone(cfg.Exclude.Paths)
	}
	return nil
}

// GetOptions returns a shallow copy of code's options, or nil.
func (rc *RulesConfig) GetOptions(code string) map[string]any {
	if cfg := rc.Get(code); cfg != nil {
		return maps.Clone(cfg.Options)
	}
	return nil
}

// tomlTable flattens the rule tables back into the config file layout,
// with options beside severity and exclude.
func (rc *RulesConfig) tomlTable() map[string]any {
	out := make(map[string]any)
	if len(rc.Include) > 0 {
		out["include"] = rc.Include
	}
	if len(rc.Exclude) > 0 {
		out["exclude"] = rc.Exclude
	}
	for _, ns := range RuleNamespaces() {
		m := *rc.table(ns)
		if len(m) == 0 {
			continue
		}
		tables := make(map[string]any, len(m))
		for name, cfg := range m {
			t := maps.Clone(cfg.Options)
			if t == nil {
				t = make(map[string]any, 2)
			}
			if cfg.Severity != "" {
				t["severity"] = cfg.Severity
			}
			if len(cfg.Exclude.Paths) > 0 {
				t["exclude"] = map[string]any{"paths": cfg.Exclude.Paths}
			}
			tables[name] = t
		}
		out[ns] = tables
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}
