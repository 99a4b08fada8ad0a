package processor

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/rules"
)

// Processors driven by the [rules] table of each file's configuration.
// Syntax errors pass through untouched: a file that does not parse was
// never linted, and nothing in the config can hide that.

// NewSeverityOverride applies configured severities. A rule that is off by
// default runs at warning once options are configured for it.
func NewSeverityOverride(registry *rules.Registry) Func {
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	return Map("severity-override", func(v rules.Violation, ctx *Context) rules.Violation {
		cfg := ruleConfig(v, ctx)
		if cfg == nil {
			return v
		}
		if name := cfg.Rules.GetSeverity(v.RuleCode); name != "" {
			// An unparsable name was reported when the config was loaded.
			if sev, err := rules.ParseSeverity(name); err == nil {
				v.Severity = sev
			}
			return v
		}
		if len(cfg.Rules.GetOptions(v.RuleCode)) == 0 {
			return v
		}
		if rule, ok := registry.Resolve(v.RuleCode); ok && rule.Metadata().DefaultSeverity == rules.SeverityOff {
			v.Severity = rules.SeverityWarning
		}
		return v
	})
}

// NewEnableFilter drops violations that are off or whose rule the
// include/exclude lists disable.
func NewEnableFilter() Func {
	return Filter("enable-filter", func(v rules.Violation, ctx *Context) bool {
		if v.RuleCode == rules.SyntaxErrorCode {
			return true
		}
		if v.Severity == rules.SeverityOff {
			return false
		}
		if cfg := ruleConfig(v, ctx); cfg != nil {
			if enabled := cfg.Rules.IsEnabled(v.RuleCode); enabled != nil {
				return *enabled
			}
		}
		return true
	})
}

// NewPathExclusionFilter drops violations in files matching one of their
// rule's exclude.paths globs. Invalid globs match nothing.
func NewPathExclusionFilter() Func {
	return Filter("path-exclusion-filter", func(v rules.Violation, ctx *Context) bool {
		cfg := ruleConfig(v, ctx)
		if cfg == nil {
			return true
		}
		file := toSlash(v.Location.File)
		for _, pattern := range cfg.Rules.GetExcludePaths(v.RuleCode) {
			if ok, err := doublestar.Match(pattern, file); err == nil && ok {
				return false
			}
		}
		return true
	})
}

func ruleConfig(v rules.Violation, ctx *Context) *config.Config {
	if v.RuleCode == rules.SyntaxErrorCode || ctx == nil {
		return nil
	}
	return ctx.ConfigForFile(v.Location.File)
}
