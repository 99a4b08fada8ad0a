package linter

import (
	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/rules"
)

// EnabledRuleCodes returns the codes of the registered rules cfg turns on,
// sorted.
func EnabledRuleCodes(cfg *config.Config) []string {
	var codes []string
	for _, rule := range rules.DefaultRegistry().Filter(enabledBy(cfg)) {
		codes = append(codes, rule.Metadata().Code)
	}
	return codes
}

// enabledBy reports whether cfg turns a rule on. Include and exclude
// patterns decide first, then an explicit severity. A rule that is off by
// default comes on when it is given options.
func enabledBy(cfg *config.Config) func(rules.RuleMetadata) bool {
	return func(meta rules.RuleMetadata) bool {
		if cfg == nil {
			return meta.DefaultSeverity != rules.SeverityOff
		}
		if enabled := cfg.Rules.IsEnabled(meta.Code); enabled != nil {
			return *enabled
		}
		if sev := cfg.Rules.GetSeverity(meta.Code); sev != "" {
			return sev != "off"
		}
		if meta.DefaultSeverity == rules.SeverityOff {
			return len(cfg.Rules.GetOptions(meta.Code)) > 0
		}
		return true
	}
}
