package docksift

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/rules/configutil"
	"github.com/wharflab/docksift/internal/tree"
)

// ClearTextProtocolConfig is the configuration for the clear-text-protocol rule.
type ClearTextProtocolConfig struct {
	// AllowedHosts are hosts that may be reached without TLS.
	AllowedHosts []string `json:"allowed-hosts,omitempty" koanf:"allowed-hosts"`
}

// DefaultClearTextProtocolConfig returns the default configuration.
func DefaultClearTextProtocolConfig() ClearTextProtocolConfig {
	return ClearTextProtocolConfig{
		AllowedHosts: []string{"localhost", "127.0.0.1", "::1"},
	}
}

// ClearTextProtocolRule flags downloads over http:// and ftp://.
type ClearTextProtocolRule struct{}

// NewClearTextProtocolRule creates a new clear-text-protocol rule instance.
func NewClearTextProtocolRule() *ClearTextProtocolRule {
	return &ClearTextProtocolRule{}
}

// Metadata returns the rule metadata.
func (r *ClearTextProtocolRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "clear-text-protocol",
		Name:             "Clear-text protocol",
		Description:      "Downloads over http:// or ftp:// can be read and altered in transit",
		DocURL:           docBase + "clear-text-protocol.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Schema returns the JSON Schema for this rule's configuration.
func (r *ClearTextProtocolRule) Schema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"allowed-hosts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "minLength": 1},
				"uniqueItems": true,
			},
		},
		"additionalProperties": false,
	}
}

// DefaultConfig returns the default configuration for this rule.
func (r *ClearTextProtocolRule) DefaultConfig() any {
	return DefaultClearTextProtocolConfig()
}

// ValidateConfig validates the configuration against the rule's JSON schema.
func (r *ClearTextProtocolRule) ValidateConfig(config any) error {
	return configutil.ValidateWithSchema(config, r.Schema())
}

// Check runs the clear-text-protocol rule.
func (r *ClearTextProtocolRule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()
	cfg := configutil.Coerce(input.Config, DefaultClearTextProtocolConfig())
	insecure := clearTextURL(cfg.AllowedHosts)

	detectors := []*detector.Detector{
		detector.Builder().
			With(detector.Program("curl", "wget")).
			WithOptionalRepeatingExcept(insecure).
			With(insecure).
			Build(),
	}

	var violations []rules.Violation
	for _, m := range search(input, detectors) {
		u := m[len(m)-1].Value
		violations = append(violations, newViolation(input, meta, m,
			fmt.Sprintf("%s downloads %s over a clear-text protocol", m[0].Value, u),
		).WithDetail("Use https:// (or ftps://) so the download is authenticated and encrypted."))
	}

	// ADD http://...
	for _, instr := range input.Instructions() {
		g, ok := instr.(*tree.Generic)
		if !ok || g.Name() != "ADD" {
			continue
		}
		for _, res := range input.Resolver.Arguments(instr, g.Arguments()) {
			if res.IsResolved() && insecure(res.Value) {
				violations = append(violations, newViolation(input, meta, []*resolve.Resolution{res},
					fmt.Sprintf("ADD downloads %s over a clear-text protocol", res.Value),
				))
			}
		}
	}
	return violations
}

// clearTextURL matches http:// and ftp:// URLs whose host is not allowed.
func clearTextURL(allowed []string) detector.Test {
	return func(v string) bool {
		scheme, _, ok := strings.Cut(v, "://")
		if !ok || (!strings.EqualFold(scheme, "http") && !strings.EqualFold(scheme, "ftp")) {
			return false
		}
		u, err := url.Parse(v)
		if err != nil {
			return true
		}
		return !slices.Contains(allowed, u.Hostname())
	}
}

func init() {
	rules.Register(NewClearTextProtocolRule())
}
