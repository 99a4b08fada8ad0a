package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/rules"
)

func TestEnableFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		exclude []string
		in      []rules.Violation
		want    []string
	}{
		{
			name:    "excluded docksift rule",
			exclude: []string{"docksift/insecure-tls"},
			in:      []rules.Violation{warning("f", 1, "docksift/insecure-tls"), warning("f", 2, "hadolint/DL3007")},
			want:    []string{"hadolint/DL3007"},
		},
		{
			name:    "excluded hadolint rule",
			exclude: []string{"hadolint/DL3004"},
			in:      []rules.Violation{warning("f", 1, "hadolint/DL3004"), warning("f", 2, "docksift/insecure-tls")},
			want:    []string{"docksift/insecure-tls"},
		},
		{
			name:    "syntax errors survive a namespace exclude",
			exclude: []string{"docksift/*"},
			in: []rules.Violation{
				rules.NewViolation(rules.NewLineLocation("f", 3), rules.SyntaxErrorCode, "msg", rules.SeverityError),
			},
			want: []string{rules.SyntaxErrorCode},
		},
		{
			name: "severity off",
			in: []rules.Violation{
				rules.NewViolation(rules.NewLineLocation("f", 1), "hadolint/DL3007", "msg", rules.SeverityOff),
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			cfg.Rules.Exclude = append(cfg.Rules.Exclude, tt.exclude...)

			out := NewEnableFilter().Process(tt.in, NewContext(cfg, nil))
			got := make([]string, 0, len(out))
			for _, v := range out {
				got = append(got, v.RuleCode)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityOverride(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Rules.Set("docksift/insecure-tls", config.RuleConfig{Severity: "info"})
	cfg.Rules.Set("hadolint/DL3004", config.RuleConfig{Severity: "warning"})

	out := NewSeverityOverride(rules.NewRegistry()).Process([]rules.Violation{
		warning("f", 1, "docksift/insecure-tls"),
		rules.NewViolation(rules.NewLineLocation("f", 2), "hadolint/DL3004", "msg", rules.SeverityError),
		warning("f", 3, "hadolint/DL3007"),
		rules.NewViolation(rules.NewLineLocation("f", 4), rules.SyntaxErrorCode, "msg", rules.SeverityError),
	}, NewContext(cfg, nil))

	require.Len(t, out, 4)
	assert.Equal(t, rules.SeverityInfo, out[0].Severity)
	assert.Equal(t, rules.SeverityWarning, out[1].Severity)
	assert.Equal(t, rules.SeverityWarning, out[2].Severity)
	assert.Equal(t, rules.SeverityError, out[3].Severity)
}

func TestSeverityOverride_OptionsEnableOffRule(t *testing.T) {
	t.Parallel()

	registry := rules.NewRegistry()
	registry.Register(&mockRuleWithMetadata{code: "docksift/secrets-in-code", defaultSeverity: rules.SeverityOff})

	cfg := config.Default()
	cfg.Rules.Set("docksift/secrets-in-code", config.RuleConfig{
		Options: map[string]any{"allowlist": []string{"EXAMPLE"}},
	})
	in := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("f", 1), "docksift/secrets-in-code", "secret found", rules.SeverityOff),
	}

	out := NewSeverityOverride(registry).Process(in, NewContext(cfg, nil))
	require.Len(t, out, 1)
	assert.Equal(t, rules.SeverityWarning, out[0].Severity)

	out = NewSeverityOverride(registry).Process(in, NewContext(config.Default(), nil))
	assert.Equal(t, rules.SeverityOff, out[0].Severity, "no options, stays off")
}

func TestPathExclusionFilter(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Rules.Set("docksift/clear-text-protocol", config.RuleConfig{
		Exclude: config.ExcludeConfig{Paths: []string{"test/**", "vendor/**", "[bad"}},
	})

	out := NewPathExclusionFilter().Process([]rules.Violation{
		warning("services/api/Dockerfile", 1, "docksift/clear-text-protocol"),
		warning("test\\fixtures\\Dockerfile", 1, "docksift/clear-text-protocol"),
		warning("vendor/lib/Dockerfile", 1, "docksift/clear-text-protocol"),
		warning("vendor/lib/Dockerfile", 1, "hadolint/DL3007"),
	}, NewContext(cfg, nil))

	require.Len(t, out, 2)
	assert.Equal(t, "services/api/Dockerfile", out[0].Location.File)
	assert.Equal(t, "hadolint/DL3007", out[1].RuleCode)
}
