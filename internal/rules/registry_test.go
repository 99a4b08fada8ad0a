package rules

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRule struct {
	code     string
	severity Severity
}

func (r *stubRule) Metadata() RuleMetadata {
	return RuleMetadata{Code: r.code, Name: r.code, DefaultSeverity: r.severity}
}

func (r *stubRule) Check(LintInput) []Violation { return nil }

func codesOf(rs []Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Metadata().Code
	}
	return out
}

func TestRegistryKeepsCodeOrder(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	for _, code := range []string{"hadolint/DL3007", "docksift/c", "docksift/a", "hadolint/DL3002"} {
		reg.Register(&stubRule{code: code})
	}
	assert.Equal(t, []string{"docksift/a", "docksift/c", "hadolint/DL3002", "hadolint/DL3007"}, codesOf(reg.All()))

	// All hands out a copy.
	all := reg.All()
	all[0] = nil
	assert.NotNil(t, reg.All()[0])
}

func TestRegistryRejects(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(&stubRule{code: "docksift/dup"})

	assert.PanicsWithValue(t, `rule "docksift/dup" already registered`, func() {
		reg.Register(&stubRule{code: "docksift/dup"})
	})
	assert.PanicsWithValue(t, `rule "DL3004" has no known namespace`, func() {
		reg.Register(&stubRule{code: "DL3004"})
	})
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(&stubRule{code: "hadolint/DL3004"})
	reg.Register(&stubRule{code: "docksift/insecure-tls"})

	require.NotNil(t, reg.Get("hadolint/DL3004"))
	assert.Nil(t, reg.Get("DL3004"))
	assert.True(t, reg.Has("docksift/insecure-tls"))
	assert.False(t, reg.Has("docksift/other"))

	rule, ok := reg.Resolve("DL3004")
	require.True(t, ok)
	assert.Equal(t, "hadolint/DL3004", rule.Metadata().Code)

	_, ok = reg.Resolve("insecure-tls")
	assert.True(t, ok)
	_, ok = reg.Resolve("hadolint/insecure-tls")
	assert.False(t, ok, "a namespaced code is not searched elsewhere")
	_, ok = reg.Resolve("DL9999")
	assert.False(t, ok)
}

func TestRegistryFilter(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(&stubRule{code: "docksift/err", severity: SeverityError})
	reg.Register(&stubRule{code: "docksift/warn", severity: SeverityWarning})

	got := reg.Filter(func(m RuleMetadata) bool { return m.DefaultSeverity == SeverityWarning })
	assert.Equal(t, []string{"docksift/warn"}, codesOf(got))
	assert.Empty(t, reg.Filter(func(RuleMetadata) bool { return false }))
}

func TestRegistryConcurrentRegister(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	var wg sync.WaitGroup
	for _, c := range "abcdefghij" {
		wg.Go(func() {
			reg.Register(&stubRule{code: "docksift/" + string(c)})
		})
	}
	wg.Wait()
	assert.Equal(t, []string{
		"docksift/a", "docksift/b", "docksift/c", "docksift/d", "docksift/e",
		"docksift/f", "docksift/g", "docksift/h", "docksift/i", "docksift/j",
	}, codesOf(reg.All()))
}
