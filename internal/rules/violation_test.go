package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationBuilders(t *testing.T) {
	t.Parallel()
	v := NewViolation(NewLineLocation("Dockerfile", 5), "docksift/insecure-tls", "curl skips TLS", SeverityWarning).
		WithDetail("drop -k").
		WithDocURL("https://example.com/doc").
		WithEvidence("curl", "-k")

	assert.Equal(t, 5, v.Line())
	assert.Equal(t, "drop -k", v.Detail)
	assert.Equal(t, "https://example.com/doc", v.DocURL)
	assert.Equal(t, []string{"curl", "-k"}, v.Evidence)
	assert.Equal(t, -1, NewViolation(NewFileLocation("Dockerfile"), "r", "m", SeverityInfo).Line())
}

func TestViolationJSON(t *testing.T) {
	t.Parallel()
	loc := NewLocationFromSpans("Dockerfile", []Span{
		{Start: Position{Line: 2, Column: 4}, End: Position{Line: 2, Column: 8}},
		{Start: Position{Line: 3, Column: 2}, End: Position{Line: 3, Column: 4}},
	})
	v := NewViolation(loc, "docksift/insecure-tls", "curl skips TLS", SeverityWarning).
		WithEvidence("curl", "-k")

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"location": {
			"file": "Dockerfile",
			"start": {"line": 2, "column": 4},
			"end": {"line": 3, "column": 4},
			"spans": [
				{"start": {"line": 2, "column": 4}, "end": {"line": 2, "column": 8}},
				{"start": {"line": 3, "column": 2}, "end": {"line": 3, "column": 4}}
			]
		},
		"rule": "docksift/insecure-tls",
		"message": "curl skips TLS",
		"severity": "warning",
		"evidence": ["curl", "-k"]
	}`, string(data))

	var parsed Violation
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, v, parsed)
}

func TestViolationSuggestedFixJSON(t *testing.T) {
	t.Parallel()
	loc := NewRangeLocation("Dockerfile", 1, 19, 1, 19)
	v := NewViolation(loc, "docksift/apt-no-install-recommends", "msg", SeverityInfo).
		WithSuggestedFix(&SuggestedFix{
			Description: "Add --no-install-recommends",
			Edits:       []TextEdit{{Location: loc, NewText: " --no-install-recommends"}},
		})

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"newText":" --no-install-recommends"`)

	var parsed Violation
	require.NoError(t, json.Unmarshal(data, &parsed))
	require.NotNil(t, parsed.SuggestedFix)
	require.Len(t, parsed.SuggestedFix.Edits, 1)
	assert.Equal(t, loc, parsed.SuggestedFix.Edits[0].Location)
}
