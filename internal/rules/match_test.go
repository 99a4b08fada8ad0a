package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/dockerfile"
	"github.com/wharflab/docksift/internal/resolve"
)

func TestMatchLocation(t *testing.T) {
	t.Parallel()
	result, err := dockerfile.ParseString("FROM alpine\nRUN curl -sSk \\\n  https://x\n")
	require.NoError(t, err)

	input := LintInput{File: "Dockerfile", Tree: result.File, Resolver: resolve.New(result.File)}
	streams := input.Streams()
	require.Len(t, streams, 1)
	args := streams[0].Args

	loc := MatchLocation("Dockerfile", args)
	assert.Equal(t, Position{Line: 2, Column: 4}, loc.Start)
	assert.Equal(t, Position{Line: 3, Column: 11}, loc.End)
	assert.Equal(t, []Span{span(2, 4, 2, 8), span(2, 9, 2, 13), span(3, 2, 3, 11)}, loc.Spans)

	assert.Equal(t, NewRangeLocation("Dockerfile", 2, 9, 2, 13), MatchLocation("Dockerfile", args[1:2]))
	assert.True(t, MatchLocation("Dockerfile", nil).IsFileLevel())
}

func TestMatchLocationSharedScript(t *testing.T) {
	t.Parallel()
	result, err := dockerfile.ParseString("FROM alpine\nRUN sh -c 'curl -k https://x'\n")
	require.NoError(t, err)

	input := LintInput{File: "Dockerfile", Tree: result.File, Resolver: resolve.New(result.File)}
	var words []*resolve.Resolution
	for _, s := range input.Streams() {
		if len(s.Args) > 0 && s.Args[0].Value == "curl" {
			words = s.Args
		}
	}
	require.Len(t, words, 3)

	// The words all point at the quoted script.
	loc := MatchLocation("Dockerfile", words[:2])
	assert.Equal(t, NewRangeLocation("Dockerfile", 2, 10, 2, 30), loc)
	assert.Equal(t, []string{"curl", "-k"}, MatchEvidence(words[:2]))
}

func TestMatchEvidenceSkipsUnresolved(t *testing.T) {
	t.Parallel()
	match := []*resolve.Resolution{
		{Value: "curl", Status: resolve.Resolved},
		{Status: resolve.Unresolved},
		nil,
		{Value: "-k", Status: resolve.Resolved},
	}
	assert.Equal(t, []string{"curl", "-k"}, MatchEvidence(match))
}
