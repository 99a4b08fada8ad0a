package docksift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/testutil"
)

func TestAptNoInstallRecommendsRule_Metadata(t *testing.T) {
	t.Parallel()
	meta := NewAptNoInstallRecommendsRule().Metadata()
	assert.Equal(t, "docksift/apt-no-install-recommends", meta.Code)
	assert.Equal(t, rules.SeverityInfo, meta.DefaultSeverity)
}

func TestAptNoInstallRecommendsRule_Check(t *testing.T) {
	t.Parallel()
	testutil.RunRuleTests(t, NewAptNoInstallRecommendsRule(), []testutil.RuleTestCase{
		{
			Name: "missing flag",
			Content: `FROM debian:bookworm
RUN apt-get update && apt-get install -y curl
`,
			WantViolations: 1,
			WantMessages:   []string{"apt-get install pulls recommended packages"},
			WantLines:      []int{2},
		},
		{
			Name: "apt",
			Content: `FROM debian:bookworm
RUN apt install nginx
`,
			WantViolations: 1,
		},
		{
			Name: "flag after install",
			Content: `FROM debian:bookworm
RUN apt-get install -y --no-install-recommends curl
`,
			WantViolations: 0,
		},
		{
			Name: "flag before install",
			Content: `FROM debian:bookworm
RUN apt-get --no-install-recommends install -y curl
`,
			WantViolations: 0,
		},
		{
			Name: "apt option",
			Content: `FROM debian:bookworm
RUN apt-get install -y -o APT::Install-Recommends=false curl
`,
			WantViolations: 0,
		},
		{
			Name: "unknown flags",
			Content: `FROM debian:bookworm
ARG APT_FLAGS
RUN apt-get install $APT_FLAGS curl
`,
			WantViolations: 0,
		},
		{
			Name: "no install",
			Content: `FROM debian:bookworm
RUN apt-get update
`,
			WantViolations: 0,
		},
		{
			Name: "two installs",
			Content: `FROM debian:bookworm
RUN apt-get install -y curl && apt-get install -y --no-install-recommends git
RUN apt-get install -y make
`,
			WantViolations: 2,
			WantLines:      []int{2, 3},
		},
	})
}

func TestAptNoInstallRecommendsRule_SuggestedFix(t *testing.T) {
	t.Parallel()
	input := testutil.MakeLintInput(t, "Dockerfile", `FROM debian:bookworm
RUN apt-get install -y curl
`)
	violations := NewAptNoInstallRecommendsRule().Check(input)
	require.Len(t, violations, 1)

	fix := violations[0].SuggestedFix
	require.NotNil(t, fix)
	require.Len(t, fix.Edits, 1)
	assert.Equal(t, " --no-install-recommends", fix.Edits[0].NewText)
	assert.Equal(t, rules.Position{Line: 2, Column: 19}, fix.Edits[0].Location.Start)
	assert.Equal(t, rules.Position{Line: 2, Column: 19}, fix.Edits[0].Location.End)
}
