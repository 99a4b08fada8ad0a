package docksift

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wharflab/docksift/internal/testutil"
)

func TestUserPassword(t *testing.T) {
	t.Parallel()
	assert.True(t, userPassword("admin:secret"))
	assert.False(t, userPassword("admin"))
	assert.False(t, userPassword("admin:"))
	assert.False(t, userPassword(":secret"))
}

func TestHardCodedCredentialsRule_Check(t *testing.T) {
	t.Parallel()
	testutil.RunRuleTests(t, NewHardCodedCredentialsRule(), []testutil.RuleTestCase{
		{
			Name: "wget user and password",
			Content: `FROM alpine:3.20
RUN wget --user admin --password secret https://example.com/x
`,
			WantViolations: 1,
			WantCodes:      []string{"docksift/hard-coded-credentials"},
			WantMessages:   []string{"wget is given a hard-coded password"},
			WantLines:      []int{2},
		},
		{
			Name: "wget password first",
			Content: `FROM alpine:3.20
RUN wget -q --password secret --user admin https://example.com/x
`,
			WantViolations: 1,
		},
		{
			Name: "wget user only",
			Content: `FROM alpine:3.20
RUN wget --user admin https://example.com/x
`,
			WantViolations: 0,
		},
		{
			Name: "wget password flag without a value",
			Content: `FROM alpine:3.20
RUN wget https://example.com/x --user admin --password
`,
			WantViolations: 0,
		},
		{
			Name: "curl -u ends the command",
			Content: `FROM alpine:3.20
RUN curl https://example.com/x -u
`,
			WantViolations: 0,
		},
		{
			Name: "curl -u",
			Content: `FROM alpine:3.20
RUN curl -fsSL -u admin:secret https://example.com/x
`,
			WantViolations: 1,
			WantMessages:   []string{"curl is given"},
		},
		{
			Name: "curl glued -u",
			Content: `FROM alpine:3.20
RUN curl -uadmin:secret https://example.com/x
`,
			WantViolations: 1,
		},
		{
			Name: "curl prompts for the password",
			Content: `FROM alpine:3.20
RUN curl -u admin https://example.com/x
`,
			WantViolations: 0,
		},
		{
			Name: "credentials from a secret",
			Content: `FROM alpine:3.20
RUN --mount=type=secret,id=creds curl -u "$(cat /run/secrets/creds)" https://example.com/x
`,
			WantViolations: 0,
		},
	})
}
