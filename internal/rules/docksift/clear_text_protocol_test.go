package docksift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/testutil"
)

func TestClearTextProtocolRule_Metadata(t *testing.T) {
	t.Parallel()
	meta := NewClearTextProtocolRule().Metadata()
	assert.Equal(t, "docksift/clear-text-protocol", meta.Code)
	assert.True(t, meta.EnabledByDefault)
}

func TestClearTextProtocolRule_ValidateConfig(t *testing.T) {
	t.Parallel()
	r := NewClearTextProtocolRule()

	require.NoError(t, r.ValidateConfig(map[string]any{"allowed-hosts": []any{"mirror.internal"}}))
	require.Error(t, r.ValidateConfig(map[string]any{"allowed-hosts": "mirror.internal"}))
	require.Error(t, r.ValidateConfig(map[string]any{"hosts": []any{"x"}}))
}

func TestClearTextURL(t *testing.T) {
	t.Parallel()
	insecure := clearTextURL(DefaultClearTextProtocolConfig().AllowedHosts)

	assert.True(t, insecure("http://example.com/x"))
	assert.True(t, insecure("HTTP://example.com/x"))
	assert.True(t, insecure("ftp://ftp.example.com/pub/x.tgz"))
	assert.False(t, insecure("https://example.com/x"))
	assert.False(t, insecure("http://localhost:8080/health"))
	assert.False(t, insecure("http://[::1]/"))
	assert.False(t, insecure("example.com"))
	assert.False(t, insecure("-fsSL"))
}

func TestClearTextProtocolRule_Check(t *testing.T) {
	t.Parallel()
	testutil.RunRuleTests(t, NewClearTextProtocolRule(), []testutil.RuleTestCase{
		{
			Name: "curl over http",
			Content: `FROM alpine:3.20
RUN curl -fsSL http://example.com/install.sh | sh
`,
			WantViolations: 1,
			WantMessages:   []string{"curl downloads http://example.com/install.sh"},
			WantLines:      []int{2},
		},
		{
			Name: "wget over ftp",
			Content: `FROM alpine:3.20
RUN wget ftp://ftp.example.com/pub/file.tgz
`,
			WantViolations: 1,
		},
		{
			Name: "https",
			Content: `FROM alpine:3.20
RUN curl -fsSL https://example.com/install.sh | sh
`,
			WantViolations: 0,
		},
		{
			Name: "loopback",
			Content: `FROM alpine:3.20
HEALTHCHECK CMD curl -f http://localhost:8080/health
`,
			WantViolations: 0,
		},
		{
			Name: "allowed host from config",
			Content: `FROM alpine:3.20
RUN curl -o /tmp/pkg http://mirror.internal/pkg
`,
			Config:         ClearTextProtocolConfig{AllowedHosts: []string{"mirror.internal"}},
			WantViolations: 0,
		},
		{
			Name: "allowed hosts from a config map",
			Content: `FROM alpine:3.20
RUN curl -o /tmp/pkg http://mirror.internal/pkg
`,
			Config:         map[string]any{"allowed-hosts": []any{"mirror.internal"}},
			WantViolations: 0,
		},
		{
			Name: "url from build argument",
			Content: `FROM alpine:3.20
ARG MIRROR=http://example.com
RUN curl -o /tmp/pkg ${MIRROR}/pkg
`,
			WantViolations: 1,
			WantMessages:   []string{"http://example.com/pkg"},
		},
		{
			Name: "ADD remote file",
			Content: `FROM alpine:3.20
ADD http://example.com/app.tar.gz /app/
`,
			WantViolations: 1,
			WantMessages:   []string{"ADD downloads http://example.com/app.tar.gz"},
		},
	})
}
