package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityNamesRoundTrip(t *testing.T) {
	t.Parallel()
	for s := SeverityError; s <= SeverityOff; s++ {
		parsed, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "unknown", Severity(99).String())
	assert.Equal(t, "unknown", Severity(-1).String())
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{"WARNING", SeverityWarning, false},
		{"warn", SeverityWarning, false},
		{"Info", SeverityInfo, false},
		{"style", SeverityStyle, false},
		{"off", SeverityOff, false},
		{"fatal", SeverityError, true},
		{"", SeverityError, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(map[string]Severity{"a": SeverityWarning, "b": SeverityStyle})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"warning","b":"style"}`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"ERROR"`), &s))
	assert.Equal(t, SeverityError, s)
	require.Error(t, json.Unmarshal([]byte(`"nope"`), &s))
	require.Error(t, json.Unmarshal([]byte(`3`), &s))
}

func TestSeverityIsAtLeast(t *testing.T) {
	t.Parallel()
	assert.True(t, SeverityError.IsAtLeast(SeverityWarning))
	assert.True(t, SeverityWarning.IsAtLeast(SeverityWarning))
	assert.False(t, SeverityInfo.IsAtLeast(SeverityWarning))
	assert.True(t, SeverityStyle.IsAtLeast(SeverityStyle))

	// The zero value is the most severe level.
	var v Violation
	assert.Equal(t, SeverityError, v.Severity)
	assert.Greater(t, SeverityOff, SeverityStyle)
}
