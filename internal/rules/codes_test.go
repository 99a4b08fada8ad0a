package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code, ns, name string
		ok             bool
	}{
		{"docksift/insecure-tls", "docksift", "insecure-tls", true},
		{"hadolint/DL3007", "hadolint", "DL3007", true},
		{"hadolint/*", "hadolint", "*", true},
		{"hadolint/", "", "hadolint/", false},
		{"DL3007", "", "DL3007", false},
		{"other/x", "", "other/x", false},
	}
	for _, tt := range tests {
		ns, name, ok := Namespace(tt.code)
		assert.Equal(t, tt.ok, ok, tt.code)
		assert.Equal(t, tt.ns, ns, tt.code)
		assert.Equal(t, tt.name, name, tt.code)
	}
}
