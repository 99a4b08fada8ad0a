package configutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	Max          int      `json:"max"           koanf:"max"`
	Strict       bool     `json:"strict"        koanf:"strict"`
	Mode         string   `json:"mode"          koanf:"mode"`
	AllowedHosts []string `json:"allowed-hosts" koanf:"allowed-hosts"`
	Limit        *int     `json:"limit"         koanf:"limit"`
}

func defaultOptions() testOptions {
	limit := 5
	return testOptions{
		Max:          50,
		Strict:       true,
		Mode:         "default",
		AllowedHosts: []string{"localhost"},
		Limit:        &limit,
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts map[string]any
		want func(*testOptions)
	}{
		{"no options", nil, func(*testOptions) {}},
		{"empty options", map[string]any{}, func(*testOptions) {}},
		{"one key", map[string]any{"max": 100}, func(o *testOptions) { o.Max = 100 }},
		{"explicit zero", map[string]any{"max": 0, "strict": false}, func(o *testOptions) {
			o.Max = 0
			o.Strict = false
		}},
		{"kebab-case list", map[string]any{"allowed-hosts": []any{"a.example", "b.example"}}, func(o *testOptions) {
			o.AllowedHosts = []string{"a.example", "b.example"}
		}},
		{"cleared list", map[string]any{"allowed-hosts": []any{}}, func(o *testOptions) {
			o.AllowedHosts = []string{}
		}},
		{"pointer", map[string]any{"limit": 9}, func(o *testOptions) {
			nine := 9
			o.Limit = &nine
		}},
		{"undecodable", map[string]any{"max": "lots"}, func(*testOptions) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			want := defaultOptions()
			tt.want(&want)
			got := Resolve(tt.opts, defaultOptions())
			assert.Equal(t, want.Max, got.Max)
			assert.Equal(t, want.Strict, got.Strict)
			assert.Equal(t, want.Mode, got.Mode)
			assert.Equal(t, want.AllowedHosts, got.AllowedHosts)
			require.NotNil(t, got.Limit)
			assert.Equal(t, *want.Limit, *got.Limit)
		})
	}
}

func TestResolve_NonStruct(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3, Resolve(map[string]any{"x": 1}, 3))
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	defaults := testOptions{Max: 7}
	assert.Equal(t, 7, Coerce(nil, defaults).Max)
	assert.Equal(t, 3, Coerce(testOptions{Max: 3}, defaults).Max)
	assert.Equal(t, 4, Coerce(&testOptions{Max: 4}, defaults).Max)
	assert.Equal(t, 7, Coerce((*testOptions)(nil), defaults).Max)
	assert.Equal(t, 5, Coerce(map[string]any{"max": 5}, defaults).Max)
	assert.Equal(t, 7, Coerce("bogus", defaults).Max)
}

func TestValidateWithSchema(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"max": map[string]any{"type": "integer", "minimum": 0},
			"allowed-hosts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"uniqueItems": true,
			},
		},
	}

	tests := []struct {
		name    string
		config  any
		wantErr bool
	}{
		{"valid map", map[string]any{"max": 10}, false},
		{"negative", map[string]any{"max": -1}, true},
		{"duplicate hosts", map[string]any{"allowed-hosts": []string{"a", "a"}}, true},
		{"struct by json tags", testOptions{Max: 1, AllowedHosts: []string{"a"}}, false},
		{"struct out of range", testOptions{Max: -3}, true},
		{"nil", nil, false},
		{"typed nil", (*testOptions)(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateWithSchema(tt.config, schema)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.NoError(t, ValidateWithSchema(map[string]any{}, nil), "nil schema")
	assert.Error(t, ValidateWithSchema(map[string]any{"foo": "bar"}, map[string]any{"type": "invalid-type"}))
}
