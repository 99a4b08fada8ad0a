// Package config loads docksift configuration. Later layers win:
// built-in defaults, the closest .docksift.toml or docksift.toml above the
// linted file, DOCKSIFT_* environment variables, then command-line flags,
// which the CLI applies itself. Config files are never merged with each
// other.
package config

import (
	"bytes"
	"strconv"

	gotoml "github.com/pelletier/go-toml/v2"
)

// Config is the effective configuration for one file.
type Config struct {
	Rules            RulesConfig            `json:"rules" koanf:"rules"`
	Output           OutputConfig           `json:"output" koanf:"output"`
	InlineDirectives InlineDirectivesConfig `json:"inline-directives" koanf:"inline-directives"`
	FileValidation   FileValidationConfig   `json:"file-validation" koanf:"file-validation"`

	// ConfigFile is the file the configuration was read from, or "".
	ConfigFile string `json:"-" koanf:"-"`
}

// FileValidationConfig holds the checks run before a file is parsed.
type FileValidationConfig struct {
	// MaxFileSize is the largest file accepted, in bytes. Zero disables
	// the check.
	MaxFileSize int64 `json:"max-file-size" koanf:"max-file-size" toml:"max-file-size"`
}

type OutputConfig struct {
	Format string `json:"format,omitempty" koanf:"format" toml:"format"`
	// Path is "stdout", "stderr" or a file path.
	Path       string `json:"path,omitempty" koanf:"path" toml:"path"`
	ShowSource bool   `json:"show-source" koanf:"show-source" toml:"show-source"`
	// FailLevel is the least severe violation that fails the run.
	FailLevel string `json:"fail-level,omitempty" koanf:"fail-level" toml:"fail-level"`
}

// InlineDirectivesConfig controls suppression comments: "# docksift
// ignore=...", "# hadolint ignore=..." and "# check=skip=...".
type InlineDirectivesConfig struct {
	Enabled bool `json:"enabled" koanf:"enabled" toml:"enabled"`
	// WarnUnused reports directives that suppressed nothing.
	WarnUnused bool `json:"warn-unused" koanf:"warn-unused" toml:"warn-unused"`
	// ValidateRules reports directives naming unknown rules.
	ValidateRules bool `json:"validate-rules" koanf:"validate-rules" toml:"validate-rules"`
	// RequireReason reports directives without reason=.
	RequireReason bool `json:"require-reason" koanf:"require-reason" toml:"require-reason"`
}

// Default returns the built-in configuration. Rule options default in the
// rules themselves.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:     "text",
			Path:       "stdout",
			ShowSource: true,
			FailLevel:  "style",
		},
		// Directives copied from hadolint setups name rules docksift lacks,
		// so unknown codes are not reported by default.
		InlineDirectives: InlineDirectivesConfig{Enabled: true},
		FileValidation:   FileValidationConfig{MaxFileSize: 100 << 10},
	}
}

// TOML renders the effective configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if c.ConfigFile != "" {
		buf.WriteString("# Loaded from " + strconv.Quote(c.ConfigFile) + "\n\n")
	}
	enc := gotoml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(c.tomlDocument()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type tomlDocument struct {
	Output           OutputConfig           `toml:"output"`
	InlineDirectives InlineDirectivesConfig `toml:"inline-directives"`
	FileValidation   FileValidationConfig   `toml:"file-validation"`
	Rules            map[string]any         `toml:"rules,omitempty"`
}

func (c *Config) tomlDocument() tomlDocument {
	doc := tomlDocument{
		Output:           c.Output,
		InlineDirectives: c.InlineDirectives,
		FileValidation:   c.FileValidation,
	}
	if rules := c.Rules.tomlTable(); len(rules) > 0 {
		doc.Rules = rules
	}
	return doc
}
