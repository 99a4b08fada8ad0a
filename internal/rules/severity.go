// Package rules provides the rule system of docksift: rule metadata,
// violations, locations, severities and the global rule registry.
package rules

import (
	"fmt"
	"strings"
)

// Severity ranks violations. Lower values are more severe, so the zero
// value is SeverityError and SeverityOff sorts last.
//
//nolint:recvcheck // UnmarshalText requires a pointer receiver
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityStyle
	// SeverityOff disables a rule. Violations never carry it.
	SeverityOff
)

var severityNames = [...]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
	SeverityStyle:   "style",
	SeverityOff:     "off",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// MarshalText encodes a severity by name in JSON, TOML and YAML.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(data []byte) error {
	parsed, err := ParseSeverity(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts a severity name in any case, and "warn" for
// warning.
func ParseSeverity(name string) (Severity, error) {
	name = strings.ToLower(name)
	if name == "warn" {
		return SeverityWarning, nil
	}
	for s, n := range severityNames {
		if n == name {
			return Severity(s), nil
		}
	}
	return SeverityError, fmt.Errorf("unknown severity: %q", name)
}

// IsAtLeast reports whether s is as severe as threshold or more.
func (s Severity) IsAtLeast(threshold Severity) bool {
	return s <= threshold
}
