package reporter

import (
	"charm.land/lipgloss/v2"

	"github.com/wharflab/docksift/internal/rules"
)

// level is how each output format presents a severity.
type level struct {
	sarif  string
	github string
	emoji  string
	style  lipgloss.Style
}

var levels = map[rules.Severity]level{
	rules.SeverityError: {
		sarif: "error", github: "error", emoji: "❌",
		style: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	},
	rules.SeverityWarning: {
		sarif: "warning", github: "warning", emoji: "⚠️",
		style: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	},
	rules.SeverityInfo: {
		sarif: "note", github: "notice", emoji: "ℹ️",
		style: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	},
	rules.SeverityStyle: {
		sarif: "note", github: "notice", emoji: "💅",
		style: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
	},
}

// levelOf returns the presentation of s. Violations never carry
// SeverityOff once the enable filter ran; it and unknown values read as
// warnings.
func levelOf(s rules.Severity) level {
	if l, ok := levels[s]; ok {
		return l
	}
	return levels[rules.SeverityWarning]
}

// severityCounts counts violations per reported severity.
func severityCounts(violations []rules.Violation) map[rules.Severity]int {
	counts := make(map[rules.Severity]int, len(levels))
	for _, v := range violations {
		counts[v.Severity]++
	}
	return counts
}
