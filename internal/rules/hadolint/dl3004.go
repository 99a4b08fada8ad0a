package hadolint

import (
	"strings"

	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/rules"
)

var isSudo = detector.Program("sudo")

var sudoCommand = detector.Builder().
	// A subshell glues its parenthesis to the first word.
	With(func(v string) bool { return isSudo(strings.TrimLeft(v, "({")) }).
	Build()

// DL3004Rule implements the DL3004 linting rule.
type DL3004Rule struct{}

// NewDL3004Rule creates a new DL3004 rule instance.
func NewDL3004Rule() *DL3004Rule {
	return &DL3004Rule{}
}

// Metadata returns the rule metadata.
func (r *DL3004Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.HadolintRulePrefix + "DL3004",
		Name:             "Do not use sudo",
		Description:      "Do not use sudo as it has unpredictable behavior in containers",
		DocURL:           wikiBase + "DL3004",
		DefaultSeverity:  rules.SeverityError,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check runs the DL3004 rule.
// It warns on every command of a RUN instruction that runs sudo, directly
// or through a wrapper such as env or nice.
func (r *DL3004Rule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()

	var violations []rules.Violation
	for _, args := range runCommands(input) {
		m := sudoCommand.Match(detector.NewQueue(args))
		if m == nil {
			continue
		}
		violations = append(violations, rules.NewMatchViolation(input.File, meta, m,
			"do not use sudo in RUN commands; it has unpredictable TTY and signal handling",
		).WithDetail(
			"sudo is designed for interactive use and doesn't work reliably in containers. "+
				"Instead, use the USER instruction to switch users, or run specific commands "+
				"as a different user with 'su -c' if necessary.",
		))
	}
	return violations
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewDL3004Rule())
}
