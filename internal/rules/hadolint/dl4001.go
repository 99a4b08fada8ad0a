package hadolint

import (
	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
)

var (
	wgetCommand = detector.Builder().With(detector.Program("wget")).Build()
	curlCommand = detector.Builder().With(detector.Program("curl")).Build()
)

// DL4001Rule implements the DL4001 linting rule.
type DL4001Rule struct{}

// NewDL4001Rule creates a new DL4001 rule instance.
func NewDL4001Rule() *DL4001Rule {
	return &DL4001Rule{}
}

// Metadata returns the rule metadata.
func (r *DL4001Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.HadolintRulePrefix + "DL4001",
		Name:             "Either wget or curl but not both",
		Description:      "Either use wget or curl but not both to reduce image size",
		DocURL:           wikiBase + "DL4001",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "maintainability",
		EnabledByDefault: true,
	}
}

// Check runs the DL4001 rule.
// When RUN instructions call both tools, every curl call is reported.
func (r *DL4001Rule) Check(input rules.LintInput) []rules.Violation {
	var wget bool
	var curls [][]*resolve.Resolution
	for _, args := range runCommands(input) {
		if m := curlCommand.Match(detector.NewQueue(args)); m != nil {
			curls = append(curls, m)
		}
		if wgetCommand.Match(detector.NewQueue(args)) != nil {
			wget = true
		}
	}
	if !wget || len(curls) == 0 {
		return nil
	}

	meta := r.Metadata()
	violations := make([]rules.Violation, 0, len(curls))
	for _, m := range curls {
		violations = append(violations, rules.NewMatchViolation(input.File, meta, m,
			"both wget and curl are used; pick one to reduce image size and complexity",
		).WithDetail(
			"Using both wget and curl increases image size and maintenance burden. "+
				"Standardize on one tool. curl is generally preferred in containers "+
				"due to better scripting support and broader protocol support.",
		))
	}
	return violations
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewDL4001Rule())
}
