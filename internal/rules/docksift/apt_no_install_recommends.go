package docksift

import (
	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
)

var noInstallRecommends = detector.Or(
	detector.LongFlag("no-install-recommends"),
	detector.OneOf("APT::Install-Recommends=false", "APT::Install-Recommends=0"),
)

var aptInstall = detector.Builder().
	With(detector.Program("apt-get", "apt")).
	WithAnyFlagExcept(noInstallRecommends).
	With(detector.Equals("install")).
	Build()

// aptInstallWithoutRecommends recognizes an install that already opts out,
// with the flag before or after the install verb.
var aptInstallWithoutRecommends = detector.Builder().
	With(detector.Program("apt-get", "apt")).
	WithOptionalRepeatingExcept(noInstallRecommends).
	With(noInstallRecommends).
	Build()

// AptNoInstallRecommendsRule flags apt installs that pull recommended packages.
type AptNoInstallRecommendsRule struct{}

// NewAptNoInstallRecommendsRule creates a new apt-no-install-recommends rule instance.
func NewAptNoInstallRecommendsRule() *AptNoInstallRecommendsRule {
	return &AptNoInstallRecommendsRule{}
}

// Metadata returns the rule metadata.
func (r *AptNoInstallRecommendsRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "apt-no-install-recommends",
		Name:             "apt install without --no-install-recommends",
		Description:      "Recommended packages enlarge the image and its attack surface",
		DocURL:           docBase + "apt-no-install-recommends.md",
		DefaultSeverity:  rules.SeverityInfo,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check runs the apt-no-install-recommends rule.
func (r *AptNoInstallRecommendsRule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()

	var violations []rules.Violation
	for _, c := range commands(input) {
		for _, m := range aptInstall.Search(c.args) {
			rest := c.args[indexOf(c.args, m[0]):]
			if !allResolved(rest) || aptInstallWithoutRecommends.Match(detector.NewQueue(rest)) != nil {
				continue
			}
			v := newViolation(input, meta, m,
				m[0].Value+" install pulls recommended packages; add --no-install-recommends",
			)
			if install := m[len(m)-1]; install.Argument != nil && install.Argument.Text() == "install" {
				end := install.Argument.TextRange().End
				v = v.WithSuggestedFix(&rules.SuggestedFix{
					Description: "Add --no-install-recommends",
					Edits: []rules.TextEdit{{
						Location: rules.NewRangeLocation(input.File, end.Line, end.Column, end.Line, end.Column),
						NewText:  " --no-install-recommends",
					}},
				})
			}
			violations = append(violations, v)
		}
	}
	return violations
}

func indexOf(args []*resolve.Resolution, r *resolve.Resolution) int {
	for i, a := range args {
		if a == r {
			return i
		}
	}
	return 0
}

// allResolved reports whether every argument is known. An unresolved word
// may expand to the flag, so the command cannot be judged.
func allResolved(args []*resolve.Resolution) bool {
	for _, a := range args {
		if !a.IsResolved() {
			return false
		}
	}
	return true
}

func init() {
	rules.Register(NewAptNoInstallRecommendsRule())
}
