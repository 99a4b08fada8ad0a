package hadolint

import (
	"fmt"
	"strings"

	"github.com/wharflab/docksift/internal/rules"
)

// DL3007Rule implements the DL3007 linting rule.
type DL3007Rule struct{}

// NewDL3007Rule creates a new DL3007 rule instance.
func NewDL3007Rule() *DL3007Rule {
	return &DL3007Rule{}
}

// Metadata returns the rule metadata.
func (r *DL3007Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.HadolintRulePrefix + "DL3007",
		Name:             "Avoid using :latest tag",
		Description:      "Using :latest is prone to errors if the image will ever update. Pin the version explicitly to a release tag.",
		DocURL:           wikiBase + "DL3007",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "reproducibility",
		EnabledByDefault: true,
	}
}

// Check runs the DL3007 rule.
// It warns when a FROM instruction uses an image with the :latest tag.
// Build arguments in the image name are expanded first; images that stay
// unresolved and references to earlier stages are skipped.
func (r *DL3007Rule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()
	stages := make(map[string]bool)

	var violations []rules.Violation
	for _, stage := range input.Tree.Stages {
		from := stage.From
		res := input.Resolver.Resolve(from.Image, input.Resolver.ScopeAt(from))
		earlierStage := res.IsResolved() && stages[strings.ToLower(res.Value)]
		if name := stage.Name(); name != "" {
			stages[name] = true
		}
		if !res.IsResolved() || earlierStage {
			continue
		}

		ref := parseImageRef(res.Value)
		// If the image has a digest, it's pinned regardless of tag
		if ref == nil || !ref.IsLatestTag() || ref.HasDigest() {
			continue
		}

		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromNode(input.File, from.Image),
			meta.Code,
			fmt.Sprintf(
				"using :latest tag for image %q is prone to errors; pin a specific version instead (e.g., %s:22.04)",
				res.Value,
				ref.FamiliarName(),
			),
			meta.DefaultSeverity,
		).WithDocURL(meta.DocURL).WithDetail(
			"The :latest tag can change at any time, potentially breaking builds "+
				"or introducing unexpected behavior. Use a specific version tag for reproducibility.",
		))
	}

	return violations
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewDL3007Rule())
}
