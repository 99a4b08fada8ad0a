package hadolint

import (
	"strings"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/tree"
)

// DL3002Rule implements the DL3002 linting rule.
type DL3002Rule struct{}

// NewDL3002Rule creates a new DL3002 rule instance.
func NewDL3002Rule() *DL3002Rule {
	return &DL3002Rule{}
}

// Metadata returns the rule metadata.
func (r *DL3002Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.HadolintRulePrefix + "DL3002",
		Name:             "Last USER should not be root",
		Description:      "Last USER should not be root to follow security best practices",
		DocURL:           wikiBase + "DL3002",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check runs the DL3002 rule.
// It warns when the last USER instruction of the final stage, the one
// that actually runs, is root.
func (r *DL3002Rule) Check(input rules.LintInput) []rules.Violation {
	if input.Tree == nil || len(input.Tree.Stages) == 0 {
		return nil
	}
	final := input.Tree.Stages[len(input.Tree.Stages)-1]

	// ONBUILD USER runs in a child image, so only direct USER counts.
	var lastUser *tree.Generic
	for _, in := range final.Instructions {
		if g, ok := in.(*tree.Generic); ok && g.Name() == "USER" && len(g.Arguments()) > 0 {
			lastUser = g
		}
	}
	if lastUser == nil {
		return nil
	}

	res := input.Resolver.Resolve(lastUser.Arguments()[0], input.Resolver.ScopeAt(lastUser))
	if !res.IsResolved() || !isRootUser(res.Value) {
		return nil
	}

	meta := r.Metadata()
	return []rules.Violation{
		rules.NewViolation(
			rules.NewLocationFromNode(input.File, lastUser),
			meta.Code,
			"last USER should not be root; use a non-privileged user for better security",
			meta.DefaultSeverity,
		).WithDocURL(meta.DocURL).WithDetail(
			"Running containers as root increases the attack surface. " +
				"Create a non-privileged user and switch to it with USER instruction. " +
				"For example: RUN useradd -m appuser && USER appuser",
		),
	}
}

// isRootUser checks if a user specification refers to the root user.
// The USER instruction can specify: username, uid, username:group, or uid:gid.
func isRootUser(user string) bool {
	// Strip group if present (user:group format)
	if idx := strings.Index(user, ":"); idx != -1 {
		user = user[:idx]
	}
	user = strings.TrimSpace(strings.ToLower(user))

	// root by name or UID 0
	return user == "root" || user == "0"
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewDL3002Rule())
}
