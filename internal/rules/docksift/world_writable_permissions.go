package docksift

import (
	"fmt"
	"strings"

	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/rules"
)

var worldWritableDetectors = []*detector.Detector{
	detector.Builder().
		With(detector.Program("chmod")).
		WithAnyFlag().
		With(worldWritableMode).
		Build(),
	// install -m MODE
	detector.Builder().
		With(detector.Program("install")).
		WithOptionalRepeatingExcept(detector.Or(detector.Equals("-m"), detector.LongFlag("mode"))).
		WithOption(detector.Or(detector.Equals("-m"), detector.Equals("--mode")), nil).
		With(worldWritableMode).
		Build(),
}

// worldWritableMode matches a chmod mode that grants write access to
// others: an octal mode with the 2 bit set in its last digit, or a symbolic
// clause such as o+w, a+rwx or a=rw. Sticky directories (1777) are allowed.
func worldWritableMode(mode string) bool {
	if isOctal(mode) {
		if len(mode) < 3 || len(mode) > 4 {
			return false
		}
		if len(mode) == 4 && (mode[0]-'0')&1 != 0 {
			return false
		}
		return (mode[len(mode)-1]-'0')&2 != 0
	}
	for clause := range strings.SplitSeq(mode, ",") {
		i := strings.IndexAny(clause, "+=")
		if i < 0 {
			continue
		}
		who, perms := clause[:i], clause[i+1:]
		if strings.ContainsAny(who, "oa") && strings.ContainsRune(perms, 'w') &&
			strings.Trim(who, "ugoa") == "" {
			return true
		}
	}
	return false
}

func isOctal(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

// WorldWritablePermissionsRule flags files made writable by every user.
type WorldWritablePermissionsRule struct{}

// NewWorldWritablePermissionsRule creates a new world-writable-permissions rule instance.
func NewWorldWritablePermissionsRule() *WorldWritablePermissionsRule {
	return &WorldWritablePermissionsRule{}
}

// Metadata returns the rule metadata.
func (r *WorldWritablePermissionsRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "world-writable-permissions",
		Name:             "World-writable permissions",
		Description:      "Files writable by any user let an unprivileged process tamper with the image",
		DocURL:           docBase + "world-writable-permissions.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check runs the world-writable-permissions rule.
func (r *WorldWritablePermissionsRule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()

	var violations []rules.Violation
	for _, m := range search(input, worldWritableDetectors) {
		mode := m[len(m)-1].Value
		violations = append(violations, newViolation(input, meta, m,
			fmt.Sprintf("mode %s makes files writable by all users", mode),
		).WithDetail("Grant write access to the owning user or group only, e.g. 755 or 775."))
	}

	// COPY --chmod=777 and ADD --chmod=777.
	for _, instr := range input.Instructions() {
		flags, ok := copyFlags(instr)
		if !ok {
			continue
		}
		for _, f := range flags {
			if f.Key() != "chmod" || f.Value == nil {
				continue
			}
			res := input.Resolver.Resolve(f.Value, input.Resolver.ScopeAt(instr))
			if !res.IsResolved() || !worldWritableMode(res.Value) {
				continue
			}
			violations = append(violations, rules.NewViolation(
				rules.NewLocationFromNode(input.File, f),
				meta.Code,
				fmt.Sprintf("%s --chmod=%s makes files writable by all users", instr.Name(), res.Value),
				meta.DefaultSeverity,
			).WithDocURL(meta.DocURL))
		}
	}
	return violations
}

func init() {
	rules.Register(NewWorldWritablePermissionsRule())
}
