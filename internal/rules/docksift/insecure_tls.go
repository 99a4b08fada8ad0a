package docksift

import (
	"fmt"
	"strings"

	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
)

var (
	curlInsecure = detector.Or(detector.ShortFlag('k'), detector.LongFlag("insecure"))
	wgetInsecure = detector.LongFlag("no-check-certificate")

	insecureTLSDetectors = []*detector.Detector{
		detector.Builder().
			With(detector.Program("curl")).
			WithOptionalRepeatingExcept(curlInsecure).
			With(curlInsecure).
			Build(),
		detector.Builder().
			With(detector.Program("wget")).
			WithOptionalRepeatingExcept(wgetInsecure).
			With(wgetInsecure).
			Build(),
		detector.Builder().
			With(detector.Program("npm", "yarn", "pnpm")).
			With(detector.Equals("config")).
			With(detector.Equals("set")).
			With(detector.OneOf("strict-ssl", "strict-ssl=false")).
			WithOptional(detector.Equals("false")).
			Build(),
		detector.Builder().
			With(detector.Program("git")).
			With(detector.Equals("config")).
			WithAnyFlag().
			With(func(v string) bool { return strings.EqualFold(v, "http.sslVerify") }).
			With(detector.OneOf("false", "0", "no", "off")).
			Build(),
	}
)

// InsecureTLSRule flags commands that turn off TLS certificate verification.
type InsecureTLSRule struct{}

// NewInsecureTLSRule creates a new insecure-tls rule instance.
func NewInsecureTLSRule() *InsecureTLSRule {
	return &InsecureTLSRule{}
}

// Metadata returns the rule metadata.
func (r *InsecureTLSRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "insecure-tls",
		Name:             "Insecure TLS",
		Description:      "Disabling certificate verification allows man-in-the-middle attacks during the build",
		DocURL:           docBase + "insecure-tls.md",
		DefaultSeverity:  rules.SeverityError,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check runs the insecure-tls rule.
func (r *InsecureTLSRule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()

	var violations []rules.Violation
	for _, m := range search(input, insecureTLSDetectors) {
		violations = append(violations, newViolation(input, meta, m,
			fmt.Sprintf("%s disables TLS certificate verification", m[0].Value),
		).WithDetail(insecureTLSDetail(m)))
	}
	return violations
}

func insecureTLSDetail(m []*resolve.Resolution) string {
	last := m[len(m)-1].Value
	switch {
	case curlInsecure(last), wgetInsecure(last):
		return "Remove " + last + " and install the CA certificates the server needs instead."
	default:
		return "Keep certificate verification enabled and add the required CA certificates to the image."
	}
}

func init() {
	rules.Register(NewInsecureTLSRule())
}
