package docksift

import (
	"fmt"
	"strings"

	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/rules"
)

// userPassword matches a user:password pair with a non-empty password.
func userPassword(v string) bool {
	user, pass, ok := strings.Cut(v, ":")
	return ok && user != "" && pass != ""
}

var (
	curlUser         = detector.OneOf("-u", "--user", "--proxy-user", "-U")
	wgetUserFlag     = detector.OneOf("--user", "--http-user", "--ftp-user")
	wgetPasswordFlag = detector.OneOf("--password", "--http-password", "--ftp-password")
)

var hardCodedCredentialDetectors = []*detector.Detector{
	// wget --user X --password Y, in any order, among other flags.
	detector.Builder().
		With(detector.Program("wget")).
		WithOptionalRepeatingExcept(detector.IsFlag).
		WithUnorderedOptions(true,
			detector.NewOption(wgetUserFlag, detector.Not(detector.IsFlag)),
			detector.NewOption(wgetPasswordFlag, detector.Not(detector.IsFlag)),
		).
		Build(),
	// curl -u user:pass
	detector.Builder().
		With(detector.Program("curl")).
		WithOptionalRepeatingExcept(curlUser).
		WithOption(curlUser, nil).
		With(userPassword).
		Build(),
	// curl -uuser:pass
	detector.Builder().
		With(detector.Program("curl")).
		WithOptionalRepeatingExcept(detector.NoSpaceFlag("-u")).
		With(func(v string) bool { return detector.NoSpaceFlag("-u")(v) && userPassword(v[2:]) }).
		Build(),
}

// HardCodedCredentialsRule flags passwords written on the command line.
type HardCodedCredentialsRule struct{}

// NewHardCodedCredentialsRule creates a new hard-coded-credentials rule instance.
func NewHardCodedCredentialsRule() *HardCodedCredentialsRule {
	return &HardCodedCredentialsRule{}
}

// Metadata returns the rule metadata.
func (r *HardCodedCredentialsRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "hard-coded-credentials",
		Name:             "Hard-coded credentials",
		Description:      "Credentials passed on the command line are stored in the image history",
		DocURL:           docBase + "hard-coded-credentials.md",
		DefaultSeverity:  rules.SeverityError,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check runs the hard-coded-credentials rule.
func (r *HardCodedCredentialsRule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()

	var violations []rules.Violation
	for _, m := range search(input, hardCodedCredentialDetectors) {
		// A credential flag that ends the command carries no value.
		if last := m[len(m)-1].Value; wgetUserFlag(last) || wgetPasswordFlag(last) {
			continue
		}
		violations = append(violations, newViolation(input, meta, m,
			fmt.Sprintf("%s is given a hard-coded password", m[0].Value),
		).WithDetail(credentialsDetail))
	}
	return violations
}

const credentialsDetail = "Pass credentials with RUN --mount=type=secret, or read them from a " +
	"file that is not part of the image."

func init() {
	rules.Register(NewHardCodedCredentialsRule())
}
