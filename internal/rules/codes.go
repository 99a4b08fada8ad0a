package rules

import "strings"

// Rule namespaces. Every rule code starts with one of them.
const (
	DocksiftRulePrefix = "docksift/"
	HadolintRulePrefix = "hadolint/"
)

// Codes the linter and the directive filter report under. No rule in the
// registry produces them.
const (
	SyntaxErrorCode            = DocksiftRulePrefix + "syntax-error"
	InvalidDirectiveCode       = DocksiftRulePrefix + "invalid-directive"
	UnusedDirectiveCode        = DocksiftRulePrefix + "unused-directive"
	MissingDirectiveReasonCode = DocksiftRulePrefix + "missing-directive-reason"
)

// Namespace splits a rule code into its namespace, without the slash, and
// the bare name. ok is false for a code outside the known namespaces.
func Namespace(code string) (ns, name string, ok bool) {
	for _, prefix := range []string{DocksiftRulePrefix, HadolintRulePrefix} {
		if rest, found := strings.CutPrefix(code, prefix); found && rest != "" {
			return strings.TrimSuffix(prefix, "/"), rest, true
		}
	}
	return "", code, false
}
