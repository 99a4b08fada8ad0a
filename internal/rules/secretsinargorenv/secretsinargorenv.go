// Package secretsinargorenv reports ARG and ENV names that look like they
// hold secrets. Their values end up in the image config and history.
package secretsinargorenv

import (
	"strings"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/tree"
)

// Name words BuildKit's SecretsUsedInArgOrEnv check treats as secret. A
// word is a run between underscores, so API_KEY matches and KEYBOARD does
// not.
var (
	secretWords = wordSet("apikey", "auth", "credential", "credentials", "key",
		"password", "pword", "passwd", "secret", "token")
	publicWords = wordSet("public")
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

type Rule struct{}

func New() *Rule {
	return &Rule{}
}

func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "secrets-in-arg-or-env",
		Name:             "Secrets in ARG or ENV",
		Description:      "Sensitive data should not be used in build-time variables",
		DocURL:           "https://github.com/wharflab/docksift/blob/main/docs/rules/secrets-in-arg-or-env.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// Check looks at every ARG and ENV, global ones and ONBUILD triggers
// included.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	meta := r.Metadata()
	var out []rules.Violation
	for _, instr := range input.Instructions() {
		if ob, ok := instr.(*tree.OnBuild); ok {
			instr = ob.Inner
		}
		kv, ok := instr.(*tree.KeyValue)
		if !ok {
			continue
		}
		keyword := kv.Name()
		if keyword != "ARG" && keyword != "ENV" {
			continue
		}
		for _, p := range kv.Pairs {
			name := p.Key.Value
			if !isSecretKey(name) {
				continue
			}
			out = append(out, rules.NewViolation(
				rules.NewLocationFromNode(input.File, p),
				meta.Code,
				"Do not use ARG or ENV instructions for sensitive data ("+name+")",
				meta.DefaultSeverity,
			).WithDocURL(meta.DocURL).
				WithEvidence(name).
				WithDetail("Using "+keyword+" "+name+" may leak secrets in image history. "+
					"Use --mount=type=secret instead for build-time secrets."))
		}
	}
	return out
}

// isSecretKey reports whether a word of name is a secret word and none is
// a public one.
func isSecretKey(name string) bool {
	secret := false
	for w := range strings.SplitSeq(strings.ToLower(name), "_") {
		if _, ok := publicWords[w]; ok {
			return false
		}
		if _, ok := secretWords[w]; ok {
			secret = true
		}
	}
	return secret
}

func init() {
	rules.Register(New())
}
