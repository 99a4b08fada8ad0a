// Package shell splits shell scripts embedded in Dockerfiles into simple
// commands. It wraps mvdan.cc/sh/v3/syntax.
package shell

import (
	"path"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Variant is the shell dialect a script is parsed as.
type Variant int

const (
	VariantBash Variant = iota
	// VariantPOSIX covers sh, dash and ash.
	VariantPOSIX
	VariantMksh
)

var variants = map[string]Variant{
	"sh":   VariantPOSIX,
	"dash": VariantPOSIX,
	"ash":  VariantPOSIX,
	"mksh": VariantMksh,
	"ksh":  VariantMksh,
}

// VariantFromShell picks the dialect for a shell name or path. Shells it
// does not know parse as bash.
func VariantFromShell(shell string) Variant {
	return variants[strings.ToLower(path.Base(shell))]
}

func (v Variant) lang() syntax.LangVariant {
	return [...]syntax.LangVariant{
		VariantBash:  syntax.LangBash,
		VariantPOSIX: syntax.LangPOSIX,
		VariantMksh:  syntax.LangMirBSDKorn,
	}[v]
}
