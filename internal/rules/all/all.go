// Package all imports all rule packages to register them.
// Import this package with a blank identifier to enable all rules:
//
//	import _ "github.com/wharflab/docksift/internal/rules/all"
package all

import (
	// Import all rule packages to trigger their init() registration
	_ "github.com/wharflab/docksift/internal/rules/docksift"
	_ "github.com/wharflab/docksift/internal/rules/hadolint"
	_ "github.com/wharflab/docksift/internal/rules/secretsinargorenv"
	_ "github.com/wharflab/docksift/internal/rules/secretsincode"
)
