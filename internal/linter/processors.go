package linter

import (
	"github.com/wharflab/docksift/internal/processor"
	"github.com/wharflab/docksift/internal/rules"
)

// CLIProcessors returns the chain the CLI runs over a lint run, and the
// inline directive filter in it, whose directive findings the caller
// collects after the chain has run.
func CLIProcessors() (*processor.Chain, *processor.InlineDirectiveFilter) {
	registry := rules.DefaultRegistry()
	inline := processor.NewInlineDirectiveFilterWithRegistry(registry)
	chain := processor.NewChain(
		processor.NewPathNormalization(),
		// Severity overrides come first so the enable filter sees "off".
		processor.NewSeverityOverride(registry),
		processor.NewEnableFilter(),
		processor.NewPathExclusionFilter(),
		inline,
		processor.NewSupersession(),
		processor.NewDeduplication(),
		processor.NewSorting(),
		processor.NewSnippetAttachment(),
	)
	return chain, inline
}

// DirectiveProcessors returns the chain applied to the findings about inline
// directives themselves, which are produced after the main chain has run.
func DirectiveProcessors() *processor.Chain {
	return processor.NewChain(
		processor.NewPathNormalization(),
		processor.NewSeverityOverride(rules.DefaultRegistry()),
		processor.NewEnableFilter(),
		processor.NewSorting(),
		processor.NewSnippetAttachment(),
	)
}
