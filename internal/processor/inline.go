package processor

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/wharflab/docksift/internal/directive"
	"github.com/wharflab/docksift/internal/rules"
)

// InlineDirectiveFilter applies inline suppression directives
// (# docksift ignore=..., # hadolint ignore=..., # check=skip=...).
//
// Besides filtering, it collects findings about the directives themselves:
// malformed directives, directives that suppressed nothing (when
// warn-unused is set) and directives without a reason (when
// require-reason is set). Callers read them with AdditionalViolations
// after the chain has run.
type InlineDirectiveFilter struct {
	registry *rules.Registry

	mu         sync.Mutex
	additional []rules.Violation
}

// NewInlineDirectiveFilter creates a new inline directive filter.
func NewInlineDirectiveFilter() *InlineDirectiveFilter {
	return NewInlineDirectiveFilterWithRegistry(rules.DefaultRegistry())
}

// NewInlineDirectiveFilterWithRegistry creates an inline directive filter
// that validates rule codes against registry.
func NewInlineDirectiveFilterWithRegistry(registry *rules.Registry) *InlineDirectiveFilter {
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	return &InlineDirectiveFilter{registry: registry}
}

// Name returns the processor's identifier.
func (p *InlineDirectiveFilter) Name() string {
	return "inline-directive-filter"
}

// AdditionalViolations returns the directive findings collected by the
// last Process call.
func (p *InlineDirectiveFilter) AdditionalViolations() []rules.Violation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]rules.Violation, len(p.additional))
	copy(out, p.additional)
	return out
}

// Process removes violations suppressed by inline directives.
// Files are handled independently; each uses its own configuration.
func (p *InlineDirectiveFilter) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	var (
		order  []string
		byFile = make(map[string][]rules.Violation)
	)
	for _, v := range violations {
		if _, ok := byFile[v.Location.File]; !ok {
			order = append(order, v.Location.File)
		}
		byFile[v.Location.File] = append(byFile[v.Location.File], v)
	}
	// Files without violations can still carry broken or unused directives.
	var quiet []string
	for file := range ctx.FileSources {
		if _, ok := byFile[toSlash(file)]; ok {
			continue
		}
		if _, ok := byFile[file]; !ok {
			quiet = append(quiet, file)
		}
	}
	slices.Sort(quiet)
	order = append(order, quiet...)

	var (
		result     = make([]rules.Violation, 0, len(violations))
		additional []rules.Violation
	)
	for _, file := range order {
		kept, extra := p.processFile(file, byFile[file], ctx)
		result = append(result, kept...)
		additional = append(additional, extra...)
	}

	p.mu.Lock()
	p.additional = additional
	p.mu.Unlock()

	return result
}

func (p *InlineDirectiveFilter) processFile(
	file string,
	violations []rules.Violation,
	ctx *Context,
) ([]rules.Violation, []rules.Violation) {
	cfg := ctx.ConfigForFile(file)
	if cfg != nil && !cfg.InlineDirectives.Enabled {
		return violations, nil
	}
	f := ctx.GetTree(file)
	if f == nil {
		return violations, nil
	}

	var validator directive.RuleValidator
	if cfg != nil && cfg.InlineDirectives.ValidateRules {
		validator = p.isKnownRule
	}
	parsed := directive.Parse(f, validator)

	var additional []rules.Violation
	for _, perr := range parsed.Errors {
		additional = append(additional, rules.NewViolation(
			rules.NewLocationFromRange(file, perr.Range),
			rules.InvalidDirectiveCode,
			"invalid inline directive: "+perr.Message,
			rules.SeverityWarning,
		))
	}

	if len(parsed.Directives) == 0 {
		return violations, additional
	}

	filtered := directive.Filter(violations, parsed.Directives)

	if cfg != nil && cfg.InlineDirectives.WarnUnused {
		for _, d := range filtered.Unused {
			additional = append(additional, rules.NewViolation(
				rules.NewLocationFromRange(file, d.Range),
				rules.UnusedDirectiveCode,
				fmt.Sprintf("directive does not suppress any violation: %s", strings.Join(d.Rules, ", ")),
				rules.SeverityWarning,
			))
		}
	}

	if cfg != nil && cfg.InlineDirectives.RequireReason {
		for _, d := range parsed.Directives {
			if d.Reason != "" {
				continue
			}
			additional = append(additional, rules.NewViolation(
				rules.NewLocationFromRange(file, d.Range),
				rules.MissingDirectiveReasonCode,
				"directive is missing a reason",
				rules.SeverityWarning,
			).WithDetail(`Append ";reason=<explanation>" to document why the rule is suppressed.`))
		}
	}

	return filtered.Kept, additional
}

// isKnownRule reports whether code names a registered rule, with or
// without its namespace, or one of the codes the linter itself emits.
func (p *InlineDirectiveFilter) isKnownRule(code string) bool {
	switch code {
	case rules.SyntaxErrorCode, rules.InvalidDirectiveCode,
		rules.UnusedDirectiveCode, rules.MissingDirectiveReasonCode:
		return true
	}
	if _, name, ok := rules.Namespace(code); ok && name == "*" {
		return true
	}
	_, ok := p.registry.Resolve(code)
	return ok
}
