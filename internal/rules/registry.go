package rules

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds rules by code. Rules are kept sorted by code, which is
// the order the linter runs them in.
type Registry struct {
	mu     sync.RWMutex
	sorted []Rule
	byCode map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{byCode: make(map[string]Rule)}
}

// Register adds rule. It panics on a code outside the known namespaces or
// on a code registered twice.
func (r *Registry) Register(rule Rule) {
	code := rule.Metadata().Code
	if _, _, ok := Namespace(code); !ok {
		panic(fmt.Sprintf("rule %q has no known namespace", code))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byCode[code]; dup {
		panic(fmt.Sprintf("rule %q already registered", code))
	}
	r.byCode[code] = rule
	i, _ := slices.BinarySearchFunc(r.sorted, code, func(x Rule, code string) int {
		return strings.Compare(x.Metadata().Code, code)
	})
	r.sorted = slices.Insert(r.sorted, i, rule)
}

// Get returns the rule registered under code, or nil.
func (r *Registry) Get(code string) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCode[code]
}

func (r *Registry) Has(code string) bool {
	return r.Get(code) != nil
}

// Resolve looks code up as written and, when it has no namespace, under
// each namespace in turn. Directives may name hadolint rules by their bare
// DL code.
func (r *Registry) Resolve(code string) (Rule, bool) {
	if rule := r.Get(code); rule != nil {
		return rule, true
	}
	if _, _, ok := Namespace(code); ok {
		return nil, false
	}
	for _, prefix := range []string{DocksiftRulePrefix, HadolintRulePrefix} {
		if rule := r.Get(prefix + code); rule != nil {
			return rule, true
		}
	}
	return nil, false
}

// All returns every rule sorted by code.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.sorted)
}

// Filter returns the rules whose metadata passes keep, sorted by code.
func (r *Registry) Filter(keep func(RuleMetadata) bool) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, rule := range r.sorted {
		if keep(rule.Metadata()) {
			out = append(out, rule)
		}
	}
	return out
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the registry rules add themselves to in init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds rule to the default registry.
func Register(rule Rule) {
	defaultRegistry.Register(rule)
}

// Get looks code up in the default registry.
func Get(code string) Rule {
	return defaultRegistry.Get(code)
}
