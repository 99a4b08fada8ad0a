package detector

import "strings"

// Cardinality tells how many arguments a predicate may or must consume.
type Cardinality int

const (
	// Match consumes exactly one argument, which must pass the test.
	Match Cardinality = iota
	// Optional consumes one argument if it passes the test.
	Optional
	// ZeroOrMore consumes arguments for as long as they pass the test.
	ZeroOrMore
	// NoMatch consumes nothing and fails the attempt if the next argument
	// passes the test.
	NoMatch
)

func (c Cardinality) String() string {
	switch c {
	case Match:
		return "match"
	case Optional:
		return "optional"
	case ZeroOrMore:
		return "zero-or-more"
	case NoMatch:
		return "no-match"
	}
	return "unknown"
}

// Predicate is one step of a detector. It is implemented by *Singular,
// *Option and *Unordered only.
type Predicate interface {
	// required reports whether the predicate must consume an argument for
	// the attempt to succeed.
	required() bool
	predicate()
}

// Singular tests one argument.
type Singular struct {
	Test        Test
	Cardinality Cardinality
	// AcceptUnresolved makes an unresolved argument plain non-matching
	// input for this predicate instead of aborting the attempt.
	AcceptUnresolved bool
}

func (s *Singular) required() bool { return s.Cardinality == Match }
func (*Singular) predicate()       {}

// Option is a flag, optionally followed by a value. Once the flag matches,
// the value must match too.
type Option struct {
	Flag *Singular
	// Value is nil for flags without a value.
	Value *Singular
	// Cardinality is Match or Optional.
	Cardinality Cardinality
}

func (o *Option) required() bool { return o.Cardinality == Match }
func (*Option) predicate()       {}

// NewOption returns a required option. value may be nil.
func NewOption(flag, value Test) *Option {
	return newOption(flag, value, Match)
}

// OptionalOption returns an option that may be absent. value may be nil.
func OptionalOption(flag, value Test) *Option {
	return newOption(flag, value, Optional)
}

func newOption(flag, value Test, c Cardinality) *Option {
	o := &Option{Flag: &Singular{Test: flag, Cardinality: Match}, Cardinality: c}
	if value != nil {
		o.Value = &Singular{Test: value, Cardinality: Match}
	}
	return o
}

// Unordered is a set of options that may appear in any order. When
// AllowExtra is set, flags that no option declares are skipped along with
// their value.
type Unordered struct {
	Options    []*Option
	AllowExtra bool
}

func (u *Unordered) required() bool {
	for _, o := range u.Options {
		if o.required() {
			return true
		}
	}
	return false
}

func (*Unordered) predicate() {}

// declares reports whether a declared option flag accepts v.
func (u *Unordered) declares(v string) bool {
	for _, o := range u.Options {
		if o.Flag.Test(v) {
			return true
		}
	}
	return false
}

// Test is a test over a resolved argument value.
type Test func(string) bool

// Equals matches s exactly.
func Equals(s string) Test {
	return func(v string) bool { return v == s }
}

// OneOf matches any of values.
func OneOf(values ...string) Test {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(v string) bool { return set[v] }
}

// HasPrefix matches values starting with prefix.
func HasPrefix(prefix string) Test {
	return func(v string) bool { return strings.HasPrefix(v, prefix) }
}

// Program matches a command name given bare or as a path, such as
// /usr/bin/curl for "curl".
func Program(names ...string) Test {
	set := OneOf(names...)
	return func(v string) bool {
		if set(v) {
			return true
		}
		if i := strings.LastIndexByte(v, '/'); i >= 0 {
			return set(v[i+1:])
		}
		return false
	}
}

// ShortFlag matches a single-dash flag bundle containing c, such as -la
// for 'l' and 'a'.
func ShortFlag(c byte) Test {
	return func(v string) bool {
		if len(v) < 2 || v[0] != '-' || v[1] == '-' {
			return false
		}
		return strings.IndexByte(v[1:], c) >= 0
	}
}

// LongFlag matches --name and --name=value.
func LongFlag(name string) Test {
	flag := "--" + name
	return func(v string) bool {
		return v == flag || strings.HasPrefix(v, flag+"=")
	}
}

// NoSpaceFlag matches a flag glued to its value, such as -ofile for "-o".
func NoSpaceFlag(prefix string) Test {
	return func(v string) bool {
		return len(v) > len(prefix) && strings.HasPrefix(v, prefix)
	}
}

// IsFlag matches anything that looks like an option. A lone "-" or "--" is
// an operand.
func IsFlag(v string) bool {
	return strings.HasPrefix(v, "-") && v != "-" && v != "--"
}

// Anything matches every value.
func Anything(string) bool { return true }

// Not inverts t.
func Not(t Test) Test {
	return func(v string) bool { return !t(v) }
}

// Or matches when any test matches.
func Or(tests ...Test) Test {
	return func(v string) bool {
		for _, t := range tests {
			if t(v) {
				return true
			}
		}
		return false
	}
}

// And matches when every test matches.
func And(tests ...Test) Test {
	return func(v string) bool {
		for _, t := range tests {
			if !t(v) {
				return false
			}
		}
		return true
	}
}
