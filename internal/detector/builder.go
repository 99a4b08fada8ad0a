package detector

// Declaration accumulates the predicates of a Detector.
type Declaration struct {
	predicates []Predicate
}

// Builder starts a detector declaration.
func Builder() *Declaration {
	return &Declaration{}
}

func (b *Declaration) singular(t Test, c Cardinality) *Declaration {
	b.predicates = append(b.predicates, &Singular{Test: t, Cardinality: c})
	return b
}

// With requires the next argument to pass t.
func (b *Declaration) With(t Test) *Declaration {
	return b.singular(t, Match)
}

// WithOptional consumes the next argument if it passes t.
func (b *Declaration) WithOptional(t Test) *Declaration {
	return b.singular(t, Optional)
}

// WithOptionalRepeating consumes arguments for as long as they pass t.
func (b *Declaration) WithOptionalRepeating(t Test) *Declaration {
	return b.singular(t, ZeroOrMore)
}

// WithOptionalRepeatingExcept consumes arguments until one passes t.
func (b *Declaration) WithOptionalRepeatingExcept(t Test) *Declaration {
	return b.singular(Not(t), ZeroOrMore)
}

// NotWith fails the attempt if the next argument passes t. It consumes
// nothing.
func (b *Declaration) NotWith(t Test) *Declaration {
	return b.singular(t, NoMatch)
}

// WithAnyFlag consumes any number of flags.
func (b *Declaration) WithAnyFlag() *Declaration {
	return b.singular(IsFlag, ZeroOrMore)
}

// WithAnyFlagExcept consumes flags until one passes any of tests.
func (b *Declaration) WithAnyFlagExcept(tests ...Test) *Declaration {
	return b.singular(And(IsFlag, Not(Or(tests...))), ZeroOrMore)
}

// WithOption requires a flag passing flag, followed by a value passing value
// when value is not nil.
func (b *Declaration) WithOption(flag, value Test) *Declaration {
	b.predicates = append(b.predicates, NewOption(flag, value))
	return b
}

// WithUnorderedOptions accepts opts in any order. With allowExtra, flags
// that no option declares are skipped together with their value.
func (b *Declaration) WithUnorderedOptions(allowExtra bool, opts ...*Option) *Declaration {
	b.predicates = append(b.predicates, &Unordered{Options: opts, AllowExtra: allowExtra})
	return b
}

// AllowingUnresolved lets the most recently declared predicate see an
// unresolved argument as non-matching input instead of aborting the attempt.
// On an option or unordered group it applies to every flag and value test.
func (b *Declaration) AllowingUnresolved() *Declaration {
	if len(b.predicates) == 0 {
		panic("detector: AllowingUnresolved before any predicate")
	}
	allowUnresolved(b.predicates[len(b.predicates)-1])
	return b
}

func allowUnresolved(p Predicate) {
	switch p := p.(type) {
	case *Singular:
		p.AcceptUnresolved = true
	case *Option:
		if p.Flag != nil {
			p.Flag.AcceptUnresolved = true
		}
		if p.Value != nil {
			p.Value.AcceptUnresolved = true
		}
	case *Unordered:
		for _, o := range p.Options {
			allowUnresolved(o)
		}
	}
}

// WithPredicate appends a predicate built by hand.
func (b *Declaration) WithPredicate(p Predicate) *Declaration {
	b.predicates = append(b.predicates, p)
	return b
}

// Build returns the detector. It panics on an ill-formed declaration.
func (b *Declaration) Build() *Detector {
	return New(b.predicates...)
}
