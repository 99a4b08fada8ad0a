package rules

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders violations by file, then by where they start and end,
// then by rule code and message. File-level violations come first in their
// file.
func Compare(a, b Violation) int {
	la, lb := a.Location, b.Location
	return cmp.Or(
		strings.Compare(la.File, lb.File),
		cmp.Compare(la.Start.Line, lb.Start.Line),
		cmp.Compare(la.Start.Column, lb.Start.Column),
		cmp.Compare(la.End.Line, lb.End.Line),
		cmp.Compare(la.End.Column, lb.End.Column),
		strings.Compare(a.RuleCode, b.RuleCode),
		strings.Compare(a.Message, b.Message),
	)
}

// SortViolations returns a sorted copy of violations. Equal violations
// keep their order.
func SortViolations(violations []Violation) []Violation {
	sorted := slices.Clone(violations)
	slices.SortStableFunc(sorted, Compare)
	return sorted
}
