package directive

import "github.com/wharflab/docksift/internal/rules"

// FilterResult splits violations by whether a directive suppressed them.
type FilterResult struct {
	Kept       []rules.Violation
	Suppressed []rules.Violation
	// Unused lists directives that suppressed nothing, in input order.
	Unused []Directive
}

// Filter suppresses each violation with the first directive naming its
// code and line. Only that directive counts as used, so a next-line
// directive shadowed by an earlier global one is reported unused.
// File-level violations are never suppressed.
func Filter(violations []rules.Violation, directives []Directive) *FilterResult {
	res := &FilterResult{Kept: make([]rules.Violation, 0, len(violations))}
	used := make([]bool, len(directives))

	for _, v := range violations {
		hit := -1
		if !v.Location.IsFileLevel() {
			for i := range directives {
				if directives[i].Suppresses(v.RuleCode, v.Line()) {
					hit = i
					break
				}
			}
		}
		if hit < 0 {
			res.Kept = append(res.Kept, v)
			continue
		}
		used[hit] = true
		res.Suppressed = append(res.Suppressed, v)
	}

	for i, d := range directives {
		if !used[i] {
			res.Unused = append(res.Unused, d)
		}
	}
	return res
}
