package rules

// Violation is one finding of a rule.
//
// Rules fill Location, RuleCode, Message and Severity, and usually Detail,
// DocURL and Evidence. SourceCode is attached later by the snippet
// processor.
type Violation struct {
	Location Location `json:"location"`
	RuleCode string   `json:"rule"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail,omitempty"`
	Severity Severity `json:"severity"`
	DocURL   string   `json:"docUrl,omitempty"`

	// Evidence holds the resolved argument values a command detector
	// matched, in command order. Location.Spans points at the same
	// arguments.
	Evidence []string `json:"evidence,omitempty"`

	SourceCode   string        `json:"sourceCode,omitempty"`
	SuggestedFix *SuggestedFix `json:"suggestedFix,omitempty"`
}

// SuggestedFix is an edit a user may apply by hand. docksift never applies
// it.
type SuggestedFix struct {
	Description string     `json:"description"`
	Edits       []TextEdit `json:"edits"`
}

// TextEdit replaces the text at Location with NewText. An empty NewText
// deletes, an empty Location range inserts.
type TextEdit struct {
	Location Location `json:"location"`
	NewText  string   `json:"newText"`
}

// NewViolation returns a violation with the required fields set.
func NewViolation(loc Location, ruleCode, message string, severity Severity) Violation {
	return Violation{Location: loc, RuleCode: ruleCode, Message: message, Severity: severity}
}

func (v Violation) WithDetail(detail string) Violation {
	v.Detail = detail
	return v
}

func (v Violation) WithDocURL(url string) Violation {
	v.DocURL = url
	return v
}

func (v Violation) WithEvidence(values ...string) Violation {
	v.Evidence = values
	return v
}

func (v Violation) WithSuggestedFix(fix *SuggestedFix) Violation {
	v.SuggestedFix = fix
	return v
}

// Line is the 1-based line the violation starts on, or -1 for file-level
// findings.
func (v Violation) Line() int {
	return v.Location.Start.Line
}
