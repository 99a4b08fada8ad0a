package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/wharflab/docksift/internal/rules"
)

// GitHubActionsReporter writes workflow commands that GitHub shows as
// annotations:
//
//	::warning file=Dockerfile,line=2,col=10,endColumn=11,title=docksift/insecure-tls::message
//
// An annotation covers one region, so a violation made of several spans is
// annotated at its first span and names the matched values in its message.
//
// See https://docs.github.com/actions/using-workflows/workflow-commands-for-github-actions
type GitHubActionsReporter struct {
	writer io.Writer
}

func NewGitHubActionsReporter(w io.Writer) *GitHubActionsReporter {
	return &GitHubActionsReporter{writer: w}
}

func (r *GitHubActionsReporter) Report(violations []rules.Violation, _ map[string][]byte, _ ReportMetadata) error {
	for _, v := range rules.SortViolations(violations) {
		props := append([]string{"file=" + escapeGitHubProperty(toSlash(v.Location.File))}, annotationRegion(v.Location)...)
		props = append(props, "title="+escapeGitHubProperty(v.RuleCode))

		text := v.Message
		if v.Detail != "" {
			text += "\n" + v.Detail
		}
		if len(v.Evidence) > 0 {
			text += "\nMatched: " + strings.Join(v.Evidence, " ")
		}

		if _, err := fmt.Fprintf(r.writer, "::%s %s::%s\n",
			levelOf(v.Severity).github, strings.Join(props, ","), escapeGitHubMessage(text)); err != nil {
			return err
		}
	}
	return nil
}

// annotationRegion returns the position properties for loc's first span.
// Columns are 1-based and endColumn is the last column covered, so it only
// applies to a single-line region.
func annotationRegion(loc rules.Location) []string {
	if loc.IsFileLevel() {
		return nil
	}
	parts := loc.Parts()
	if parts == nil {
		return []string{fmt.Sprintf("line=%d", loc.Start.Line), fmt.Sprintf("col=%d", loc.Start.Column+1)}
	}
	s := parts[0]
	props := []string{fmt.Sprintf("line=%d", s.Start.Line), fmt.Sprintf("col=%d", s.Start.Column+1)}
	end := s.End.Line
	if s.End.Column == 0 && end > s.Start.Line {
		end--
	}
	switch {
	case end > s.Start.Line:
		props = append(props, fmt.Sprintf("endLine=%d", end))
	case s.End.Line == s.Start.Line && s.End.Column > s.Start.Column:
		props = append(props, fmt.Sprintf("endColumn=%d", s.End.Column))
	}
	return props
}

// escapeGitHubMessage escapes a command message the way @actions/core's
// escapeData does: "%", CR and LF, but not ":" or ",".
func escapeGitHubMessage(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

// escapeGitHubProperty escapes a command property the way escapeProperty
// does, adding ":" and "," to the message set.
func escapeGitHubProperty(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C").Replace(s)
}
