package reporter

import (
	"cmp"
	"io"
	"maps"
	"slices"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/wharflab/docksift/internal/rules"
)

// SARIFReporter writes a SARIF 2.1.0 log, the format GitHub code scanning
// and Azure DevOps ingest.
//
// A result's location covers the whole violation. When the violation is
// made of several spans, such as the arguments of a command match, each
// span is also listed as a related location quoting its source text.
//
// See https://docs.oasis-open.org/sarif/sarif/v2.1.0/
type SARIFReporter struct {
	writer      io.Writer
	toolName    string
	toolVersion string
	toolURI     string
	registry    *rules.Registry
}

func NewSARIFReporter(w io.Writer, toolName, toolVersion, toolURI string) *SARIFReporter {
	if toolName == "" {
		toolName = defaultToolName
	}
	if toolURI == "" {
		toolURI = defaultToolURI
	}
	return &SARIFReporter{
		writer:      w,
		toolName:    toolName,
		toolVersion: toolVersion,
		toolURI:     toolURI,
		registry:    rules.DefaultRegistry(),
	}
}

func (r *SARIFReporter) Report(violations []rules.Violation, sources map[string][]byte, _ ReportMetadata) error {
	report := sarif.NewReport()
	run := sarif.NewRunWithInformationURI(r.toolName, r.toolURI)
	if r.toolVersion != "" {
		run.Tool.Driver.WithVersion(r.toolVersion)
	}

	firstByCode := make(map[string]rules.Violation)
	for _, v := range violations {
		if _, ok := firstByCode[v.RuleCode]; !ok {
			firstByCode[v.RuleCode] = v
		}
	}
	for _, code := range slices.Sorted(maps.Keys(firstByCode)) {
		r.addRule(run, firstByCode[code])
	}

	files, grouped := byFile(violations)
	for _, file := range slices.Sorted(slices.Values(files)) {
		run.AddDistinctArtifact(file)
	}
	for _, file := range files {
		source := lookupSource(sources, file)
		for _, v := range grouped[file] {
			run.AddResult(sarifResult(v, source))
		}
	}

	report.AddRun(run)
	return report.PrettyWrite(r.writer)
}

// addRule describes a rule from its registry metadata, falling back to the
// first violation's detail and doc URL for codes outside the registry.
func (r *SARIFReporter) addRule(run *sarif.Run, v rules.Violation) {
	rule := run.AddRule(v.RuleCode)

	var meta rules.RuleMetadata
	if registered, ok := r.registry.Resolve(v.RuleCode); ok {
		meta = registered.Metadata()
	}
	switch {
	case meta.Name != "":
		rule.WithName(meta.Name)
		rule.WithShortDescription(sarif.NewMultiformatMessageString().WithText(meta.Name))
	case v.Detail != "":
		rule.WithShortDescription(sarif.NewMultiformatMessageString().WithText(v.Detail))
	}
	if meta.Description != "" {
		rule.WithFullDescription(sarif.NewMultiformatMessageString().WithText(meta.Description))
	}
	if uri := cmp.Or(v.DocURL, meta.DocURL); uri != "" {
		rule.WithHelpURI(uri)
	}
}

func sarifResult(v rules.Violation, source []byte) *sarif.Result {
	result := sarif.NewRuleResult(v.RuleCode).
		WithMessage(sarif.NewTextMessage(v.Message)).
		WithLevel(levelOf(v.Severity).sarif)

	artifact := sarif.NewSimpleArtifactLocation(v.Location.File)
	physical := sarif.NewPhysicalLocation().WithArtifactLocation(artifact)
	if v.Location.IsFileLevel() {
		return result.WithLocations([]*sarif.Location{sarif.NewLocationWithPhysicalLocation(physical)})
	}

	region := sarif.NewRegion().
		WithStartLine(v.Location.Start.Line).
		WithStartColumn(v.Location.Start.Column + 1) // SARIF columns are 1-based
	if !v.Location.IsPointLocation() {
		region.WithEndLine(v.Location.End.Line).WithEndColumn(v.Location.End.Column + 1)
	}
	if v.SourceCode != "" {
		region.WithSnippet(sarif.NewArtifactContent().WithText(v.SourceCode))
	}
	result.WithLocations([]*sarif.Location{sarif.NewLocationWithPhysicalLocation(physical.WithRegion(region))})

	if len(v.Location.Spans) > 1 {
		related := make([]*sarif.Location, 0, len(v.Location.Spans))
		for _, s := range v.Location.Spans {
			related = append(related, spanLocation(v.Location.File, s, source))
		}
		result.WithRelatedLocations(related)
	}
	return result
}

func spanLocation(file string, s rules.Span, source []byte) *sarif.Location {
	region := sarif.NewRegion().
		WithStartLine(s.Start.Line).
		WithStartColumn(s.Start.Column + 1).
		WithEndLine(s.End.Line).
		WithEndColumn(s.End.Column + 1)
	loc := sarif.NewLocationWithPhysicalLocation(sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewSimpleArtifactLocation(file)).
		WithRegion(region))
	if text := spanText(source, s); text != "" {
		loc.WithMessage(sarif.NewTextMessage(text))
	}
	return loc
}
