package reporter

import (
	"encoding/json"
	"io"

	"github.com/wharflab/docksift/internal/rules"
)

// JSONOutput is the document the JSON format writes. Violations carry
// their spans and evidence as encoded by rules.Violation.
type JSONOutput struct {
	Tool         ToolInfo     `json:"tool"`
	Files        []FileResult `json:"files"`
	Summary      Summary      `json:"summary"`
	FilesScanned int          `json:"files_scanned"`
	RulesEnabled int          `json:"rules_enabled"`
}

type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// FileResult holds the violations of one file in rules.Compare order.
type FileResult struct {
	File       string            `json:"file"`
	Violations []rules.Violation `json:"violations"`
}

type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
	Style    int `json:"style"`
	Files    int `json:"files"`
}

type JSONReporter struct {
	writer io.Writer
	tool   ToolInfo
}

func NewJSONReporter(w io.Writer, toolName, toolVersion string) *JSONReporter {
	if toolName == "" {
		toolName = defaultToolName
	}
	return &JSONReporter{writer: w, tool: ToolInfo{Name: toolName, Version: toolVersion}}
}

func (r *JSONReporter) Report(violations []rules.Violation, _ map[string][]byte, metadata ReportMetadata) error {
	files, grouped := byFile(violations)

	out := JSONOutput{
		Tool:         r.tool,
		Files:        make([]FileResult, 0, len(files)),
		Summary:      calculateSummary(violations, len(files)),
		FilesScanned: metadata.FilesScanned,
		RulesEnabled: metadata.RulesEnabled,
	}
	for _, file := range files {
		out.Files = append(out.Files, FileResult{File: file, Violations: grouped[file]})
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func calculateSummary(violations []rules.Violation, files int) Summary {
	counts := severityCounts(violations)
	return Summary{
		Total:    len(violations),
		Errors:   counts[rules.SeverityError],
		Warnings: counts[rules.SeverityWarning],
		Info:     counts[rules.SeverityInfo],
		Style:    counts[rules.SeverityStyle],
		Files:    files,
	}
}
