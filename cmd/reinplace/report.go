package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/tensorir/reinplace/reinplace"
)

// fileReport is one input graph's outcome: either a hard error, or the
// rewritten node count plus every Decision the Rewriter recorded.
type fileReport struct {
	Path       string
	Err        error
	NodesAfter int
	Decisions  []reinplace.Decision
}

// renderText writes the plain, default report format: one line per
// file, one indented line per decision.
func renderText(w *strings.Builder, reports []fileReport) {
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(w, "%s: FAILED: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s: %d nodes after rewriting\n", r.Path, r.NodesAfter)
		for _, d := range r.Decisions {
			fmt.Fprintf(w, "  %-20s %-10s %s\n", d.Candidate, d.Verdict, d.Reason)
		}
	}
}

// renderMarkdown builds the same report as a Markdown table per file,
// the per-candidate decision table turned into something a human reads
// in a PR description rather than a log line.
func renderMarkdown(reports []fileReport) string {
	var md strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&md, "## %s\n\n", r.Path)
		if r.Err != nil {
			fmt.Fprintf(&md, "**FAILED:** %v\n\n", r.Err)
			continue
		}
		fmt.Fprintf(&md, "%d nodes after rewriting.\n\n", r.NodesAfter)
		md.WriteString("| candidate | verdict | reason |\n")
		md.WriteString("|---|---|---|\n")
		for _, d := range r.Decisions {
			fmt.Fprintf(&md, "| %s | %s | %s |\n", d.Candidate, d.Verdict, d.Reason)
		}
		md.WriteString("\n")
	}
	return md.String()
}

// renderHTML round-trips renderMarkdown's output through goldmark.
func renderHTML(reports []fileReport) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(renderMarkdown(reports)), &buf); err != nil {
		return "", fmt.Errorf("rendering report as HTML: %w", err)
	}
	return buf.String(), nil
}
