package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tensorir/reinplace/internal/passconfig"
	"github.com/tensorir/reinplace/opset"
)

const scenario1JSON = `{
	"placeholders": ["x"],
	"sample_inputs": {"x": [4]},
	"nodes": [
		{"name": "clone1", "kind": "call", "op": "aten::clone", "args": ["x"]},
		{"name": "add1", "kind": "call", "op": "aten::add", "args": ["clone1", 1]},
		{"name": "output", "kind": "output", "args": ["add1"]}
	]
}`

func writeTempGraph(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestProcessOneRewritesCloneAddChain(t *testing.T) {
	path := writeTempGraph(t, scenario1JSON)
	reg := opset.StandardRegistry()

	report := processOne(path, reg, passconfig.Default(), nil)
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	if report.NodesAfter == 0 {
		t.Fatal("expected a non-empty rewritten graph")
	}

	var rewroteAdd bool
	for _, d := range report.Decisions {
		if d.Candidate == "add1" && d.Verdict == "rewritten" {
			rewroteAdd = true
		}
	}
	if !rewroteAdd {
		t.Errorf("expected add1 to be rewritten in place, decisions: %+v", report.Decisions)
	}
}

func TestProcessOneReportsLoadErrors(t *testing.T) {
	path := writeTempGraph(t, "not json")
	reg := opset.StandardRegistry()

	report := processOne(path, reg, passconfig.Default(), nil)
	if report.Err == nil {
		t.Fatal("expected a parse error to be reported, not panic or silently succeed")
	}
}

func TestRenderReportFormats(t *testing.T) {
	reports := []fileReport{{Path: "g.json", NodesAfter: 3}}

	text, err := renderReport(reports, "text")
	if err != nil || !strings.Contains(text, "g.json") {
		t.Errorf("text report missing path: %v %q", err, text)
	}

	md, err := renderReport(reports, "md")
	if err != nil || !strings.Contains(md, "## g.json") {
		t.Errorf("markdown report malformed: %v %q", err, md)
	}

	html, err := renderReport(reports, "html")
	if err != nil || !strings.Contains(html, "g.json") {
		t.Errorf("html report malformed: %v %q", err, html)
	}

	if _, err := renderReport(reports, "bogus"); err == nil {
		t.Error("expected an error for an unknown report format")
	}
}
