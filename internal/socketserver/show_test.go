// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package socketserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andreasjansson/leta/internal/lsp"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestShowDirectRange(t *testing.T) {
	path := writeTempFile(t, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")
	start, end := 3, 5
	result, err := showDirectRange(path, "main.go", ShowParams{RangeStartLine: &start, RangeEndLine: &end}, 200)
	if err != nil {
		t.Fatalf("showDirectRange: %v", err)
	}
	if result.StartLine != 3 || result.EndLine != 5 {
		t.Errorf("range = [%d,%d], want [3,5]", result.StartLine, result.EndLine)
	}
	want := "func main() {\n\tprintln(\"hi\")\n}"
	if result.Content != want {
		t.Errorf("Content = %q, want %q", result.Content, want)
	}
}

func TestShowDirectRangeAppliesContext(t *testing.T) {
	path := writeTempFile(t, "f.go", "l1\nl2\nl3\nl4\nl5\n")
	start, end := 3, 3
	result, err := showDirectRange(path, "f.go", ShowParams{RangeStartLine: &start, RangeEndLine: &end, Context: 1}, 200)
	if err != nil {
		t.Fatalf("showDirectRange: %v", err)
	}
	if result.StartLine != 2 || result.EndLine != 4 {
		t.Errorf("range = [%d,%d], want [2,4]", result.StartLine, result.EndLine)
	}
}

func TestShowDirectRangeTruncatesPastHead(t *testing.T) {
	content := ""
	for i := 0; i < 10; i++ {
		content += "line\n"
	}
	path := writeTempFile(t, "f.go", content)
	start, end := 1, 10
	result, err := showDirectRange(path, "f.go", ShowParams{RangeStartLine: &start, RangeEndLine: &end}, 5)
	if err != nil {
		t.Fatalf("showDirectRange: %v", err)
	}
	if !result.Truncated {
		t.Error("expected Truncated = true")
	}
	if result.TotalLines != 10 {
		t.Errorf("TotalLines = %d, want 10", result.TotalLines)
	}
	if result.EndLine != 5 {
		t.Errorf("EndLine = %d, want 5 (start + head - 1)", result.EndLine)
	}
}

func TestExpandVariableRangeSingleLine(t *testing.T) {
	lines := []string{"const x = 1", "const y = 2"}
	if got := expandVariableRange(lines, 0); got != 0 {
		t.Errorf("expandVariableRange = %d, want 0", got)
	}
}

func TestExpandVariableRangeMultilineParen(t *testing.T) {
	lines := []string{"var x = foo(", "  1, 2,", ")", "var y = 2"}
	if got := expandVariableRange(lines, 0); got != 2 {
		t.Errorf("expandVariableRange = %d, want 2", got)
	}
}

func TestFindSymbolAtLinePrefersInnermost(t *testing.T) {
	symbols := []lsp.DocumentSymbol{
		{
			Name:  "Outer",
			Range: lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 10}},
			Children: []lsp.DocumentSymbol{
				{Name: "Inner", Range: lsp.Range{Start: lsp.Position{Line: 2}, End: lsp.Position{Line: 4}}},
			},
		},
	}
	got := findSymbolAtLine(symbols, 3)
	if got == nil || got.Name != "Inner" {
		t.Errorf("findSymbolAtLine = %v, want Inner", got)
	}
}

func TestFindSymbolAtLineNoMatch(t *testing.T) {
	symbols := []lsp.DocumentSymbol{
		{Name: "A", Range: lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 2}}},
	}
	if got := findSymbolAtLine(symbols, 50); got != nil {
		t.Errorf("findSymbolAtLine = %v, want nil", got)
	}
}

func TestLinesAroundClampsToBounds(t *testing.T) {
	lines := []string{"a", "b", "c"}
	window, start, end := linesAround(lines, 0, 5)
	if start != 0 || end != 3 {
		t.Errorf("start,end = %d,%d, want 0,3", start, end)
	}
	if len(window) != 3 {
		t.Errorf("window len = %d, want 3", len(window))
	}
}

func TestJoinLinesOutOfOrderReturnsEmpty(t *testing.T) {
	lines := []string{"a", "b", "c"}
	if got := joinLines(lines, 2, 0); got != "" {
		t.Errorf("joinLines = %q, want empty", got)
	}
}
