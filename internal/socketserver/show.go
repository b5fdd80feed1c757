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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andreasjansson/leta/internal/lsp"
)

const defaultShowHead = 200

// variableLikeSymbolKinds names the show.py symbol-kind strings whose
// single-line declaration range gets grown to cover trailing lines,
// mirroring original_source's `if symbol_kind in ("Constant", "Variable")`
// guard.
var variableLikeSymbolKinds = map[string]bool{"Constant": true, "Variable": true}

// showFile implements the show method's three-mode dispatch, recovered
// from original_source/lspcmd/daemon/handlers/show.py: a caller-supplied
// explicit range, a symbol-at-line body expansion via documentSymbol, or a
// plain location with surrounding context lines.
func showFile(ctx context.Context, ops *lsp.Operations, p ShowParams) (*ShowResult, error) {
	absRoot, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve root: %v", lsp.ErrNotFound, err)
	}
	absPath, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve path: %v", lsp.ErrNotFound, err)
	}
	relPath, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		relPath = absPath
	}

	head := p.Head
	if head <= 0 {
		head = defaultShowHead
	}

	if p.RangeStartLine != nil {
		return showDirectRange(absPath, relPath, p, head)
	}
	if p.Body {
		return showBody(ctx, ops, absRoot, absPath, relPath, p, head)
	}
	return showLocationOnly(ctx, ops, absRoot, absPath, relPath, p)
}

// showDirectRange slices [RangeStartLine, RangeEndLine] (1-based,
// inclusive) directly out of the file, with no LSP round trip — the
// caller already knows the range (e.g. from a prior documentSymbol call).
func showDirectRange(absPath, relPath string, p ShowParams, head int) (*ShowResult, error) {
	lines, err := readLines(absPath)
	if err != nil {
		return nil, err
	}

	start := *p.RangeStartLine - 1
	end := start
	if p.RangeEndLine != nil {
		end = *p.RangeEndLine - 1
	}
	if start == end && variableLikeSymbolKinds[p.SymbolKind] {
		end = expandVariableRange(lines, start)
	}

	if p.Context > 0 {
		start = max(0, start-p.Context)
		end = min(len(lines)-1, end+p.Context)
	}

	totalLines := end - start + 1
	truncated := totalLines > head
	if truncated {
		end = start + head - 1
	}

	return &ShowResult{
		Path:       relPath,
		StartLine:  start + 1,
		EndLine:    end + 1,
		Content:    joinLines(lines, start, end),
		Symbol:     p.SymbolName,
		Truncated:  truncated,
		TotalLines: totalLines,
	}, nil
}

// showBody resolves the symbol enclosing p.Line via textDocument/
// documentSymbol and returns its full body (grown by Context lines on
// each side, truncated past Head lines).
func showBody(ctx context.Context, ops *lsp.Operations, absRoot, absPath, relPath string, p ShowParams, head int) (*ShowResult, error) {
	symbols, err := ops.DocumentSymbols(ctx, absRoot, p.Language, absPath)
	if err != nil {
		return nil, err
	}

	lines, err := readLines(absPath)
	if err != nil {
		return nil, err
	}

	targetLine := p.Line - 1
	start, end := targetLine, targetLine
	if sym := findSymbolAtLine(symbols, targetLine); sym != nil {
		start = sym.Range.Start.Line
		end = sym.Range.End.Line
	}

	if p.Context > 0 {
		start = max(0, start-p.Context)
		end = min(len(lines)-1, end+p.Context)
	}

	totalLines := end - start + 1
	truncated := totalLines > head
	if truncated {
		end = start + head - 1
	}

	return &ShowResult{
		Path:       relPath,
		StartLine:  start + 1,
		EndLine:    end + 1,
		Content:    joinLines(lines, start, end),
		Symbol:     p.SymbolName,
		Truncated:  truncated,
		TotalLines: totalLines,
	}, nil
}

// showLocationOnly resolves textDocument/definition for p.Line/p.Column
// and returns the target location with Context lines of surrounding text.
func showLocationOnly(ctx context.Context, ops *lsp.Operations, absRoot, absPath, relPath string, p ShowParams) (*ShowResult, error) {
	locs, err := ops.Definition(ctx, absRoot, p.Language, absPath, lsp.Position{Line: p.Line - 1, Character: p.Column})
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: definition not found", lsp.ErrNotFound)
	}

	loc := locs[0]
	targetPath := lsp.URIToPath(loc.URI)
	targetRel, err := filepath.Rel(absRoot, targetPath)
	if err != nil {
		targetRel = targetPath
	}

	lines, err := readLines(targetPath)
	if err != nil {
		return nil, err
	}
	targetLine := loc.Range.Start.Line

	if p.Context > 0 {
		ctxLines, start, _ := linesAround(lines, targetLine, p.Context)
		return &ShowResult{
			Path:      targetRel,
			StartLine: start + 1,
			EndLine:   start + len(ctxLines),
			Content:   strings.Join(ctxLines, "\n"),
		}, nil
	}

	content := ""
	if targetLine < len(lines) {
		content = lines[targetLine]
	}
	return &ShowResult{
		Path:      targetRel,
		StartLine: targetLine + 1,
		EndLine:   targetLine + 1,
		Content:   content,
	}, nil
}

// findSymbolAtLine returns the innermost DocumentSymbol (or flattened
// SymbolInformation, already normalized to DocumentSymbol by
// lsp.Operations.DocumentSymbols) whose Range contains line, searching
// children before falling back to the top-level match.
func findSymbolAtLine(symbols []lsp.DocumentSymbol, line int) *lsp.DocumentSymbol {
	var best *lsp.DocumentSymbol
	var search func(syms []lsp.DocumentSymbol)
	search = func(syms []lsp.DocumentSymbol) {
		for i := range syms {
			s := &syms[i]
			if line >= s.Range.Start.Line && line <= s.Range.End.Line {
				best = s
				search(s.Children)
			}
		}
	}
	search(symbols)
	return best
}

// expandVariableRange grows a single-line const/var declaration range to
// cover continuation lines, inferred from show.py's call-site guard
// (expand_variable_range is referenced but not included in the retrieval
// pack): a declaration continues while the line ends with a line
// continuation or a comma, or leaves an opening bracket unbalanced.
func expandVariableRange(lines []string, start int) int {
	end := start
	depth := 0
	for end < len(lines) {
		line := strings.TrimRight(lines[end], " \t")
		depth += strings.Count(line, "(") + strings.Count(line, "[") + strings.Count(line, "{")
		depth -= strings.Count(line, ")") + strings.Count(line, "]") + strings.Count(line, "}")
		if depth <= 0 && !strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, ",") {
			break
		}
		end++
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return end
}

func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", lsp.ErrNotFound, err)
	}
	return strings.Split(string(content), "\n"), nil
}

func joinLines(lines []string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}

// linesAround returns the [line-context, line+context] window of lines
// (clamped to the file's bounds) plus the window's start index and
// exclusive end index.
func linesAround(lines []string, line, context int) ([]string, int, int) {
	start := max(0, line-context)
	end := min(len(lines), line+context+1)
	return lines[start:end], start, end
}
