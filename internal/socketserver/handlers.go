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
	"path/filepath"
	"sync"

	"github.com/andreasjansson/leta/internal/lsp"
)

// Handlers holds the daemon-wide state (Session, Operations) every socket
// method handler closes over. Grounded on original_source/leta's
// HandlerContext, which every Python handler takes as its first argument.
type Handlers struct {
	session *lsp.Session
	ops     *lsp.Operations
	onShutdown func()
	shutdownOnce sync.Once
}

// NewHandlers builds a Handlers bound to session and its derived
// Operations. onShutdown is invoked (once, asynchronously) when the
// shutdown method is called.
func NewHandlers(session *lsp.Session, onShutdown func()) *Handlers {
	return &Handlers{session: session, ops: lsp.NewOperations(session), onShutdown: onShutdown}
}

func (h *Handlers) addWorkspace(ctx context.Context, p AddWorkspaceParams) (*AddWorkspaceResult, error) {
	ws, err := h.session.GetOrCreateWorkspace(p.Root, p.Language)
	if err != nil {
		return nil, err
	}
	server, err := ws.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return &AddWorkspaceResult{
		Root:     ws.Root(),
		Language: ws.Language(),
		Server:   ws.ServerName(),
		State:    server.State().String(),
	}, nil
}

func (h *Handlers) removeWorkspace(ctx context.Context, p RemoveWorkspaceParams) (*RemoveWorkspaceResult, error) {
	stopped, err := h.session.RemoveWorkspacesForRoot(ctx, p.Root)
	if err != nil {
		return nil, err
	}
	return &RemoveWorkspaceResult{ServersStopped: stopped}, nil
}

func (h *Handlers) status(ctx context.Context, _ struct{}) (*StatusResult, error) {
	return &StatusResult{Workspaces: h.session.StatusAll()}, nil
}

func (h *Handlers) references(ctx context.Context, p ReferencesParams) (*ReferencesResult, error) {
	absPath, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, err
	}
	locs, err := h.ops.References(ctx, p.Root, p.Language, absPath,
		lsp.Position{Line: p.Line, Character: p.Character}, p.IncludeDeclaration)
	if err != nil {
		return nil, err
	}
	return &ReferencesResult{Locations: toLocationInfos(p.Root, locs)}, nil
}

func (h *Handlers) hover(ctx context.Context, p HoverParams) (*HoverResult, error) {
	absPath, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, err
	}
	result, err := h.ops.Hover(ctx, p.Root, p.Language, absPath, lsp.Position{Line: p.Line, Character: p.Character})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &HoverResult{}, nil
	}
	return &HoverResult{Contents: result.Contents.Value}, nil
}

func (h *Handlers) rename(ctx context.Context, p RenameParams) (*RenameResult, error) {
	absPath, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, err
	}
	edit, err := h.ops.Rename(ctx, p.Root, p.Language, absPath, lsp.Position{Line: p.Line, Character: p.Character}, p.NewName)
	if err != nil {
		return nil, err
	}
	if edit == nil {
		return &RenameResult{}, nil
	}
	files, edits := 0, 0
	if len(edit.DocumentChanges) > 0 {
		for _, change := range edit.DocumentChanges {
			files++
			if m, ok := change.(map[string]any); ok {
				if fileEdits, ok := m["edits"].([]any); ok {
					edits += len(fileEdits)
				}
			}
		}
	} else {
		for _, fileEdits := range edit.Changes {
			files++
			edits += len(fileEdits)
		}
	}
	return &RenameResult{FilesChanged: files, EditsApplied: edits}, nil
}

func (h *Handlers) documentSymbols(ctx context.Context, p DocumentSymbolsParams) (*DocumentSymbolsResult, error) {
	absPath, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, err
	}
	symbols, err := h.ops.DocumentSymbols(ctx, p.Root, p.Language, absPath)
	if err != nil {
		return nil, err
	}
	out := make([]SymbolInfo, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, SymbolInfo{Name: s.Name, Kind: symbolKindName(s.Kind), Line: s.Range.Start.Line + 1})
	}
	return &DocumentSymbolsResult{Symbols: out}, nil
}

func (h *Handlers) show(ctx context.Context, p ShowParams) (*ShowResult, error) {
	return showFile(ctx, h.ops, p)
}

func (h *Handlers) codeActions(ctx context.Context, p CodeActionsParams) (*CodeActionsResult, error) {
	absPath, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, err
	}
	endLine, endChar := p.Line, p.Character
	if p.EndLine != nil {
		endLine = *p.EndLine
	}
	if p.EndChar != nil {
		endChar = *p.EndChar
	}
	rng := lsp.Range{
		Start: lsp.Position{Line: p.Line, Character: p.Character},
		End:   lsp.Position{Line: endLine, Character: endChar},
	}
	actions, err := h.ops.CodeAction(ctx, p.Root, p.Language, absPath, rng, nil)
	if err != nil {
		return nil, err
	}
	out := make([]CodeActionInfo, 0, len(actions))
	for _, a := range actions {
		out = append(out, CodeActionInfo{
			Title:       a.Title,
			Kind:        a.Kind,
			IsPreferred: a.IsPreferred,
			HasEdit:     a.Edit != nil,
			HasCommand:  a.Command != nil,
		})
	}
	return &CodeActionsResult{Actions: out}, nil
}

func (h *Handlers) ping(ctx context.Context, _ struct{}) (*PingResult, error) {
	return &PingResult{Ok: true}, nil
}

func (h *Handlers) shutdown(ctx context.Context, _ struct{}) (*ShutdownResult, error) {
	if h.onShutdown != nil {
		h.shutdownOnce.Do(func() { go h.onShutdown() })
	}
	return &ShutdownResult{Stopping: true}, nil
}

func toLocationInfos(root string, locs []lsp.Location) []LocationInfo {
	out := make([]LocationInfo, 0, len(locs))
	for _, l := range locs {
		path := lsp.URIToPath(l.URI)
		if rel, err := filepath.Rel(root, path); err == nil {
			path = rel
		}
		out = append(out, LocationInfo{Path: path, Line: l.Range.Start.Line + 1, Column: l.Range.Start.Character + 1})
	}
	return out
}

func symbolKindName(k lsp.SymbolKind) string {
	names := map[lsp.SymbolKind]string{
		lsp.SymbolKindFile: "File", lsp.SymbolKindModule: "Module", lsp.SymbolKindNamespace: "Namespace",
		lsp.SymbolKindPackage: "Package", lsp.SymbolKindClass: "Class", lsp.SymbolKindMethod: "Method",
		lsp.SymbolKindProperty: "Property", lsp.SymbolKindField: "Field", lsp.SymbolKindConstructor: "Constructor",
		lsp.SymbolKindEnum: "Enum", lsp.SymbolKindInterface: "Interface", lsp.SymbolKindFunction: "Function",
		lsp.SymbolKindVariable: "Variable", lsp.SymbolKindConstant: "Constant", lsp.SymbolKindString: "String",
		lsp.SymbolKindNumber: "Number", lsp.SymbolKindBoolean: "Boolean", lsp.SymbolKindArray: "Array",
		lsp.SymbolKindObject: "Object", lsp.SymbolKindKey: "Key", lsp.SymbolKindNull: "Null",
		lsp.SymbolKindEnumMember: "EnumMember", lsp.SymbolKindStruct: "Struct", lsp.SymbolKindEvent: "Event",
		lsp.SymbolKindOperator: "Operator", lsp.SymbolKindTypeParameter: "TypeParameter",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return "Unknown"
}
