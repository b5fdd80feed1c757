// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Operations wraps a Session's workspaces with the LSP request verbs the
// socket dispatcher calls, tracing and metering every call. Grounded on
// trace/lsp/operations.go, retargeted from a single flat Manager to
// route every call through Session.GetOrCreateWorkspace(root, language)
// first.
type Operations struct {
	session *Session
}

// NewOperations builds an Operations wrapper around session.
func NewOperations(session *Session) *Operations {
	return &Operations{session: session}
}

func (o *Operations) workspace(ctx context.Context, root, language string) (*Workspace, *Server, error) {
	ws, err := o.session.GetOrCreateWorkspace(root, language)
	if err != nil {
		return nil, nil, err
	}
	before := ServerStateUnstarted
	if s, ok := ws.Server(); ok {
		before = s.State()
	}
	server, err := ws.Ensure(ctx)
	if before != ServerStateReady {
		recordServerSpawn(ctx, language, err == nil)
	}
	if err != nil {
		return nil, nil, err
	}
	return ws, server, nil
}

func decodeResult[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return out, nil
}

// parseLocations decodes the union of shapes textDocument/definition,
// textDocument/references and friends may return: a single Location, a
// single LocationLink, or an array of either.
func parseLocations(raw json.RawMessage) ([]Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []Location{single}, nil
	}

	var singleLink LocationLink
	if err := json.Unmarshal(raw, &singleLink); err == nil && singleLink.TargetURI != "" {
		return []Location{{URI: singleLink.TargetURI, Range: singleLink.TargetRange}}, nil
	}

	var locs []Location
	if err := json.Unmarshal(raw, &locs); err == nil && len(locs) > 0 && locs[0].URI != "" {
		return locs, nil
	}

	var links []LocationLink
	if err := json.Unmarshal(raw, &links); err == nil {
		out := make([]Location, 0, len(links))
		for _, l := range links {
			out = append(out, Location{URI: l.TargetURI, Range: l.TargetRange})
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unrecognized location response shape", ErrProtocol)
}

// Definition resolves textDocument/definition for path/position under
// (root, language), opening the document first if needed.
func (o *Operations) Definition(ctx context.Context, root, language, path string, pos Position) ([]Location, error) {
	ctx, span, start := startOperationSpan(ctx, "definition", language)
	locs, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]Location, error) {
		raw, err := server.Request(ctx, "textDocument/definition", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     pos,
		})
		if err != nil {
			return nil, err
		}
		return parseLocations(raw)
	})
	setOperationSpanResult(ctx, span, "definition", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "definition", language, len(locs))
	}
	return locs, err
}

// References resolves textDocument/references for path/position under
// (root, language).
func (o *Operations) References(ctx context.Context, root, language, path string, pos Position, includeDeclaration bool) ([]Location, error) {
	ctx, span, start := startOperationSpan(ctx, "references", language)
	locs, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]Location, error) {
		raw, err := server.Request(ctx, "textDocument/references", ReferenceParams{
			TextDocumentPositionParams: TextDocumentPositionParams{
				TextDocument: TextDocumentIdentifier{URI: uri},
				Position:     pos,
			},
			Context: ReferenceContext{IncludeDeclaration: includeDeclaration},
		})
		if err != nil {
			return nil, err
		}
		return parseLocations(raw)
	})
	setOperationSpanResult(ctx, span, "references", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "references", language, len(locs))
	}
	return locs, err
}

// Hover resolves textDocument/hover for path/position under (root,
// language).
func (o *Operations) Hover(ctx context.Context, root, language, path string, pos Position) (*HoverResult, error) {
	ctx, span, start := startOperationSpan(ctx, "hover", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) (*HoverResult, error) {
		raw, err := server.Request(ctx, "textDocument/hover", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     pos,
		})
		if err != nil {
			return nil, err
		}
		hover, err := decodeResult[HoverResult](raw)
		if err != nil {
			return nil, err
		}
		return &hover, nil
	})
	setOperationSpanResult(ctx, span, "hover", language, start, err)
	return result, err
}

// PrepareRename resolves textDocument/prepareRename, used by clients to
// validate a rename is possible before prompting for the new name.
func (o *Operations) PrepareRename(ctx context.Context, root, language, path string, pos Position) (*Range, error) {
	ctx, span, start := startOperationSpan(ctx, "prepare-rename", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) (*Range, error) {
		raw, err := server.Request(ctx, "textDocument/prepareRename", PrepareRenameParams{
			TextDocumentPositionParams: TextDocumentPositionParams{
				TextDocument: TextDocumentIdentifier{URI: uri},
				Position:     pos,
			},
		})
		if err != nil {
			return nil, err
		}
		r, err := decodeResult[Range](raw)
		if err != nil {
			return nil, err
		}
		return &r, nil
	})
	setOperationSpanResult(ctx, span, "prepare-rename", language, start, err)
	return result, err
}

// Rename resolves textDocument/rename for path/position/newName under
// (root, language).
func (o *Operations) Rename(ctx context.Context, root, language, path string, pos Position, newName string) (*WorkspaceEdit, error) {
	ctx, span, start := startOperationSpan(ctx, "rename", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) (*WorkspaceEdit, error) {
		raw, err := server.Request(ctx, "textDocument/rename", RenameParams{
			TextDocumentPositionParams: TextDocumentPositionParams{
				TextDocument: TextDocumentIdentifier{URI: uri},
				Position:     pos,
			},
			NewName: newName,
		})
		if err != nil {
			return nil, err
		}
		edit, err := decodeResult[WorkspaceEdit](raw)
		if err != nil {
			return nil, err
		}
		return &edit, nil
	})
	setOperationSpanResult(ctx, span, "rename", language, start, err)
	return result, err
}

// DocumentSymbols resolves textDocument/documentSymbol for path under
// (root, language). The result may be either hierarchical DocumentSymbol
// entries or flat SymbolInformation, depending on server support; flat
// entries are converted to DocumentSymbol here (Range and SelectionRange
// both set to the entry's location range) for a uniform caller shape.
func (o *Operations) DocumentSymbols(ctx context.Context, root, language, path string) ([]DocumentSymbol, error) {
	ctx, span, start := startOperationSpan(ctx, "document-symbols", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]DocumentSymbol, error) {
		raw, err := server.Request(ctx, "textDocument/documentSymbol", struct {
			TextDocument TextDocumentIdentifier `json:"textDocument"`
		}{TextDocumentIdentifier{URI: uri}})
		if err != nil {
			return nil, err
		}
		return parseDocumentSymbols(raw)
	})
	setOperationSpanResult(ctx, span, "document-symbols", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "document-symbols", language, len(result))
	}
	return result, err
}

func parseDocumentSymbols(raw json.RawMessage) ([]DocumentSymbol, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	// Flat SymbolInformation entries carry a location; hierarchical
	// DocumentSymbol entries do not.
	var probe []struct {
		Location json.RawMessage `json:"location"`
	}
	isFlat := json.Unmarshal(raw, &probe) == nil && len(probe) > 0 && len(probe[0].Location) > 0
	var hierarchical []DocumentSymbol
	if err := json.Unmarshal(raw, &hierarchical); err == nil && !isFlat && (len(hierarchical) == 0 || hierarchical[0].Name != "") {
		return hierarchical, nil
	}
	var flat []SymbolInformation
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: unrecognized documentSymbol response shape", ErrProtocol)
	}
	out := make([]DocumentSymbol, 0, len(flat))
	for _, s := range flat {
		out = append(out, DocumentSymbol{Name: s.Name, Kind: s.Kind, Range: s.Location.Range, SelectionRange: s.Location.Range})
	}
	return out, nil
}

// WorkspaceSymbols resolves workspace/symbol for query under (root,
// language).
func (o *Operations) WorkspaceSymbols(ctx context.Context, root, language, query string) ([]SymbolInformation, error) {
	ctx, span, start := startOperationSpan(ctx, "workspace-symbols", language)
	_, server, err := o.workspace(ctx, root, language)
	var result []SymbolInformation
	if err == nil {
		var raw json.RawMessage
		raw, err = server.Request(ctx, "workspace/symbol", struct {
			Query string `json:"query"`
		}{query})
		if err == nil {
			result, err = decodeResult[[]SymbolInformation](raw)
		}
	}
	setOperationSpanResult(ctx, span, "workspace-symbols", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "workspace-symbols", language, len(result))
	}
	return result, err
}

// CodeAction resolves textDocument/codeAction for path/range under (root,
// language), scoped to diagnostics if any were supplied.
func (o *Operations) CodeAction(ctx context.Context, root, language, path string, rng Range, diagnostics []Diagnostic) ([]CodeAction, error) {
	ctx, span, start := startOperationSpan(ctx, "code-action", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]CodeAction, error) {
		raw, err := server.Request(ctx, "textDocument/codeAction", CodeActionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Range:        rng,
			Context:      CodeActionContext{Diagnostics: diagnostics},
		})
		if err != nil {
			return nil, err
		}
		return decodeResult[[]CodeAction](raw)
	})
	setOperationSpanResult(ctx, span, "code-action", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "code-action", language, len(result))
	}
	return result, err
}

// PrepareCallHierarchy resolves textDocument/prepareCallHierarchy for
// path/position under (root, language), the entry point a caller uses
// before IncomingCalls/OutgoingCalls.
func (o *Operations) PrepareCallHierarchy(ctx context.Context, root, language, path string, pos Position) ([]CallHierarchyItem, error) {
	ctx, span, start := startOperationSpan(ctx, "prepare-call-hierarchy", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]CallHierarchyItem, error) {
		raw, err := server.Request(ctx, "textDocument/prepareCallHierarchy", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     pos,
		})
		if err != nil {
			return nil, err
		}
		return decodeResult[[]CallHierarchyItem](raw)
	})
	setOperationSpanResult(ctx, span, "prepare-call-hierarchy", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "prepare-call-hierarchy", language, len(result))
	}
	return result, err
}

// IncomingCalls resolves callHierarchy/incomingCalls for an item already
// resolved via PrepareCallHierarchy. The item carries its own URI, so this
// only needs the workspace's server, not EnsureDocumentOpen on a path.
func (o *Operations) IncomingCalls(ctx context.Context, root, language string, item CallHierarchyItem) ([]CallHierarchyIncomingCall, error) {
	ctx, span, start := startOperationSpan(ctx, "incoming-calls", language)
	_, server, err := o.workspace(ctx, root, language)
	var result []CallHierarchyIncomingCall
	if err == nil {
		var raw json.RawMessage
		raw, err = server.Request(ctx, "callHierarchy/incomingCalls", CallHierarchyIncomingCallsParams{Item: item})
		if err == nil {
			result, err = decodeResult[[]CallHierarchyIncomingCall](raw)
		}
	}
	setOperationSpanResult(ctx, span, "incoming-calls", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "incoming-calls", language, len(result))
	}
	return result, err
}

// OutgoingCalls resolves callHierarchy/outgoingCalls for an item already
// resolved via PrepareCallHierarchy.
func (o *Operations) OutgoingCalls(ctx context.Context, root, language string, item CallHierarchyItem) ([]CallHierarchyOutgoingCall, error) {
	ctx, span, start := startOperationSpan(ctx, "outgoing-calls", language)
	_, server, err := o.workspace(ctx, root, language)
	var result []CallHierarchyOutgoingCall
	if err == nil {
		var raw json.RawMessage
		raw, err = server.Request(ctx, "callHierarchy/outgoingCalls", CallHierarchyOutgoingCallsParams{Item: item})
		if err == nil {
			result, err = decodeResult[[]CallHierarchyOutgoingCall](raw)
		}
	}
	setOperationSpanResult(ctx, span, "outgoing-calls", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "outgoing-calls", language, len(result))
	}
	return result, err
}

// PrepareTypeHierarchy resolves textDocument/prepareTypeHierarchy for
// path/position under (root, language), the entry point a caller uses
// before Supertypes/Subtypes.
func (o *Operations) PrepareTypeHierarchy(ctx context.Context, root, language, path string, pos Position) ([]TypeHierarchyItem, error) {
	ctx, span, start := startOperationSpan(ctx, "prepare-type-hierarchy", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]TypeHierarchyItem, error) {
		raw, err := server.Request(ctx, "textDocument/prepareTypeHierarchy", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     pos,
		})
		if err != nil {
			return nil, err
		}
		return decodeResult[[]TypeHierarchyItem](raw)
	})
	setOperationSpanResult(ctx, span, "prepare-type-hierarchy", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "prepare-type-hierarchy", language, len(result))
	}
	return result, err
}

// Supertypes resolves typeHierarchy/supertypes for an item already
// resolved via PrepareTypeHierarchy.
func (o *Operations) Supertypes(ctx context.Context, root, language string, item TypeHierarchyItem) ([]TypeHierarchyItem, error) {
	ctx, span, start := startOperationSpan(ctx, "supertypes", language)
	_, server, err := o.workspace(ctx, root, language)
	var result []TypeHierarchyItem
	if err == nil {
		var raw json.RawMessage
		raw, err = server.Request(ctx, "typeHierarchy/supertypes", TypeHierarchySupertypesParams{Item: item})
		if err == nil {
			result, err = decodeResult[[]TypeHierarchyItem](raw)
		}
	}
	setOperationSpanResult(ctx, span, "supertypes", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "supertypes", language, len(result))
	}
	return result, err
}

// Subtypes resolves typeHierarchy/subtypes for an item already resolved
// via PrepareTypeHierarchy.
func (o *Operations) Subtypes(ctx context.Context, root, language string, item TypeHierarchyItem) ([]TypeHierarchyItem, error) {
	ctx, span, start := startOperationSpan(ctx, "subtypes", language)
	_, server, err := o.workspace(ctx, root, language)
	var result []TypeHierarchyItem
	if err == nil {
		var raw json.RawMessage
		raw, err = server.Request(ctx, "typeHierarchy/subtypes", TypeHierarchySubtypesParams{Item: item})
		if err == nil {
			result, err = decodeResult[[]TypeHierarchyItem](raw)
		}
	}
	setOperationSpanResult(ctx, span, "subtypes", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "subtypes", language, len(result))
	}
	return result, err
}

// SignatureHelp resolves textDocument/signatureHelp for path/position
// under (root, language).
func (o *Operations) SignatureHelp(ctx context.Context, root, language, path string, pos Position) (*SignatureHelp, error) {
	ctx, span, start := startOperationSpan(ctx, "signature-help", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) (*SignatureHelp, error) {
		raw, err := server.Request(ctx, "textDocument/signatureHelp", SignatureHelpParams{
			TextDocumentPositionParams: TextDocumentPositionParams{
				TextDocument: TextDocumentIdentifier{URI: uri},
				Position:     pos,
			},
		})
		if err != nil {
			return nil, err
		}
		help, err := decodeResult[SignatureHelp](raw)
		if err != nil {
			return nil, err
		}
		return &help, nil
	})
	setOperationSpanResult(ctx, span, "signature-help", language, start, err)
	return result, err
}

// InlayHints resolves textDocument/inlayHint for path/range under (root,
// language).
func (o *Operations) InlayHints(ctx context.Context, root, language, path string, rng Range) ([]InlayHint, error) {
	ctx, span, start := startOperationSpan(ctx, "inlay-hints", language)
	result, err := withOpenDocument(ctx, o, root, language, path, func(ws *Workspace, server *Server, uri string) ([]InlayHint, error) {
		raw, err := server.Request(ctx, "textDocument/inlayHint", InlayHintParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Range:        rng,
		})
		if err != nil {
			return nil, err
		}
		return decodeResult[[]InlayHint](raw)
	})
	setOperationSpanResult(ctx, span, "inlay-hints", language, start, err)
	if err == nil {
		recordOperationMetrics(ctx, "inlay-hints", language, len(result))
	}
	return result, err
}

// withOpenDocument spawns/ensures the (root, language) workspace and
// path's document are open, then invokes fn with the resolved server and
// document URI. A package-level generic function rather than a method,
// since Go methods cannot carry their own type parameters.
func withOpenDocument[T any](ctx context.Context, o *Operations, root, language, path string, fn func(ws *Workspace, server *Server, uri string) (T, error)) (T, error) {
	var zero T
	ws, server, err := o.workspace(ctx, root, language)
	if err != nil {
		return zero, err
	}
	if _, err := ws.EnsureDocumentOpen(ctx, path); err != nil {
		return zero, err
	}
	return fn(ws, server, PathToURI(path))
}
