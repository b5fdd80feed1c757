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

import "github.com/andreasjansson/leta/internal/lsp"

// Request is one client-to-daemon call: a method name plus its raw
// parameters, framed over the socket with the same Content-Length codec
// the LSP child processes use (internal/lsp.WriteFrame/ReadFrame).
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Response is the daemon's answer to one Request.
type Response struct {
	ID     string      `json:"id"`
	Result any         `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail reports a failed request using the taxonomy kinds from
// internal/lsp.Kind.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// AddWorkspaceParams is the params shape for the add-workspace method.
type AddWorkspaceParams struct {
	Root     string `json:"root" validate:"required,dir"`
	Language string `json:"language" validate:"required"`
}

// AddWorkspaceResult reports the server spawned (or already running) for a
// workspace.
type AddWorkspaceResult struct {
	Root     string `json:"root"`
	Language string `json:"language"`
	Server   string `json:"server"`
	State    string `json:"state"`
}

// RemoveWorkspaceParams is the params shape for the remove-workspace
// method.
type RemoveWorkspaceParams struct {
	Root string `json:"root" validate:"required"`
}

// RemoveWorkspaceResult names the servers that were stopped. Empty, not an
// error, if no workspace was registered under root.
type RemoveWorkspaceResult struct {
	ServersStopped []string `json:"serversStopped"`
}

// StatusResult lists every registered workspace.
type StatusResult struct {
	Workspaces []lsp.Status `json:"workspaces"`
}

// PositionParams is the common shape for position-addressed requests.
type PositionParams struct {
	Root      string `json:"root" validate:"required"`
	Language  string `json:"language" validate:"required"`
	Path      string `json:"path" validate:"required"`
	Line      int    `json:"line" validate:"gte=0"`
	Character int    `json:"character" validate:"gte=0"`
}

// ReferencesParams is the params shape for the references method.
type ReferencesParams struct {
	PositionParams
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferencesResult is the result shape for the references method.
type ReferencesResult struct {
	Locations []LocationInfo `json:"locations"`
}

// LocationInfo is a client-facing location: a workspace-relative path plus
// 1-based line/column, rather than a raw URI/0-based Position.
type LocationInfo struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// HoverParams is the params shape for the hover method.
type HoverParams struct {
	PositionParams
}

// HoverResult is the result shape for the hover method.
type HoverResult struct {
	Contents string `json:"contents"`
}

// RenameParams is the params shape for the rename method.
type RenameParams struct {
	PositionParams
	NewName string `json:"newName" validate:"required"`
}

// RenameResult summarizes the edits a rename would apply.
type RenameResult struct {
	FilesChanged int `json:"filesChanged"`
	EditsApplied int `json:"editsApplied"`
}

// DocumentSymbolsParams is the params shape for the document-symbols
// method.
type DocumentSymbolsParams struct {
	Root     string `json:"root" validate:"required"`
	Language string `json:"language" validate:"required"`
	Path     string `json:"path" validate:"required"`
}

// DocumentSymbolsResult is the result shape for the document-symbols
// method.
type DocumentSymbolsResult struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// SymbolInfo is a client-facing flattened symbol entry.
type SymbolInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

// ShowParams is the params shape for the show method, grounded on
// original_source/lspcmd/daemon/handlers/show.py's ShowParams.
type ShowParams struct {
	Root          string `json:"root" validate:"required"`
	Language      string `json:"language" validate:"required"`
	Path          string `json:"path" validate:"required"`
	Line          int    `json:"line" validate:"gte=1"`
	Column        int    `json:"column"`
	Context       int    `json:"context"`
	Body          bool   `json:"body"`
	Head          int    `json:"head"`
	SymbolName    string `json:"symbolName,omitempty"`
	SymbolKind    string `json:"symbolKind,omitempty"`
	RangeStartLine *int  `json:"rangeStartLine,omitempty"`
	RangeEndLine   *int  `json:"rangeEndLine,omitempty"`
}

// ShowResult is the result shape for the show method.
type ShowResult struct {
	Path       string `json:"path"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	Content    string `json:"content"`
	Symbol     string `json:"symbol,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	TotalLines int    `json:"totalLines,omitempty"`
}

// ShutdownResult confirms the daemon is about to exit.
type ShutdownResult struct {
	Stopping bool `json:"stopping"`
}

// CodeActionsParams is the params shape for the code-actions method. The
// range addresses the span a client wants fixes for; EndLine/EndChar are
// omitted (nil) to scope the request to a single position rather than a
// span, mirroring ShowParams' RangeStartLine/RangeEndLine pointers.
type CodeActionsParams struct {
	Root      string `json:"root" validate:"required"`
	Language  string `json:"language" validate:"required"`
	Path      string `json:"path" validate:"required"`
	Line      int    `json:"line" validate:"gte=0"`
	Character int    `json:"character" validate:"gte=0"`
	EndLine   *int   `json:"endLine,omitempty"`
	EndChar   *int   `json:"endChar,omitempty"`
}

// CodeActionsResult is the result shape for the code-actions method.
type CodeActionsResult struct {
	Actions []CodeActionInfo `json:"actions"`
}

// CodeActionInfo is a client-facing code action summary: enough to choose
// one and request it applied, without exposing the raw LSP edit/command
// union.
type CodeActionInfo struct {
	Title       string `json:"title"`
	Kind        string `json:"kind,omitempty"`
	IsPreferred bool   `json:"isPreferred,omitempty"`
	HasEdit     bool   `json:"hasEdit"`
	HasCommand  bool   `json:"hasCommand"`
}

// PingResult confirms the daemon is alive and responding.
type PingResult struct {
	Ok bool `json:"ok"`
}
