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

// clientCapabilities returns the fixed capability set advertised on every
// initialize handshake. It is not configurable per workspace: every
// language server gets the same offer, and ignores whatever subset of it
// it doesn't understand (per the LSP spec's extensibility rule). Grounded
// on original_source/lspcmd/lsp/capabilities.py for the workspace-edit and
// symbol-kind shape, and on the teacher's inline InitializeParams
// construction in server.go for the text-document subset.
func clientCapabilities() ClientCapabilities {
	allSymbolKinds := make([]SymbolKind, 0, 26)
	for k := SymbolKind(1); k <= 26; k++ {
		allSymbolKinds = append(allSymbolKinds, k)
	}

	return ClientCapabilities{
		TextDocument: TextDocumentClientCapabilities{
			Synchronization: &SynchronizationCapabilities{DidSave: true},
			Definition:      &DefinitionCapabilities{LinkSupport: true},
			References:      &ReferencesCapabilities{},
			Hover:           &HoverCapabilities{ContentFormat: []string{"markdown", "plaintext"}},
			Rename:          &RenameCapabilities{PrepareSupport: true},
			DocumentSymbol: &DocumentSymbolCapabilities{
				HierarchicalDocumentSymbolSupport: true,
				SymbolKind:                        &SymbolKindCapability{ValueSet: allSymbolKinds},
			},
			PublishDiagnostics: &PublishDiagnosticsCapabilities{
				RelatedInformation: true,
				VersionSupport:     true,
				CodeDescription:    true,
			},
			SignatureHelp: &SignatureHelpCapabilities{
				SignatureInformation: &SignatureInformationCapability{DocumentationFormat: []string{"markdown", "plaintext"}},
			},
			CallHierarchy: &CallHierarchyCapabilities{},
			TypeHierarchy: &TypeHierarchyCapabilities{},
			InlayHint:     &InlayHintCapabilities{},
		},
		Workspace: WorkspaceClientCapabilities{
			ApplyEdit: true,
			WorkspaceEdit: &WorkspaceEditClientCapabilities{
				DocumentChanges:    true,
				ResourceOperations: []string{"create", "rename", "delete"},
			},
			Symbol:           &WorkspaceSymbolClientCapabilities{SymbolKind: &SymbolKindCapability{ValueSet: allSymbolKinds}},
			ExecuteCommand:   &struct{}{},
			WorkspaceFolders: true,
		},
		General: GeneralClientCapabilities{
			// Required unconditionally; see DESIGN.md's Open Question
			// resolution on UTF-16 position encoding.
			PositionEncodings: []string{"utf-16"},
		},
	}
}
