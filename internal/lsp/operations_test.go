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
	"testing"
)

func TestParseLocationsSingle(t *testing.T) {
	raw := json.RawMessage(`{"uri":"file:///a.go","range":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}}}`)
	locs, err := parseLocations(raw)
	if err != nil {
		t.Fatalf("parseLocations: %v", err)
	}
	if len(locs) != 1 || locs[0].URI != "file:///a.go" {
		t.Errorf("locs = %+v", locs)
	}
}

func TestParseLocationsArray(t *testing.T) {
	raw := json.RawMessage(`[{"uri":"file:///a.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}},{"uri":"file:///b.go","range":{"start":{"line":2,"character":0},"end":{"line":2,"character":1}}}]`)
	locs, err := parseLocations(raw)
	if err != nil {
		t.Fatalf("parseLocations: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("len(locs) = %d, want 2", len(locs))
	}
}

func TestParseLocationsLocationLink(t *testing.T) {
	raw := json.RawMessage(`{"targetUri":"file:///a.go","targetRange":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}},"targetSelectionRange":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}}}`)
	locs, err := parseLocations(raw)
	if err != nil {
		t.Fatalf("parseLocations: %v", err)
	}
	if len(locs) != 1 || locs[0].URI != "file:///a.go" {
		t.Errorf("locs = %+v", locs)
	}
}

func TestParseLocationsNull(t *testing.T) {
	locs, err := parseLocations(json.RawMessage(`null`))
	if err != nil {
		t.Fatalf("parseLocations: %v", err)
	}
	if locs != nil {
		t.Errorf("locs = %+v, want nil", locs)
	}
}

func TestParseDocumentSymbolsHierarchical(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Foo","kind":12,"range":{"start":{"line":0,"character":0},"end":{"line":5,"character":0}},"selectionRange":{"start":{"line":0,"character":5},"end":{"line":0,"character":8}}}]`)
	syms, err := parseDocumentSymbols(raw)
	if err != nil {
		t.Fatalf("parseDocumentSymbols: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Foo" {
		t.Errorf("syms = %+v", syms)
	}
}

func TestParseDocumentSymbolsFlat(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Bar","kind":12,"location":{"uri":"file:///a.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":3}}}}]`)
	syms, err := parseDocumentSymbols(raw)
	if err != nil {
		t.Fatalf("parseDocumentSymbols: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Bar" {
		t.Errorf("syms = %+v", syms)
	}
}

func TestOperationsUnsupportedLanguage(t *testing.T) {
	session := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	ops := NewOperations(session)

	_, err := ops.Definition(context.Background(), t.TempDir(), "cobol", "main.cbl", Position{})
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestOperationsCodeActionUnsupportedLanguage(t *testing.T) {
	session := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	ops := NewOperations(session)

	_, err := ops.CodeAction(context.Background(), t.TempDir(), "cobol", "main.cbl", Range{}, nil)
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestOperationsPrepareCallHierarchyUnsupportedLanguage(t *testing.T) {
	session := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	ops := NewOperations(session)

	_, err := ops.PrepareCallHierarchy(context.Background(), t.TempDir(), "cobol", "main.cbl", Position{})
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestOperationsPrepareTypeHierarchyUnsupportedLanguage(t *testing.T) {
	session := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	ops := NewOperations(session)

	_, err := ops.PrepareTypeHierarchy(context.Background(), t.TempDir(), "cobol", "main.cbl", Position{})
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestOperationsIncomingCallsUnsupportedLanguage(t *testing.T) {
	session := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	ops := NewOperations(session)

	_, err := ops.IncomingCalls(context.Background(), t.TempDir(), "cobol", CallHierarchyItem{})
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestOperationsSupertypesUnsupportedLanguage(t *testing.T) {
	session := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	ops := NewOperations(session)

	_, err := ops.Supertypes(context.Background(), t.TempDir(), "cobol", TypeHierarchyItem{})
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestDecodeResultCodeActionList(t *testing.T) {
	raw := json.RawMessage(`[{"title":"Fix it","kind":"quickfix","isPreferred":true}]`)
	actions, err := decodeResult[[]CodeAction](raw)
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if len(actions) != 1 || actions[0].Title != "Fix it" || actions[0].Kind != "quickfix" || !actions[0].IsPreferred {
		t.Errorf("actions = %+v", actions)
	}
}

func TestDecodeResultCallHierarchyItems(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Foo","kind":12,"uri":"file:///a.go","range":{"start":{"line":0,"character":0},"end":{"line":5,"character":0}},"selectionRange":{"start":{"line":0,"character":5},"end":{"line":0,"character":8}}}]`)
	items, err := decodeResult[[]CallHierarchyItem](raw)
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Foo" || items[0].URI != "file:///a.go" {
		t.Errorf("items = %+v", items)
	}
}
