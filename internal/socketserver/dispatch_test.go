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
	"testing"
	"time"

	"github.com/andreasjansson/leta/internal/lsp"
)

func newTestHandlers() *Handlers {
	session := lsp.NewSession(lsp.NewConfigRegistry(), lsp.DefaultWorkspaceConfig(), nil)
	return NewHandlers(session, func() {})
}

func TestDispatchUnknownMethod(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{ID: "1", Method: "not-a-real-method"})
	if resp.Error == nil {
		t.Fatal("expected Error for unknown method")
	}
	if resp.Error.Kind != string(lsp.KindProtocol) {
		t.Errorf("Kind = %q, want %q", resp.Error.Kind, lsp.KindProtocol)
	}
}

func TestDispatchAddWorkspaceMissingRequiredField(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{
		ID:     "1",
		Method: "add-workspace",
		Params: map[string]any{"root": ""},
	})
	if resp.Error == nil {
		t.Fatal("expected validation error for missing root/language")
	}
}

func TestDispatchAddWorkspaceUnsupportedLanguage(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{
		ID:     "1",
		Method: "add-workspace",
		Params: AddWorkspaceParams{Root: t.TempDir(), Language: "cobol"},
	})
	if resp.Error == nil {
		t.Fatal("expected error for unsupported language")
	}
	if resp.Error.Kind != string(lsp.KindUnsupportedLanguage) {
		t.Errorf("Kind = %q, want %q", resp.Error.Kind, lsp.KindUnsupportedLanguage)
	}
}

func TestDispatchStatusEmpty(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{ID: "1", Method: "status"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(*StatusResult)
	if !ok {
		t.Fatalf("result type = %T, want *StatusResult", resp.Result)
	}
	if len(result.Workspaces) != 0 {
		t.Errorf("Workspaces = %v, want empty", result.Workspaces)
	}
}

func TestDispatchShutdownInvokesCallback(t *testing.T) {
	called := make(chan struct{})
	session := lsp.NewSession(lsp.NewConfigRegistry(), lsp.DefaultWorkspaceConfig(), nil)
	h := NewHandlers(session, func() { close(called) })

	resp := dispatch(context.Background(), h, Request{ID: "1", Method: "shutdown"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(*ShutdownResult)
	if !ok || !result.Stopping {
		t.Fatalf("result = %+v, want Stopping=true", resp.Result)
	}
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Error("onShutdown callback was not invoked")
	}
}

func TestDispatchPing(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{ID: "1", Method: "ping"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(*PingResult)
	if !ok || !result.Ok {
		t.Fatalf("result = %+v, want Ok=true", resp.Result)
	}
}

func TestDispatchCodeActionsMissingRequiredField(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{
		ID:     "1",
		Method: "code-actions",
		Params: CodeActionsParams{Root: "", Language: "", Path: ""},
	})
	if resp.Error == nil {
		t.Fatal("expected validation error for missing root/language/path")
	}
}

func TestDispatchCodeActionsUnsupportedLanguage(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{
		ID:     "1",
		Method: "code-actions",
		Params: CodeActionsParams{Root: t.TempDir(), Language: "cobol", Path: "main.cbl"},
	})
	if resp.Error == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestDispatchRemoveWorkspaceUnknownRootIsEmptyNotError(t *testing.T) {
	h := newTestHandlers()
	resp := dispatch(context.Background(), h, Request{
		ID:     "1",
		Method: "remove-workspace",
		Params: RemoveWorkspaceParams{Root: t.TempDir()},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(*RemoveWorkspaceResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if len(result.ServersStopped) != 0 {
		t.Errorf("ServersStopped = %v, want empty", result.ServersStopped)
	}
}
