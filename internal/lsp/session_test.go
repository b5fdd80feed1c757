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
	"errors"
	"sync"
	"testing"
)

func TestSessionGetOrCreateWorkspaceUnsupportedLanguage(t *testing.T) {
	s := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	_, err := s.GetOrCreateWorkspace(t.TempDir(), "cobol")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestSessionGetOrCreateWorkspaceSameInstance(t *testing.T) {
	s := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	root := t.TempDir()

	ws1, err := s.GetOrCreateWorkspace(root, "go")
	if err != nil {
		t.Fatalf("GetOrCreateWorkspace: %v", err)
	}
	ws2, err := s.GetOrCreateWorkspace(root, "go")
	if err != nil {
		t.Fatalf("GetOrCreateWorkspace: %v", err)
	}
	if ws1 != ws2 {
		t.Error("expected the same *Workspace instance for repeated calls")
	}
}

func TestSessionGetOrCreateWorkspaceConcurrentSameKey(t *testing.T) {
	s := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	root := t.TempDir()

	const n = 50
	results := make([]*Workspace, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ws, err := s.GetOrCreateWorkspace(root, "go")
			if err != nil {
				t.Errorf("GetOrCreateWorkspace: %v", err)
				return
			}
			results[i] = ws
		}(i)
	}
	wg.Wait()

	first := results[0]
	for i, ws := range results {
		if ws != first {
			t.Errorf("result[%d] = %p, want %p (all callers must observe the same workspace)", i, ws, first)
		}
	}
}

func TestSessionRemoveWorkspacesForUnknownRootIsEmptyNotError(t *testing.T) {
	s := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	stopped, err := s.RemoveWorkspacesForRoot(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("RemoveWorkspacesForRoot: %v", err)
	}
	if len(stopped) != 0 {
		t.Errorf("stopped = %v, want empty", stopped)
	}
}

func TestSessionDistinctLanguagesGetDistinctWorkspaces(t *testing.T) {
	s := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	root := t.TempDir()

	wsGo, _ := s.GetOrCreateWorkspace(root, "go")
	wsPy, _ := s.GetOrCreateWorkspace(root, "python")
	if wsGo == wsPy {
		t.Error("expected distinct workspaces for distinct languages under the same root")
	}
}

func TestSessionStatusAllEmpty(t *testing.T) {
	s := NewSession(NewConfigRegistry(), DefaultWorkspaceConfig(), nil)
	if got := s.StatusAll(); len(got) != 0 {
		t.Errorf("StatusAll() = %v, want empty", got)
	}
}
