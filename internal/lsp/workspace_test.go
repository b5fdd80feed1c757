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

func notInstalledConfig() LanguageConfig {
	return LanguageConfig{Language: "go", Command: "definitely-not-a-real-lsp-binary", Extensions: []string{".go"}}
}

func TestWorkspaceEnsureNotInstalled(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), notInstalledConfig(), DefaultWorkspaceConfig(), nil)
	_, err := ws.Ensure(context.Background())
	if !errors.Is(err, ErrServerNotInstalled) {
		t.Errorf("err = %v, want ErrServerNotInstalled", err)
	}
}

func TestWorkspaceEnsureConcurrentCallersAllSeeNotInstalled(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), notInstalledConfig(), DefaultWorkspaceConfig(), nil)

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ws.Ensure(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrServerNotInstalled) {
			t.Errorf("errs[%d] = %v, want ErrServerNotInstalled", i, err)
		}
	}
}

func TestWorkspaceEnsureDocumentOpenPropagatesStartupError(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), notInstalledConfig(), DefaultWorkspaceConfig(), nil)
	_, err := ws.EnsureDocumentOpen(context.Background(), "main.go")
	if !errors.Is(err, ErrServerNotInstalled) {
		t.Errorf("err = %v, want ErrServerNotInstalled", err)
	}
}

func TestWorkspaceShutdownIdempotentWithoutServer(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), notInstalledConfig(), DefaultWorkspaceConfig(), nil)
	if err := ws.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on never-started workspace: %v", err)
	}
	if err := ws.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestWorkspaceRootAndLanguage(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, notInstalledConfig(), DefaultWorkspaceConfig(), nil)
	if ws.Root() != root {
		t.Errorf("Root() = %q, want %q", ws.Root(), root)
	}
	if ws.Language() != "go" {
		t.Errorf("Language() = %q, want go", ws.Language())
	}
	if ws.ServerName() != "definitely-not-a-real-lsp-binary" {
		t.Errorf("ServerName() = %q", ws.ServerName())
	}
}

func TestWorkspaceServerAbsentBeforeEnsure(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), notInstalledConfig(), DefaultWorkspaceConfig(), nil)
	if _, ok := ws.Server(); ok {
		t.Error("expected no server before Ensure is called")
	}
}
