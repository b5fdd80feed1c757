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
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDocumentRegistryEnsureOpenFailsWhenServerNotReady(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := newUnstartedServerForDocTest(t)
	reg := NewDocumentRegistry(srv)

	doc1, err := reg.EnsureOpen(path)
	if err == nil {
		t.Fatalf("expected error since server is not ready")
	}
	_ = doc1

	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after failed open", reg.Len())
	}
}

func TestDocumentRegistryChangeNotFound(t *testing.T) {
	srv := newUnstartedServerForDocTest(t)
	reg := NewDocumentRegistry(srv)

	err := reg.Change("/nonexistent.go", "x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentRegistryCloseNoop(t *testing.T) {
	srv := newUnstartedServerForDocTest(t)
	reg := NewDocumentRegistry(srv)

	if err := reg.Close("/never-opened.go"); err != nil {
		t.Errorf("Close of never-opened path should be a no-op, got %v", err)
	}
}

func newUnstartedServerForDocTest(t *testing.T) *Server {
	t.Helper()
	cfg := LanguageConfig{Language: "go", Command: "gopls"}
	return NewServer(cfg, t.TempDir(), DefaultServerConfig(), nil)
}
