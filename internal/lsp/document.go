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
	"os"
	"sync"
)

// Document is one open file's tracked state: the version number the
// server last saw, its full text, the language id it was opened with, and
// the absolute path it came from (so CloseAll can re-derive its URI
// without a caller supplying it).
type Document struct {
	URI        string
	Path       string
	LanguageID string
	Version    int
	Text       string
}

// DocumentRegistry tracks the documents open against one Server, enforcing
// a monotonically increasing version per URI and making didOpen
// idempotent. New component: the teacher's lsp packages have no
// equivalent — Operations.OpenDocument/CloseDocument there are
// notification-only with no tracked state at all. Built in the teacher's
// idiom (mutex-guarded map) to satisfy the versioning invariant this
// daemon's spec requires.
type DocumentRegistry struct {
	server *Server

	mu   sync.Mutex
	docs map[string]*Document
}

// NewDocumentRegistry builds a registry that forwards didOpen/didChange/
// didClose notifications through server.
func NewDocumentRegistry(server *Server) *DocumentRegistry {
	return &DocumentRegistry{server: server, docs: make(map[string]*Document)}
}

// EnsureOpen opens path if it isn't already tracked, reading its content
// from disk. If it is already open, EnsureOpen is a no-op and returns the
// existing Document — it never re-reads the file or bumps the version,
// so concurrent callers racing to open the same document converge on one
// didOpen notification.
func (r *DocumentRegistry) EnsureOpen(path string) (*Document, error) {
	uri := PathToURI(path)

	r.mu.Lock()
	if doc, ok := r.docs[uri]; ok {
		r.mu.Unlock()
		return doc, nil
	}
	r.mu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another goroutine may have opened it while we were
	// reading the file from disk.
	if doc, ok := r.docs[uri]; ok {
		return doc, nil
	}

	doc := &Document{
		URI:        uri,
		Path:       path,
		LanguageID: LanguageID(path),
		Version:    1,
		Text:       string(content),
	}
	r.docs[uri] = doc

	if err := r.server.Notify("textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        doc.URI,
			LanguageID: doc.LanguageID,
			Version:    doc.Version,
			Text:       doc.Text,
		},
	}); err != nil {
		delete(r.docs, uri)
		return nil, err
	}
	return doc, nil
}

// Change replaces a tracked document's full text with newText, bumping its
// version and sending a full-text didChange notification. Returns
// ErrNotFound if path isn't open.
func (r *DocumentRegistry) Change(path string, newText string) error {
	uri := PathToURI(path)

	r.mu.Lock()
	doc, ok := r.docs[uri]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	doc.Version++
	doc.Text = newText
	version := doc.Version
	r.mu.Unlock()

	return r.server.Notify("textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: version},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: newText}},
	})
}

// Close stops tracking path and sends didClose. A no-op, returning nil, if
// path isn't open.
func (r *DocumentRegistry) Close(path string) error {
	uri := PathToURI(path)

	r.mu.Lock()
	_, ok := r.docs[uri]
	if ok {
		delete(r.docs, uri)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	return r.server.Notify("textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
}

// CloseAll closes every currently tracked document, collecting but not
// stopping on a per-document failure, and returns the paths that failed to
// close along with the first error encountered (if any). Used when a
// workspace is torn down.
func (r *DocumentRegistry) CloseAll() ([]string, error) {
	r.mu.Lock()
	paths := make([]string, 0, len(r.docs))
	for _, doc := range r.docs {
		paths = append(paths, doc.Path)
	}
	r.mu.Unlock()

	var failed []string
	var firstErr error
	for _, p := range paths {
		if err := r.Close(p); err != nil {
			failed = append(failed, p)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return failed, firstErr
}

// Get returns the tracked Document for path, if open.
func (r *DocumentRegistry) Get(path string) (*Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[PathToURI(path)]
	return doc, ok
}

// Len returns the number of currently open documents.
func (r *DocumentRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}
