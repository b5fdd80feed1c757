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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// sessionKey identifies one workspace slot: a (root, language) pair.
type sessionKey struct {
	root     string
	language string
}

func (k sessionKey) String() string { return k.root + "::" + k.language }

// Session is the process-wide registry of Workspaces keyed by (root,
// language), generalizing code_buddy/lsp/manager.go's single-root Manager
// registry to the two-level keying spec.md §4.6 requires. Concurrent
// GetOrCreateWorkspace calls for the same key are collapsed onto one
// in-flight spawn via singleflight, replacing the teacher's
// sync.Map-of-*sync.Mutex pattern with a dependency the teacher's go.mod
// already carries but its lsp package never used.
type Session struct {
	configs  *ConfigRegistry
	wsConfig WorkspaceConfig
	logger   *slog.Logger

	mu         sync.RWMutex
	workspaces map[sessionKey]*Workspace

	group singleflight.Group
}

// NewSession builds an empty Session using configs to resolve languages to
// LanguageConfig and wsConfig for every Workspace it creates.
func NewSession(configs *ConfigRegistry, wsConfig WorkspaceConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		configs:    configs,
		wsConfig:   wsConfig,
		logger:     logger,
		workspaces: make(map[sessionKey]*Workspace),
	}
}

// GetOrCreateWorkspace returns the Workspace for (root, language),
// creating and registering it if this is the first call for that key.
// Every concurrent caller for the same key observes the same *Workspace —
// the spec.md §8 invariant this component exists to satisfy.
func (s *Session) GetOrCreateWorkspace(root, language string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("lsp: resolve root %q: %w", root, err)
	}
	key := sessionKey{root: absRoot, language: language}

	s.mu.RLock()
	ws, ok := s.workspaces[key]
	s.mu.RUnlock()
	if ok {
		return ws, nil
	}

	if _, ok := s.configs.Get(language); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	result, err, _ := s.group.Do(key.String(), func() (any, error) {
		s.mu.RLock()
		if ws, ok := s.workspaces[key]; ok {
			s.mu.RUnlock()
			return ws, nil
		}
		s.mu.RUnlock()

		config, _ := s.configs.Get(language)
		ws := NewWorkspace(absRoot, config, s.wsConfig, s.logger)

		s.mu.Lock()
		s.workspaces[key] = ws
		s.mu.Unlock()
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Workspace), nil
}

// Lookup returns the Workspace registered for (root, language), if any,
// without creating one.
func (s *Session) Lookup(root, language string) (*Workspace, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.workspaces[sessionKey{root: absRoot, language: language}]
	return ws, ok
}

// WorkspacesForRoot returns every Workspace registered under root, across
// all languages.
func (s *Session) WorkspacesForRoot(root string) []*Workspace {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Workspace
	for key, ws := range s.workspaces {
		if key.root == absRoot {
			out = append(out, ws)
		}
	}
	return out
}

// RemoveWorkspacesForRoot shuts down and unregisters every workspace under
// root, returning the server names that were stopped. Returns an empty
// slice (never an error) if no workspace was registered under root — the
// documented boundary behaviour for remove-workspace on an unknown root.
func (s *Session) RemoveWorkspacesForRoot(ctx context.Context, root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("lsp: resolve root %q: %w", root, err)
	}

	s.mu.Lock()
	var toRemove []sessionKey
	var workspaces []*Workspace
	for key, ws := range s.workspaces {
		if key.root == absRoot {
			toRemove = append(toRemove, key)
			workspaces = append(workspaces, ws)
		}
	}
	for _, key := range toRemove {
		delete(s.workspaces, key)
	}
	s.mu.Unlock()

	stopped := make([]string, 0, len(workspaces))
	var firstErr error
	for _, ws := range workspaces {
		name := ws.ServerName()
		if err := ws.Shutdown(ctx); err != nil {
			s.logger.Warn("lsp: error shutting down workspace", "root", absRoot, "language", ws.Language(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stopped = append(stopped, name)
	}
	return stopped, firstErr
}

// ShutdownAll tears down every registered workspace, in parallel, and
// returns the last error encountered (if any).
func (s *Session) ShutdownAll(ctx context.Context) error {
	s.mu.Lock()
	workspaces := make([]*Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		workspaces = append(workspaces, ws)
	}
	s.workspaces = make(map[sessionKey]*Workspace)
	s.mu.Unlock()

	var wg sync.WaitGroup
	errs := make(chan error, len(workspaces))
	for _, ws := range workspaces {
		wg.Add(1)
		go func(ws *Workspace) {
			defer wg.Done()
			if err := ws.Shutdown(ctx); err != nil {
				errs <- err
			}
		}(ws)
	}
	wg.Wait()
	close(errs)

	var last error
	for err := range errs {
		last = err
	}
	return last
}

// Status summarizes every registered workspace for the socket status
// method.
type Status struct {
	Root     string `json:"root"`
	Language string `json:"language"`
	Server   string `json:"server"`
	State    string `json:"state"`
}

// StatusAll returns a Status entry for every registered workspace.
func (s *Session) StatusAll() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.workspaces))
	for key, ws := range s.workspaces {
		state := ServerStateUnstarted
		if server, ok := ws.Server(); ok {
			state = server.State()
		}
		out = append(out, Status{Root: key.root, Language: key.language, Server: ws.ServerName(), State: state.String()})
	}
	return out
}
