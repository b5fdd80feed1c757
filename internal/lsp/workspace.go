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
	"log/slog"
	"sync"
	"time"
)

// WorkspaceConfig bounds a Workspace's server lifecycle and optional idle
// shutdown.
type WorkspaceConfig struct {
	Server      ServerConfig
	IdleTimeout time.Duration // 0 disables idle shutdown
}

// DefaultWorkspaceConfig matches code_buddy/lsp/manager.go's
// DefaultManagerConfig, widened per DESIGN.md's timeout resolution.
func DefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{Server: DefaultServerConfig(), IdleTimeout: 10 * time.Minute}
}

// Workspace binds exactly one (root, language) pair to its Server and
// DocumentRegistry, resolving paths under root to documents. Grounded on
// code_buddy/lsp/manager.go's Manager, narrowed from "many languages under
// one root" to one (root, language): the many-roots/many-languages fan-out
// that Manager did internally moves up to Session (C6).
type Workspace struct {
	root     string
	config   LanguageConfig
	wsConfig WorkspaceConfig
	logger   *slog.Logger

	mu       sync.Mutex
	server   *Server
	docs     *DocumentRegistry
	startErr error

	stopIdle chan struct{}
}

// NewWorkspace builds a Workspace for root using config to spawn its
// server. The server is not spawned until Ensure is first called.
func NewWorkspace(root string, config LanguageConfig, wsConfig WorkspaceConfig, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{root: root, config: config, wsConfig: wsConfig, logger: logger}
}

// Root returns the workspace's bound root directory.
func (w *Workspace) Root() string { return w.root }

// Language returns the workspace's bound language identifier.
func (w *Workspace) Language() string { return w.config.Language }

// ServerName returns the configured LSP command, e.g. "gopls" — named
// separately from Language because add-workspace/remove-workspace
// responses name servers, not just languages (spec.md §4.7).
func (w *Workspace) ServerName() string { return w.config.Command }

// Ensure spawns the workspace's server if it hasn't been spawned yet (or
// has since crashed), blocking until it is Ready or startup fails.
// Concurrent callers on the same Workspace converge on one spawn.
func (w *Workspace) Ensure(ctx context.Context) (*Server, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.server != nil && w.server.State() == ServerStateReady {
		return w.server, nil
	}
	if w.server != nil && w.server.State() != ServerStateStopped {
		// A previous spawn attempt is mid-flight on another path
		// (shouldn't happen given the mutex, but guards re-entrancy).
		return w.server, w.startErr
	}

	server := NewServer(w.config, w.root, w.wsConfig.Server, w.logger)
	if err := server.Start(ctx); err != nil {
		w.startErr = err
		return nil, err
	}
	w.server = server
	w.docs = NewDocumentRegistry(server)
	w.startErr = nil

	if w.wsConfig.IdleTimeout > 0 {
		w.startIdleMonitor()
	}
	return server, nil
}

// Server returns the currently spawned server, if any, without spawning
// one.
func (w *Workspace) Server() (*Server, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.server, w.server != nil
}

// Documents returns the workspace's document registry, if its server has
// been spawned.
func (w *Workspace) Documents() (*DocumentRegistry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs, w.docs != nil
}

// EnsureDocumentOpen resolves path (which must be under the workspace's
// root) and ensures it's open against the workspace's server, spawning the
// server first if needed.
func (w *Workspace) EnsureDocumentOpen(ctx context.Context, path string) (*Document, error) {
	if _, err := w.Ensure(ctx); err != nil {
		return nil, err
	}
	w.mu.Lock()
	docs := w.docs
	w.mu.Unlock()
	return docs.EnsureOpen(path)
}

func (w *Workspace) startIdleMonitor() {
	w.stopIdle = make(chan struct{})
	stop := w.stopIdle
	server := w.server
	interval := w.wsConfig.IdleTimeout / 2
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if time.Since(server.LastUsed()) >= w.wsConfig.IdleTimeout {
					w.logger.Info("lsp: shutting down idle server", "root", w.root, "language", w.config.Language)
					_ = w.Shutdown(context.Background())
					return
				}
			}
		}
	}()
}

// Shutdown closes the workspace's open documents, then tears down its
// server (if any). Idempotent.
func (w *Workspace) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	server := w.server
	docs := w.docs
	stopIdle := w.stopIdle
	w.server = nil
	w.docs = nil
	w.stopIdle = nil
	w.mu.Unlock()

	if stopIdle != nil {
		close(stopIdle)
	}
	if server == nil {
		return nil
	}
	if docs != nil {
		if failed, err := docs.CloseAll(); err != nil {
			w.logger.Debug("lsp: failed to close documents before shutdown", "root", w.root, "language", w.config.Language, "paths", failed, "error", err)
		}
	}
	return server.Shutdown(ctx)
}
