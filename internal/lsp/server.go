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
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ServerState is the language server process's lifecycle state. Grounded
// on the teacher's ServerState enum, split into six states instead of
// five so a caller blocked during startup can distinguish "child spawned,
// waiting on exec" from "child spawned, waiting on the initialize
// handshake."
type ServerState int

const (
	ServerStateUnstarted ServerState = iota
	ServerStateStarting
	ServerStateInitialising
	ServerStateReady
	ServerStateShuttingDown
	ServerStateStopped
)

func (s ServerState) String() string {
	switch s {
	case ServerStateUnstarted:
		return "unstarted"
	case ServerStateStarting:
		return "starting"
	case ServerStateInitialising:
		return "initialising"
	case ServerStateReady:
		return "ready"
	case ServerStateShuttingDown:
		return "shutting-down"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ServerConfig bounds how long the initialize handshake may take
// (StartupTimeout), how long a forwarded request without its own deadline
// may wait (RequestTimeout), and how long Shutdown waits after SIGTERM
// before escalating to SIGKILL (ShutdownGrace).
type ServerConfig struct {
	StartupTimeout   time.Duration
	RequestTimeout   time.Duration
	ShutdownGrace    time.Duration
}

// DefaultServerConfig matches DESIGN.md's Open Question resolution: 60s
// startup, 30s per-request, 5s grace before SIGKILL.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		StartupTimeout: 60 * time.Second,
		RequestTimeout: 30 * time.Second,
		ShutdownGrace:  5 * time.Second,
	}
}

// Server manages one spawned language server process: its stdio-framed
// Channel, lifecycle state machine, and bounded stderr capture. Grounded
// on the teacher's Server type (trace/lsp/server.go), with stderr capture
// (absent from the teacher) and the split Starting/Initialising states
// added.
type Server struct {
	config   LanguageConfig
	rootPath string
	srvCfg   ServerConfig
	logger   *slog.Logger

	cmd    *exec.Cmd
	stderr *ringBuffer
	ch     *Channel

	capabilities ServerCapabilities

	stateMu sync.RWMutex
	state   ServerState

	lastUsedMu sync.Mutex
	lastUsed   time.Time

	ctx    context.Context
	cancel context.CancelFunc

	readDone chan struct{}
}

// NewServer builds a Server bound to one (config, rootPath) pair. Start
// must be called before any request can be served.
func NewServer(config LanguageConfig, rootPath string, srvCfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   config,
		rootPath: rootPath,
		srvCfg:   srvCfg,
		logger:   logger,
		state:    ServerStateUnstarted,
		lastUsed: time.Now(),
		stderr:   newRingBuffer(stderrRingBufferSize),
	}
}

func (s *Server) setState(state ServerState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// State returns the server's current lifecycle state.
func (s *Server) State() ServerState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Language returns the language identifier this server was configured for.
func (s *Server) Language() string { return s.config.Language }

// RootPath returns the workspace root this server was spawned against.
func (s *Server) RootPath() string { return s.rootPath }

// Capabilities returns the server's advertised ServerCapabilities, valid
// only once State is Ready.
func (s *Server) Capabilities() ServerCapabilities { return s.capabilities }

func (s *Server) touchLastUsed() {
	s.lastUsedMu.Lock()
	s.lastUsed = time.Now()
	s.lastUsedMu.Unlock()
}

// LastUsed returns the time of the most recent Request or Notify call.
func (s *Server) LastUsed() time.Time {
	s.lastUsedMu.Lock()
	defer s.lastUsedMu.Unlock()
	return s.lastUsed
}

// StderrTail returns the most recently captured stderr output, bounded by
// stderrRingBufferSize, for crash diagnostics.
func (s *Server) StderrTail() string { return s.stderr.String() }

// Start spawns the child process and drives it through Starting,
// Initialising, to Ready. It fails fast if the command isn't on PATH, and
// is not safe to call twice.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("lsp: Start requires a non-nil context")
	}
	if s.State() != ServerStateUnstarted {
		return ErrServerAlreadyStarted
	}

	if _, err := exec.LookPath(s.config.Command); err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("%w: %s: %v", ErrServerNotInstalled, s.config.Command, err)
	}

	s.setState(ServerStateStarting)

	startCtx, startCancel := context.WithTimeout(ctx, s.srvCfg.StartupTimeout)
	defer startCancel()

	s.ctx, s.cancel = context.WithCancel(context.Background())

	cmd := exec.CommandContext(s.ctx, s.config.Command, s.config.Args...)
	cmd.Dir = s.rootPath
	cmd.Stderr = s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("%w: stdin pipe: %v", ErrStartupFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("%w: stdout pipe: %v", ErrStartupFailed, err)
	}

	if err := cmd.Start(); err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("%w: %v", ErrStartupFailed, err)
	}
	s.cmd = cmd

	s.ch = NewChannel(stdout, stdin, s.logger)
	s.readDone = make(chan struct{})
	go func() {
		defer close(s.readDone)
		if err := s.ch.ReadLoop(s.ctx); err != nil {
			s.logger.Debug("lsp: channel read loop ended", "language", s.config.Language, "error", err)
		}
		// The child closed its stdout without a Shutdown: mark it stopped
		// and reap it, so Workspace.Ensure spawns a replacement.
		s.stateMu.Lock()
		crashed := s.state == ServerStateReady
		if crashed {
			s.state = ServerStateStopped
		}
		s.stateMu.Unlock()
		if crashed {
			_ = cmd.Wait()
		}
	}()

	s.setState(ServerStateInitialising)
	if err := s.initialize(startCtx); err != nil {
		s.cleanup()
		s.setState(ServerStateStopped)
		return fmt.Errorf("%w: %v (stderr: %s)", ErrStartupFailed, err, s.stderr.String())
	}

	s.setState(ServerStateReady)
	return nil
}

func (s *Server) initialize(ctx context.Context) error {
	pid := s.cmd.Process.Pid
	params := InitializeParams{
		ProcessID:    &pid,
		RootURI:      PathToURI(s.rootPath),
		RootPath:     s.rootPath,
		Capabilities: clientCapabilities(),
		WorkspaceFolders: []WorkspaceFolder{
			{URI: PathToURI(s.rootPath), Name: s.rootPath},
		},
		InitializationOptions: s.config.InitializationOptions,
	}

	raw, err := s.ch.Request(ctx, "initialize", params)
	if err != nil {
		return err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("%w: initialize result: %v", ErrProtocol, err)
	}
	s.capabilities = result.Capabilities

	return s.ch.Notify("initialized", struct{}{})
}

// Request sends method/params to the child and waits for its response.
// Returns ErrServerNotRunning if the server isn't Ready.
func (s *Server) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if s.State() != ServerStateReady {
		return nil, ErrServerNotRunning
	}
	s.touchLastUsed()

	reqCtx := ctx
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		reqCtx, cancel = context.WithTimeout(ctx, s.srvCfg.RequestTimeout)
		defer cancel()
	}
	return s.ch.Request(reqCtx, method, params)
}

// Notify sends method/params to the child without waiting for a response.
func (s *Server) Notify(method string, params any) error {
	if s.State() != ServerStateReady {
		return ErrServerNotRunning
	}
	s.touchLastUsed()
	return s.ch.Notify(method, params)
}

// Shutdown requests a graceful LSP shutdown/exit, then escalates to
// SIGTERM and finally SIGKILL if the process doesn't exit within
// ShutdownGrace. Idempotent: calling it more than once, or before Start,
// is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	state := s.State()
	if state == ServerStateUnstarted || state == ServerStateStopped || state == ServerStateShuttingDown {
		return nil
	}
	s.setState(ServerStateShuttingDown)
	defer s.setState(ServerStateStopped)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.ch.Request(shutdownCtx, "shutdown", nil); err != nil {
		s.logger.Debug("lsp: shutdown request failed", "language", s.config.Language, "error", err)
	}
	_ = s.ch.Notify("exit", nil)
	s.ch.Close()

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)

		waitDone := make(chan error, 1)
		go func() { waitDone <- s.cmd.Wait() }()

		select {
		case <-waitDone:
		case <-time.After(s.srvCfg.ShutdownGrace):
			_ = s.cmd.Process.Kill()
			<-waitDone
		}
	}

	s.cleanup()
	return nil
}

func (s *Server) cleanup() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.readDone != nil {
		select {
		case <-s.readDone:
		case <-time.After(time.Second):
		}
	}
}
