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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/andreasjansson/leta/internal/lsp"
)

// Server listens on a Unix domain socket and dispatches each framed
// Request to Handlers, one goroutine per connection. There is no direct
// teacher equivalent — services/trace exposes a gin HTTP server, not a
// Unix socket — so the accept loop below follows the general net.Listener
// idiom, while the per-request framing reuses internal/lsp's
// Content-Length codec and the logging/tracing conventions follow the
// teacher's slog + otel usage throughout services/trace/lsp.
type Server struct {
	socketPath string
	handlers   *Handlers
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer builds a Server that will listen on socketPath once Serve is
// called.
func NewServer(socketPath string, handlers *Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{socketPath: socketPath, handlers: handlers, logger: logger}
}

// Serve creates the runtime directory (mode 0700), binds the Unix socket,
// and accepts connections until ctx is cancelled or Close is called. It
// removes any stale socket file left over from a prior unclean exit before
// binding, and unlinks the socket on the way out.
func (s *Server) Serve(ctx context.Context) error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("socketserver: create runtime dir %s: %w", dir, err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("socketserver: remove stale socket %s: %w", s.socketPath, err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketserver: listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("socketserver: chmod socket: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("socket server listening", "path", s.socketPath)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// Close unblocks Serve's accept loop and unlinks the socket file. Safe to
// call more than once and safe to call concurrently with Serve.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	err := ln.Close()
	if rmErr := os.Remove(s.socketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		s.logger.Warn("remove socket on close", "err", rmErr)
	}
	return err
}

// handleConn reads framed Requests off conn until it errors or closes,
// dispatching each one and writing back a framed Response. A panic in a
// handler is recovered and reported as a protocol-error response rather
// than taking down the daemon or leaking the connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	logger := s.logger.With("conn", connID)
	logger.Debug("connection opened")

	defer s.wg.Done()
	defer conn.Close()
	defer logger.Debug("connection closed")

	reader := bufio.NewReader(conn)
	for {
		body, err := lsp.ReadFrame(reader)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Debug("read frame ended", "err", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(conn, logger, Response{Error: &ErrorDetail{
				Kind:    string(lsp.KindProtocol),
				Message: fmt.Sprintf("malformed request: %v", err),
			}})
			continue
		}

		resp := s.dispatchSafely(ctx, logger, req)
		if err := lsp.WriteFrame(conn, resp); err != nil {
			logger.Warn("write response failed", "err", err)
			return
		}
	}
}

func (s *Server) dispatchSafely(ctx context.Context, logger *slog.Logger, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "method", req.Method, "panic", r)
			resp = Response{ID: req.ID, Error: &ErrorDetail{
				Kind:    string(lsp.KindProtocol),
				Message: fmt.Sprintf("internal error handling %q", req.Method),
			}}
		}
	}()
	return dispatch(ctx, s.handlers, req)
}

func (s *Server) writeError(conn net.Conn, logger *slog.Logger, resp Response) {
	if err := lsp.WriteFrame(conn, resp); err != nil {
		logger.Warn("write error response failed", "err", err)
	}
}
