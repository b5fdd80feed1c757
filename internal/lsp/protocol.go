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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

const JSONRPCVersion = "2.0"

// RPCRequest is an outbound or inbound JSON-RPC request envelope.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  any             `json:"params,omitempty"`
}

// rawMessage is used to sniff an inbound frame's shape before deciding
// whether it is a response, a notification, or a server-initiated request.
type rawMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCResponse is an inbound response envelope.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object shape.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RPCNotification is a JSON-RPC notification envelope (no id).
type RPCNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NotificationHandler handles one inbound notification's raw params.
type NotificationHandler func(params json.RawMessage)

// RequestHandler handles one inbound server-to-client request, returning
// either a result to marshal or an error to report back.
type RequestHandler func(params json.RawMessage) (any, error)

// Channel multiplexes JSON-RPC requests/responses/notifications over a
// single framed connection (an LSP child's stdio, or in principle any
// other framed transport). One goroutine (the caller's, running ReadLoop)
// owns reading; writes are serialized by writeMu so multiple callers can send
// concurrently. Grounded on the teacher's Protocol type, extended with
// inbound notification/request handler registration so the daemon can
// observe publishDiagnostics and answer workspace/configuration.
type Channel struct {
	reader *bufio.Reader
	writer io.Writer
	writeMu sync.Mutex

	nextID int64 // atomic

	pendingMu sync.Mutex
	pending   map[int64]chan RPCResponse

	handlersMu    sync.RWMutex
	notifications map[string]NotificationHandler
	requests      map[string]RequestHandler

	closed int32 // atomic
	logger *slog.Logger
}

// NewChannel builds a Channel reading framed messages from r and writing
// them to w.
func NewChannel(r io.Reader, w io.Writer, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		reader:        bufio.NewReader(r),
		writer:        w,
		pending:       make(map[int64]chan RPCResponse),
		notifications: make(map[string]NotificationHandler),
		requests:      make(map[string]RequestHandler),
		logger:        logger,
	}
}

// OnNotification registers handler for inbound notifications with the
// given method. Only one handler per method is kept; re-registering
// replaces it.
func (c *Channel) OnNotification(method string, handler NotificationHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.notifications[method] = handler
}

// OnRequest registers handler for inbound server-to-client requests with
// the given method.
func (c *Channel) OnRequest(method string, handler RequestHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.requests[method] = handler
}

// Request sends method/params as a request and blocks for the matching
// response, or until ctx is done. A remote error is returned as
// *RemoteError.
func (c *Channel) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, ErrChannelClosed
	}

	id := atomic.AddInt64(&c.nextID, 1)
	respCh := make(chan RPCResponse, 1)

	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	req := RPCRequest{JSONRPC: JSONRPCVersion, ID: id, Method: method, Params: params}
	if err := c.writeMessage(req); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrTimeout, method, ctx.Err())
	case resp := <-respCh:
		if resp.Error != nil {
			if resp.Error.Code == -32099 && atomic.LoadInt32(&c.closed) != 0 {
				return nil, fmt.Errorf("%w: %s", ErrChannelClosed, method)
			}
			return nil, &RemoteError{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
		}
		return resp.Result, nil
	}
}

// Notify sends method/params as a notification; no response is expected.
func (c *Channel) Notify(method string, params any) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrChannelClosed
	}
	return c.writeMessage(RPCNotification{JSONRPC: JSONRPCVersion, Method: method, Params: params})
}

func (c *Channel) writeMessage(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteFrame(c.writer, v)
}

// ReadLoop reads frames until ctx is cancelled or the underlying reader
// returns an error (typically io.EOF when the peer exits). It dispatches
// responses to waiting Request callers and inbound notifications/requests
// to registered handlers. Call it from its own goroutine.
func (c *Channel) ReadLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		body, err := ReadFrame(c.reader)
		if err != nil {
			c.Close()
			if err == io.EOF {
				return fmt.Errorf("%w: %v", ErrChannelClosed, err)
			}
			return fmt.Errorf("%w: %v", ErrFraming, err)
		}
		c.handleMessage(body)
	}
}

func (c *Channel) handleMessage(body []byte) {
	var raw rawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("lsp: dropping unparseable message", "error", err)
		return
	}

	switch {
	case raw.Method != "" && raw.ID != nil:
		// Server-initiated request.
		c.handlersMu.RLock()
		handler := c.requests[raw.Method]
		c.handlersMu.RUnlock()
		if handler == nil {
			c.logger.Debug("lsp: no handler for inbound request", "method", raw.Method)
			return
		}
		result, err := handler(raw.Params)
		resp := RPCResponse{JSONRPC: JSONRPCVersion, ID: *raw.ID}
		if err != nil {
			resp.Error = &RPCError{Code: -32603, Message: err.Error()}
		} else {
			resp.Result, _ = json.Marshal(result)
		}
		if werr := c.writeMessage(resp); werr != nil {
			c.logger.Warn("lsp: failed to answer inbound request", "method", raw.Method, "error", werr)
		}

	case raw.Method != "":
		// Notification.
		c.handlersMu.RLock()
		handler := c.notifications[raw.Method]
		c.handlersMu.RUnlock()
		if handler != nil {
			handler(raw.Params)
		}

	case raw.ID != nil:
		// Response to one of our outstanding requests.
		resp := RPCResponse{JSONRPC: raw.JSONRPC, ID: *raw.ID, Result: raw.Result, Error: raw.Error}
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if ok {
			select {
			case ch <- resp:
			default:
			}
		}

	default:
		c.logger.Debug("lsp: message with neither method nor id")
	}
}

// Close marks the channel closed and fails every outstanding request with
// ErrChannelClosed. Safe to call more than once.
func (c *Channel) Close() {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return
	}
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		ch <- RPCResponse{ID: id, Error: &RPCError{Code: -32099, Message: ErrChannelClosed.Error()}}
		delete(c.pending, id)
	}
}
