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
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/andreasjansson/leta/internal/lsp"
)

// validate is the struct-tag validator shared by every method's params
// decoding step. A single instance is safe for concurrent use and caches
// its struct reflection, so it is built once at package init.
var validate = validator.New(validator.WithRequiredStructEnabled())

// methodFunc decodes raw params, invokes the bound handler, and returns a
// JSON-marshalable result or an error classified via lsp.ClassifyError.
type methodFunc func(ctx context.Context, h *Handlers, raw json.RawMessage) (any, error)

// methodTable is the static method name -> handler binding every socket
// connection dispatches against. Grounded on original_source/leta's
// daemon_cli.py command table, which maps the same method name strings to
// handler functions.
var methodTable = map[string]methodFunc{
	"add-workspace":     decodeAndCall(func(h *Handlers) func(context.Context, AddWorkspaceParams) (*AddWorkspaceResult, error) { return h.addWorkspace }),
	"remove-workspace":  decodeAndCall(func(h *Handlers) func(context.Context, RemoveWorkspaceParams) (*RemoveWorkspaceResult, error) { return h.removeWorkspace }),
	"status":            decodeAndCall(func(h *Handlers) func(context.Context, struct{}) (*StatusResult, error) { return h.status }),
	"references":        decodeAndCall(func(h *Handlers) func(context.Context, ReferencesParams) (*ReferencesResult, error) { return h.references }),
	"hover":              decodeAndCall(func(h *Handlers) func(context.Context, HoverParams) (*HoverResult, error) { return h.hover }),
	"rename":            decodeAndCall(func(h *Handlers) func(context.Context, RenameParams) (*RenameResult, error) { return h.rename }),
	"document-symbols":  decodeAndCall(func(h *Handlers) func(context.Context, DocumentSymbolsParams) (*DocumentSymbolsResult, error) { return h.documentSymbols }),
	"show":              decodeAndCall(func(h *Handlers) func(context.Context, ShowParams) (*ShowResult, error) { return h.show }),
	"code-actions":      decodeAndCall(func(h *Handlers) func(context.Context, CodeActionsParams) (*CodeActionsResult, error) { return h.codeActions }),
	"ping":              decodeAndCall(func(h *Handlers) func(context.Context, struct{}) (*PingResult, error) { return h.ping }),
	"shutdown":          decodeAndCall(func(h *Handlers) func(context.Context, struct{}) (*ShutdownResult, error) { return h.shutdown }),
}

// decodeAndCall adapts a (*Handlers) -> handler(ctx, P) (R, error) binding
// into a methodFunc: unmarshal raw into a P, run struct-tag validation
// (skipped for the empty struct{} params used by status/shutdown), invoke
// the handler, and return its result as an any for the caller to encode.
//
// A free function rather than a method on Handlers, for the same reason
// withOpenDocument in internal/lsp is a free function: Go does not allow a
// method to introduce its own type parameters.
func decodeAndCall[P any, R any](bind func(*Handlers) func(context.Context, P) (R, error)) methodFunc {
	return func(ctx context.Context, h *Handlers, raw json.RawMessage) (any, error) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("%w: decode params: %v", lsp.ErrProtocol, err)
			}
		}
		if err := validate.Struct(params); err != nil {
			if _, ok := err.(*validator.InvalidValidationError); !ok {
				return nil, fmt.Errorf("%w: %v", lsp.ErrProtocol, err)
			}
		}
		return bind(h)(ctx, params)
	}
}

// dispatch looks up req.Method in methodTable, runs it against h, and
// returns a Response ready to be framed back to the client. Unknown
// methods and handler errors both produce a Response with Error set
// rather than a Go error, since the socket loop keeps running either way.
func dispatch(ctx context.Context, h *Handlers, req Request) Response {
	fn, ok := methodTable[req.Method]
	if !ok {
		return Response{ID: req.ID, Error: &ErrorDetail{
			Kind:    string(lsp.KindProtocol),
			Message: fmt.Sprintf("unknown method %q", req.Method),
		}}
	}

	var raw json.RawMessage
	if req.Params != nil {
		b, err := json.Marshal(req.Params)
		if err != nil {
			return Response{ID: req.ID, Error: &ErrorDetail{Kind: string(lsp.KindProtocol), Message: err.Error()}}
		}
		raw = b
	}

	result, err := fn(ctx, h, raw)
	if err != nil {
		return Response{ID: req.ID, Error: &ErrorDetail{Kind: string(lsp.ClassifyError(err)), Message: err.Error()}}
	}
	return Response{ID: req.ID, Result: result}
}
