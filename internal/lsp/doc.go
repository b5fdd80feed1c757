// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lsp manages a fleet of language server subprocesses behind a
// small set of request verbs.
//
// Components:
//
//   - Channel (protocol.go): a JSON-RPC multiplexer over one framed
//     connection, correlating requests with responses and dispatching
//     inbound notifications/requests to registered handlers.
//   - Server (server.go): one spawned language server process, its
//     lifecycle state machine, and bounded stderr capture.
//   - DocumentRegistry (document.go): the open-document set tracked
//     against one Server, with monotonic versioning.
//   - Workspace (workspace.go): binds one (root, language) pair to its
//     Server and DocumentRegistry.
//   - Session (session.go): the process-wide registry of Workspaces keyed
//     by (root, language), with per-key startup coordination.
//   - Operations (operations.go): the LSP request verbs (definition,
//     references, hover, rename, symbols) routed through a Session.
//
// All exported types are safe for concurrent use unless documented
// otherwise.
package lsp
