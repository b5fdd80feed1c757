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
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	in := map[string]any{"jsonrpc": "2.0", "id": float64(1), "method": "ping"}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	body, err := ReadFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["method"] != "ping" {
		t.Errorf("method = %v, want ping", out["method"])
	}
}

func TestReadFrameTwoMessagesBackToBack(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteFrame(&buf, map[string]string{"a": "1"})
	_ = WriteFrame(&buf, map[string]string{"a": "2"})

	r := bufio.NewReader(&buf)
	first, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("first ReadFrame: %v", err)
	}
	second, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("second ReadFrame: %v", err)
	}
	if strings.Contains(string(first), `"2"`) || !strings.Contains(string(second), `"2"`) {
		t.Errorf("frames not split correctly: first=%s second=%s", first, second)
	}
}

func TestReadFrameMissingContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("X-Custom: 1\r\n\r\n{}"))
	if _, err := ReadFrame(r); err == nil {
		t.Fatal("expected error for missing Content-Length")
	}
}

func TestReadFrameBadContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: not-a-number\r\n\r\n{}"))
	if _, err := ReadFrame(r); err == nil {
		t.Fatal("expected error for malformed Content-Length")
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 10\r\n\r\n{}"))
	if _, err := ReadFrame(r); err == nil {
		t.Fatal("expected error for truncated body")
	}
}
