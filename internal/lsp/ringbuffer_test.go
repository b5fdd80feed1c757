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

import "testing"

func TestRingBufferKeepsMostRecent(t *testing.T) {
	rb := newRingBuffer(8)
	_, _ = rb.Write([]byte("abcd"))
	_, _ = rb.Write([]byte("efgh"))
	_, _ = rb.Write([]byte("ij"))

	if got := rb.String(); got != "cdefghij" {
		t.Errorf("String() = %q, want cdefghij", got)
	}
}

func TestRingBufferSingleWriteLargerThanCapacity(t *testing.T) {
	rb := newRingBuffer(4)
	_, _ = rb.Write([]byte("0123456789"))

	if got := rb.String(); got != "6789" {
		t.Errorf("String() = %q, want 6789", got)
	}
}

func TestRingBufferUnderCapacity(t *testing.T) {
	rb := newRingBuffer(1024)
	_, _ = rb.Write([]byte("hello"))
	if got := rb.String(); got != "hello" {
		t.Errorf("String() = %q, want hello", got)
	}
}
