/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The chained Michael test vectors of IEEE 802.11-2007 Annex J: each
// MIC keys the next computation.
func TestMichaelVectors(t *testing.T) {
	tests := []struct {
		key  []byte
		msg  string
		want [8]byte
	}{
		{
			[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			"",
			[8]byte{0x82, 0x92, 0x5c, 0x1c, 0xa1, 0xd1, 0x30, 0xb8},
		},
		{
			[]byte{0x82, 0x92, 0x5c, 0x1c, 0xa1, 0xd1, 0x30, 0xb8},
			"M",
			[8]byte{0x43, 0x47, 0x21, 0xca, 0x40, 0x63, 0x9b, 0x3f},
		},
		{
			[]byte{0x43, 0x47, 0x21, 0xca, 0x40, 0x63, 0x9b, 0x3f},
			"Mi",
			[8]byte{0xe8, 0xf9, 0xbe, 0xca, 0xe9, 0x7e, 0x5d, 0x29},
		},
		{
			[]byte{0xe8, 0xf9, 0xbe, 0xca, 0xe9, 0x7e, 0x5d, 0x29},
			"Mic",
			[8]byte{0x90, 0x03, 0x8f, 0xc6, 0xcf, 0x13, 0xc1, 0xdb},
		},
		{
			[]byte{0x90, 0x03, 0x8f, 0xc6, 0xcf, 0x13, 0xc1, 0xdb},
			"Mich",
			[8]byte{0xd5, 0x5e, 0x10, 0x05, 0x10, 0x12, 0x89, 0x86},
		},
		{
			[]byte{0xd5, 0x5e, 0x10, 0x05, 0x10, 0x12, 0x89, 0x86},
			"Michael",
			[8]byte{0x0a, 0x94, 0x2b, 0x12, 0x4e, 0xca, 0xa5, 0x46},
		},
	}
	for _, tc := range tests {
		var mi michael
		mi.init(tc.key)
		mi.update([]byte(tc.msg))
		assert.Equal(t, tc.want, mi.sum(), "michael(%q)", tc.msg)
	}
}

// Streaming in arbitrary chunks must match one-shot computation.
func TestMichaelStreaming(t *testing.T) {
	key := []byte{0xd5, 0x5e, 0x10, 0x05, 0x10, 0x12, 0x89, 0x86}
	msg := []byte("Michael message integrity code, streamed")

	var one michael
	one.init(key)
	one.update(msg)
	want := one.sum()

	for _, split := range []int{1, 2, 3, 5, 7, 39} {
		var mi michael
		mi.init(key)
		for off := 0; off < len(msg); off += split {
			end := off + split
			if end > len(msg) {
				end = len(msg)
			}
			mi.update(msg[off:end])
		}
		assert.Equal(t, want, mi.sum(), "split %d", split)
	}
}
