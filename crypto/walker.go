/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import "github.com/lc-may/nuttx-ieee80211/iob"

// pairWalker yields equal-length (src, dst) octet runs over the body
// of the input chain and the output chain being built. Output
// segments are allocated on demand and sized min(capacity,
// remaining), so every run is either fully inside one segment pair or
// split only at a segment boundary. Allocator exhaustion stops the
// walk with nomem set; the caller releases both chains.
type pairWalker struct {
	src  *iob.Buffer
	dst  *iob.Buffer
	soff int
	doff int
	left int
	pool *iob.Pool

	nomem bool
}

// next returns the next (src, dst) run, or nils when the body is
// exhausted or allocation failed.
func (w *pairWalker) next() (s, d []byte) {
	if w.left == 0 || w.nomem {
		return nil, nil
	}
	for w.soff == w.src.Len {
		w.src = w.src.Next
		w.soff = 0
	}
	if w.doff == w.dst.Len {
		seg := w.pool.Alloc()
		if seg == nil {
			w.nomem = true
			return nil, nil
		}
		seg.Len = w.left
		if seg.Len > seg.Cap() {
			seg.Len = seg.Cap()
		}
		w.dst.Next = seg
		w.dst = seg
		w.doff = 0
	}
	n := w.src.Len - w.soff
	if m := w.dst.Len - w.doff; m < n {
		n = m
	}
	if w.left < n {
		n = w.left
	}
	s = w.src.Data[w.soff : w.soff+n]
	d = w.dst.Data[w.doff : w.doff+n]
	w.soff += n
	w.doff += n
	w.left -= n
	return s, d
}

// tailRoom reserves n contiguous octets at the end of the output
// chain for a trailer, allocating a fresh segment when the current
// tail cannot hold them. It returns nil and sets nomem on allocator
// exhaustion.
func (w *pairWalker) tailRoom(n int) []byte {
	if w.dst.Free() < n {
		seg := w.pool.Alloc()
		if seg == nil {
			w.nomem = true
			return nil
		}
		w.dst.Next = seg
		w.dst = seg
	}
	p := w.dst.Data[w.dst.Len : w.dst.Len+n]
	w.dst.Len += n
	return p
}
