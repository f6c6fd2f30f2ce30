/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

// Package iob provides the segmented packet buffers consumed by the
// 802.11 cipher engines. A packet is a singly linked chain of
// fixed-capacity segments; the head segment carries the total packet
// length. Segment boundaries are arbitrary and in particular do not
// align with cipher block boundaries.
package iob

import "sync"

// DefaultSize is the default segment capacity in octets. It is large
// enough to hold a maximal 802.11 header plus cipher overhead in the
// head segment, which the engines rely on.
const DefaultSize = 2048

type Buffer struct {
	// Next links the following segment of the chain, nil on the last.
	Next *Buffer

	// PktLen is the total length of the packet. Only the head
	// segment's value is meaningful.
	PktLen int

	// Len is the number of filled octets in Data.
	Len int

	// Data is the segment storage; Data[:Len] is filled. The slice
	// length is the segment capacity.
	Data []byte

	pool *Pool
}

// Cap returns the segment capacity.
func (b *Buffer) Cap() int { return len(b.Data) }

// Free returns the unfilled tail capacity of the segment.
func (b *Buffer) Free() int { return len(b.Data) - b.Len }

// A Pool hands out buffer segments and takes them back. Alloc returns
// nil once limit segments are outstanding, modelling allocator
// exhaustion; the cipher engines treat that as a synchronous error.
//
// The zero Pool is not usable; construct with NewPool.
type Pool struct {
	mu    sync.Mutex
	size  int
	limit int
	inuse int
	free  []*Buffer
}

// NewPool returns a pool of segments with the given capacity. A limit
// of zero means no bound on outstanding segments.
func NewPool(size, limit int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{size: size, limit: limit}
}

// InUse reports how many segments are currently outstanding.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inuse
}

// Alloc returns an empty segment (no next link, zero lengths), or nil
// if the pool is exhausted. A recycled segment's storage is not
// cleared and keeps its previous contents.
func (p *Pool) Alloc() *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.limit > 0 && p.inuse >= p.limit {
		return nil
	}
	p.inuse++
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		b.Next = nil
		b.PktLen = 0
		b.Len = 0
		return b
	}
	return &Buffer{Data: make([]byte, p.size), pool: p}
}

// Free returns a single segment to its pool.
func (p *Pool) Free(b *Buffer) {
	if b == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inuse--
	b.Next = nil
	p.free = append(p.free, b)
}

// FreeChain releases every segment of the chain headed by b.
func FreeChain(b *Buffer) {
	for b != nil {
		next := b.Next
		b.pool.Free(b)
		b = next
	}
}

// Clone copies the shape of src's head onto dst: dst takes src's packet
// length, and dst's fill is set to that packet length clamped to dst's
// capacity. Data is not copied.
func Clone(dst, src *Buffer) {
	dst.PktLen = src.PktLen
	dst.Len = src.PktLen
	if dst.Len > len(dst.Data) {
		dst.Len = len(dst.Data)
	}
}

// CopyOut copies n = len(dst) octets out of the chain, starting off
// octets into segment b, and reports how many were copied. It walks
// following segments as needed.
func CopyOut(dst []byte, b *Buffer, off int) int {
	n := 0
	for b != nil && n < len(dst) {
		if off >= b.Len {
			off -= b.Len
			b = b.Next
			continue
		}
		c := copy(dst[n:], b.Data[off:b.Len])
		n += c
		off += c
	}
	return n
}

// Fill appends p to the chain headed by b, extending the tail segment
// and allocating from pool as needed, and updates the head's PktLen.
// It reports false on allocator exhaustion, leaving the chain in a
// consistent (if shortened) state for the caller to release.
func Fill(b *Buffer, p []byte, pool *Pool) bool {
	tail := b
	for tail.Next != nil {
		tail = tail.Next
	}
	for len(p) > 0 {
		if tail.Free() == 0 {
			seg := pool.Alloc()
			if seg == nil {
				return false
			}
			tail.Next = seg
			tail = seg
		}
		c := copy(tail.Data[tail.Len:], p)
		tail.Len += c
		b.PktLen += c
		p = p[c:]
	}
	return true
}
