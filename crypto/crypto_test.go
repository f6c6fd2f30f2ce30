/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lc-may/nuttx-ieee80211/dot11"
	"github.com/lc-may/nuttx-ieee80211/iob"
)

var (
	staAddr = []byte{0x02, 0x11, 0x22, 0x33, 0x44, 0x01}
	apAddr  = []byte{0x02, 0x11, 0x22, 0x33, 0x44, 0x02}
	dstAddr = []byte{0x02, 0x11, 0x22, 0x33, 0x44, 0x03}
	wdsAddr = []byte{0x02, 0x11, 0x22, 0x33, 0x44, 0x04}
)

type mgmtCall struct {
	ni      *Node
	subtype uint8
	reason  uint16
}

type eapolCall struct {
	ni   *Node
	info uint16
	tsc  uint64
}

// fakeMLME records the management-plane calls the countermeasures
// path makes.
type fakeMLME struct {
	nodes  []*Node
	mgmt   []mgmtCall
	eapol  []eapolCall
	left   []*Node
	states []State
}

func (m *fakeMLME) SendMgmt(ni *Node, subtype uint8, reason uint16) error {
	m.mgmt = append(m.mgmt, mgmtCall{ni, subtype, reason})
	return nil
}

func (m *fakeMLME) SendEAPOLKeyRequest(ni *Node, info uint16, tsc uint64) error {
	m.eapol = append(m.eapol, eapolCall{ni, info, tsc})
	return nil
}

func (m *fakeMLME) NodeLeave(ni *Node) {
	m.left = append(m.left, ni)
}

func (m *fakeMLME) IterateNodes(f func(ni *Node)) {
	for _, ni := range m.nodes {
		f(ni)
	}
}

func (m *fakeMLME) NewState(s State) {
	m.states = append(m.states, s)
}

func newTestIC(mode OpMode) (*Interface, *fakeMLME, *iob.Pool) {
	pool := iob.NewPool(iob.DefaultSize, 0)
	mlme := &fakeMLME{}
	ic := NewInterface("wlan0", mode, pool, mlme, NewLogger(LogLevelSilent, ""))
	ic.SetBSS(&Node{})
	copy(ic.bss.Addr[:], apAddr)
	return ic, mlme, pool
}

// dataFrame builds a contiguous frame with the protected bit set, the
// way the MAC layer hands frames to the cipher core.
func dataFrame(fc0, fc1 byte, qos uint16, payload []byte) []byte {
	f := make([]byte, 24, 40+len(payload))
	f[0] = fc0
	f[1] = fc1 | dot11.FC1Protected
	copy(f[4:], dstAddr)
	copy(f[10:], staAddr)
	copy(f[16:], apAddr)
	f[22] = 0xd2 // fragment 2, sequence 0x34d
	f[23] = 0x34
	if dot11.HasAddr4(f) {
		f = append(f, wdsAddr...)
	}
	if dot11.HasQoS(f) {
		f = append(f, byte(qos), byte(qos>>8))
	}
	return append(f, payload...)
}

// chainOf splits data into chain segments starting at the given
// offsets. No split offset may fall inside the 802.11 header.
func chainOf(t *testing.T, pool *iob.Pool, data []byte, splits ...int) *iob.Buffer {
	t.Helper()
	bounds := append([]int{0}, splits...)
	bounds = append(bounds, len(data))
	var head, cur *iob.Buffer
	for i := 0; i+1 < len(bounds); i++ {
		seg := pool.Alloc()
		require.NotNil(t, seg)
		seg.Len = copy(seg.Data, data[bounds[i]:bounds[i+1]])
		if head == nil {
			head = seg
		} else {
			cur.Next = seg
		}
		cur = seg
	}
	head.PktLen = len(data)
	return head
}

func chainBytes(t *testing.T, b *iob.Buffer) []byte {
	t.Helper()
	out := make([]byte, b.PktLen)
	require.Equal(t, b.PktLen, iob.CopyOut(out, b, 0))
	return out
}

// cleartext returns what a successful decrypt must reproduce: the
// input frame with the protected bit cleared.
func cleartext(frame []byte) []byte {
	out := append([]byte(nil), frame...)
	out[1] &^= dot11.FC1Protected
	return out
}

func testPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	return p
}
