/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lc-may/nuttx-ieee80211/dot11"
)

// testClock pins the interface clock so window arithmetic is exact.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func withClock(ic *Interface) *testClock {
	c := &testClock{now: time.Unix(1000, 0)}
	ic.timeNow = func() time.Time { return c.now }
	return c
}

func TestCountermWindow(t *testing.T) {
	t.Run("two failures within 60s arm", func(t *testing.T) {
		ic, _, _ := newTestIC(ModeHostAP)
		clk := withClock(ic)

		ic.MichaelMICFailure(10)
		assert.False(t, ic.CountermeasuresActive())

		clk.advance(30 * time.Second)
		ic.MichaelMICFailure(11)
		assert.True(t, ic.CountermeasuresActive())
	})

	t.Run("a late failure rearms instead", func(t *testing.T) {
		ic, _, _ := newTestIC(ModeHostAP)
		clk := withClock(ic)

		ic.MichaelMICFailure(10)
		clk.advance(90 * time.Second)
		ic.MichaelMICFailure(11)
		assert.False(t, ic.CountermeasuresActive(),
			"the first failure aged out of the window")

		clk.advance(5 * time.Second)
		ic.MichaelMICFailure(12)
		assert.True(t, ic.CountermeasuresActive(),
			"the rearmed failure pairs with the next one")
	})

	t.Run("exactly 60s apart rearms", func(t *testing.T) {
		ic, _, _ := newTestIC(ModeHostAP)
		clk := withClock(ic)

		ic.MichaelMICFailure(10)
		clk.advance(CountermWindow)
		ic.MichaelMICFailure(11)
		assert.False(t, ic.CountermeasuresActive())
	})
}

func TestCountermAPDeauth(t *testing.T) {
	ic, mlme, _ := newTestIC(ModeHostAP)
	clk := withClock(ic)
	ic.bss.RSNGroupCipher = CipherCCMP

	tkipSTA := &Node{Associated: true, RSNCipher: CipherTKIP}
	ccmpSTA := &Node{Associated: true, RSNCipher: CipherCCMP}
	idleSTA := &Node{Associated: false, RSNCipher: CipherTKIP}
	mlme.nodes = []*Node{tkipSTA, ccmpSTA, idleSTA}

	ic.MichaelMICFailure(1)
	clk.advance(time.Second)
	ic.MichaelMICFailure(2)

	require.Len(t, mlme.mgmt, 1, "only the associated TKIP station is kicked")
	assert.Same(t, tkipSTA, mlme.mgmt[0].ni)
	assert.Equal(t, uint8(dot11.FC0SubtypeDeauth), mlme.mgmt[0].subtype)
	assert.Equal(t, uint16(dot11.ReasonMICFailure), mlme.mgmt[0].reason)
	assert.Equal(t, []*Node{tkipSTA}, mlme.left)
	assert.True(t, ic.CountermeasuresActive())
}

// With a TKIP group cipher every associated station goes, whatever
// its pairwise cipher.
func TestCountermAPDeauthGroupTKIP(t *testing.T) {
	ic, mlme, _ := newTestIC(ModeHostAP)
	clk := withClock(ic)
	ic.bss.RSNGroupCipher = CipherTKIP

	a := &Node{Associated: true, RSNCipher: CipherCCMP}
	b := &Node{Associated: true, RSNCipher: CipherTKIP}
	mlme.nodes = []*Node{a, b}

	ic.MichaelMICFailure(1)
	clk.advance(time.Second)
	ic.MichaelMICFailure(2)

	assert.Len(t, mlme.mgmt, 2)
	assert.Equal(t, []*Node{a, b}, mlme.left)
}

func TestCountermSTA(t *testing.T) {
	ic, mlme, _ := newTestIC(ModeSTA)
	clk := withClock(ic)

	ic.MichaelMICFailure(0x1001)
	clk.advance(10 * time.Second)
	ic.MichaelMICFailure(0x1002)

	// two EAPOL-Key requests back-to-back: first the recorded TSC,
	// then the current one
	require.Len(t, mlme.eapol, 2)
	assert.Equal(t, uint64(0x1001), mlme.eapol[0].tsc)
	assert.Equal(t, uint64(0x1002), mlme.eapol[1].tsc)
	wantInfo := uint16(KeyInfoMIC | KeyInfoSecure | KeyInfoError | KeyInfoRequest)
	assert.Equal(t, wantInfo, mlme.eapol[0].info)
	assert.Same(t, ic.bss, mlme.eapol[0].ni)

	// then a deauthentication and a transition back to scanning
	require.Len(t, mlme.mgmt, 1)
	assert.Equal(t, uint8(dot11.FC0SubtypeDeauth), mlme.mgmt[0].subtype)
	assert.Equal(t, uint16(dot11.ReasonMICFailure), mlme.mgmt[0].reason)
	assert.Equal(t, []State{StateScan}, mlme.states)
	assert.True(t, ic.CountermeasuresActive())
}

// While countermeasures are active, further failures are suppressed
// entirely.
func TestCountermSuppressed(t *testing.T) {
	ic, mlme, _ := newTestIC(ModeSTA)
	clk := withClock(ic)

	ic.MichaelMICFailure(1)
	clk.advance(time.Second)
	ic.MichaelMICFailure(2)
	require.Len(t, mlme.eapol, 2)

	clk.advance(time.Second)
	ic.MichaelMICFailure(3)
	assert.Len(t, mlme.eapol, 2, "no further escalation")
	assert.Len(t, mlme.mgmt, 1)

	// higher-level policy clears the flag after the lockout
	ic.ClearCountermeasures()
	assert.False(t, ic.CountermeasuresActive())
}
