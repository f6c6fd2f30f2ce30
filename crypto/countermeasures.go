/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"time"

	"github.com/lc-may/nuttx-ieee80211/dot11"
)

// CountermWindow is the interval within which a second Michael MIC
// failure activates countermeasures (IEEE 802.11-2007 8.3.2.4).
const CountermWindow = 60 * time.Second

// MichaelMICFailure drives the TKIP countermeasures state machine.
// It is called by the software TKIP crypto code and can be called by
// drivers whose hardware crypto engines detect a Michael MIC failure.
func (ic *Interface) MichaelMICFailure(tsc uint64) {
	ic.tkip.Lock()
	defer ic.tkip.Unlock()

	if ic.tkip.flags&FlagCounterm != 0 {
		return // countermeasures already active
	}

	ic.log.Errorf("%s: Michael MIC failure", ic.name)

	// Do not send Michael MIC Failure reports on single failures as
	// recommended since these may be used as an oracle to verify CRC
	// guesses as described in Beck, M. and Tews, S. "Practical
	// attacks against WEP and WPA".

	now := ic.timeNow()
	if ic.tkip.micFail.IsZero() || now.Sub(ic.tkip.micFail) >= CountermWindow {
		ic.tkip.micFail = now
		ic.tkip.micFailTSC = tsc
		return
	}

	// Second failure within the window: activate countermeasures
	// (see 8.3.2.4).
	switch ic.mode {
	case ModeHostAP:
		// refuse new TKIP associations for the next 60 seconds
		ic.tkip.flags |= FlagCounterm

		// deauthenticate all currently associated STAs using TKIP
		ic.mlme.IterateNodes(func(ni *Node) {
			ic.tkipDeauth(ni)
		})

	case ModeSTA:
		ic.tkip.flags |= FlagCounterm

		// Notify the AP of MIC failures: send two EAPOL-Key request
		// frames back-to-back to trigger countermeasures at the AP
		// end.
		info := uint16(KeyInfoMIC | KeyInfoSecure | KeyInfoError | KeyInfoRequest)
		ic.mlme.SendEAPOLKeyRequest(ic.bss, info, ic.tkip.micFailTSC)
		ic.mlme.SendEAPOLKeyRequest(ic.bss, info, tsc)

		// deauthenticate from the AP..
		ic.mlme.SendMgmt(ic.bss, dot11.FC0SubtypeDeauth, dot11.ReasonMICFailure)
		// ..and find another one
		ic.mlme.NewState(StateScan)
	}

	ic.tkip.micFail = now
	ic.tkip.micFailTSC = tsc
}

// tkipDeauth deauthenticates an associated station using TKIP as its
// pairwise or group cipher, as part of TKIP countermeasures in
// host-AP mode.
func (ic *Interface) tkipDeauth(ni *Node) {
	if ni.Associated &&
		(ic.bss.RSNGroupCipher == CipherTKIP || ni.RSNCipher == CipherTKIP) {
		ic.mlme.SendMgmt(ni, dot11.FC0SubtypeDeauth, dot11.ReasonMICFailure)
		ic.mlme.NodeLeave(ni)
	}
}
