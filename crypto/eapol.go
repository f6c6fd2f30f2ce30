/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
)

// EAPOL protocol constants (IEEE 802.1X-2004, IEEE 802.11i).
const (
	EAPOLVersion = 2
	EAPOLTypeKey = 3

	// KeyDescV2 is the RSN key descriptor type.
	KeyDescV2 = 2
)

// EAPOL-Key information bits.
const (
	KeyInfoTypeHMACMD5RC4  = 1
	KeyInfoTypeHMACSHA1AES = 2

	KeyInfoPairwise  = 1 << 3
	KeyInfoInstall   = 1 << 6
	KeyInfoACK       = 1 << 7
	KeyInfoMIC       = 1 << 8
	KeyInfoSecure    = 1 << 9
	KeyInfoError     = 1 << 10
	KeyInfoRequest   = 1 << 11
	KeyInfoEncrypted = 1 << 12
)

// EAPOL-Key frame field offsets and sizes.
const (
	eapolKeyBodyLen  = 95
	eapolKeyFrameLen = 4 + eapolKeyBodyLen

	eapolKeyInfoOff   = 5
	eapolKeyReplayOff = 9
	eapolKeyRSCOff    = 65
	eapolKeyMICOff    = 81
	eapolKeyMICLen    = 16
)

// BuildEAPOLKeyRequest serializes the EAPOL-Key request frame the
// station-mode countermeasures path sends: key-information bits in
// info, the failing TSC in the key RSC field and no key data. kck,
// when non-nil and the MIC bit is requested, keys the HMAC-SHA1 Key
// MIC truncated to 16 octets; environments that have not derived a
// KCK pass nil and send the frame unauthenticated.
func BuildEAPOLKeyRequest(kck []byte, info uint16, replay uint64, tsc uint64) []byte {
	f := make([]byte, eapolKeyFrameLen)
	f[0] = EAPOLVersion
	f[1] = EAPOLTypeKey
	binary.BigEndian.PutUint16(f[2:4], eapolKeyBodyLen)
	f[4] = KeyDescV2
	binary.BigEndian.PutUint16(f[eapolKeyInfoOff:], info)
	// key length stays zero: a request carries no key material
	binary.BigEndian.PutUint64(f[eapolKeyReplayOff:], replay)
	// key RSC: the 48-bit TSC, little-endian, low 6 of 8 octets
	binary.LittleEndian.PutUint64(f[eapolKeyRSCOff:], tsc)

	if kck != nil && info&KeyInfoMIC != 0 {
		mac := hmac.New(sha1.New, kck)
		mac.Write(f)
		copy(f[eapolKeyMICOff:eapolKeyMICOff+eapolKeyMICLen], mac.Sum(nil))
	}
	return f
}

// KeyRequestTSC extracts the TSC carried in the key RSC field of an
// EAPOL-Key request frame built by BuildEAPOLKeyRequest.
func KeyRequestTSC(f []byte) uint64 {
	return binary.LittleEndian.Uint64(f[eapolKeyRSCOff:]) & 0xffffffffffff
}
