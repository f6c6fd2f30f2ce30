/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"crypto/sha1"

	"golang.org/x/crypto/pbkdf2"
)

// DerivePSK maps a WPA passphrase and SSID to the 256-bit pre-shared
// key (IEEE 802.11i Annex H.4): PBKDF2-HMAC-SHA1 with 4096
// iterations. The first 16 octets seed a CCMP temporal key; all 32
// seed a TKIP key including its Michael sub-keys.
func DerivePSK(passphrase, ssid string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(ssid), 4096, 32, sha1.New)
}
