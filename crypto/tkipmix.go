/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

// TKIP per-frame key mixing (IEEE 802.11-2007 8.3.2.1.3): Phase1
// hashes the temporal key, the transmitter address and the high 32
// bits of the TSC into the 80-bit TTAK; Phase2 folds in the low 16
// bits and emits the 16-octet RC4 key whose first three octets form
// the cleartext WEP IV.

// tkipSbox is a 2-byte by 2-byte subset of the full AES S-box table.
var tkipSbox = [256]uint16{
	0xC6A5, 0xF884, 0xEE99, 0xF68D, 0xFF0D, 0xD6BD, 0xDEB1, 0x9154,
	0x6050, 0x0203, 0xCEA9, 0x567D, 0xE719, 0xB562, 0x4DE6, 0xEC9A,
	0x8F45, 0x1F9D, 0x8940, 0xFA87, 0xEF15, 0xB2EB, 0x8EC9, 0xFB0B,
	0x41EC, 0xB367, 0x5FFD, 0x45EA, 0x23BF, 0x53F7, 0xE496, 0x9B5B,
	0x75C2, 0xE11C, 0x3DAE, 0x4C6A, 0x6C5A, 0x7E41, 0xF502, 0x834F,
	0x685C, 0x51F4, 0xD134, 0xF908, 0xE293, 0xAB73, 0x6253, 0x2A3F,
	0x080C, 0x9552, 0x4665, 0x9D5E, 0x3028, 0x37A1, 0x0A0F, 0x2FB5,
	0x0E09, 0x2436, 0x1B9B, 0xDF3D, 0xCD26, 0x4E69, 0x7FCD, 0xEA9F,
	0x121B, 0x1D9E, 0x5874, 0x342E, 0x362D, 0xDCB2, 0xB4EE, 0x5BFB,
	0xA4F6, 0x764D, 0xB761, 0x7DCE, 0x527B, 0xDD3E, 0x5E71, 0x1397,
	0xA6F5, 0xB968, 0x0000, 0xC12C, 0x4060, 0xE31F, 0x79C8, 0xB6ED,
	0xD4BE, 0x8D46, 0x67D9, 0x724B, 0x94DE, 0x98D4, 0xB0E8, 0x854A,
	0xBB6B, 0xC52A, 0x4FE5, 0xED16, 0x86C5, 0x9AD7, 0x6655, 0x1194,
	0x8ACF, 0xE910, 0x0406, 0xFE81, 0xA0F0, 0x7844, 0x25BA, 0x4BE3,
	0xA2F3, 0x5DFE, 0x80C0, 0x058A, 0x3FAD, 0x21BC, 0x7048, 0xF104,
	0x63DF, 0x77C1, 0xAF75, 0x4263, 0x2030, 0xE51A, 0xFD0E, 0xBF6D,
	0x814C, 0x1814, 0x2635, 0xC32F, 0xBEE1, 0x35A2, 0x88CC, 0x2E39,
	0x9357, 0x55F2, 0xFC82, 0x7A47, 0xC8AC, 0xBAE7, 0x322B, 0xE695,
	0xC0A0, 0x1998, 0x9ED1, 0xA37F, 0x4466, 0x547E, 0x3BAB, 0x0B83,
	0x8CCA, 0xC729, 0x6BD3, 0x283C, 0xA779, 0xBCE2, 0x161D, 0xAD76,
	0xDB3B, 0x6456, 0x744E, 0x141E, 0x92DB, 0x0C0A, 0x486C, 0xB8E4,
	0x9F5D, 0xBD6E, 0x43EF, 0xC4A6, 0x39A8, 0x31A4, 0xD337, 0xF28B,
	0xD532, 0x8B43, 0x6E59, 0xDAB7, 0x018C, 0xB164, 0x9CD2, 0x49E0,
	0xD8B4, 0xACFA, 0xF307, 0xCF25, 0xCAAF, 0xF48E, 0x47E9, 0x1018,
	0x6FD5, 0xF088, 0x4A6F, 0x5C72, 0x3824, 0x57F1, 0x73C7, 0x9751,
	0xCB23, 0xA17C, 0xE89C, 0x3E21, 0x96DD, 0x61DC, 0x0D86, 0x0F85,
	0xE090, 0x7C42, 0x71C4, 0xCCAA, 0x90D8, 0x0605, 0xF701, 0x1C12,
	0xC2A3, 0x6A5F, 0xAEF9, 0x69D0, 0x1791, 0x9958, 0x3A27, 0x27B9,
	0xD938, 0xEB13, 0x2BB3, 0x2233, 0xD2BB, 0xA970, 0x0789, 0x33A7,
	0x2DB6, 0x3C22, 0x1592, 0xC920, 0x8749, 0xAAFF, 0x5078, 0xA57A,
	0x038F, 0x59F8, 0x0980, 0x1A17, 0x65DA, 0xD731, 0x84C6, 0xD0B8,
	0x82C3, 0x29B0, 0x5A77, 0x1E11, 0x7BCB, 0xA8FC, 0x6DD6, 0x2C3A,
}

// tk16 selects the nth 16-bit little-endian word of the temporal key.
func tk16(tk []byte, n int) uint16 {
	return uint16(tk[2*n]) | uint16(tk[2*n+1])<<8
}

// sboxMix is the 16-bit to 16-bit S-box lookup.
func sboxMix(v uint16) uint16 {
	return tkipSbox[byte(v)] ^ swap16(tkipSbox[v>>8])
}

func swap16(v uint16) uint16 { return v<<8 | v>>8 }

func rotr1(v uint16) uint16 { return v>>1 | v<<15 }

// phase1 derives the TTAK. It only needs to run once per 2^16
// frames, when the high 32 bits of the TSC change.
func phase1(p1k *[5]uint16, tk, ta []byte, iv32 uint32) {
	p1k[0] = uint16(iv32)
	p1k[1] = uint16(iv32 >> 16)
	p1k[2] = uint16(ta[0]) | uint16(ta[1])<<8
	p1k[3] = uint16(ta[2]) | uint16(ta[3])<<8
	p1k[4] = uint16(ta[4]) | uint16(ta[5])<<8

	// 8-round unbalanced Feistel over the 80-bit block, all adds
	// mod 2^16
	for i := 0; i < 8; i++ {
		p1k[0] += sboxMix(p1k[4] ^ tk16(tk, (i&1)+0))
		p1k[1] += sboxMix(p1k[0] ^ tk16(tk, (i&1)+2))
		p1k[2] += sboxMix(p1k[1] ^ tk16(tk, (i&1)+4))
		p1k[3] += sboxMix(p1k[2] ^ tk16(tk, (i&1)+6))
		p1k[4] += sboxMix(p1k[3] ^ tk16(tk, (i&1)+0))
		p1k[4] += uint16(i) // avoid "slide attacks"
	}
}

// phase2 derives the per-frame RC4 key. {TA, IV32, IV16} must be
// unique across all frames under one temporal key, which the TSC
// discipline guarantees.
func phase2(rc4key *[16]byte, tk []byte, p1k *[5]uint16, iv16 uint16) {
	var ppk [6]uint16

	copy(ppk[:5], p1k[:])
	ppk[5] = p1k[4] + iv16

	// bijective non-linear mixing of the 96 bits of ppk
	ppk[0] += sboxMix(ppk[5] ^ tk16(tk, 0))
	ppk[1] += sboxMix(ppk[0] ^ tk16(tk, 1))
	ppk[2] += sboxMix(ppk[1] ^ tk16(tk, 2))
	ppk[3] += sboxMix(ppk[2] ^ tk16(tk, 3))
	ppk[4] += sboxMix(ppk[3] ^ tk16(tk, 4))
	ppk[5] += sboxMix(ppk[4] ^ tk16(tk, 5))

	// final bijective linear sweep; the rotates kill LSB correlations
	ppk[0] += rotr1(ppk[5] ^ tk16(tk, 6))
	ppk[1] += rotr1(ppk[0] ^ tk16(tk, 7))
	ppk[2] += rotr1(ppk[1])
	ppk[3] += rotr1(ppk[2])
	ppk[4] += rotr1(ppk[3])
	ppk[5] += rotr1(ppk[4])

	// rc4key[0..2] is the cleartext WEP IV; octet 1 dodges the FMS
	// weak-key class
	rc4key[0] = byte(iv16 >> 8)
	rc4key[1] = (byte(iv16>>8) | 0x20) & 0x7f
	rc4key[2] = byte(iv16)
	rc4key[3] = byte((ppk[5] ^ tk16(tk, 0)) >> 1)
	for i, v := range ppk {
		rc4key[4+2*i] = byte(v)
		rc4key[5+2*i] = byte(v >> 8)
	}
}
