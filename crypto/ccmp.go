/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"

	"github.com/lc-may/nuttx-ieee80211/dot11"
	"github.com/lc-may/nuttx-ieee80211/iob"
)

// CCMP software crypto context: the AES-128 key schedule, computed
// once at install.
type ccmpCtx struct {
	aes cipher.Block
}

func (*ccmpCtx) keyPriv() {}

var errKeyLen = errors.New("invalid key length")

// ccmpSetKey initializes the software crypto context. A driver doing
// hardware crypto overrides the key's private context instead.
func ccmpSetKey(ic *Interface, k *Key) error {
	if len(k.Key) < 16 {
		return errKeyLen
	}
	c, err := aes.NewCipher(k.Key[:16])
	if err != nil {
		return err
	}
	k.priv = &ccmpCtx{aes: c}
	return nil
}

func ccmpDeleteKey(ic *Interface, k *Key) {
	k.priv = nil
}

/* Counter with CBC-MAC (CCM) - see RFC 3610.
 * CCMP uses the following CCM parameters: M = 8, L = 2.
 */

// ccm carries the CBC-MAC accumulator b, the counter block a, the
// current keystream block s and the precomputed S_0 of one CCM
// computation.
type ccm struct {
	c   cipher.Block
	b   [16]byte
	a   [16]byte
	s   [16]byte
	s0  [16]byte
	ctr uint16
	j   int
}

// newCCM builds B_0 from the nonce and the plaintext length, absorbs
// the length-prefixed authenticated data (pre-padded to a multiple of
// the block size) and primes S_0 and the first keystream block.
func newCCM(c cipher.Block, nonce *[13]byte, mlen int, auth []byte) *ccm {
	m := &ccm{c: c}

	// B_0 flags = 64*Adata + 8*((M-2)/2) + (L-1)
	m.b[0] = 0x59
	copy(m.b[1:14], nonce[:])
	m.b[14] = byte(mlen >> 8)
	m.b[15] = byte(mlen)
	c.Encrypt(m.b[:], m.b[:])

	for len(auth) > 0 {
		for i := 0; i < 16; i++ {
			m.b[i] ^= auth[i]
		}
		c.Encrypt(m.b[:], m.b[:])
		auth = auth[16:]
	}

	// A_i flags = L-1
	m.a[0] = 1
	copy(m.a[1:14], nonce[:])
	m.a[14] = 0
	m.a[15] = 0
	c.Encrypt(m.s0[:], m.a[:])

	m.nextS()
	return m
}

// nextS constructs the keystream block for the next counter value.
func (m *ccm) nextS() {
	m.ctr++
	m.a[14] = byte(m.ctr >> 8)
	m.a[15] = byte(m.ctr)
	m.c.Encrypt(m.s[:], m.a[:])
}

func (m *ccm) step() {
	m.j++
	if m.j < 16 {
		return
	}
	m.c.Encrypt(m.b[:], m.b[:])
	m.nextS()
	m.j = 0
}

// seal encrypts src into dst while absorbing the plaintext into the
// MIC. The slices may not overlap unless equal.
func (m *ccm) seal(dst, src []byte) {
	for i, v := range src {
		m.b[m.j] ^= v
		dst[i] = v ^ m.s[m.j]
		m.step()
	}
}

// open decrypts src into dst while absorbing the recovered plaintext
// into the MIC.
func (m *ccm) open(dst, src []byte) {
	for i, v := range src {
		p := v ^ m.s[m.j]
		dst[i] = p
		m.b[m.j] ^= p
		m.step()
	}
}

// mic finalizes a trailing partial block and returns the tag
// U = T XOR first-M-bytes(S_0).
func (m *ccm) mic() (t [CCMPMICLen]byte) {
	if m.j != 0 {
		m.c.Encrypt(m.b[:], m.b[:])
		m.j = 0
	}
	for i := range t {
		t[i] = m.b[i] ^ m.s0[i]
	}
	return t
}

// ccmpAuth constructs the length-prefixed AAD of the frame, padded to
// two blocks (802.11-2007 8.3.3.3.3), and reports l(a) and the TID.
func ccmpAuth(hdr []byte) (auth [32]byte, la int, tid uint8) {
	i := 2 // skip l(a), filled below
	fc0 := hdr[0]
	// 11w: conditionally mask subtype field
	if fc0&dot11.FC0TypeMask == dot11.FC0TypeData {
		fc0 &^= dot11.FC0SubtypeMask
	}
	auth[i] = fc0
	i++
	// protected bit is already set in the header
	fc1 := hdr[1] &^ (dot11.FC1Retry | dot11.FC1PwrMgt | dot11.FC1MoreData)
	// 11n: conditionally mask order bit
	if dot11.HasHTC(hdr) {
		fc1 &^= dot11.FC1Order
	}
	auth[i] = fc1
	i++
	i += copy(auth[i:], dot11.Addr1(hdr))
	i += copy(auth[i:], dot11.Addr2(hdr))
	i += copy(auth[i:], dot11.Addr3(hdr))
	auth[i] = hdr[22] & 0x0f // sequence number is not authenticated
	i += 2
	if dot11.HasAddr4(hdr) {
		i += copy(auth[i:], dot11.Addr4(hdr))
	}
	if dot11.HasQoS(hdr) {
		tid = dot11.TID(hdr)
		auth[i] = tid
		i += 2
	}
	la = i - 2
	auth[0] = byte(la >> 8)
	auth[1] = byte(la)
	return auth, la, tid
}

// ccmpNonce constructs the 13-octet CCM nonce (802.11-2007 8.3.3.3.2).
func ccmpNonce(hdr []byte, pn uint64, tid uint8) (nonce [13]byte) {
	nonce[0] = tid
	if hdr[0]&dot11.FC0TypeMask == dot11.FC0TypeMgt {
		nonce[0] |= 1 << 4 // 11w: set management bit
	}
	copy(nonce[1:7], dot11.Addr2(hdr))
	nonce[7] = byte(pn >> 40)
	nonce[8] = byte(pn >> 32)
	nonce[9] = byte(pn >> 24)
	nonce[10] = byte(pn >> 16)
	nonce[11] = byte(pn >> 8)
	nonce[12] = byte(pn)
	return nonce
}

// ccmpFrameCCM derives nonce and AAD from the 802.11 header and
// returns the primed CCM state. mlen is the frame body length.
func ccmpFrameCCM(c cipher.Block, hdr []byte, pn uint64, mlen int) *ccm {
	auth, _, tid := ccmpAuth(hdr)
	nonce := ccmpNonce(hdr, pn, tid)
	return newCCM(c, &nonce, mlen, auth[:])
}

func ccmpEncrypt(ic *Interface, b *iob.Buffer, k *Key) *iob.Buffer {
	ctx, ok := k.priv.(*ccmpCtx)
	if !ok || b.Len < dot11.MinHdrLen {
		iob.FreeChain(b)
		return nil
	}
	hdr := b.Data[:b.Len]
	hdrlen := dot11.HdrLen(hdr)
	if b.Len < hdrlen || b.PktLen < hdrlen {
		iob.FreeChain(b)
		return nil
	}

	out := ic.pool.Alloc()
	if out == nil {
		iob.FreeChain(b)
		return nil
	}
	iob.Clone(out, b)
	out.PktLen += CCMPHdrLen
	out.Len = out.PktLen
	if out.Len > out.Cap() {
		out.Len = out.Cap()
	}
	copy(out.Data, hdr[:hdrlen])

	k.tsc++ // increment the 48-bit PN

	// construct CCMP header
	ivp := out.Data[hdrlen:]
	ivp[0] = byte(k.tsc)      // PN0
	ivp[1] = byte(k.tsc >> 8) // PN1
	ivp[2] = 0                // Rsvd
	ivp[3] = k.ID<<6 | extIV  // KeyID | ExtIV
	ivp[4] = byte(k.tsc >> 16)
	ivp[5] = byte(k.tsc >> 24)
	ivp[6] = byte(k.tsc >> 32)
	ivp[7] = byte(k.tsc >> 40)

	m := ccmpFrameCCM(ctx.aes, hdr, k.tsc, b.PktLen-hdrlen)

	// encrypt frame body and compute MIC
	w := pairWalker{
		src: b, soff: hdrlen,
		dst: out, doff: hdrlen + CCMPHdrLen,
		left: b.PktLen - hdrlen,
		pool: ic.pool,
	}
	for {
		s, d := w.next()
		if s == nil {
			break
		}
		m.seal(d, s)
	}
	if w.nomem {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	mic := m.mic()
	room := w.tailRoom(CCMPMICLen)
	if room == nil {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}
	copy(room, mic[:])
	out.PktLen += CCMPMICLen

	iob.FreeChain(b)
	return out
}

func ccmpDecrypt(ic *Interface, b *iob.Buffer, k *Key) *iob.Buffer {
	ctx, ok := k.priv.(*ccmpCtx)
	if !ok || b.Len < dot11.MinHdrLen {
		iob.FreeChain(b)
		return nil
	}
	hdr := b.Data[:b.Len]
	hdrlen := dot11.HdrLen(hdr)
	if b.PktLen < hdrlen+CCMPHdrLen+CCMPMICLen || b.Len < hdrlen+CCMPHdrLen {
		ic.dropf("%s: ccmp: frame too short", ic.name)
		iob.FreeChain(b)
		return nil
	}
	ivp := hdr[hdrlen:]

	// check that ExtIV bit is set
	if ivp[3]&extIV == 0 {
		ic.dropf("%s: ccmp: ExtIV not set", ic.name)
		iob.FreeChain(b)
		return nil
	}

	// retrieve last seen packet number for this frame type/priority
	var prsc *uint64
	if dot11.IsData(hdr) {
		prsc = &k.rsc[dot11.TID(hdr)]
	} else {
		// 11w: management frames have their own counters
		prsc = &k.mgmtRSC
	}

	// extract the 48-bit PN from the CCMP header
	pn := uint64(ivp[0]) |
		uint64(ivp[1])<<8 |
		uint64(ivp[4])<<16 |
		uint64(ivp[5])<<24 |
		uint64(ivp[6])<<32 |
		uint64(ivp[7])<<40
	if pn <= *prsc {
		// replayed frame, discard
		ic.dropf("%s: ccmp: replayed frame", ic.name)
		iob.FreeChain(b)
		return nil
	}

	out := ic.pool.Alloc()
	if out == nil {
		iob.FreeChain(b)
		return nil
	}
	iob.Clone(out, b)
	out.PktLen -= CCMPHdrLen + CCMPMICLen
	out.Len = out.PktLen
	if out.Len > out.Cap() {
		out.Len = out.Cap()
	}

	m := ccmpFrameCCM(ctx.aes, hdr, pn, out.PktLen-hdrlen)

	// copy 802.11 header and clear protected bit
	copy(out.Data, hdr[:hdrlen])
	out.Data[1] &^= dot11.FC1Protected

	// decrypt frame body while computing the MIC over the cleartext
	w := pairWalker{
		src: b, soff: hdrlen + CCMPHdrLen,
		dst: out, doff: hdrlen,
		left: out.PktLen - hdrlen,
		pool: ic.pool,
	}
	for {
		s, d := w.next()
		if s == nil {
			break
		}
		m.open(d, s)
	}
	if w.nomem {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// check that the MIC matches the one in the received frame
	var mic0 [CCMPMICLen]byte
	iob.CopyOut(mic0[:], w.src, w.soff)
	mic := m.mic()
	if subtle.ConstantTimeCompare(mic0[:], mic[:]) != 1 {
		ic.dropf("%s: ccmp: MIC mismatch", ic.name)
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// update last seen packet number (MIC is validated)
	*prsc = pn

	iob.FreeChain(b)
	return out
}
