/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"crypto/rc4"
	"crypto/subtle"
	"encoding/binary"
	"hash/crc32"

	"github.com/lc-may/nuttx-ieee80211/dot11"
	"github.com/lc-may/nuttx-ieee80211/iob"
)

// TKIP software crypto context: the directional Michael keys and the
// cached Phase1 output per direction, valid while IV32 is unchanged.
type tkipCtx struct {
	txMIC  []byte
	rxMIC  []byte
	txTTAK [5]uint16
	rxTTAK [5]uint16

	txTTAKOK bool
	rxTTAKOK bool
}

func (*tkipCtx) keyPriv() {}

// tkipSetKey initializes the software crypto context. A driver doing
// hardware crypto overrides the key's private context instead.
func tkipSetKey(ic *Interface, k *Key) error {
	if len(k.Key) < 32 {
		return errKeyLen
	}
	ctx := &tkipCtx{}

	// Use bits 128-191 as the Michael key for AA->SPA and bits
	// 192-255 as the Michael key for SPA->AA.
	if ic.mode == ModeHostAP {
		ctx.txMIC = k.Key[16:24]
		ctx.rxMIC = k.Key[24:32]
	} else {
		ctx.rxMIC = k.Key[16:24]
		ctx.txMIC = k.Key[24:32]
	}
	k.priv = ctx
	return nil
}

func tkipDeleteKey(ic *Interface, k *Key) {
	k.priv = nil
}

// TKIPMIC computes the Michael MIC over the frame body starting off
// octets into the chain, using the pseudo-header derived from the
// 802.11 header. It is kept independent from the software TKIP
// crypto context so that drivers doing hardware crypto but not MIC
// can call it.
func TKIPMIC(b *iob.Buffer, off int, key []byte) [TKIPMICLen]byte {
	hdr := b.Data[:b.Len]

	// pseudo-header: DA, SA, priority, 3 octets of padding
	var pseudo [14]byte
	switch hdr[1] & dot11.FC1DirMask {
	case dot11.FC1DirNoDS:
		copy(pseudo[0:6], dot11.Addr1(hdr))
		copy(pseudo[6:12], dot11.Addr2(hdr))
	case dot11.FC1DirToDS:
		copy(pseudo[0:6], dot11.Addr3(hdr))
		copy(pseudo[6:12], dot11.Addr2(hdr))
	case dot11.FC1DirFromDS:
		copy(pseudo[0:6], dot11.Addr1(hdr))
		copy(pseudo[6:12], dot11.Addr3(hdr))
	case dot11.FC1DirDSToDS:
		copy(pseudo[0:6], dot11.Addr3(hdr))
		copy(pseudo[6:12], dot11.Addr4(hdr))
	}
	pseudo[12] = dot11.TID(hdr)

	var mi michael
	mi.init(key)
	mi.update(pseudo[:])

	// the first off octets are contiguous in the head segment
	mi.update(b.Data[off:b.Len])
	for seg := b.Next; seg != nil; seg = seg.Next {
		mi.update(seg.Data[:seg.Len])
	}
	return mi.sum()
}

func tkipEncrypt(ic *Interface, b *iob.Buffer, k *Key) *iob.Buffer {
	ctx, ok := k.priv.(*tkipCtx)
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
	out.PktLen += TKIPHdrLen
	out.Len = out.PktLen
	if out.Len > out.Cap() {
		out.Len = out.Cap()
	}
	copy(out.Data, hdr[:hdrlen])

	k.tsc++ // increment the 48-bit TSC

	// construct TKIP header
	ivp := out.Data[hdrlen:]
	ivp[0] = byte(k.tsc >> 8)     // TSC1
	ivp[1] = (ivp[0] | 0x20) & 0x7f // WEP seed (see 8.3.2.2)
	ivp[2] = byte(k.tsc)          // TSC0
	ivp[3] = k.ID<<6 | extIV      // KeyID | ExtIV
	ivp[4] = byte(k.tsc >> 16)    // TSC2
	ivp[5] = byte(k.tsc >> 24)    // TSC3
	ivp[6] = byte(k.tsc >> 32)    // TSC4
	ivp[7] = byte(k.tsc >> 40)    // TSC5

	// compute WEP seed
	if !ctx.txTTAKOK || k.tsc&0xffff == 0 {
		phase1(&ctx.txTTAK, k.Key, dot11.Addr2(hdr), uint32(k.tsc>>16))
		ctx.txTTAKOK = true
	}
	var seed [16]byte
	phase2(&seed, k.Key, &ctx.txTTAK, uint16(k.tsc))
	rc, err := rc4.NewCipher(seed[:])
	if err != nil {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// encrypt frame body and compute WEP ICV
	var crc uint32
	w := pairWalker{
		src: b, soff: hdrlen,
		dst: out, doff: hdrlen + TKIPHdrLen,
		left: b.PktLen - hdrlen,
		pool: ic.pool,
	}
	for {
		s, d := w.next()
		if s == nil {
			break
		}
		crc = crc32.Update(crc, crc32.IEEETable, s)
		rc.XORKeyStream(d, s)
	}
	if w.nomem {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	room := w.tailRoom(TKIPTailLen)
	if room == nil {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// compute TKIP MIC over clear text, then encrypt it
	mic := TKIPMIC(b, hdrlen, ctx.txMIC)
	crc = crc32.Update(crc, crc32.IEEETable, mic[:])
	rc.XORKeyStream(room[:TKIPMICLen], mic[:])

	// finalize WEP ICV
	var icv [WEPCRCLen]byte
	binary.LittleEndian.PutUint32(icv[:], crc)
	rc.XORKeyStream(room[TKIPMICLen:], icv[:])
	out.PktLen += TKIPTailLen

	iob.FreeChain(b)
	return out
}

func tkipDecrypt(ic *Interface, b *iob.Buffer, k *Key) *iob.Buffer {
	ctx, ok := k.priv.(*tkipCtx)
	if !ok || b.Len < dot11.MinHdrLen {
		iob.FreeChain(b)
		return nil
	}
	hdr := b.Data[:b.Len]
	hdrlen := dot11.HdrLen(hdr)
	if b.PktLen < hdrlen+TKIPOverhead || b.Len < hdrlen+TKIPHdrLen {
		ic.dropf("%s: tkip: frame too short", ic.name)
		iob.FreeChain(b)
		return nil
	}
	ivp := hdr[hdrlen:]

	// check that ExtIV bit is set
	if ivp[3]&extIV == 0 {
		ic.dropf("%s: tkip: ExtIV not set", ic.name)
		iob.FreeChain(b)
		return nil
	}

	// retrieve last seen packet number for this frame priority
	prsc := &k.rsc[dot11.TID(hdr)]

	// extract the 48-bit TSC from the TKIP header
	tsc := uint64(ivp[2]) |
		uint64(ivp[0])<<8 |
		uint64(ivp[4])<<16 |
		uint64(ivp[5])<<24 |
		uint64(ivp[6])<<32 |
		uint64(ivp[7])<<40
	if tsc <= *prsc {
		// replayed frame, discard
		ic.dropf("%s: tkip: replayed frame", ic.name)
		iob.FreeChain(b)
		return nil
	}

	out := ic.pool.Alloc()
	if out == nil {
		iob.FreeChain(b)
		return nil
	}
	iob.Clone(out, b)
	out.PktLen -= TKIPOverhead
	out.Len = out.PktLen
	if out.Len > out.Cap() {
		out.Len = out.Cap()
	}

	// copy 802.11 header and clear protected bit
	copy(out.Data, hdr[:hdrlen])
	out.Data[1] &^= dot11.FC1Protected

	// compute WEP seed, reusing the cached TTAK while IV32 is
	// unchanged
	if !ctx.rxTTAKOK || tsc>>16 != *prsc>>16 {
		ctx.rxTTAKOK = false // invalidate cached TTAK (if any)
		phase1(&ctx.rxTTAK, k.Key, dot11.Addr2(hdr), uint32(tsc>>16))
	}
	var seed [16]byte
	phase2(&seed, k.Key, &ctx.rxTTAK, uint16(tsc))
	rc, err := rc4.NewCipher(seed[:])
	if err != nil {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// decrypt frame body and compute WEP ICV over the cleartext
	var crc uint32
	w := pairWalker{
		src: b, soff: hdrlen + TKIPHdrLen,
		dst: out, doff: hdrlen,
		left: out.PktLen - hdrlen,
		pool: ic.pool,
	}
	for {
		s, d := w.next()
		if s == nil {
			break
		}
		rc.XORKeyStream(d, s)
		crc = crc32.Update(crc, crc32.IEEETable, d)
	}
	if w.nomem {
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// extract and decrypt TKIP MIC and WEP ICV from the tail
	var tail [TKIPTailLen]byte
	iob.CopyOut(tail[:], w.src, w.soff)
	rc.XORKeyStream(tail[:], tail[:])

	// include TKIP MIC in WEP ICV, then compare; quiet on mismatch
	// since the ICV can serve as a CRC-guess oracle
	crc = crc32.Update(crc, crc32.IEEETable, tail[:TKIPMICLen])
	if crc != binary.LittleEndian.Uint32(tail[TKIPMICLen:]) {
		ic.dropf("%s: tkip: ICV mismatch", ic.name)
		iob.FreeChain(b)
		iob.FreeChain(out)
		return nil
	}

	// compute TKIP MIC over the decrypted message
	mic := TKIPMIC(out, hdrlen, ctx.rxMIC)
	if subtle.ConstantTimeCompare(tail[:TKIPMICLen], mic[:]) != 1 {
		iob.FreeChain(b)
		iob.FreeChain(out)
		ic.MichaelMICFailure(tsc)
		return nil
	}

	// update last seen packet number and revalidate the cached TTAK
	// (MIC is validated)
	*prsc = tsc
	ctx.rxTTAKOK = true

	iob.FreeChain(b)
	return out
}
