/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

// Package crypto implements the per-frame link-layer encryption core
// for IEEE 802.11: CCMP (802.11-2007 8.3.3, RFC 3610 with M=8, L=2)
// and TKIP (802.11-2007 8.3.2) over segmented packet buffers, with
// replay protection, cached key schedules and the TKIP Michael
// countermeasures.
package crypto

import (
	"errors"
	"sync"
	"time"

	"github.com/lc-may/nuttx-ieee80211/iob"
)

type CipherType uint8

const (
	CipherNone CipherType = iota
	CipherTKIP
	CipherCCMP
)

// Cipher header and trailer lengths, in octets.
const (
	CCMPHdrLen = 8
	CCMPMICLen = 8

	TKIPHdrLen   = 8
	TKIPMICLen   = 8
	WEPCRCLen    = 4
	TKIPTailLen  = TKIPMICLen + WEPCRCLen
	TKIPOverhead = TKIPHdrLen + TKIPTailLen
)

// extIV flags the extended-IV 48-bit counter format in octet 3 of
// both cipher headers.
const extIV = 0x20

// numTID is the number of per-TID receive counters on a key.
const numTID = 16

// A Key is an installed temporal key. Counters are zeroed at install;
// the transmit counter is written only on the transmit path and the
// receive counters only on the receive path, so a driver serializing
// per key needs no further locking.
type Key struct {
	ID     uint8 // 2-bit key identifier carried in the cipher header
	Cipher CipherType
	Group  bool // group key rather than pairwise
	Key    []byte

	tsc     uint64         // 48-bit transmit packet number (PN/TSC)
	rsc     [numTID]uint64 // last accepted receive PN per TID
	mgmtRSC uint64         // 11w: management frames have their own counter

	priv keyPriv
}

// keyPriv is the cipher-private context attached to a key at install
// time. A driver doing hardware crypto substitutes its own variant.
type keyPriv interface {
	keyPriv()
}

// TSC returns the current transmit counter, for diagnostics.
func (k *Key) TSC() uint64 { return k.tsc }

type OpMode uint8

const (
	ModeSTA OpMode = iota
	ModeHostAP
)

// State is a MAC layer state requested through the MLME collaborator.
type State uint8

const (
	StateInit State = iota
	StateScan
	StateAuth
	StateAssoc
	StateRun
)

// A Node is an entry of the station table, reduced to the fields the
// countermeasures path inspects.
type Node struct {
	Addr           [6]byte
	Associated     bool
	RSNCipher      CipherType // pairwise cipher negotiated with this station
	RSNGroupCipher CipherType // group cipher, meaningful on the BSS node
}

// MLME is the management-plane collaborator invoked by the TKIP
// countermeasures path. The association layer implements it; its
// internals are outside this module.
type MLME interface {
	// SendMgmt transmits a management frame of the given subtype,
	// carrying the reason code.
	SendMgmt(ni *Node, subtype uint8, reason uint16) error
	// SendEAPOLKeyRequest transmits an EAPOL-Key request frame with
	// the given key-information bits and the failing TSC in the key
	// RSC field. BuildEAPOLKeyRequest serializes the frame body.
	SendEAPOLKeyRequest(ni *Node, info uint16, tsc uint64) error
	// NodeLeave drops the node from the station table.
	NodeLeave(ni *Node)
	// IterateNodes calls f for every node in the station table.
	IterateNodes(f func(ni *Node))
	// NewState requests a MAC state transition.
	NewState(s State)
}

// Interface flags.
const (
	// FlagCounterm is set while TKIP countermeasures are active. It
	// is cleared by higher-level policy once the lockout elapses.
	FlagCounterm uint32 = 1 << 0
)

// An Interface carries the per-interface cipher state: operating
// mode, the BSS node, the segment pool and the Michael failure
// record.
type Interface struct {
	name string
	mode OpMode
	bss  *Node
	mlme MLME
	pool *iob.Pool
	log  *Logger

	drops logLimiter

	// TKIP countermeasures state. Shared between the TX and RX paths,
	// hence the lock.
	tkip struct {
		sync.Mutex
		flags      uint32
		micFail    time.Time
		micFailTSC uint64
	}

	timeNow func() time.Time
}

func NewInterface(name string, mode OpMode, pool *iob.Pool, mlme MLME, logger *Logger) *Interface {
	if logger == nil {
		logger = NewLogger(LogLevelSilent, "")
	}
	return &Interface{
		name:    name,
		mode:    mode,
		mlme:    mlme,
		pool:    pool,
		log:     logger,
		timeNow: time.Now,
	}
}

// SetBSS installs the node the interface is associated to (station
// mode) or the node representing the BSS itself (host-AP mode).
func (ic *Interface) SetBSS(ni *Node) { ic.bss = ni }

// CountermeasuresActive reports whether TKIP countermeasures are in
// effect.
func (ic *Interface) CountermeasuresActive() bool {
	ic.tkip.Lock()
	defer ic.tkip.Unlock()
	return ic.tkip.flags&FlagCounterm != 0
}

// ClearCountermeasures ends the lockout. Called by higher-level
// policy after the 60-second period, not by this module.
func (ic *Interface) ClearCountermeasures() {
	ic.tkip.Lock()
	defer ic.tkip.Unlock()
	ic.tkip.flags &^= FlagCounterm
}

// dropf logs a per-frame drop through the rate limiter, so a flood of
// forged frames cannot amplify into a log flood.
func (ic *Interface) dropf(format string, args ...any) {
	if ic.drops.allow(ic.timeNow()) {
		ic.log.Verbosef(format, args...)
	}
}

// cipherOps is the capability set of one cipher. Dispatch goes
// through the table below rather than interface dynamic dispatch so a
// key's private context stays a plain tagged variant.
type cipherOps struct {
	setKey    func(ic *Interface, k *Key) error
	deleteKey func(ic *Interface, k *Key)
	encrypt   func(ic *Interface, b *iob.Buffer, k *Key) *iob.Buffer
	decrypt   func(ic *Interface, b *iob.Buffer, k *Key) *iob.Buffer
}

var ciphers = map[CipherType]cipherOps{
	CipherCCMP: {ccmpSetKey, ccmpDeleteKey, ccmpEncrypt, ccmpDecrypt},
	CipherTKIP: {tkipSetKey, tkipDeleteKey, tkipEncrypt, tkipDecrypt},
}

var errUnknownCipher = errors.New("unknown cipher")

// SetKey installs k on the interface: counters are zeroed and the
// cipher-private key schedule is computed once.
func (ic *Interface) SetKey(k *Key) error {
	ops, ok := ciphers[k.Cipher]
	if !ok {
		return errUnknownCipher
	}
	k.tsc = 0
	k.rsc = [numTID]uint64{}
	k.mgmtRSC = 0
	return ops.setKey(ic, k)
}

// DeleteKey releases the private context of k. Idempotent.
func (ic *Interface) DeleteKey(k *Key) {
	if ops, ok := ciphers[k.Cipher]; ok {
		ops.deleteKey(ic, k)
	}
}

// Encrypt consumes the frame chain b and returns the encrypted and
// authenticated chain, or nil if it could not be built. b is released
// in either case.
func (ic *Interface) Encrypt(b *iob.Buffer, k *Key) *iob.Buffer {
	ops, ok := ciphers[k.Cipher]
	if !ok || k.priv == nil {
		iob.FreeChain(b)
		return nil
	}
	return ops.encrypt(ic, b, k)
}

// Decrypt consumes the frame chain b and returns the decrypted and
// verified chain, or nil on any validation failure. b is released in
// either case.
func (ic *Interface) Decrypt(b *iob.Buffer, k *Key) *iob.Buffer {
	ops, ok := ciphers[k.Cipher]
	if !ok || k.priv == nil {
		iob.FreeChain(b)
		return nil
	}
	return ops.decrypt(ic, b, k)
}
