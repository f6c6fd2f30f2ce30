/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

// Package dot11 inspects IEEE 802.11 MAC headers. Frames are raw
// octet slices beginning at the frame control field; the header is
// assumed contiguous, which the buffer-chain contract guarantees for
// head segments.
package dot11

import "encoding/binary"

// Frame control octet 0.
const (
	FC0VersionMask = 0x03

	FC0TypeMask = 0x0c
	FC0TypeMgt  = 0x00
	FC0TypeCtl  = 0x04
	FC0TypeData = 0x08

	FC0SubtypeMask = 0xf0
	FC0SubtypeQoS  = 0x80

	FC0SubtypeDeauth = 0xc0
)

// Frame control octet 1.
const (
	FC1DirMask    = 0x03
	FC1DirNoDS    = 0x00
	FC1DirToDS    = 0x01
	FC1DirFromDS  = 0x02
	FC1DirDSToDS  = 0x03
	FC1MoreFrag   = 0x04
	FC1Retry      = 0x08
	FC1PwrMgt     = 0x10
	FC1MoreData   = 0x20
	FC1Protected  = 0x40
	FC1Order      = 0x80
)

// QoS control field.
const QoSTIDMask = 0x000f

// AddrLen is the length of an 802.11 MAC address.
const AddrLen = 6

// MinHdrLen is the three-address header length without QoS or HTC.
const MinHdrLen = 24

// ReasonMICFailure is the deauthentication reason code sent during
// TKIP countermeasures (IEEE 802.11-2007 Table 7-22).
const ReasonMICFailure = 14

// HasAddr4 reports whether the frame carries a fourth address
// (DS-to-DS direction).
func HasAddr4(f []byte) bool {
	return f[1]&FC1DirMask == FC1DirDSToDS
}

// HasQoS reports whether the frame is a QoS data frame.
func HasQoS(f []byte) bool {
	return f[0]&(FC0TypeMask|FC0SubtypeQoS) == FC0TypeData|FC0SubtypeQoS
}

// HasHTC reports whether an HT control field follows the addresses:
// the order bit is set on a QoS data or management frame.
func HasHTC(f []byte) bool {
	return f[1]&FC1Order != 0 &&
		(HasQoS(f) || f[0]&FC0TypeMask == FC0TypeMgt)
}

// QoS returns the QoS control field. The caller must have checked
// HasQoS.
func QoS(f []byte) uint16 {
	off := MinHdrLen
	if HasAddr4(f) {
		off += AddrLen
	}
	return binary.LittleEndian.Uint16(f[off:])
}

// TID returns the traffic identifier of the frame: the low four bits
// of the QoS control field, or zero on non-QoS frames.
func TID(f []byte) uint8 {
	if !HasQoS(f) {
		return 0
	}
	return uint8(QoS(f) & QoSTIDMask)
}

// HdrLen returns the 802.11 header length implied by the frame
// control field. Management frames never carry a fourth address.
func HdrLen(f []byte) int {
	n := MinHdrLen
	if HasAddr4(f) {
		n += AddrLen
	}
	if HasQoS(f) {
		n += 2
	}
	if HasHTC(f) {
		n += 4
	}
	return n
}

// Addr1, Addr2, Addr3 and Addr4 return the address fields. Addr4 is
// only meaningful on DS-to-DS frames.
func Addr1(f []byte) []byte { return f[4:10] }
func Addr2(f []byte) []byte { return f[10:16] }
func Addr3(f []byte) []byte { return f[16:22] }
func Addr4(f []byte) []byte { return f[24:30] }

// IsMgmt reports whether the frame is a management frame.
func IsMgmt(f []byte) bool {
	return f[0]&FC0TypeMask == FC0TypeMgt
}

// IsData reports whether the frame is a data frame.
func IsData(f []byte) bool {
	return f[0]&FC0TypeMask == FC0TypeData
}
