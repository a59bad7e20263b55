// Package vbi assembles decoded VBI lines (VPS, Packet 8/30, teletext
// packets) into the higher-level events the acquisition control loop
// consumes: CNI/PIL observations, page data and page-header samples.
package vbi

import "github.com/snapetech/ttxepg/internal/cni"

// InvalidPil marks a PIL value that could not be assembled, matching
// INVALID_VPS_PIL upstream.
const InvalidPil = 0xffffffff

// AssemblePil packs a date/time into nextview PIL format, substituting the
// VPS "system code" for invalid input and preserving the two defined VPS
// control codes (pause, empty).
func AssemblePil(mday, month, hour, minute uint) uint32 {
	switch {
	case mday != 0 && month >= 1 && month <= 12 && hour < 24 && minute < 60:
		return uint32(mday<<15) | uint32(month<<11) | uint32(hour<<6) | uint32(minute)
	case mday == 0 && month == 15 && hour >= 29 && minute == 63:
		return uint32(15<<11) | uint32(hour<<6) | 63
	default:
		return uint32(15<<11) | uint32(31<<6) | 63
	}
}

// VpsObservation is the result of decoding one VPS data line (line 16).
type VpsObservation struct {
	Cni uint16
	Pil uint32
}

// DecodeVps decodes a 13-byte VPS data line (the payload starting at byte
// index 3 of the transmitted line, per VPS Richtlinie 8R2) into a CNI and
// PIL. ok is false when no usable CNI was present (cni == 0 or 0xfff,
// meaning "no data").
func DecodeVps(data []byte) (obs VpsObservation, ok bool) {
	if len(data) < 13 {
		return VpsObservation{}, false
	}
	// Byte indices below are (original 1-based line offset - 3), matching
	// the original's "data[N-3]" addressing of the 13-byte VPS payload.
	b5 := data[5-3]
	b11 := data[11-3]
	b12 := data[12-3]
	b13 := data[13-3]
	b14 := data[14-3]

	cni := uint16(b13&0x3)<<10 | uint16(b14&0xc0)<<2 | uint16(b11&0xc0) | uint16(b14&0x3f)
	if cni == 0 || cni == 0xfff {
		return VpsObservation{}, false
	}

	if cni == 0xDC3 {
		// "ARD/ZDF Gemeinsames Vormittagsprogramm": disambiguated by a
		// single bit that indicates which of the two actually airs.
		if b5&0x20 != 0 {
			cni = 0xDC1
		} else {
			cni = 0xDC2
		}
	}

	mday := uint(b11&0x3e) >> 1
	month := uint(b12&0xe0)>>5 | uint(b11&1)<<3
	hour := uint(b12 & 0x1f)
	minute := uint(b13 >> 2)

	pil := AssemblePil(mday, month, hour, minute)
	return VpsObservation{Cni: cni, Pil: pil}, true
}

// reverseBitOrder reverses the bit order of a byte, used because Packet
// 8/30 transmits CNI/NI fields MSB-first while teletext packets are
// LSB-first.
func reverseBitOrder(b byte) byte {
	result := b & 0x1
	for i := 0; i < 7; i++ {
		b >>= 1
		result <<= 1
		result |= b & 0x1
	}
	return result
}

// P830Observation is the result of decoding a Packet 8/30 line, either
// Format 1 (network identification, "NI") or Format 2 (PDC).
type P830Observation struct {
	Source cni.Source
	Cni    uint16
	Pil    uint32 // InvalidPil for Format 1, which carries no date/time PIL
}

// TimeObservation reports a UTC timestamp and local time offset recovered
// from Packet 8/30 Format 1's MJD/UTC fields.
type TimeObservation struct {
	UnixUTC int64
	LtoSecs int
}
