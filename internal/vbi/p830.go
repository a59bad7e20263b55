package vbi

import (
	"github.com/snapetech/ttxepg/internal/cni"
	"github.com/snapetech/ttxepg/internal/hamming"
)

// DecodePacket830 decodes a Packet 8/30 line (data starts at the
// designation-code nibble, byte 0). Format 1 carries a network
// identification code plus an MJD/UTC timestamp; Format 2 carries a PDC
// CNI and PIL. Returns ok=false on an uncorrectable designation code or an
// unrecognized designation.
func DecodePacket830(data []byte) (obs P830Observation, timeObs TimeObservation, haveTime bool, ok bool) {
	if len(data) < 9 {
		return P830Observation{}, TimeObservation{}, false, false
	}
	dcRaw, valid := hamming.UnHam84Nibble(data[0])
	if !valid {
		return P830Observation{}, TimeObservation{}, false, false
	}
	dc := dcRaw >> 1

	switch dc {
	case 0:
		return decodeP8301Format1(data)
	case 1:
		return decodeP8301Format2(data)
	default:
		return P830Observation{}, TimeObservation{}, false, false
	}
}

// decodeP8301Format1 decodes the network-identification sub-format: a
// 16-bit NI code (bit-reversed, since it is transmitted MSB-first) plus a
// local-time-offset byte and an MJD/UTC timestamp.
func decodeP8301Format1(data []byte) (obs P830Observation, timeObs TimeObservation, haveTime bool, ok bool) {
	if len(data) < 16 {
		return P830Observation{}, TimeObservation{}, false, false
	}
	cni16 := uint16(reverseBitOrder(data[7]))<<8 | uint16(reverseBitOrder(data[8]))
	if cni16 == 0 || cni16 == 0xffff {
		return P830Observation{}, TimeObservation{}, false, false
	}

	lto := int(data[9]&0x7F>>1) * 30 * 60
	if data[9]&0x80 == 0 {
		lto = -lto
	}

	mjd := (int(data[10]&15)-1)*10000 +
		(int(data[11]>>4)-1)*1000 +
		(int(data[11]&15)-1)*100 +
		(int(data[12]>>4)-1)*10 +
		(int(data[12] & 15) - 1)

	utcH := (int(data[13]>>4)-1)*10 + (int(data[13]&15) - 1)
	utcM := (int(data[14]>>4)-1)*10 + (int(data[14]&15) - 1)
	utcS := (int(data[15]>>4)-1)*10 + (int(data[15]&15) - 1)

	obs = P830Observation{Source: cni.SourceNI, Cni: cni16, Pil: InvalidPil}

	if utcH < 24 && utcM < 60 && utcS < 60 && mjd >= 40587 && lto <= 12*60*60 && lto >= -12*60*60 {
		unixUTC := int64(mjd-40587)*86400 + int64(utcH)*3600 + int64(utcM)*60 + int64(utcS)
		timeObs = TimeObservation{UnixUTC: unixUTC, LtoSecs: lto}
		haveTime = true
	}
	return obs, timeObs, haveTime, true
}

// decodeP8301Format2 decodes the PDC sub-format: 9 Hamming-8/4 protected
// nibbles, transmitted MSB-first (hence the bit reversal), packing a CNI
// and a date/time per ETS 300 231 §8.2.1.
func decodeP8301Format2(data []byte) (obs P830Observation, timeObs TimeObservation, haveTime bool, ok bool) {
	if len(data) < 18 {
		return P830Observation{}, TimeObservation{}, false, false
	}
	var pdcbuf [9]byte
	for i := 0; i < 9; i++ {
		nibble, valid := hamming.UnHam84Nibble(data[9+i])
		if !valid {
			return P830Observation{}, TimeObservation{}, false, false
		}
		pdcbuf[i] = hamming.ReverseNibbleBits(nibble)
	}

	cni16 := uint16(pdcbuf[0])<<12 | uint16(pdcbuf[6]&0x3)<<10 | uint16(pdcbuf[7]&0xc)<<6 |
		uint16(pdcbuf[1]&0xc)<<4 | uint16(pdcbuf[7]&0x3)<<4 | uint16(pdcbuf[8]&0xf)
	if cni16 == 0 || cni16 == 0xffff {
		return P830Observation{}, TimeObservation{}, false, false
	}

	mday := uint(pdcbuf[1]&0x3)<<3 | uint(pdcbuf[2]&0xe)>>1
	month := uint(pdcbuf[2]&0x1)<<3 | uint(pdcbuf[3]&0xe)>>1
	hour := uint(pdcbuf[3]&0x1)<<4 | uint(pdcbuf[4])
	minute := uint(pdcbuf[5])<<2 | uint(pdcbuf[6]&0xc)>>2

	pil := AssemblePil(mday, month, hour, minute)
	obs = P830Observation{Source: cni.SourcePDC, Cni: cni16, Pil: pil}
	return obs, TimeObservation{}, false, true
}
