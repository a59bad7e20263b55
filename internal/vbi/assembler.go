package vbi

import (
	"github.com/snapetech/ttxepg/internal/hamming"
	"github.com/snapetech/ttxepg/internal/metrics"
)

// magazineState tracks the page currently being received on one of the 8
// teletext magazines (packet assembly is per-magazine: packets 1..29
// extend whichever page's header was most recently seen on that
// magazine).
type magazineState struct {
	curPageNo uint16
	fwdPage   bool
	isMipPage bool
}

// Assembler reassembles raw teletext lines into Packets for pages inside
// a configured range, tracks per-magazine page state, and keeps the latest
// Packet 8/30 payload for CNI decoding (TakePacket830). VPS lines are not
// handled here. One Assembler serves one VBI source (a single tuned
// channel).
type Assembler struct {
	mags        [8]magazineState
	lastMag     int
	magParallel bool

	startPage uint16
	stopPage  uint16
	ring      *RingBuffer
	frames    FrameTracker

	PkgCount int
	PkgDrop  int
	PkgGrab  int

	lastP830Payload []byte
	haveP830        bool

	// Metrics, when set, receives Hamming reject and ring-buffer overwrite
	// counts as this assembler processes lines. Metrics may be nil.
	Metrics *metrics.Metrics
}

// NewAssembler creates an assembler that forwards packets for pages in
// [startPage, stopPage] (inclusive) into ring, of the given capacity.
func NewAssembler(startPage, stopPage uint16, ringCapacity int) *Assembler {
	a := &Assembler{
		startPage: startPage,
		stopPage:  stopPage,
		ring:      NewRingBuffer(ringCapacity),
		lastMag:   8, // "no magazine yet" sentinel, matching the original's lastMag=8
	}
	return a
}

// Ring exposes the assembler's output queue.
func (a *Assembler) Ring() *RingBuffer {
	return a.ring
}

// NewFrame must be called once per received VBI frame.
func (a *Assembler) NewFrame(frameSeqNo uint32, channelChanged bool) bool {
	if channelChanged {
		a.mags = [8]magazineState{}
		a.lastMag = 8
		a.ring.Reset()
	}
	return a.frames.NewFrame(frameSeqNo, channelChanged)
}

// AddLine processes one raw teletext line (the first 2 bytes are the
// Hamming-8/4 coded magazine/packet-number byte; the data payload
// follows). line is the VBI line number, kept for diagnostics only.
func (a *Assembler) AddLine(data []byte, line uint) {
	if len(data) < 2 {
		return
	}
	a.frames.CountPacket()
	a.PkgCount++

	magPkg, ok := hamming.UnHam84Byte(data[0], data[1])
	if !ok {
		a.PkgDrop++
		if a.Metrics != nil {
			a.Metrics.HammingRejects.Inc()
		}
		return
	}
	mag := int(magPkg & 7)
	pkgno := (magPkg >> 3) & 0x1f

	payload := data[2:]
	if pkgno == 0 {
		a.handleHeader(mag, payload, line)
		return
	}
	a.handleBodyPacket(mag, int(pkgno), payload)
}

// handleHeader decodes a page header (packet 0): page number, control
// bits, and serial/parallel magazine mode, then decides whether the
// following packets on this magazine should be forwarded.
func (a *Assembler) handleHeader(mag int, payload []byte, line uint) {
	if len(payload) < 8 {
		a.PkgDrop++
		return
	}
	tmp1, ok1 := hamming.UnHam84Byte(payload[0], payload[1])
	tmp2, ok2 := hamming.UnHam84Byte(payload[2], payload[3])
	tmp3, ok3 := hamming.UnHam84Byte(payload[4], payload[5])
	tmp4, ok4 := hamming.UnHam84Byte(payload[6], payload[7])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		a.PkgDrop++
		if a.Metrics != nil {
			a.Metrics.HammingRejects.Inc()
		}
		if a.mags[mag].fwdPage {
			a.mags[mag].fwdPage = false
		}
		a.mags[mag].isMipPage = false
		a.mags[mag].curPageNo = 0xffff
		return
	}

	pageNo := uint16(tmp1) | uint16(mag)<<8
	ctrlBits := uint32(tmp2) | uint32(tmp3)<<8 | uint32(tmp4)<<16
	a.magParallel = tmp3&0x10 == 0

	if !a.magParallel && mag != a.lastMag && a.lastMag < 8 {
		a.mags[a.lastMag].curPageNo = 0xffff
		a.mags[a.lastMag].fwdPage = false
	}

	if pageNo >= a.startPage && pageNo <= a.stopPage {
		a.mags[mag].fwdPage = true
		if overwrote := a.ring.Push(Packet{Frame: 0, Line: line, PageNo: pageNo, Ctrl: ctrlBits, PkgNo: 0, Data: fitData(payload)}); overwrote && a.Metrics != nil {
			a.Metrics.RingBufferDrops.Inc()
		}
		a.PkgGrab++
	} else {
		a.mags[mag].fwdPage = false
		// MIP pages have units digit 0xFD; intercepted, never forwarded.
		a.mags[mag].isMipPage = pageNo&0xff == 0xfd
	}

	a.mags[mag].curPageNo = pageNo
	a.lastMag = mag
}

// handleBodyPacket processes a non-header packet (1..29): forwards it if
// its magazine's current page is being grabbed, or routes it to Packet
// 8/30 decoding when it's magazine 0's packet 30.
func (a *Assembler) handleBodyPacket(mag, pkgno int, payload []byte) {
	if a.mags[mag].fwdPage && pkgno < 30 {
		if overwrote := a.ring.Push(Packet{PageNo: a.mags[mag].curPageNo, PkgNo: byte(pkgno), Data: fitData(payload)}); overwrote && a.Metrics != nil {
			a.Metrics.RingBufferDrops.Inc()
		}
		a.PkgGrab++
		return
	}
	if pkgno == 30 && mag == 0 {
		a.lastP830Payload = append(a.lastP830Payload[:0], payload...)
		a.haveP830 = true
	}
}

// TakePacket830 returns the most recently received Packet 8/30 (magazine
// 0, packet 30) payload, if any was seen since the last call.
func (a *Assembler) TakePacket830() ([]byte, bool) {
	if !a.haveP830 {
		return nil, false
	}
	a.haveP830 = false
	return a.lastP830Payload, true
}

func fitData(payload []byte) [40]byte {
	var out [40]byte
	copy(out[:], payload)
	return out
}
