package vbi

import "testing"

// hammingBytePair returns two bytes whose UnHam84Byte composes to v.
func hammingBytePair(t *testing.T, v byte) (byte, byte) {
	t.Helper()
	lo := hammingByteFor(t, v&0x0f)
	hi := hammingByteFor(t, v>>4)
	return lo, hi
}

// buildHeaderLine builds a raw teletext header line (packet 0) for the
// given magazine and page-within-magazine (0..255), with ctrl byte fields
// left at zero (parallel mode: magParallel=true since tmp3&0x10==0 when
// tmp3==0).
func buildHeaderLine(t *testing.T, mag int, pageLo byte) []byte {
	t.Helper()
	magPkg := byte(mag) // pkgno=0 -> (magPkg>>3)&0x1f == 0
	b0, b1 := hammingBytePair(t, magPkg)
	p0, p1 := hammingBytePair(t, pageLo)
	c0, c1 := hammingBytePair(t, 0)
	c2, c3 := hammingBytePair(t, 0)
	c4, c5 := hammingBytePair(t, 0)
	line := []byte{b0, b1, p0, p1, c0, c1, c2, c3, c4, c5}
	// pad payload out to the 40-byte text area so fitData has enough room
	for len(line) < 2+40 {
		line = append(line, 0x20)
	}
	return line
}

func buildBodyLine(t *testing.T, mag, pkgno int, text string) []byte {
	t.Helper()
	magPkg := byte(mag) | byte(pkgno<<3)
	b0, b1 := hammingBytePair(t, magPkg)
	line := append([]byte{b0, b1}, []byte(text)...)
	for len(line) < 2+40 {
		line = append(line, 0x20)
	}
	return line
}

func TestAssembler_forwardsHeaderAndBodyInRange(t *testing.T) {
	a := NewAssembler(0x300, 0x399, 64)
	a.NewFrame(1, true)
	a.NewFrame(2, false)

	a.AddLine(buildHeaderLine(t, 3, 0x00), 7) // page 0x300
	a.AddLine(buildBodyLine(t, 3, 1, "hello"), 8)

	pkts := a.Ring().Drain()
	if len(pkts) != 2 {
		t.Fatalf("got %d packets, want 2", len(pkts))
	}
	if pkts[0].PageNo != 0x300 {
		t.Errorf("header PageNo = 0x%03X, want 0x300", pkts[0].PageNo)
	}
	if pkts[1].PageNo != 0x300 || pkts[1].PkgNo != 1 {
		t.Errorf("body packet = %+v, want page 0x300 pkgno 1", pkts[1])
	}
	if a.PkgGrab != 2 {
		t.Errorf("PkgGrab = %d, want 2", a.PkgGrab)
	}
}

func TestAssembler_dropsOutOfRangePage(t *testing.T) {
	a := NewAssembler(0x300, 0x399, 64)
	a.NewFrame(1, true)
	a.NewFrame(2, false)

	a.AddLine(buildHeaderLine(t, 1, 0x00), 7) // page 0x100, outside range
	a.AddLine(buildBodyLine(t, 1, 1, "nope"), 8)

	if pkts := a.Ring().Drain(); len(pkts) != 0 {
		t.Errorf("expected no forwarded packets, got %d", len(pkts))
	}
}

func TestAssembler_mipPageIntercepted(t *testing.T) {
	a := NewAssembler(0x300, 0x399, 64)
	a.NewFrame(1, true)
	a.NewFrame(2, false)

	a.AddLine(buildHeaderLine(t, 2, 0xFD), 7) // page 0x2FD -> MIP
	if !a.mags[2].isMipPage {
		t.Error("expected MIP page to be flagged")
	}
	if a.mags[2].fwdPage {
		t.Error("MIP page must not be forwarded")
	}
}

func TestAssembler_packet830Captured(t *testing.T) {
	a := NewAssembler(0x300, 0x399, 64)
	a.NewFrame(1, true)
	a.NewFrame(2, false)

	a.AddLine(buildBodyLine(t, 0, 30, "p830payload"), 16)
	payload, ok := a.TakePacket830()
	if !ok {
		t.Fatal("expected a captured Packet 8/30 payload")
	}
	if string(payload[:len("p830payload")]) != "p830payload" {
		t.Errorf("payload = %q", payload)
	}
	if _, ok := a.TakePacket830(); ok {
		t.Error("TakePacket830 should not return the same payload twice")
	}
}
