package vbi

import "testing"

func TestRingBuffer_drainOrder(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 3; i++ {
		rb.Push(Packet{PageNo: uint16(i)})
	}
	got := rb.Drain()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, p := range got {
		if p.PageNo != uint16(i) {
			t.Errorf("got[%d].PageNo = %d, want %d", i, p.PageNo, i)
		}
	}
	if more := rb.Drain(); more != nil {
		t.Errorf("second drain should be empty, got %v", more)
	}
}

func TestRingBuffer_overwritesOldestWhenFull(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 3; i++ {
		rb.Push(Packet{PageNo: uint16(i)})
	}
	overwrote := rb.Push(Packet{PageNo: 99})
	if !overwrote {
		t.Error("expected overwrite=true once buffer is full")
	}
	got := rb.Drain()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// oldest entry (PageNo 0) should have been evicted
	want := []uint16{1, 2, 99}
	for i, p := range got {
		if p.PageNo != want[i] {
			t.Errorf("got[%d].PageNo = %d, want %d", i, p.PageNo, want[i])
		}
	}
	if rb.Overflow() != 1 {
		t.Errorf("Overflow() = %d, want 1", rb.Overflow())
	}
}

func TestRingBuffer_reset(t *testing.T) {
	rb := NewRingBuffer(2)
	rb.Push(Packet{})
	rb.Push(Packet{})
	rb.Push(Packet{}) // overflow
	rb.Reset()
	if got := rb.Drain(); got != nil {
		t.Errorf("expected empty buffer after Reset, got %v", got)
	}
	if rb.Overflow() != 0 {
		t.Errorf("Overflow() after Reset = %d, want 0", rb.Overflow())
	}
}

func TestFrameTracker_channelChangeReturnsFalseOnce(t *testing.T) {
	var ft FrameTracker
	if ft.NewFrame(1, true) {
		t.Error("NewFrame should return false right after a channel change")
	}
	if !ft.NewFrame(2, false) {
		t.Error("NewFrame should return true on frames following the reset")
	}
}

func TestFrameTracker_lostFrameDetected(t *testing.T) {
	var ft FrameTracker
	ft.NewFrame(1, true)
	ft.NewFrame(2, false)
	ft.NewFrame(3, false)
	ft.NewFrame(10, false) // gap
	if !ft.LostFrame() {
		t.Error("expected lost-frame flag after sequence gap")
	}
	if ft.LostFrame() {
		t.Error("LostFrame should clear after being read once")
	}
}

func TestFrameTracker_packetRateAccumulates(t *testing.T) {
	var ft FrameTracker
	ft.NewFrame(1, true)
	for seq := uint32(2); seq < 6; seq++ {
		ft.CountPacket()
		ft.CountPacket()
		ft.NewFrame(seq, false)
	}
	if rate := ft.PacketsPerFrame(); rate <= 0 {
		t.Errorf("PacketsPerFrame() = %v, want > 0", rate)
	}
}
