package vbi

import "testing"

func sampleHeader(suffix byte) string {
	base := []byte("X 312 12.30 BBC ONE HD       ")
	if suffix != 0 {
		base[len(base)-1] = suffix
	}
	return string(base)
}

func TestHeaderTracker_learnsReferenceAfterMinReps(t *testing.T) {
	h := NewHeaderTracker()
	for i := 0; i < HeaderCharMinRep; i++ {
		if h.Observe(sampleHeader(0), 0x312, 0) {
			t.Fatal("should not signal a change while still learning the reference")
		}
	}
	if !h.have {
		t.Fatal("expected reference to be learned after HeaderCharMinRep identical observations")
	}
}

func TestHeaderTracker_signalsChangeAfterSustainedDrift(t *testing.T) {
	h := NewHeaderTracker()
	for i := 0; i < HeaderCharMinRep; i++ {
		h.Observe(sampleHeader(0), 0x312, 0)
	}

	changed := false
	different := "Z 999 99.99 ZZZZZZZZZZZZZZZZ "
	for i := 0; i < HeaderMaxCnt; i++ {
		if h.Observe(different, 0x999, 0) {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("expected a channel-change signal after HeaderMaxCnt consecutive drifted headers")
	}
}

func TestHeaderTracker_stableHeaderNeverSignals(t *testing.T) {
	h := NewHeaderTracker()
	for i := 0; i < 50; i++ {
		if h.Observe(sampleHeader(0), 0x312, 0) {
			t.Fatal("an unchanging header must never trigger a channel-change vote")
		}
	}
}

func TestHeaderTracker_recordPageNoStats_tracksDirection(t *testing.T) {
	h := NewHeaderTracker()
	h.Observe(sampleHeader(0), 0x300, 0)
	h.Observe(sampleHeader(0), 0x301, 0)
	h.Observe(sampleHeader(0), 0x302, 0)
	if h.ScanDirection() <= 0 {
		t.Errorf("ScanDirection() = %d, want > 0 for an ascending page sequence", h.ScanDirection())
	}
}

func TestLocatePageNo_findsDigits(t *testing.T) {
	raw := []byte("X 312 12.30 foo")
	if pos := locatePageNo(raw, 0x312); pos != 2 {
		t.Errorf("locatePageNo = %d, want 2", pos)
	}
}
