package cni

import (
	"testing"

	"github.com/snapetech/ttxepg/internal/metrics"
)

func TestConvertP8301ToVps_ARD(t *testing.T) {
	if got := ConvertP8301ToVps(0x4901); got != 0x0DC1 {
		t.Errorf("ConvertP8301ToVps(0x4901) = 0x%04X, want 0x0DC1", got)
	}
}

func TestConvertP8301ToVps_unmapped(t *testing.T) {
	if got := ConvertP8301ToVps(0x2C7F); got != 0x2C7F {
		t.Errorf("ConvertP8301ToVps(0x2C7F) = 0x%04X, want unchanged 0x2C7F", got)
	}
}

func TestConvertPdcToVps(t *testing.T) {
	if got := ConvertPdcToVps(0x1DC1); got != 0x0DC1 {
		t.Errorf("ConvertPdcToVps(0x1DC1) = 0x%04X, want 0x0DC1", got)
	}
	// A country outside the masked set passes through unchanged.
	if got := ConvertPdcToVps(0x2C01); got != 0x2C01 {
		t.Errorf("ConvertPdcToVps(0x2C01) = 0x%04X, want unchanged 0x2C01", got)
	}
}

func TestInvalid(t *testing.T) {
	for _, v := range []uint16{0, 0xffff, 0x0fff} {
		if !Invalid(v) {
			t.Errorf("Invalid(0x%04X) = false, want true", v)
		}
	}
	if Invalid(0x0DC1) {
		t.Error("Invalid(0x0DC1) = true, want false")
	}
}

func TestBlockedNeverConfirms(t *testing.T) {
	var tr Tracker
	for i := 0; i < 10; i++ {
		if _, confirmed := tr.Add(Blocked, SourceVPS); confirmed {
			t.Fatalf("blocked CNI 0x1234 confirmed after %d repeats", i+1)
		}
	}
	if tr.Confirmed() != 0 {
		t.Errorf("Confirmed() = 0x%04X after only blocked values, want 0", tr.Confirmed())
	}
}

func TestTracker_confirmsAfterThreeRepeatsVps(t *testing.T) {
	var tr Tracker
	for i := 0; i < 2; i++ {
		if _, confirmed := tr.Add(0x0DC1, SourceVPS); confirmed {
			t.Fatalf("confirmed too early at repeat %d", i+1)
		}
	}
	_, confirmed := tr.Add(0x0DC1, SourceVPS)
	if !confirmed {
		t.Fatal("expected confirmation on 3rd consecutive VPS observation")
	}
	if tr.Confirmed() != 0x0DC1 {
		t.Errorf("Confirmed() = 0x%04X, want 0x0DC1", tr.Confirmed())
	}
}

func TestTracker_differingObservationResetsCount(t *testing.T) {
	var tr Tracker
	tr.Add(0x0DC1, SourceVPS)
	tr.Add(0x0DC1, SourceVPS)
	// A differing value breaks the run; the original value needs 3 fresh
	// consecutive repeats afterward.
	tr.Add(0x0DC2, SourceVPS)
	if _, confirmed := tr.Add(0x0DC1, SourceVPS); confirmed {
		t.Fatal("should not confirm immediately after the run was broken")
	}
}

func TestTracker_niConfirmationConvertsToVps(t *testing.T) {
	var tr Tracker
	var confirmed uint16
	for i := 0; i < 3; i++ {
		confirmed, _ = tr.Add(0x4901, SourceNI)
	}
	if confirmed != 0x0DC1 {
		t.Errorf("NI 0x4901 confirmed as 0x%04X, want VPS form 0x0DC1", confirmed)
	}
}

func TestTracker_pdcConfirmsOnFirstObservation(t *testing.T) {
	var tr Tracker
	_, confirmed := tr.Add(0x1DC1, SourcePDC)
	if !confirmed {
		t.Fatal("PDC should confirm on first observation")
	}
	if tr.Confirmed() != 0x0DC1 {
		t.Errorf("Confirmed() = 0x%04X, want 0x0DC1", tr.Confirmed())
	}
}

func TestTracker_pilInvalidatedOnCniChange(t *testing.T) {
	var tr Tracker
	tr.Add(0x1DC1, SourcePDC)
	tr.SetPil(0x12345)
	if _, ok := tr.Pil(); !ok {
		t.Fatal("PIL should be valid after SetPil")
	}
	// PDC confirms immediately, so a single differing PDC observation
	// changes the confirmed CNI and must invalidate the PIL.
	tr.Add(0x1DC2, SourcePDC)
	if _, ok := tr.Pil(); ok {
		t.Error("PIL should be invalidated after CNI change")
	}
}

func TestGetDescription_temporaryNetworkCode(t *testing.T) {
	name, _, ok := GetDescription(0xFF01)
	if !ok || name == "" {
		t.Fatal("expected a description for a temporary network code")
	}
}

func TestGetDescription_zeroInvalid(t *testing.T) {
	if _, _, ok := GetDescription(0); ok {
		t.Error("GetDescription(0) should not be ok")
	}
}

func TestTracker_publishesConfirmationMetricAndSurvivesReset(t *testing.T) {
	m := metrics.New()
	tr := Tracker{Metrics: m}
	tr.Add(0x1DC1, SourcePDC)
	tr.Reset()
	if tr.Metrics != m {
		t.Fatal("Reset must preserve the Metrics reference")
	}
	tr.Add(0x1DC1, SourcePDC)

	mfs, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestGetProviderLto(t *testing.T) {
	seconds, ok := GetProviderLto(0x1DC1) // Germany, 60 min
	if !ok || seconds != 3600 {
		t.Errorf("GetProviderLto(Germany CNI) = %d,%v want 3600,true", seconds, ok)
	}
}
