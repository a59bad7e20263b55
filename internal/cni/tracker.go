package cni

import "github.com/snapetech/ttxepg/internal/metrics"

// Tracker implements the CNI confirmation state machine from
// TtxDecode_AddCni/AddPil in the original source: a CNI value is not
// trusted until it has been seen repCountRequired times in a row (3 for
// VPS and Packet 8/30 Format 1, 1 for Packet 8/30 Format 2/PDC, which
// already carries its own parity protection across more bits). Any value
// that differs from the current candidate resets the counter instead of
// incrementing it, and a CNI change always invalidates a pending PIL.
type Tracker struct {
	candidate uint16
	repCount  int
	confirmed uint16

	pil       uint32
	pilValid  bool

	// Metrics, when set, counts confirmations labeled by the source that
	// supplied them. Metrics may be nil.
	Metrics *metrics.Metrics
}

// sourceLabel names src for the confirmations_total label.
func sourceLabel(src Source) string {
	switch src {
	case SourceNI:
		return "packet_8_30_1"
	case SourcePDC:
		return "packet_8_30_2"
	default:
		return "vps"
	}
}

// repCountRequired returns the repetitions needed to confirm src.
func repCountRequired(src Source) int {
	if src == SourcePDC {
		return 1
	}
	return 3
}

// Source identifies which wire format a CNI observation came from.
type Source int

const (
	SourceVPS Source = iota
	SourceNI
	SourcePDC
)

// Add records one CNI observation. It returns the confirmed CNI (0 if none
// yet) and whether this call caused a new confirmation.
func (t *Tracker) Add(raw uint16, src Source) (confirmedCni uint16, justConfirmed bool) {
	if Invalid(raw) || IsBlocked(raw) {
		return t.confirmed, false
	}

	normalized := normalizeBySource(raw, src)

	if normalized != t.candidate {
		t.candidate = normalized
		t.repCount = 1
	} else {
		t.repCount++
	}

	if t.repCount >= repCountRequired(src) && t.confirmed != normalized {
		if t.confirmed != 0 {
			t.pilValid = false
		}
		t.confirmed = normalized
		if t.Metrics != nil {
			t.Metrics.CNIConfirmed.WithLabelValues(sourceLabel(src)).Inc()
		}
		return t.confirmed, true
	}
	return t.confirmed, false
}

// normalizeBySource converts an observed CNI to the VPS 12-bit form used
// as Tracker's common currency, the way TtxDecode_AddCni does before
// comparing against the running candidate.
func normalizeBySource(raw uint16, src Source) uint16 {
	switch src {
	case SourceNI:
		return ConvertP8301ToVps(raw)
	case SourcePDC:
		return ConvertPdcToVps(raw)
	default:
		return raw
	}
}

// Confirmed returns the currently confirmed CNI, or 0 if none.
func (t *Tracker) Confirmed() uint16 {
	return t.confirmed
}

// Reset clears all tracking state, as when a channel change is detected.
func (t *Tracker) Reset() {
	m := t.Metrics
	*t = Tracker{Metrics: m}
}

// SetPil records a PIL value associated with the currently confirmed CNI.
// PIL is only meaningful once a CNI has been confirmed; setting it beforehand
// is a no-op, matching the original's refusal to assemble a PIL before CNI
// acquisition completes.
func (t *Tracker) SetPil(pil uint32) {
	if t.confirmed == 0 {
		return
	}
	t.pil = pil
	t.pilValid = true
}

// Pil returns the last recorded PIL and whether it is still valid (it is
// invalidated whenever the confirmed CNI changes).
func (t *Tracker) Pil() (uint32, bool) {
	return t.pil, t.pilValid
}
