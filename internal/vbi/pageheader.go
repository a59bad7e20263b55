package vbi

import (
	"bytes"

	"github.com/snapetech/ttxepg/internal/hamming"
)

// Constants from the page-header channel-change heuristic: a reference
// header is built from repeated columns, then every subsequent header is
// compared against it by bit distance, parity-error count and blank count.
const (
	HeaderCheckLen       = 17 // compared columns, excluding time/date/page-number
	HeaderCharMinRep     = 3  // a column joins the reference after this many repeats
	HeaderCheckMaxErrBits = 8  // bit-distance threshold to cast a "changed" vote
	HeaderParErrMax      = 4  // max parity errors allowed alongside a "changed" vote
	HeaderBlankMax       = 11 // max blank (space) columns allowed alongside a vote
	HeaderMaxCnt         = 10 // consecutive votes required to signal a channel change
)

// pageNoDigits is the width, in display columns, of the page-number field
// printed in a teletext header (e.g. "123" or "1.23").
const pageNoDigits = 3

// HeaderTracker detects an unsignalled channel change from the drift of a
// magazine's page header text, independent of CNI/VPS acquisition.
type HeaderTracker struct {
	have bool

	ref       [HeaderCheckLen]byte
	repCount  [HeaderCheckLen]int
	pageNoPos int // column where the page-number search located "page", or -1

	candidate    [HeaderCheckLen]byte
	candRepCount [HeaderCheckLen]int

	voteStreak int

	pageRing    [30]uint16
	pageRingPos int
	deltaSign   int
}

// NewHeaderTracker returns a tracker with no reference header yet.
func NewHeaderTracker() *HeaderTracker {
	return &HeaderTracker{pageNoPos: -1}
}

// Reset discards the reference header and all accumulated votes, e.g. on a
// confirmed channel change.
func (h *HeaderTracker) Reset() {
	*h = HeaderTracker{pageNoPos: -1}
}

// columns extracts the first HeaderCheckLen printable columns from a raw
// teletext header row (Latin-1 rendition, control codes intact), skipping
// the pageNoDigits-wide page-number field located by locatePageNo.
func columns(ctrlLine string, pageNo uint16) [HeaderCheckLen]byte {
	var out [HeaderCheckLen]byte
	raw := []byte(ctrlLine)
	pos := locatePageNo(raw, pageNo)

	oi := 0
	for i := 0; i < len(raw) && oi < HeaderCheckLen; i++ {
		if pos >= 0 && i >= pos && i < pos+pageNoDigits {
			continue
		}
		out[oi] = raw[i]
		oi++
	}
	return out
}

// locatePageNo finds the column offset of the 3-digit decimal page number
// within the header row, or -1 if it cannot be found.
func locatePageNo(raw []byte, pageNo uint16) int {
	tens := (pageNo >> 4) & 0xf
	units := pageNo & 0xf
	mag := (pageNo >> 8) & 0xf
	if mag == 0 {
		mag = 8
	}
	digits := []byte{
		byte('0' + mag%10),
		byte('0' + tens),
		byte('0' + units),
	}
	return bytes.Index(raw, digits)
}

// Observe feeds one newly received page-0 header (the Latin-1 control
// rendition returned by ttxdb.Page.GetCtrl(0)) into the tracker, along with
// the caller's count of parity errors in that same raw header row (the
// Assembler does not count them). It returns true once HeaderMaxCnt
// consecutive "changed" votes have accumulated, signalling a channel
// change to the caller; the tracker then resets.
func (h *HeaderTracker) Observe(ctrlHeader string, pageNo uint16, parityErrors int) bool {
	h.recordPageNoStats(pageNo)

	cols := columns(ctrlHeader, pageNo)

	if !h.have {
		h.learnReference(cols)
		return false
	}

	errBits, blanks := h.compareToReference(cols)
	h.learnCandidate(cols)

	if errBits >= HeaderCheckMaxErrBits && parityErrors <= HeaderParErrMax && blanks <= HeaderBlankMax {
		h.voteStreak++
	} else {
		h.voteStreak = 0
	}

	if h.voteStreak >= HeaderMaxCnt {
		h.Reset()
		return true
	}
	return false
}

// learnReference accepts a column into the reference buffer once it has
// repeated at least HeaderCharMinRep times; the reference becomes usable
// once every column has qualified.
func (h *HeaderTracker) learnReference(cols [HeaderCheckLen]byte) {
	complete := true
	for i, c := range cols {
		if h.repCount[i] > 0 && h.ref[i] == c {
			h.repCount[i]++
		} else {
			h.ref[i] = c
			h.repCount[i] = 1
		}
		if h.repCount[i] < HeaderCharMinRep {
			complete = false
		}
	}
	if complete {
		h.have = true
	}
}

// compareToReference counts bit distance and blank (space) columns of cols
// relative to the learned reference. Parity errors cannot be recounted
// here (the tracker sees already-decoded text); the caller passes its own
// count to Observe, and this only derives the bit-distance and blank
// counts the vote decision needs.
func (h *HeaderTracker) compareToReference(cols [HeaderCheckLen]byte) (errBits, blanks int) {
	for i, c := range cols {
		errBits += hamming.BitDistance(c, h.ref[i])
		if c == ' ' || c == 0 {
			blanks++
		}
	}
	return
}

// learnCandidate tracks a second, independently accumulating "stable"
// header: any column whose currently observed value (after ≥3 repetitions)
// disagrees with the reference forces an immediate resync to the new text.
func (h *HeaderTracker) learnCandidate(cols [HeaderCheckLen]byte) {
	resync := false
	for i, c := range cols {
		if h.candRepCount[i] > 0 && h.candidate[i] == c {
			h.candRepCount[i]++
		} else {
			h.candidate[i] = c
			h.candRepCount[i] = 1
		}
		if h.candRepCount[i] >= HeaderCharMinRep && h.candidate[i] != h.ref[i] {
			resync = true
		}
	}
	if resync {
		h.ref = h.candidate
		h.repCount = h.candRepCount
		h.candidate = [HeaderCheckLen]byte{}
		h.candRepCount = [HeaderCheckLen]int{}
	}
}

// recordPageNoStats maintains the 30-entry ring of recently seen decimal
// page numbers and the sign-sum of deltas between them, exposed through
// ScanDirection and RecentPages. The scan controller does not read them.
func (h *HeaderTracker) recordPageNoStats(pageNo uint16) {
	prev := h.pageRing[(h.pageRingPos+29)%30]
	h.pageRing[h.pageRingPos] = pageNo
	h.pageRingPos = (h.pageRingPos + 1) % 30

	switch {
	case pageNo > prev:
		h.deltaSign++
	case pageNo < prev:
		h.deltaSign--
	}
}

// ScanDirection returns the accumulated sign-sum of recent page-number
// deltas: positive means the magazine is mostly counting up, negative
// mostly down.
func (h *HeaderTracker) ScanDirection() int { return h.deltaSign }

// RecentPages returns a copy of the 30-entry decimal page-number ring,
// oldest first (slots not yet written are zero and come first).
func (h *HeaderTracker) RecentPages() [30]uint16 {
	var out [30]uint16
	for i := range out {
		out[i] = h.pageRing[(h.pageRingPos+i)%30]
	}
	return out
}
