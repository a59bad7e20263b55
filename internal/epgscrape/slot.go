package epgscrape

import (
	"regexp"
	"strconv"
)

// NumRows is the number of displayable teletext rows on an overview page
// (packet 1 through 23; row 0 is the header and is never part of the body).
const NumRows = 24

var (
	separatorRow = regexp.MustCompile(`^-{3,}`)
	endTimeBis   = regexp.MustCompile(`(?i)\bbis\s+(\d{1,2})[.:](\d{2})`)
	endTimeDash  = regexp.MustCompile(`-\s*(\d{1,2})[:.](\d{2})\s*Uhr`)
	endTimeAb    = regexp.MustCompile(`(?i)\bab\s+(\d{1,2})[.:](\d{2})`)
	endTimeOO    = regexp.MustCompile(`(\d{1,2})[.:](\d{2})\s+oo\b`)
)

// ExtractSlots walks rows (body rows, index 0 == teletext packet 1) using
// format to open/extend/close programme slots. refFmt may be the zero
// value if no description-page reference format was detected for this page.
func ExtractSlots(rows []string, format LineFormat, refFmt RefFormat) []Slot {
	footer := detectFooter(rows)

	var slots []Slot
	var open *Slot

	for i := 0; i < footer && i < len(rows); i++ {
		row := rows[i]
		if separatorRow.MatchString(row) {
			continue
		}

		if format.TimeOff < len(row) {
			if m := timePattern.FindStringSubmatch(row[format.TimeOff:]); m != nil {
				if open != nil {
					slots = append(slots, *open)
				}
				hour, _ := strconv.Atoi(m[1])
				minute, _ := strconv.Atoi(m[3])
				s := Slot{Hour: hour, Minute: minute}
				if format.VPSOff >= 0 && format.VPSOff < len(row) {
					s.VPSLabel = vpsLabelAt(row, format.VPSOff)
				}
				if format.TitleOff < len(row) {
					line, ref := stripTrailingRef(row[format.TitleOff:], refFmt)
					s.RawTitleLines = append(s.RawTitleLines, line)
					if ref > 0 {
						s.DescPage, s.HaveDesc = ref, true
					}
				}
				open = &s
				continue
			}
		}

		if open != nil && format.ContOff < len(row) && isContinuation(row, format.ContOff) {
			line, ref := stripTrailingRef(row[format.ContOff:], refFmt)
			open.RawTitleLines = append(open.RawTitleLines, line)
			if ref > 0 {
				open.DescPage, open.HaveDesc = ref, true
			}
		}

		if open != nil {
			if end, ok := matchEndTime(row); ok {
				open.HasEnd = true
				open.EndHour, open.EndMinute = end[0], end[1]
				slots = append(slots, *open)
				open = nil
			}
		}
	}
	if open != nil {
		slots = append(slots, *open)
	}
	return slots
}

func stripTrailingRef(s string, refFmt RefFormat) (string, uint16) {
	page, ok := refFmt.Extract(s)
	if !ok {
		return s, 0
	}
	return refFmt.StripRef(s), page
}

func vpsLabelAt(row string, off int) string {
	if off+4 > len(row) {
		return ""
	}
	return row[off : off+4]
}

func isContinuation(row string, contOff int) bool {
	i := firstNonBlank(row, 0)
	return i == contOff
}

func matchEndTime(row string) ([2]int, bool) {
	for _, re := range []*regexp.Regexp{endTimeBis, endTimeDash, endTimeAb, endTimeOO} {
		if m := re.FindStringSubmatch(row); m != nil {
			h, _ := strconv.Atoi(m[1])
			mi, _ := strconv.Atoi(m[2])
			return [2]int{h, mi}, true
		}
	}
	return [2]int{}, false
}

// detectFooter finds the row index where the page footer begins, the
// earlier (higher on the page) of the two detection methods winning.
func detectFooter(rows []string) int {
	a := detectFooterByContent(rows)
	b := detectFooterByBackground(rows)
	if b < a {
		return b
	}
	return a
}

// detectFooterByContent scans upward from row 23 (the last body row) and
// stops at the first row that is neither a separator, a blank line, nor a
// teletext page reference -- that row is the first footer row.
func detectFooterByContent(rows []string) int {
	last := len(rows)
	if last > NumRows-1 {
		last = NumRows - 1
	}
	footer := last
	for i := last - 1; i >= 0; i-- {
		row := rows[i]
		if separatorRow.MatchString(row) || isBlankRow(row) || looksLikePageRefRow(row) {
			footer = i
			continue
		}
		break
	}
	return footer
}

func isBlankRow(row string) bool {
	for _, c := range row {
		if c != ' ' && c != 0 {
			return false
		}
	}
	return true
}

var pageRefRow = regexp.MustCompile(`^\s*[1-8][0-9]{2}\s*$`)

func looksLikePageRefRow(row string) bool {
	return pageRefRow.MatchString(row)
}

// detectFooterByBackground computes the dominant per-line background
// colour (the last foreground colour code set before 0x1D bg-paint) and
// treats a run of >=8 consecutive lines sharing that colour, counted from
// the bottom, as the footer.
func detectFooterByBackground(rows []string) int {
	if len(rows) == 0 {
		return 0
	}
	bg := make([]byte, len(rows))
	for i, row := range rows {
		bg[i] = rowBackground(row)
	}

	// The page's own background (top row) is the baseline; a footer band
	// is a run of a *different* background colour at the bottom of the
	// page. A page with no colour changes at all has no such band.
	baseline := bg[0]
	trailing := bg[len(bg)-1]
	if trailing == baseline {
		return len(rows)
	}

	run := 0
	for i := len(rows) - 1; i >= 0; i-- {
		if bg[i] != trailing {
			break
		}
		run++
	}
	if run >= 8 {
		return len(rows) - run
	}
	return len(rows)
}

// rowBackground returns the last foreground colour control code (0x00..0x07)
// seen before a 0x1D (bg-paint) control code in row, or 0 (black) if none.
func rowBackground(row string) byte {
	var lastFg byte
	for _, c := range []byte(row) {
		if c <= 0x07 {
			lastFg = c
		}
		if c == 0x1D {
			return lastFg
		}
	}
	return 0
}

// DetectDuplicateSubpages marks the second of two adjacent sub-pages whose
// slot (hour,minute) sequences are identical as "skip", incrementing the
// first's skip count. pages must be sorted by sub-page number ascending.
func DetectDuplicateSubpages(pages []*Page) {
	for i := 1; i < len(pages); i++ {
		if sameSlotTimes(pages[i-1].Slots, pages[i].Slots) {
			for j := range pages[i].Slots {
				pages[i].Slots[j].Skip = true
			}
			pages[i-1].SkipCount++
		}
	}
}

func sameSlotTimes(a, b []Slot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Hour != b[i].Hour || a[i].Minute != b[i].Minute {
			return false
		}
	}
	return true
}
