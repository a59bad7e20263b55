package epgscrape

import (
	"regexp"
	"unicode"
)

// LineFormat is one page's autodetected column layout for slot extraction:
// where the time, the concealed VPS label, and the title begin, plus the
// indent used to recognise wrapped-title continuation lines.
type LineFormat struct {
	TimeOff  int
	VPSOff   int // -1 if no VPS column observed
	TitleOff int
	ContOff  int
	TimeSep  byte // '.' or ':'
}

// timePattern matches "HH.MM" or "HH:MM" at the start of a candidate time
// column; group 1 is the separator.
var timePattern = regexp.MustCompile(`^([0-2][0-9])([.:])([0-5][0-9])`)

// formatRecord is one line's observed format attributes, used as a
// histogram key while autodetecting the page format.
type formatRecord struct {
	timeOff, vpsOff, titleOff int
	sep                       byte
}

// AutodetectFormat scans up to the first 5 sub-pages' rows (callers pass
// all candidate rows flattened; order does not matter for the histogram)
// and returns the most frequently occurring line format.
func AutodetectFormat(rows []string) (LineFormat, bool) {
	counts := map[formatRecord]int{}

	type recKey struct {
		timeOff, vpsOff int
		sep             byte
	}
	bySubt := map[recKey]map[int]int{}

	for i, row := range rows {
		rec, titleOff, ok := detectLineFormat(row, rows, i)
		if !ok {
			continue
		}
		counts[rec]++
		key := recKey{rec.timeOff, rec.vpsOff, rec.sep}
		if bySubt[key] == nil {
			bySubt[key] = map[int]int{}
		}
		bySubt[key][titleOff]++
	}

	if len(counts) == 0 {
		return LineFormat{}, false
	}

	// Pick the (timeOff,vpsOff,sep) combination occurring most often,
	// ignoring titleOff per the spec ("ignoring subt_off").
	type agg struct {
		key recKey
		n   int
	}
	totals := map[recKey]int{}
	for rec, n := range counts {
		k := recKey{rec.timeOff, rec.vpsOff, rec.sep}
		totals[k] += n
	}
	var best agg
	for k, n := range totals {
		if n > best.n {
			best = agg{k, n}
		}
	}

	// Among lines matching that combination, pick the most frequent titleOff.
	bestTitle, bestTitleN := 0, -1
	for t, n := range bySubt[best.key] {
		if n > bestTitleN {
			bestTitle, bestTitleN = t, n
		}
	}

	contOff := detectContinuationIndent(rows)

	return LineFormat{
		TimeOff:  best.key.timeOff,
		VPSOff:   best.key.vpsOff,
		TitleOff: bestTitle,
		ContOff:  contOff,
		TimeSep:  best.key.sep,
	}, true
}

// detectLineFormat inspects one row for the time+VPS+title column pattern.
func detectLineFormat(row string, rows []string, idx int) (formatRecord, int, bool) {
	for off := 0; off+5 <= len(row); off++ {
		m := timePattern.FindStringSubmatch(row[off:])
		if m == nil {
			continue
		}
		sep := m[2][0]
		rest := off + 5

		vpsOff := -1
		if rest+4 <= len(row) && isConcealedDigits(row[rest : rest+4]) {
			vpsOff = rest
			rest += 4
		}

		titleOff := firstNonBlank(row, rest)
		if titleOff < 0 {
			continue
		}
		return formatRecord{timeOff: off, vpsOff: vpsOff, sep: sep}, titleOff, true
	}
	return formatRecord{}, 0, false
}

func isConcealedDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func firstNonBlank(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] != ' ' && s[i] != 0 {
			return i
		}
	}
	return -1
}

// detectContinuationIndent measures the most common indent of rows that
// begin with a letter and follow a slot-opening row, used to recognise
// wrapped-title continuation lines.
func detectContinuationIndent(rows []string) int {
	counts := map[int]int{}
	for _, row := range rows {
		i := firstNonBlank(row, 0)
		if i < 0 || i >= len(row) {
			continue
		}
		r := rune(row[i])
		if unicode.IsLetter(r) {
			counts[i]++
		}
	}
	best, bestN := 0, -1
	for off, n := range counts {
		if n > bestN {
			best, bestN = off, n
		}
	}
	return best
}
