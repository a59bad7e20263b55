package epgscrape

import (
	"fmt"
	"regexp"
	"strconv"
)

// RefFormat is the autodetected shape of a teletext-description-page
// cross-reference trailing an overview line, e.g. " >331" or ". 412".
type RefFormat struct {
	Sep1          byte // '.' or '>'
	HasSep2       bool
	LeadingBlanks int
	re            *regexp.Regexp
}

type refCandidate struct {
	sep1          byte
	hasSep2       bool
	leadingBlanks int
	page          uint16
}

// refScanPattern finds a trailing reference candidate anywhere in a row:
// separator, optional second separator, 0-3 leading blanks, then a
// 3-digit page number in 1XX..8XX, then trailing blanks to end of row.
var refScanPattern = regexp.MustCompile(`([.>])([.>]?)( {0,3})([1-8][0-9]{2})( *)$`)

// DetectRefCandidate looks for a trailing reference on one row.
func detectRefCandidate(row string) (refCandidate, bool) {
	m := refScanPattern.FindStringSubmatch(row)
	if m == nil {
		return refCandidate{}, false
	}
	page, _ := strconv.Atoi(m[4])
	return refCandidate{
		sep1:          m[1][0],
		hasSep2:       m[2] != "",
		leadingBlanks: len(m[3]),
		page:          uint16(page),
	}, true
}

// AutodetectRefFormat scans candidate rows and picks the most frequently
// occurring (sep1, hasSep2, leadingBlanks) tuple, then compiles a regex
// for that exact shape.
func AutodetectRefFormat(rows []string) (RefFormat, bool) {
	type key struct {
		sep1          byte
		hasSep2       bool
		leadingBlanks int
	}
	counts := map[key]int{}
	for _, row := range rows {
		c, ok := detectRefCandidate(row)
		if !ok {
			continue
		}
		counts[key{c.sep1, c.hasSep2, c.leadingBlanks}]++
	}
	if len(counts) == 0 {
		return RefFormat{}, false
	}
	var best key
	bestN := -1
	for k, n := range counts {
		if n > bestN {
			best, bestN = k, n
		}
	}

	f := RefFormat{Sep1: best.sep1, HasSep2: best.hasSep2, LeadingBlanks: best.leadingBlanks}
	sep2 := ""
	if f.HasSep2 {
		sep2 = regexp.QuoteMeta(string(f.Sep1))
	}
	pattern := fmt.Sprintf(`%s%s {%d}([1-8][0-9]{2}) *$`, regexp.QuoteMeta(string(f.Sep1)), sep2, f.LeadingBlanks)
	f.re = regexp.MustCompile(pattern)
	return f, true
}

// Extract returns the description-page reference at the end of row, if any.
func (f RefFormat) Extract(row string) (uint16, bool) {
	if f.re == nil {
		return 0, false
	}
	m := f.re.FindStringSubmatch(row)
	if m == nil {
		return 0, false
	}
	page, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return uint16(page), true
}

// StripRef removes a matched reference from the end of row, returning the
// cleaned title text.
func (f RefFormat) StripRef(row string) string {
	if f.re == nil {
		return row
	}
	loc := f.re.FindStringIndex(row)
	if loc == nil {
		return row
	}
	return row[:loc[0]]
}
