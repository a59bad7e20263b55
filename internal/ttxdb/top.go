package ttxdb

import "github.com/snapetech/ttxepg/internal/hamming"

// parseBTT interprets a freshly (re-)received Basic TOP Table page (0x1F0).
// Packets 1..20 carry 40 Hamming-8/4 protected per-page function codes each
// (one protected byte, decoded as one nibble, per decimal page); packets
// 21..23 carry five 3-byte link entries each, identifying the MPT page and
// AIT page that hold the actual sub-page counts and group headings.
//
// Must be called with db.mu held for writing.
func (db *DB) parseBTT(p *Page) {
	for pkt := 1; pkt <= 20 && pkt < NumLines; pkt++ {
		if !p.HaveLines[pkt] {
			continue
		}
		db.applyFunctionCodes(p.Lines[pkt], pkt)
	}
	for pkt := 21; pkt <= 23 && pkt < NumLines; pkt++ {
		if !p.HaveLines[pkt] {
			continue
		}
		db.applyLinkEntries(p.Lines[pkt])
	}
}

// applyFunctionCodes decodes one BTT function-code row. Each raw byte is
// one Hamming-8/4 protected nibble; its low 2 bits are a function code in
// 0..3:
//
//	0 = page not transmitted          2 = page has exactly one sub-page
//	1 = page transmitted, no BTT entry 3 = page has multiple sub-pages
//
// pktIdx selects which block of 40 decimal pages this row covers.
func (db *DB) applyFunctionCodes(row [LineWidth]byte, pktIdx int) {
	for i := 0; i < LineWidth; i++ {
		v, ok := hamming.UnHam84Nibble(row[i])
		if !ok {
			continue
		}
		code := v & 0x3
		pageIdx := (pktIdx-1)*40 + i
		page := decimalPageFromIndex(pageIdx)
		switch code {
		case 2:
			db.mpt[page] = 1
		case 3:
			db.mpt[page] = 2 // ">1"; the exact count is not recorded
		}
	}
}

// decimalPageFromIndex maps a 0-based slot in the BTT's 800-entry table to
// the decimal teletext page it describes (0x100..0x8FF, skipping
// non-decimal tens/units as the table itself never addresses them).
func decimalPageFromIndex(idx int) uint16 {
	mag := idx / 100
	rest := idx % 100
	tens := rest / 10
	units := rest % 10
	return uint16((mag+1)<<8) | uint16(tens<<4) | uint16(units)
}

// applyLinkEntries decodes up to five 3-byte link entries from one BTT
// link row (packets 21..23): entry[0] names an MPT page, entry[1] names an
// AIT page (0 means "none").
func (db *DB) applyLinkEntries(row [LineWidth]byte) {
	for e := 0; e < 5; e++ {
		off := e * 3
		if off+2 >= LineWidth {
			break
		}
		mptLo, ok1 := hamming.UnHam84Nibble(row[off])
		aitLo, ok2 := hamming.UnHam84Nibble(row[off+1])
		mag, ok3 := hamming.UnHam84Nibble(row[off+2])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		if mptLo != 0 {
			db.mptPageHints = append(db.mptPageHints, uint16(mag)<<8|uint16(mptLo))
		}
		if aitLo != 0 {
			db.aitPageHints = append(db.aitPageHints, uint16(mag)<<8|uint16(aitLo))
		}
	}
}

// OnMPTPage lets the acquisition loop notify the database that page has
// just been (re-)received and is known (from the BTT link table) to be an
// MPT page. Its rows are decoded with applyFunctionCodes, like the BTT
// rows, so each decimal page is recorded as one sub-page (1) or more than
// one (2); exact sub-page counts are not stored.
func (db *DB) OnMPTPage(page uint16) {
	db.mu.Lock()
	defer db.mu.Unlock()

	hinted := false
	for _, h := range db.mptPageHints {
		if h == page {
			hinted = true
			break
		}
	}
	if !hinted {
		return
	}
	p, ok := db.pages[Key{page, 0}]
	if !ok {
		return
	}
	for pkt := 1; pkt < NumLines; pkt++ {
		if !p.HaveLines[pkt] {
			continue
		}
		db.applyFunctionCodes(p.Lines[pkt], pkt)
	}
}

// AITEntry is one TOP group heading: a decimal page number and its
// 12-byte display heading text.
type AITEntry struct {
	Page    uint16
	Heading [12]byte
}

// OnAITPage lets the acquisition loop notify the database that page is a
// received AIT page. Each of its packets 1..22 yields at most one
// (page, 12-byte-heading) entry, read from bytes 0..13 of the row, so at
// most 22 entries are returned; further entries in a packet are not read.
func (db *DB) OnAITPage(page uint16) []AITEntry {
	db.mu.Lock()
	defer db.mu.Unlock()

	hinted := false
	for _, h := range db.aitPageHints {
		if h == page {
			hinted = true
			break
		}
	}
	if !hinted {
		return nil
	}
	p, ok := db.pages[Key{page, 0}]
	if !ok {
		return nil
	}
	var out []AITEntry
	for pkt := 1; pkt <= 22 && pkt < NumLines; pkt++ {
		if !p.HaveLines[pkt] {
			continue
		}
		row := p.Lines[pkt]
		if len(row) < 2+12 {
			continue
		}
		pageNo, ok := hamming.UnHam84Byte(row[0], row[1])
		if !ok || pageNo == 0 {
			continue
		}
		var heading [12]byte
		copy(heading[:], row[2:14])
		entry := AITEntry{Page: uint16(pageNo), Heading: heading}
		out = append(out, entry)
		db.ait[uint16(pageNo)] = aitHeading{Page: entry.Page, Heading: entry.Heading}
	}
	return out
}
