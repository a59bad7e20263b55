package ttxdb

import (
	"sort"
	"sync"
	"time"
)

// TopPage is the BTT (Basic TOP Table) page number; its packets announce
// the MPT/AIT pages referenced by the rest of the database.
const TopPage = 0x1F0

// DB is the page database (TTX_DB): a map from (page,sub) to Page, plus the
// TOP navigation tables and a CNI frequency map. Safe for concurrent use by
// one producer (the assembler/control loop) and any number of readers (the
// scraper, dump tooling).
type DB struct {
	mu    sync.RWMutex
	pages map[Key]*Page

	mpt map[uint16]int        // decimal page -> sub-page count (0, 1, or >1)
	ait map[uint16]aitHeading // TOP page -> 12-byte heading

	mptPageHints []uint16 // pages named by the BTT link table as MPT tables
	aitPageHints []uint16 // pages named by the BTT link table as AIT tables

	cniFreq map[uint16]int

	repTotal int
	repCount int
}

type aitHeading struct {
	Page    uint16
	Heading [12]byte
}

// New returns an empty page database.
func New() *DB {
	return &DB{
		pages:   make(map[Key]*Page),
		mpt:     make(map[uint16]int),
		ait:     make(map[uint16]aitHeading),
		cniFreq: make(map[uint16]int),
	}
}

// Accept reports whether page should be accepted into the database: either
// a decimal page (tens and units digits both in 0..9) or a top-level TOP
// page (BTT itself, or one of the MPT/AIT pages it announced).
func (db *DB) Accept(page uint16) bool {
	if isDecimalPage(page) {
		return true
	}
	if page == TopPage {
		return true
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if _, ok := db.mpt[page]; ok {
		return true
	}
	if _, ok := db.ait[page]; ok {
		return true
	}
	for _, h := range db.mptPageHints {
		if h == page {
			return true
		}
	}
	for _, h := range db.aitPageHints {
		if h == page {
			return true
		}
	}
	return false
}

func isDecimalPage(page uint16) bool {
	tens := (page >> 4) & 0xf
	units := page & 0xf
	return tens <= 9 && units <= 9
}

// AddPage creates or updates the page header (packet 0) for (page,sub).
// The C4 erase control bit marks existing payload invalid without dropping
// the identity slot, so the next acquisition cycle starts fresh.
func (db *DB) AddPage(page, sub uint16, control uint32, header [LineWidth]byte, when time.Time) *Page {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := Key{page, sub}
	p, ok := db.pages[k]
	if !ok {
		p = &Page{Key: k}
		db.pages[k] = p
	}
	if control&(1<<3) != 0 { // C4
		p.erase()
	}
	p.touch(control, header, when)

	db.repTotal++
	db.repCount++

	if page == TopPage {
		db.parseBTT(p)
	}
	return p
}

// AddPageData attaches a body packet (1..29) to an already-registered
// (page,sub). Packets for a page that has not yet had AddPage called are
// dropped (matches the teletext wire order: header always precedes body).
func (db *DB) AddPageData(page, sub uint16, packetNo int, payload [LineWidth]byte) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.pages[Key{page, sub}]
	if !ok || packetNo < 1 || packetNo > 23 {
		return
	}
	p.setLine(packetNo, payload)
}

// Get returns the page at (page,sub), or nil.
func (db *DB) Get(page, sub uint16) *Page {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.pages[Key{page, sub}]
}

// Subpages returns every sub-page number stored for page, sorted ascending.
func (db *DB) Subpages(page uint16) []uint16 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []uint16
	for k := range db.pages {
		if k.Page == page {
			out = append(out, k.Sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LastSubpage returns the highest known sub-page number for page. It
// consults the MPT first; if the page has no MPT entry, it falls back to
// scanning the (page,sub) map for the maximum sub observed.
func (db *DB) LastSubpage(page uint16) (uint16, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if n, ok := db.mpt[page]; ok && n > 0 {
		return uint16(n - 1), true
	}
	max, found := uint16(0), false
	for k := range db.pages {
		if k.Page == page && (!found || k.Sub > max) {
			max, found = k.Sub, true
		}
	}
	return max, found
}

// CountCNI records one observation of CNI value cni (for the frequency
// map consulted when disambiguating broadcaster identity).
func (db *DB) CountCNI(cni uint16) {
	db.mu.Lock()
	db.cniFreq[cni]++
	db.mu.Unlock()
}

// DominantCNI returns the most frequently observed CNI value, or (0,false)
// if none have been recorded.
func (db *DB) DominantCNI() (uint16, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var best uint16
	var bestN int
	for cni, n := range db.cniFreq {
		if n > bestN {
			best, bestN = cni, n
		}
	}
	return best, bestN > 0
}

// AvgRepetitions returns the average acquisition-repetition count across
// all stored pages.
func (db *DB) AvgRepetitions() float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if len(db.pages) == 0 {
		return 0
	}
	total := 0
	for _, p := range db.pages {
		total += p.RepCount
	}
	return float64(total) / float64(len(db.pages))
}

// Reset discards every stored page and table (confirmed channel change).
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.pages = make(map[Key]*Page)
	db.mpt = make(map[uint16]int)
	db.ait = make(map[uint16]aitHeading)
	db.cniFreq = make(map[uint16]int)
}

// Len returns the number of pages currently stored.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.pages)
}
