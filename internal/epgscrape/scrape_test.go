package epgscrape

import (
	"testing"
	"time"

	"github.com/snapetech/ttxepg/internal/metrics"
	"github.com/snapetech/ttxepg/internal/ratelimit"
	"github.com/snapetech/ttxepg/internal/ttxdb"
)

func makeRow(text string) [ttxdb.LineWidth]byte {
	var row [ttxdb.LineWidth]byte
	for i := range row {
		row[i] = ' '
	}
	copy(row[:], text)
	return row
}

func addOverviewPage(db *ttxdb.DB, page, sub uint16, header string, body []string, when time.Time) {
	db.AddPage(page, sub, 0, makeRow(header), when)
	for i, line := range body {
		db.AddPageData(page, sub, i+1, makeRow(line))
	}
}

func TestScrape_extractsTitlesAndStartTimes(t *testing.T) {
	db := ttxdb.New()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	body := []string{
		"20.00 Tagesschau",
		"20.15 Der Tatort",
		"22.00 Nachrichten",
	}
	addOverviewPage(db, 0x150, 0, "Mo 30.07.2026", body, now)

	pages := Scrape(db, []uint16{0x150}, 0, now, nil, nil)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	slots := pages[0].Slots
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].Title != "Tagesschau" {
		t.Errorf("slot 0 title = %q", slots[0].Title)
	}
	if slots[1].Hour != 20 || slots[1].Minute != 15 {
		t.Errorf("slot 1 time = %02d:%02d", slots[1].Hour, slots[1].Minute)
	}
	if slots[0].Stop.IsZero() || !slots[0].Stop.Equal(slots[1].Start) {
		t.Errorf("slot 0 stop should equal slot 1 start, got %v vs %v", slots[0].Stop, slots[1].Start)
	}
}

func TestScrape_dropsExpiredSlots(t *testing.T) {
	db := ttxdb.New()
	now := time.Date(2026, 7, 30, 23, 0, 0, 0, time.UTC)

	body := []string{
		"08.00 Frueh um acht",
		"09.00 Spaeter Vormittag",
	}
	addOverviewPage(db, 0x151, 0, "Mo 30.07.2026", body, now)

	pages := Scrape(db, []uint16{0x151}, 30, now, nil, nil)
	if len(pages) != 0 {
		t.Fatalf("expected all slots expired and page dropped, got %d pages", len(pages))
	}
}

func TestScrape_emptyDBYieldsNoPages(t *testing.T) {
	db := ttxdb.New()
	pages := Scrape(db, []uint16{0x150}, 0, time.Now(), nil, nil)
	if len(pages) != 0 {
		t.Fatalf("expected no pages from empty db, got %d", len(pages))
	}
}

func TestScrape_countsParseMissesOnUnrecognizedFormat(t *testing.T) {
	db := ttxdb.New()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	body := []string{"no recognizable time-slot pattern here", "neither does this line"}
	addOverviewPage(db, 0x152, 0, "garbled header", body, now)

	m := metrics.New()
	pages := Scrape(db, []uint16{0x152}, 0, now, m, nil)
	if len(pages) != 0 {
		t.Fatalf("expected no pages from an unrecognizable format, got %d", len(pages))
	}
	mfs, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected parse-miss counter to be registered")
	}
}

func TestParseDate_twoDigitYearUsesAcquisitionCenturyNotWallClock(t *testing.T) {
	// now deliberately differs from the real wall-clock century boundary a
	// live run would see, to prove the century comes from the acquisition
	// time threaded through ParseDate rather than time.Now().
	now := time.Date(2099, 12, 1, 0, 0, 0, 0, time.UTC)
	pd, ok := ParseDate("30.07.26", now)
	if !ok {
		t.Fatal("expected a match")
	}
	y, _, _ := pd.Resolve(now)
	if y != 2026 {
		t.Errorf("resolved year = %d, want 2026 (century of acquisition time %v, not wall clock)", y, now)
	}
}

func TestScrape_pacesDescriptionLookupsWithoutAlteringResults(t *testing.T) {
	db := ttxdb.New()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	body := []string{
		"20.00 Tagesschau",
		"20.15 Der Tatort",
	}
	addOverviewPage(db, 0x153, 0, "Mo 30.07.2026", body, now)

	rl := ratelimit.New(1000, 10)
	pages := Scrape(db, []uint16{0x153}, 0, now, nil, rl)
	if len(pages) != 1 || len(pages[0].Slots) != 2 {
		t.Fatalf("expected the same 2 slots whether or not a limiter is set, got %+v", pages)
	}
}

func TestParseTrailingFeatures_parensAndBareRun(t *testing.T) {
	title, feat := ParseTrailingFeatures("Spielfilm (16:9, UT)")
	if title != "Spielfilm" {
		t.Errorf("title = %q", title)
	}
	if !feat.Has(Feat169) || !feat.Has(FeatSubtitles) {
		t.Errorf("features = %v", feat)
	}

	title2, feat2 := ParseTrailingFeatures("!Tagesschau")
	if title2 != "Tagesschau" || !feat2.Has(FeatTip) {
		t.Errorf("leading-tip case: title=%q feat=%v", title2, feat2)
	}
}

func TestParseDate_priorityPrefersAbsoluteOverWeekday(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	pd, ok := ParseDate("Donnerstag 30.07.2026", now)
	if !ok {
		t.Fatal("expected a match")
	}
	if pd.Relative {
		t.Errorf("expected absolute date to win over weekday-alone, got relative=%v", pd.Relative)
	}
	y, m, d := pd.Resolve(now)
	if y != 2026 || m != 7 || d != 30 {
		t.Errorf("resolved = %04d-%02d-%02d", y, m, d)
	}
}
