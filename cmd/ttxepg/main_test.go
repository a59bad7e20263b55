package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapetech/ttxepg/internal/epgscrape"
	"github.com/snapetech/ttxepg/internal/metrics"
	"github.com/snapetech/ttxepg/internal/ttxdb"
	"github.com/snapetech/ttxepg/internal/xmltv"
)

func blankRow() [ttxdb.LineWidth]byte {
	var r [ttxdb.LineWidth]byte
	for i := range r {
		r[i] = ' '
	}
	return r
}

func addOverviewPage(db *ttxdb.DB, page, sub uint16, header string, body []string, when time.Time) {
	headerRow := blankRow()
	copy(headerRow[:], header)
	db.AddPage(page, sub, 0, headerRow, when)
	for i, line := range body {
		row := blankRow()
		copy(row[:], line)
		db.AddPageData(page, sub, i+1, row)
	}
}

func TestResolveChannelID(t *testing.T) {
	if got := resolveChannelID("", "ARD Eins!", 0); got != "ARD_Eins_" {
		t.Errorf("analog channel id = %q", got)
	}
	if got := resolveChannelID("", "", 4711); got != "SID_4711" {
		t.Errorf("dvb channel id = %q", got)
	}
	if got := resolveChannelID("explicit", "ARD", 4711); got != "explicit" {
		t.Errorf("explicit channel id override = %q", got)
	}
}

func TestPageRange(t *testing.T) {
	got := pageRange(0x300, 0x302)
	want := []uint16{0x300, 0x301, 0x302}
	if len(got) != len(want) {
		t.Fatalf("pageRange length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pageRange[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestApplyFeatures(t *testing.T) {
	var p xmltv.Programme
	applyFeatures(&p, epgscrape.Feat169|epgscrape.FeatDolby|epgscrape.FeatSubtitles)
	if p.Video != "16:9" || p.Audio != "dolby digital" || p.SubtitleType != "teletext" {
		t.Errorf("applyFeatures produced %+v", p)
	}
}

func TestEndToEnd_scrapeAndWriteXMLTV(t *testing.T) {
	db := ttxdb.New()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	addOverviewPage(db, 0x150, 0, "Mo 30.07.2026", []string{
		"20.00 Tagesschau",
		"20.15 Der Tatort",
	}, now)

	m := metrics.New()
	pages := epgscrape.Scrape(db, pageRange(0x150, 0x150), 0, now, m, nil)
	if len(pages) != 1 {
		t.Fatalf("expected 1 scraped page, got %d", len(pages))
	}

	chID := resolveChannelID("", "Das Erste", 0)
	programmes := flattenProgrammes(pages, chID)
	if len(programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(programmes))
	}

	dir := t.TempDir()
	outPath := filepath.Join(dir, "ttx-"+chID+".xml")
	ch := xmltv.Channel{ID: chID, DisplayName: "Das Erste"}
	wrote, err := mergeAndWrite(outPath, outPath, ch, programmes, time.Time{}, m)
	if err != nil || !wrote {
		t.Fatalf("mergeAndWrite: wrote=%v err=%v", wrote, err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected XMLTV file to exist: %v", err)
	}
}
