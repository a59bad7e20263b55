package xmltv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapetech/ttxepg/internal/metrics"
)

func prog(startHour int, title string) Programme {
	base := time.Date(2026, 7, 30, startHour, 0, 0, 0, time.UTC)
	return Programme{
		Start:   base,
		Stop:    base.Add(time.Hour),
		HasStop: true,
		Channel: "SID_100",
		Title:   title,
	}
}

func TestDVBChannelID(t *testing.T) {
	if got := DVBChannelID(4711); got != "SID_4711" {
		t.Fatalf("got %q", got)
	}
}

func TestAnalogChannelID(t *testing.T) {
	if got := AnalogChannelID("ARD Eins!"); got != "ARD_Eins_" {
		t.Fatalf("got %q", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ch := Channel{ID: "SID_100", DisplayName: "Das Erste"}
	progs := []Programme{prog(20, "Tagesschau"), prog(21, "Tatort & Co")}

	var buf bytes.Buffer
	if err := Encode(&buf, GeneratorName, GeneratorURL, ch, progs); err != nil {
		t.Fatal(err)
	}

	gotCh, gotProgs, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if gotCh.ID != ch.ID {
		t.Errorf("channel id = %q", gotCh.ID)
	}
	if len(gotProgs) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(gotProgs))
	}
	if gotProgs[1].Title != "Tatort & Co" {
		t.Errorf("title round-trip = %q", gotProgs[1].Title)
	}
}

func TestMerge_newOverlapKeepsRicherOldText(t *testing.T) {
	old := prog(20, "Tagesschau")
	old.Subtitle = "mit Wetter"
	old.Description = "Die Nachrichten des Tages."

	newer := prog(20, "Tagesschau")

	out := Merge([]Programme{newer}, []Programme{old}, time.Time{})
	if len(out) != 1 {
		t.Fatalf("expected 1 merged programme, got %d", len(out))
	}
	if out[0].Subtitle != "mit Wetter" || out[0].Description == "" {
		t.Errorf("expected old subtitle/description to carry over, got %+v", out[0])
	}
}

func TestMerge_expiresOldProgrammes(t *testing.T) {
	old := prog(8, "Fruehstuecksfernsehen")
	cutoff := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	out := Merge(nil, []Programme{old}, cutoff)
	if len(out) != 0 {
		t.Fatalf("expected expired programme dropped, got %d", len(out))
	}
}

func TestMerge_appendsUnoverlappingOld(t *testing.T) {
	old := prog(23, "Nachtprogramm")
	newer := prog(20, "Tagesschau")

	out := Merge([]Programme{newer}, []Programme{old}, time.Time{})
	if len(out) != 2 {
		t.Fatalf("expected both programmes kept, got %d", len(out))
	}
}

func TestWriteMerged_roundTripsThroughDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ttx-100.xml")
	ch := Channel{ID: "SID_100", DisplayName: "Das Erste"}

	m := metrics.New()
	wrote, err := WriteMerged(path, ch, []Programme{prog(20, "Tagesschau")}, time.Time{}, m)
	if err != nil || !wrote {
		t.Fatalf("first write: wrote=%v err=%v", wrote, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); err == nil {
		t.Fatalf("temp file should not remain after rename")
	}

	// A far-future expiry cutoff expires the just-written programme, so a
	// second merge with no new input leaves nothing to write.
	farFuture := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	wrote, err = WriteMerged(path, ch, nil, farFuture, m)
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Fatalf("empty merge result should report wrote=false")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed on empty merge, stat err=%v", err)
	}

	mfs, gErr := m.Registry.Gather()
	if gErr != nil {
		t.Fatal(gErr)
	}
	if len(mfs) == 0 {
		t.Fatal("expected merged/expired counters to be registered")
	}
}
