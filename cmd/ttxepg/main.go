// Command ttxepg is the tv_grab_ttx-style acquisition-core CLI: it reads a
// previously captured teletext page database (a raw dump, or a sqlite
// snapshot left by an earlier run), scrapes programme slots from the
// configured overview-page range, merges them into any prior XMLTV output
// for the channel, and atomically replaces that file. Run with -supervisor
// to instead fan out a fleet of these same child processes per
// internal/supervisor's config format.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/snapetech/ttxepg/internal/config"
	"github.com/snapetech/ttxepg/internal/epgscrape"
	"github.com/snapetech/ttxepg/internal/health"
	"github.com/snapetech/ttxepg/internal/metrics"
	"github.com/snapetech/ttxepg/internal/ratelimit"
	"github.com/snapetech/ttxepg/internal/supervisor"
	"github.com/snapetech/ttxepg/internal/ttxdb"
	"github.com/snapetech/ttxepg/internal/xmltv"
)

func main() {
	cfg := config.Load()

	supervisorConfig := flag.String("supervisor", "", "run as a supervisor over the instance fleet described by this JSON config, instead of grabbing once")
	dbPath := flag.String("db", cfg.DBPath, "sqlite page-database path; empty keeps the capture in memory for this run only")
	dumpPath := flag.String("dump", "", "raw page-database dump to import before scraping (.br suffix brotli-decompresses)")
	out := flag.String("out", cfg.OutputDir, "output directory (or full .xml path) for the merged XMLTV file")
	keepDump := flag.Bool("keep-dump", cfg.KeepRawDump, "write a sibling raw dump of the captured pages alongside the XMLTV file")
	dumpCompress := flag.Bool("dump-compress", cfg.DumpCompress, "brotli-compress the sibling raw dump (.dat.br)")
	ovStart := flag.Int("ov-start", cfg.OverviewPageStart, "first overview page number (e.g. 0x300)")
	ovEnd := flag.Int("ov-end", cfg.OverviewPageEnd, "last overview page number (e.g. 0x399)")
	expireMin := flag.Int("expire-min", cfg.ExpireMinutes, "minutes after a programme's end before it is dropped")
	channelName := flag.String("channel", cfg.ChannelName, "channel display name (also used to derive the analog channel id when -channel-id is empty)")
	channelID := flag.String("channel-id", cfg.ChannelID, "channel id override; defaults to a sanitized form of -channel")
	serviceID := flag.Int("service-id", 0, "DVB service id; when >0, overrides -channel-id with SID_<service-id>")
	mergeInput := flag.String("merge-input", cfg.MergeInputPath, "prior XMLTV file to merge against; defaults to <out>/ttx-<channel-id>.xml")
	verbose := flag.Int("verbose", cfg.Verbosity, "verbosity level 0..9")
	verify := flag.Bool("verify", false, "re-import the written raw dump and report whether it round-trips, then exit")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on (e.g. :9108); empty disables")
	healthCheck := flag.Bool("healthcheck", false, "check that the XMLTV output is fresh and exit (for supervisors/liveness probes)")
	healthMaxAge := flag.Duration("healthcheck-max-age", 30*time.Minute, "max XMLTV output staleness healthcheck tolerates")
	flag.Parse()

	if *supervisorConfig != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			cancel()
		}()
		if err := supervisor.Run(ctx, *supervisorConfig); err != nil {
			log.Fatalf("supervisor: %v", err)
		}
		return
	}

	outPath := *out
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outPath = filepath.Join(outPath, "ttx-"+resolveChannelID(*channelID, *channelName, *serviceID)+".xml")
	}

	if *healthCheck {
		if err := health.CheckOutputFresh(outPath, *healthMaxAge); err != nil {
			log.Fatalf("healthcheck: %v", err)
		}
		fmt.Println("ok")
		return
	}

	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, m.Handler()); err != nil {
				log.Printf("metrics: %v", err)
			}
		}()
	}

	db := ttxdb.New()
	if *dbPath != "" {
		if store, err := ttxdb.OpenStore(*dbPath); err == nil {
			if loaded, err := store.Load(); err == nil {
				db = loaded
			}
			store.Close()
		} else if *verbose > 0 {
			log.Printf("ttxepg: open store %s: %v", *dbPath, err)
		}
	}
	if *dumpPath != "" {
		if err := db.ImportFromFile(*dumpPath); err != nil {
			log.Fatalf("import dump %s: %v", *dumpPath, err)
		}
	}

	descLimiter := ratelimit.New(cfg.DescFetchRatePerSec, 1)
	overviewPages := pageRange(uint16(*ovStart), uint16(*ovEnd))
	pages := epgscrape.Scrape(db, overviewPages, *expireMin, time.Now(), m, descLimiter)

	chID := resolveChannelID(*channelID, *channelName, *serviceID)
	ch := xmltv.Channel{ID: chID, DisplayName: *channelName}
	programmes := flattenProgrammes(pages, chID)

	mergeFrom := *mergeInput
	if mergeFrom == "" {
		mergeFrom = outPath
	}
	expireBefore := time.Now().Add(-time.Duration(*expireMin) * time.Minute)
	wrote, err := mergeAndWrite(mergeFrom, outPath, ch, programmes, expireBefore, m)
	if err != nil {
		log.Fatalf("write XMLTV: %v", err)
	}
	if *verbose > 0 {
		log.Printf("ttxepg: channel=%s programmes=%d wrote=%v out=%s", chID, len(programmes), wrote, outPath)
	}

	if *keepDump {
		dumpOut := outPath + ".dat"
		if *dumpCompress {
			dumpOut += ".br"
		}
		if err := db.DumpToFile(dumpOut); err != nil {
			log.Printf("ttxepg: keep-dump %s: %v", dumpOut, err)
		} else if *verify {
			verifyDB := ttxdb.New()
			if err := verifyDB.ImportFromFile(dumpOut); err != nil {
				log.Fatalf("verify: reimport %s: %v", dumpOut, err)
			}
			log.Printf("ttxepg: verify ok, dump round-trips (%s)", dumpOut)
		}
	}

	if *dbPath != "" {
		store, err := ttxdb.OpenStore(*dbPath)
		if err != nil {
			log.Printf("ttxepg: reopen store %s for save: %v", *dbPath, err)
			return
		}
		defer store.Close()
		if err := store.Save(db); err != nil {
			log.Printf("ttxepg: save store %s: %v", *dbPath, err)
		}
	}
}

// mergeAndWrite loads mergeFrom as the prior XMLTV state (which may be the
// same path WriteMerged is about to replace) and delegates to
// xmltv.WriteMerged for the atomic merge-and-rename.
func mergeAndWrite(mergeFrom, outPath string, ch xmltv.Channel, programmes []xmltv.Programme, expireBefore time.Time, m *metrics.Metrics) (bool, error) {
	if mergeFrom != outPath {
		if f, err := os.Open(mergeFrom); err == nil {
			_, old, decErr := xmltv.Decode(f)
			f.Close()
			if decErr == nil {
				programmes = xmltv.Merge(programmes, old, expireBefore)
			}
		}
	}
	return xmltv.WriteMerged(outPath, ch, programmes, expireBefore, m)
}

func resolveChannelID(channelID, channelName string, serviceID int) string {
	if serviceID > 0 {
		return xmltv.DVBChannelID(serviceID)
	}
	if channelID != "" {
		return channelID
	}
	return xmltv.AnalogChannelID(channelName)
}

func pageRange(start, end uint16) []uint16 {
	if end < start {
		start, end = end, start
	}
	var out []uint16
	for p := start; p <= end; p++ {
		out = append(out, p)
		if p == 0xffff {
			break
		}
	}
	return out
}

// flattenProgrammes converts every scraped slot into an xmltv.Programme,
// mapping feature tags onto the video/audio/subtitles elements the way
// nxtvepg's own XMLTV exporter does.
func flattenProgrammes(pages []*epgscrape.Page, channelID string) []xmltv.Programme {
	var out []xmltv.Programme
	for _, p := range pages {
		for _, s := range p.Slots {
			if s.Skip {
				continue
			}
			prog := xmltv.Programme{
				Start:       s.Start,
				Stop:        s.Stop,
				HasStop:     !s.Stop.IsZero(),
				Channel:     channelID,
				Title:       s.Title,
				Subtitle:    s.Subtitle,
				Description: s.Description,
			}
			applyFeatures(&prog, s.Features)
			out = append(out, prog)
		}
	}
	return out
}

func applyFeatures(p *xmltv.Programme, feat epgscrape.Feature) {
	switch {
	case feat.Has(epgscrape.Feat169):
		p.Video = "16:9"
	case feat.Has(epgscrape.FeatBW):
		p.Video = "monochrome"
	case feat.Has(epgscrape.FeatHD):
		p.Video = "HDTV"
	}
	switch {
	case feat.Has(epgscrape.FeatDolby):
		p.Audio = "dolby digital"
	case feat.Has(epgscrape.FeatTwoChan):
		p.Audio = "bilingual"
	case feat.Has(epgscrape.FeatStereo):
		p.Audio = "stereo"
	case feat.Has(epgscrape.FeatMono):
		p.Audio = "mono"
	}
	if feat.Has(epgscrape.FeatSubtitles) || feat.Has(epgscrape.FeatOMU) {
		p.SubtitleType = "teletext"
	}
}
