// Package metrics exposes the acquisition core's Prometheus counters and
// gauges: codec-level rejects, ring-buffer drops, CNI confirmations, scraper
// parse misses, XMLTV merge outcomes, and the scan controller's live
// progress. cmd/ttxepg registers these against its own registry and serves
// them on the configured metrics address.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every exported series behind one struct so cmd/ttxepg can
// pass a single value down through the acquisition pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	HammingRejects      prometheus.Counter
	ParityRejects       prometheus.Counter
	RingBufferDrops     prometheus.Counter
	CNIConfirmed        *prometheus.CounterVec // labeled by source: "vps", "packet_8_30_1", "packet_8_30_2", "scan"
	ScraperParseMisses  prometheus.Counter
	ProgrammesMerged    prometheus.Counter
	ProgrammesExpired   prometheus.Counter

	ScanFractionDone      prometheus.Gauge
	ChannelsWithSignal    prometheus.Gauge
	ChannelsWithTeletext  prometheus.Gauge
}

// New creates a fresh registry and registers every series on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HammingRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "codec", Name: "hamming_rejects_total",
			Help: "Hamming-8/4 decodes that hit an uncorrectable double error.",
		}),
		ParityRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "codec", Name: "parity_rejects_total",
			Help: "Odd-parity decodes that failed.",
		}),
		RingBufferDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "acquisition", Name: "ring_buffer_overwrites_total",
			Help: "Packets dropped because the ring buffer overwrote an unread slot.",
		}),
		CNIConfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "cni", Name: "confirmations_total",
			Help: "CNI confirmations, labeled by the source that supplied them.",
		}, []string{"source"}),
		ScraperParseMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "scrape", Name: "parse_misses_total",
			Help: "Overview pages skipped because no date/time/title pattern matched.",
		}),
		ProgrammesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "xmltv", Name: "programmes_merged_total",
			Help: "Programmes written to an XMLTV file across all merges.",
		}),
		ProgrammesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ttxepg", Subsystem: "xmltv", Name: "programmes_expired_total",
			Help: "Previously imported programmes dropped for being past their expiry threshold.",
		}),
		ScanFractionDone: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ttxepg", Subsystem: "scan", Name: "fraction_done",
			Help: "Fraction of the configured channel list scanned so far (0..1).",
		}),
		ChannelsWithSignal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ttxepg", Subsystem: "scan", Name: "channels_with_signal",
			Help: "Channels scanned so far that showed a video/DVB signal.",
		}),
		ChannelsWithTeletext: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ttxepg", Subsystem: "scan", Name: "channels_with_teletext",
			Help: "Channels scanned so far that showed teletext packets.",
		}),
	}

	reg.MustRegister(
		m.HammingRejects, m.ParityRejects, m.RingBufferDrops, m.CNIConfirmed,
		m.ScraperParseMisses, m.ProgrammesMerged, m.ProgrammesExpired,
		m.ScanFractionDone, m.ChannelsWithSignal, m.ChannelsWithTeletext,
	)
	return m
}
