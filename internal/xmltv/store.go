package xmltv

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/snapetech/ttxepg/internal/metrics"
)

// GeneratorName and GeneratorURL populate the <tv> root's generator
// attributes on every file this package writes.
const (
	GeneratorName = "ttxepg"
	GeneratorURL  = "https://github.com/snapetech/ttxepg"
)

// WriteMerged loads any existing file at path, merges programmes into it,
// and atomically replaces path -- staging through "<path>.tmp" and
// renaming, so a reader never observes a partially written file. Per the
// merge rule, an empty result is never written: if the merge produces no
// programmes at all, WriteMerged removes any stale file and returns
// (false, nil). m may be nil; when set it counts merged and expired
// programmes.
func WriteMerged(path string, ch Channel, programmes []Programme, expireBefore time.Time, m *metrics.Metrics) (bool, error) {
	var old []Programme
	if f, err := os.Open(path); err == nil {
		_, oldProgs, decErr := Decode(f)
		f.Close()
		if decErr == nil {
			old = oldProgs
		}
	}

	if m != nil {
		for _, p := range old {
			end := p.Start
			if p.HasStop {
				end = p.Stop
			}
			if end.Before(expireBefore) {
				m.ProgrammesExpired.Inc()
			}
		}
	}

	merged := Merge(programmes, old, expireBefore)
	if m != nil {
		m.ProgrammesMerged.Add(float64(len(merged)))
	}
	if len(merged) == 0 {
		_ = os.Remove(path)
		return false, nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, GeneratorName, GeneratorURL, ch, merged); err != nil {
		return false, err
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}
