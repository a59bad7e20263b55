package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheckMetricsEndpoint_ok(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	if err := CheckMetricsEndpoint(context.Background(), srv.URL); err != nil {
		t.Fatalf("CheckMetricsEndpoint: %v", err)
	}
}

func TestCheckMetricsEndpoint_badStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if err := CheckMetricsEndpoint(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestCheckMetricsEndpoint_emptyURL(t *testing.T) {
	if err := CheckMetricsEndpoint(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestCheckOutputFresh_ok(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ttx-100.xml")
	if err := os.WriteFile(p, []byte("<tv></tv>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckOutputFresh(p, time.Hour); err != nil {
		t.Fatalf("CheckOutputFresh: %v", err)
	}
}

func TestCheckOutputFresh_missing(t *testing.T) {
	dir := t.TempDir()
	if err := CheckOutputFresh(filepath.Join(dir, "missing.xml"), time.Hour); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCheckOutputFresh_stale(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ttx-100.xml")
	if err := os.WriteFile(p, []byte("<tv></tv>"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatal(err)
	}
	if err := CheckOutputFresh(p, time.Hour); err == nil {
		t.Fatal("expected stale-file error")
	}
}
