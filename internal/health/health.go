// Package health offers small liveness checks the supervisor or an
// operator can run against a ttxepg acquisition instance: is its metrics
// endpoint answering, and has it actually written a fresh XMLTV file.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// CheckMetricsEndpoint hits baseURL+"/metrics" and returns an error unless
// it answers 200 within the request's deadline.
func CheckMetricsEndpoint(ctx context.Context, baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("no metrics endpoint configured")
	}
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/metrics", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("metrics endpoint unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metrics endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// CheckOutputFresh reports an error if the XMLTV file at path does not
// exist or was not modified within maxAge -- the signal that a
// long-running acquisition instance has stalled (scan stuck, tuner lost
// signal) even though its process is still alive.
func CheckOutputFresh(path string, maxAge time.Duration) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("xmltv output missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("xmltv output is empty")
	}
	age := time.Since(info.ModTime())
	if age > maxAge {
		return fmt.Errorf("xmltv output stale: last written %s ago (max %s)", age.Round(time.Second), maxAge)
	}
	return nil
}
