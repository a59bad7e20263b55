// Package archive wraps github.com/andybalholm/brotli for the one place the
// acquisition core touches compressed storage: the raw ttxdb page-database
// dump (see internal/ttxdb's Dump/Import) is large, highly repetitive
// teletext text, and compresses well. A dump path ending in ".br" is
// brotli-compressed; any other path is written/read as plain text.
package archive

import (
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
)

// Compressed reports whether path names a brotli-compressed dump.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".br")
}

// CreateDumpWriter opens path for writing and returns a writer that brotli
// in-process encodes the dump stream when path ends ".br". The returned
// closer flushes and closes both the brotli encoder (if any) and the
// underlying file; callers must always call it, even on error paths, to
// avoid leaking the open file.
func CreateDumpWriter(path string, quality int) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !Compressed(path) {
		return f, nil
	}
	var bw *brotli.Writer
	if quality <= 0 {
		bw = brotli.NewWriter(f)
	} else {
		bw = brotli.NewWriterLevel(f, quality)
	}
	return &brotliWriteCloser{bw: bw, f: f}, nil
}

// OpenDumpReader opens path for reading, transparently brotli-decoding it
// when path ends ".br".
func OpenDumpReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !Compressed(path) {
		return f, nil
	}
	return &brotliReadCloser{br: brotli.NewReader(f), f: f}, nil
}

type brotliWriteCloser struct {
	bw *brotli.Writer
	f  *os.File
}

func (w *brotliWriteCloser) Write(p []byte) (int, error) {
	return w.bw.Write(p)
}

func (w *brotliWriteCloser) Close() error {
	if err := w.bw.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

type brotliReadCloser struct {
	br *brotli.Reader
	f  *os.File
}

func (r *brotliReadCloser) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

func (r *brotliReadCloser) Close() error {
	return r.f.Close()
}
