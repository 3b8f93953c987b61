// Package journal appends downloader progress to a JSON-lines file.
package journal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

// Journal implements interfaces.DownloadJournal. Each entry becomes one JSON
// object per line and existing content is never rewritten.
type Journal struct {
	mu     sync.Mutex
	out    *errWriter
	closer io.Closer
	logger *slog.Logger
}

// errWriter keeps the last write error, which slog handlers drop
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

// Open appends to path, creating the file and its directory if needed
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create journal directory", goerr.V("dir", dir))
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open journal", goerr.V("path", path))
	}

	j := New(f)
	j.closer = f
	return j, nil
}

// New writes entries to w
func New(w io.Writer) *Journal {
	out := &errWriter{w: w}
	return &Journal{
		out:    out,
		logger: slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// Record appends one entry and returns the write error, if any
func (j *Journal) Record(ctx context.Context, entry model.DownloadEntry) error {
	attrs := []slog.Attr{
		slog.String("run_id", entry.RunID),
		slog.String("status", string(entry.Status)),
		slog.String("id", entry.RecordID),
		slog.String("filename", entry.Filename),
		slog.String("url", entry.URL),
		slog.Int("attempt", entry.Attempt),
	}
	if entry.Bytes > 0 {
		attrs = append(attrs, slog.Int64("bytes", entry.Bytes))
	}
	if entry.Elapsed > 0 {
		attrs = append(attrs, slog.Float64("elapsed_sec", entry.Elapsed.Seconds()))
	}
	if entry.Reason != "" {
		attrs = append(attrs, slog.String("reason", entry.Reason))
	}

	level := slog.LevelInfo
	switch entry.Status {
	case model.DownloadStatusFailure:
		level = slog.LevelError
	case model.DownloadStatusRetry:
		level = slog.LevelWarn
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.out.err = nil
	j.logger.LogAttrs(ctx, level, "download", attrs...)
	if j.out.err != nil {
		return goerr.Wrap(j.out.err, "failed to write journal entry",
			goerr.V("filename", entry.Filename),
			goerr.V("status", entry.Status))
	}
	return nil
}

// Close releases the underlying file, if any
func (j *Journal) Close() error {
	if j.closer == nil {
		return nil
	}
	if err := j.closer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close journal")
	}
	return nil
}
