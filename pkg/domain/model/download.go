package model

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DownloadTask is a single remote object to store under Filename
type DownloadTask struct {
	RecordID string
	URL      string
	Filename string
}

// DownloadStatus is the outcome of one attempt
type DownloadStatus string

const (
	DownloadStatusSuccess DownloadStatus = "success"
	DownloadStatusSkip    DownloadStatus = "skip"
	DownloadStatusFailure DownloadStatus = "failure"
	DownloadStatusRetry   DownloadStatus = "retry"
)

// DownloadEntry is one line of the progress journal
type DownloadEntry struct {
	RunID    string
	Status   DownloadStatus
	RecordID string
	Filename string
	URL      string
	Attempt  int
	Bytes    int64
	Reason   string
	Elapsed  time.Duration
}

// DownloadReport summarizes one downloader pass
type DownloadReport struct {
	Downloaded []DownloadTask
	Skipped    []DownloadTask
	Failed     []DownloadTask
	Requests   int // Fetch attempts issued
}

// Completed returns tasks whose file is present after the pass
func (r *DownloadReport) Completed() []DownloadTask {
	done := make([]DownloadTask, 0, len(r.Downloaded)+len(r.Skipped))
	done = append(done, r.Skipped...)
	done = append(done, r.Downloaded...)
	return done
}

// AssetFilename derives the local filename from the record identifier. The
// remote URL only contributes its extension, falling back to defaultExt.
func AssetFilename(id, rawURL, defaultExt string) string {
	ext := defaultExt
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e != "" && len(e) <= 5 {
			ext = e
		}
	}
	return id + ext
}

// IDFromFilename is the inverse of AssetFilename
func IDFromFilename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsSafeFilename rejects names that would escape the target directory
func IsSafeFilename(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
