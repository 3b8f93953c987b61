package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

// DownloadOptions controls one downloader pass
type DownloadOptions struct {
	Dir          string
	SkipExisting bool
	Delay        time.Duration // Minimum spacing between fetch starts
	Attempts     int           // Tries per task for transient failures
}

// Downloader fetches tasks sequentially into a directory
type Downloader struct {
	fetcher interfaces.AssetFetcher
	journal interfaces.DownloadJournal
	runID   string
}

// DownloaderOption configures Downloader
type DownloaderOption func(*Downloader)

// WithRunID tags journal entries with the run identifier
func WithRunID(id string) DownloaderOption {
	return func(d *Downloader) {
		d.runID = id
	}
}

// NewDownloader creates a Downloader
func NewDownloader(fetcher interfaces.AssetFetcher, journal interfaces.DownloadJournal, opts ...DownloaderOption) *Downloader {
	d := &Downloader{fetcher: fetcher, journal: journal}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run downloads every task not already present. Per-task failures, including
// tasks with an unsafe filename or no URL, are journaled and skipped. Only
// identity collisions, an unusable directory or cancellation abort the pass.
func (d *Downloader) Run(ctx context.Context, tasks []model.DownloadTask, opts DownloadOptions) (*model.DownloadReport, error) {
	logger := ctxlog.From(ctx)
	report := &model.DownloadReport{}

	if err := ValidateTasks(tasks); err != nil {
		return report, err
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return report, goerr.Wrap(err, "failed to create download directory", goerr.V("dir", opts.Dir), goerr.T(types.ErrTagConfig))
	}
	purged, err := safefile.PurgePartials(opts.Dir)
	if err != nil {
		return report, goerr.Wrap(err, "failed to purge partial files", goerr.V("dir", opts.Dir))
	}
	if len(purged) > 0 {
		logger.Info("purged partial files from previous run", "count", len(purged))
	}

	throttle := newThrottle(opts.Delay)

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, goerr.Wrap(err, "download interrupted", goerr.V("done", i), goerr.V("total", len(tasks)))
		}

		if reason := TaskDefect(task); reason != "" {
			report.Failed = append(report.Failed, task)
			d.record(ctx, task, model.DownloadStatusFailure, 0, 0, 0, reason)
			logger.Warn("excluded invalid task", "id", task.RecordID, "filename", task.Filename, "reason", reason)
			continue
		}

		dest := filepath.Join(opts.Dir, task.Filename)
		if opts.SkipExisting && isComplete(dest) {
			report.Skipped = append(report.Skipped, task)
			d.record(ctx, task, model.DownloadStatusSkip, 0, 0, 0, "")
			continue
		}

		ok, err := d.fetchTask(ctx, task, dest, opts.Attempts, throttle.Wait, report)
		if err != nil {
			return report, err
		}
		if ok {
			report.Downloaded = append(report.Downloaded, task)
		} else {
			report.Failed = append(report.Failed, task)
		}

		if (i+1)%25 == 0 {
			logger.Info("download progress",
				"done", i+1,
				"total", len(tasks),
				"downloaded", len(report.Downloaded),
				"skipped", len(report.Skipped),
				"failed", len(report.Failed),
			)
		}
	}

	return report, nil
}

// fetchTask runs the attempts of one task. The returned error is non-nil only
// when the pass must stop.
func (d *Downloader) fetchTask(ctx context.Context, task model.DownloadTask, dest string, attempts int, wait func(context.Context) error, report *model.DownloadReport) (bool, error) {
	logger := ctxlog.From(ctx)

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := wait(ctx); err != nil {
			return false, goerr.Wrap(err, "download interrupted", goerr.V("filename", task.Filename))
		}

		report.Requests++
		started := time.Now()
		var written int64
		err := safefile.WriteAtomic(dest, func(w io.Writer) error {
			n, err := d.fetcher.Fetch(ctx, task.URL, w)
			written = n
			if err != nil {
				return err
			}
			if n == 0 {
				return goerr.New("empty response body", goerr.V("url", task.URL), goerr.T(types.ErrTagIntegrity))
			}
			return nil
		})
		elapsed := time.Since(started)

		if err == nil {
			d.record(ctx, task, model.DownloadStatusSuccess, attempt, written, elapsed, "")
			logger.Debug("downloaded", "filename", task.Filename, "bytes", written, "elapsed", elapsed)
			return true, nil
		}

		if attempt < attempts && goerr.HasTag(err, types.ErrTagTransient) && ctx.Err() == nil {
			d.record(ctx, task, model.DownloadStatusRetry, attempt, written, elapsed, err.Error())
			logger.Warn("retrying download", "filename", task.Filename, "attempt", attempt, "error", err)
			continue
		}

		d.record(ctx, task, model.DownloadStatusFailure, attempt, written, elapsed, err.Error())
		logger.Warn("failed to download", "filename", task.Filename, "url", task.URL, "error", err)
		return false, nil
	}

	return false, nil
}

func (d *Downloader) record(ctx context.Context, task model.DownloadTask, status model.DownloadStatus, attempt int, bytes int64, elapsed time.Duration, reason string) {
	if d.journal == nil {
		return
	}
	entry := model.DownloadEntry{
		RunID:    d.runID,
		Status:   status,
		RecordID: task.RecordID,
		Filename: task.Filename,
		URL:      task.URL,
		Attempt:  attempt,
		Bytes:    bytes,
		Reason:   reason,
		Elapsed:  elapsed,
	}
	if err := d.journal.Record(ctx, entry); err != nil {
		ctxlog.From(ctx).Error("failed to write journal entry", "filename", task.Filename, "error", err)
	}
}

// isComplete reports whether a non-empty regular file exists at path
func isComplete(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// TaskDefect returns why a single task cannot be downloaded, or "" when it can
func TaskDefect(t model.DownloadTask) string {
	if !model.IsSafeFilename(t.Filename) {
		return "unsafe filename"
	}
	if strings.TrimSpace(t.URL) == "" {
		return "task has no url"
	}
	return ""
}

// ValidateTasks rejects task lists in which two tasks share a record ID or a
// filename. Tasks with a defect are left to Run.
func ValidateTasks(tasks []model.DownloadTask) error {
	ids := make(map[string]int, len(tasks))
	names := make(map[string]int, len(tasks))

	for i, t := range tasks {
		if TaskDefect(t) != "" {
			continue
		}
		if t.RecordID != "" {
			if prev, ok := ids[t.RecordID]; ok {
				return goerr.New("duplicate record id in task list",
					goerr.V("id", t.RecordID),
					goerr.V("first", prev),
					goerr.V("second", i),
					goerr.T(types.ErrTagIntegrity))
			}
			ids[t.RecordID] = i
		}
		key := strings.ToLower(t.Filename)
		if prev, ok := names[key]; ok {
			return goerr.New("duplicate filename in task list",
				goerr.V("filename", t.Filename),
				goerr.V("first", prev),
				goerr.V("second", i),
				goerr.T(types.ErrTagIntegrity))
		}
		names[key] = i
	}
	return nil
}

// ThumbnailTasks lists the preview images of every record that has one
func ThumbnailTasks(snap *model.Snapshot) []model.DownloadTask {
	var tasks []model.DownloadTask
	for _, r := range snap.Records {
		if r.ThumbnailURL == "" {
			continue
		}
		tasks = append(tasks, model.DownloadTask{
			RecordID: r.ID,
			URL:      r.ThumbnailURL,
			Filename: model.AssetFilename(r.ID, r.ThumbnailURL, ".png"),
		})
	}
	return tasks
}

// AssetTasks lists full-resolution files for records whose ID is curated, in
// snapshot order. Curated IDs absent from the snapshot are returned as missing.
func AssetTasks(snap *model.Snapshot, curated map[string]struct{}) (tasks []model.DownloadTask, missing []string) {
	found := make(map[string]struct{}, len(curated))
	for _, r := range snap.Records {
		if _, ok := curated[r.ID]; !ok {
			continue
		}
		if _, dup := found[r.ID]; dup {
			continue
		}
		found[r.ID] = struct{}{}
		if r.AssetURL == "" {
			missing = append(missing, r.ID)
			continue
		}
		tasks = append(tasks, model.DownloadTask{
			RecordID: r.ID,
			URL:      r.AssetURL,
			Filename: model.AssetFilename(r.ID, r.AssetURL, ".tif"),
		})
	}

	for id := range curated {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return tasks, missing
}

// CuratedIDs reads the record IDs of the thumbnails left in dir after review
func CuratedIDs(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read curated directory", goerr.V("dir", dir), goerr.T(types.ErrTagConfig))
	}

	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids[model.IDFromFilename(e.Name())] = struct{}{}
	}
	return ids, nil
}
