package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/infra/journal"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
)

// runDownload runs one downloader pass and reports it
func runDownload(ctx context.Context, title string, cfg *config.Download, tasks []model.DownloadTask) (*model.DownloadReport, error) {
	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := j.Close(); err != nil {
			ctxlog.From(ctx).Warn("failed to close journal", "error", err)
		}
	}()

	d := usecase.NewDownloader(cfg.NewFetcher(), j, usecase.WithRunID(runIDFrom(ctx)))
	report, err := d.Run(ctx, tasks, cfg.Options())

	if report != nil {
		s := newSummary(title).
			add("tasks", len(tasks)).
			add("downloaded", len(report.Downloaded)).
			add("already present", len(report.Skipped)).
			add("failed", len(report.Failed)).
			add("requests", report.Requests).
			add("directory", cfg.Dir)
		if err != nil || len(report.Failed) > 0 {
			s.fail()
		}
		s.report(ctx)
	}
	return report, err
}
