package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdAssets() *cli.Command {
	var (
		input         string
		thumbnailsDir string
	)
	dlCfg := config.NewAssetDownload()

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Filtered snapshot",
			Value:       "openaerial_filtered.csv",
			Destination: &input,
			Sources:     cli.EnvVars("OAMFETCH_FILTERED"),
		},
		&cli.StringFlag{
			Name:        "thumbnails-dir",
			Usage:       "Curated thumbnail directory selecting which assets to fetch",
			Value:       "thumbnails",
			Destination: &thumbnailsDir,
			Sources:     cli.EnvVars("OAMFETCH_THUMBNAIL_DIR"),
		},
	}, dlCfg.Flags()...)

	return &cli.Command{
		Name:    "assets",
		Aliases: []string{"a"},
		Usage:   "Download full-resolution GeoTIFFs for curated thumbnails",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			snap, err := table.ReadSnapshot(input)
			if err != nil {
				return err
			}
			curated, err := usecase.CuratedIDs(thumbnailsDir)
			if err != nil {
				return err
			}

			tasks, missing := usecase.AssetTasks(snap, curated)
			if len(missing) > 0 {
				logger.Warn("curated thumbnails without a snapshot record",
					"count", len(missing),
					"ids", missing,
				)
			}
			logger.Info("prepared asset tasks", "curated", len(curated), "tasks", len(tasks))

			report, runErr := runDownload(ctx, "Asset download", dlCfg, tasks)
			if report == nil {
				return runErr
			}

			// Record whatever completed, even after an interruption
			if _, err := usecase.UpdateMetadata(ctx, dlCfg.MetadataPath(), snap, report.Completed()); err != nil {
				if runErr != nil {
					logger.Error("failed to update asset metadata", "error", err)
					return runErr
				}
				return err
			}
			return runErr
		},
	}
}
