package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdThumbnails() *cli.Command {
	var input string
	dlCfg := config.NewThumbnailDownload()

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Filtered snapshot",
			Value:       "openaerial_filtered.csv",
			Destination: &input,
			Sources:     cli.EnvVars("OAMFETCH_FILTERED"),
		},
	}, dlCfg.Flags()...)

	return &cli.Command{
		Name:    "thumbnails",
		Aliases: []string{"t"},
		Usage:   "Download preview images for every record of a snapshot",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			snap, err := table.ReadSnapshot(input)
			if err != nil {
				return err
			}

			tasks := usecase.ThumbnailTasks(snap)
			ctxlog.From(ctx).Info("prepared thumbnail tasks",
				"records", snap.Len(),
				"tasks", len(tasks),
			)

			_, err = runDownload(ctx, "Thumbnail download", dlCfg, tasks)
			return err
		},
	}
}
