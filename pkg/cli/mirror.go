package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdMirror() *cli.Command {
	var (
		storageCfg config.Storage
		dir        string
	)

	flags := append(storageCfg.Flags(),
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Local directory to mirror",
			Value:       "assets",
			Destination: &dir,
			Sources:     cli.EnvVars("OAMFETCH_MIRROR_DIR"),
		},
	)

	return &cli.Command{
		Name:    "mirror",
		Aliases: []string{"m"},
		Usage:   "Upload downloaded files to a Cloud Storage bucket",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := storageCfg.NewStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					ctxlog.From(ctx).Warn("failed to close storage client", "error", err)
				}
			}()

			result, err := usecase.NewMirror(store).Run(ctx, dir)
			if result != nil {
				s := newSummary("Bucket mirror").
					add("uploaded", len(result.Uploaded)).
					add("already present", len(result.Skipped)).
					add("failed", len(result.Failed))
				if err != nil || len(result.Failed) > 0 {
					s.fail()
				}
				s.report(ctx)
			}
			if err != nil {
				return err
			}
			if len(result.Failed) > 0 {
				return goerr.New("some files were not mirrored", goerr.V("failed", len(result.Failed)))
			}
			return nil
		},
	}
}
