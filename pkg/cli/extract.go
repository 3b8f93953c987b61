package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdExtract() *cli.Command {
	var (
		catalogCfg config.Catalog
		output     string
	)

	flags := append(catalogCfg.Flags(),
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Snapshot file to write",
			Value:       "openaerial_data.csv",
			Destination: &output,
			Sources:     cli.EnvVars("OAMFETCH_SNAPSHOT"),
		},
	)

	return &cli.Command{
		Name:    "extract",
		Aliases: []string{"e"},
		Usage:   "Page through the imagery catalog and write a snapshot",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)
			logger.Info("starting extraction", "endpoint", catalogCfg.Endpoint, "output", output)

			extractor := usecase.NewExtractor(catalogCfg.NewClient(), catalogCfg.ExtractOptions())
			result, err := extractor.Run(ctx, output)

			if result != nil {
				s := newSummary("Catalog extraction").
					add("pages", result.Pages).
					add("catalog records", result.Found).
					add("saved records", result.Records).
					add("dropped", result.Dropped).
					add("snapshot", result.Output)
				if !result.Complete {
					s.fail()
				}
				s.report(ctx)
			}
			return err
		},
	}
}
