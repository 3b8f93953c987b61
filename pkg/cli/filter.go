package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdFilter() *cli.Command {
	var (
		filterCfg       config.Filter
		coverageCfg     config.Coverage
		input           string
		output          string
		attributeOutput string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Snapshot to filter",
			Value:       "openaerial_data.csv",
			Destination: &input,
			Sources:     cli.EnvVars("OAMFETCH_SNAPSHOT"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Filtered snapshot to write",
			Value:       "openaerial_filtered.csv",
			Destination: &output,
			Sources:     cli.EnvVars("OAMFETCH_FILTERED"),
		},
		&cli.StringFlag{
			Name:        "attribute-output",
			Usage:       "Also write the snapshot after attribute predicates only",
			Destination: &attributeOutput,
			Sources:     cli.EnvVars("OAMFETCH_ATTRIBUTE_FILTERED"),
		},
	}
	flags = append(flags, filterCfg.Flags()...)
	flags = append(flags, coverageCfg.Flags()...)

	return &cli.Command{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "Apply attribute predicates and the land-cover coverage policy",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			pred, policy, err := filterCfg.Load()
			if err != nil {
				return err
			}
			if err := policy.Validate(); err != nil {
				return goerr.Wrap(err, "invalid coverage policy")
			}

			snap, err := table.ReadSnapshot(input)
			if err != nil {
				return err
			}
			logger.Info("loaded snapshot", "path", input, "records", snap.Len())

			sampler, err := coverageCfg.NewSampler(ctx)
			if err != nil {
				return err
			}
			cache, closeCache, err := coverageCfg.NewCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			f := usecase.NewFilter(sampler, usecase.WithCoverageCache(cache))
			result, err := f.Run(ctx, snap, usecase.FilterOptions{
				Predicates:      pred,
				Policy:          policy,
				Output:          output,
				AttributeOutput: attributeOutput,
			})

			if result != nil {
				s := newSummary("Coverage filter").
					add("input records", result.Input).
					add("after attributes", result.AfterAttribute).
					add("annotated", result.Annotated).
					add("kept", result.Output)
				if result.Stats != nil {
					s.add("sampled", result.Stats.Sampled).
						add("cache hits", result.Stats.CacheHits).
						add("sampling failures", result.Stats.Failed)
				}
				if err != nil {
					s.fail()
				} else {
					s.add("snapshot", output)
				}
				s.report(ctx)
			}
			return err
		},
	}
}
