package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdDedup() *cli.Command {
	var dedupCfg config.Dedup

	return &cli.Command{
		Name:    "dedup",
		Aliases: []string{"d"},
		Usage:   "Find byte-identical files and optionally remove redundant copies",
		Flags:   dedupCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)
			uc := usecase.NewDedup()

			report, err := uc.Scan(ctx, dedupCfg.Dir, dedupCfg.Ext)
			if err != nil {
				return err
			}

			if dedupCfg.Report != "" {
				f, err := os.Create(dedupCfg.Report)
				if err != nil {
					return goerr.Wrap(err, "failed to create report", goerr.V("path", dedupCfg.Report))
				}
				werr := uc.WriteReport(f, report)
				if err := f.Close(); err != nil && werr == nil {
					werr = err
				}
				if werr != nil {
					return goerr.Wrap(werr, "failed to write report", goerr.V("path", dedupCfg.Report))
				}
				logger.Info("wrote duplicate report", "path", dedupCfg.Report)
			} else if err := uc.WriteReport(os.Stdout, report); err != nil {
				return err
			}

			if dedupCfg.Remove {
				if err := uc.Remove(ctx, report); err != nil {
					return err
				}
			}

			s := newSummary("Duplicate scan").
				add("directory", report.Dir).
				add("scanned", report.Scanned).
				add("groups", len(report.Groups)).
				add("redundant files", report.RedundantCount()).
				add("unreadable", len(report.Unreadable))
			if dedupCfg.Remove {
				s.add("removed", len(report.Removed))
			}
			s.report(ctx)
			return nil
		},
	}
}
