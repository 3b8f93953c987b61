package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

type runIDKey struct{}

// runIDFrom returns the identifier of the current invocation
func runIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		notifyCfg config.Notify
		logger    *slog.Logger
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	app := &cli.Command{
		Name:    "oamfetch",
		Usage:   "Resumable aerial imagery acquisition pipeline",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			if err := sentryCfg.Configure(); err != nil {
				return nil, err
			}

			runID := uuid.NewString()
			logger = logger.With("run_id", runID)
			slog.SetDefault(logger)

			ctx = ctxlog.With(ctx, logger)
			ctx = context.WithValue(ctx, runIDKey{}, runID)
			ctx = withNotifier(ctx, notifyCfg.NewNotifier())
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdExtract(),
			cmdFilter(),
			cmdThumbnails(),
			cmdAssets(),
			cmdDedup(),
			cmdMirror(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentryCfg.Report(err)
		return err
	}

	return nil
}
