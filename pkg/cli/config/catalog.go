package config

import (
	"time"

	"github.com/m-mizutani/oamfetch/pkg/infra/oam"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Catalog holds catalog extraction configuration
type Catalog struct {
	Endpoint  string
	PageSize  int
	MaxPages  int
	Attempts  int
	RetryWait time.Duration
	Delay     time.Duration
	Timeout   time.Duration
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog-endpoint",
			Usage:       "Catalog metadata endpoint",
			Value:       oam.DefaultEndpoint,
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("OAMFETCH_CATALOG_ENDPOINT"),
		},
		&cli.IntFlag{
			Name:        "page-size",
			Usage:       "Records per page (0 uses the catalog default)",
			Value:       0,
			Destination: &c.PageSize,
			Sources:     cli.EnvVars("OAMFETCH_PAGE_SIZE"),
		},
		&cli.IntFlag{
			Name:        "max-pages",
			Usage:       "Stop after this many pages (0 for all)",
			Value:       0,
			Destination: &c.MaxPages,
			Sources:     cli.EnvVars("OAMFETCH_MAX_PAGES"),
		},
		&cli.IntFlag{
			Name:        "attempts",
			Usage:       "Tries per page on transient failures",
			Value:       3,
			Destination: &c.Attempts,
			Sources:     cli.EnvVars("OAMFETCH_CATALOG_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "retry-wait",
			Usage:       "Wait between tries of the same page",
			Value:       time.Second,
			Destination: &c.RetryWait,
			Sources:     cli.EnvVars("OAMFETCH_CATALOG_RETRY_WAIT"),
		},
		&cli.DurationFlag{
			Name:        "delay",
			Usage:       "Minimum spacing between page requests",
			Value:       500 * time.Millisecond,
			Destination: &c.Delay,
			Sources:     cli.EnvVars("OAMFETCH_CATALOG_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Per-request timeout",
			Value:       30 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("OAMFETCH_CATALOG_TIMEOUT"),
		},
	}
}

// NewClient creates the catalog client
func (c *Catalog) NewClient() *oam.Client {
	return oam.New(oam.WithEndpoint(c.Endpoint), oam.WithTimeout(c.Timeout))
}

// ExtractOptions converts the configuration for the extractor
func (c *Catalog) ExtractOptions() usecase.ExtractOptions {
	return usecase.ExtractOptions{
		PageSize:  c.PageSize,
		MaxPages:  c.MaxPages,
		Attempts:  c.Attempts,
		RetryWait: c.RetryWait,
		Delay:     c.Delay,
	}
}
