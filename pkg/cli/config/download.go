package config

import (
	"path/filepath"
	"time"

	"github.com/m-mizutani/oamfetch/pkg/infra/web"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Download holds downloader configuration. The same flags serve the
// thumbnail and asset passes with different defaults.
type Download struct {
	Dir      string
	Journal  string
	Delay    time.Duration
	Attempts int
	Timeout  time.Duration
	NoSkip   bool

	envPrefix string
}

// NewThumbnailDownload returns defaults for the thumbnail pass
func NewThumbnailDownload() *Download {
	return &Download{
		Dir:       "thumbnails",
		Journal:   "logs/thumbnail_download.jsonl",
		Delay:     100 * time.Millisecond,
		Attempts:  1,
		Timeout:   30 * time.Second,
		envPrefix: "OAMFETCH_THUMBNAIL_",
	}
}

// NewAssetDownload returns defaults for the full-resolution pass
func NewAssetDownload() *Download {
	return &Download{
		Dir:       "assets",
		Journal:   "logs/asset_download.jsonl",
		Delay:     500 * time.Millisecond,
		Attempts:  1,
		Timeout:   60 * time.Second,
		envPrefix: "OAMFETCH_ASSET_",
	}
}

// Flags returns CLI flags for download configuration
func (c *Download) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Destination directory",
			Value:       c.Dir,
			Destination: &c.Dir,
			Sources:     cli.EnvVars(c.envPrefix + "DIR"),
		},
		&cli.StringFlag{
			Name:        "journal",
			Usage:       "Append-only JSON-lines progress log",
			Value:       c.Journal,
			Destination: &c.Journal,
			Sources:     cli.EnvVars(c.envPrefix + "JOURNAL"),
		},
		&cli.DurationFlag{
			Name:        "delay",
			Usage:       "Minimum spacing between request starts",
			Value:       c.Delay,
			Destination: &c.Delay,
			Sources:     cli.EnvVars(c.envPrefix + "DELAY"),
		},
		&cli.IntFlag{
			Name:        "attempts",
			Usage:       "Tries per file on transient failures",
			Value:       c.Attempts,
			Destination: &c.Attempts,
			Sources:     cli.EnvVars(c.envPrefix + "ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Per-request timeout",
			Value:       c.Timeout,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars(c.envPrefix + "TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:        "no-skip",
			Usage:       "Download files even if they already exist",
			Destination: &c.NoSkip,
			Sources:     cli.EnvVars(c.envPrefix + "NO_SKIP"),
		},
	}
}

// NewFetcher creates the HTTP fetcher
func (c *Download) NewFetcher() *web.Client {
	return web.New(web.WithTimeout(c.Timeout))
}

// Options converts the configuration for the downloader
func (c *Download) Options() usecase.DownloadOptions {
	return usecase.DownloadOptions{
		Dir:          c.Dir,
		SkipExisting: !c.NoSkip,
		Delay:        c.Delay,
		Attempts:     c.Attempts,
	}
}

// MetadataPath is the sidecar location inside the download directory
func (c *Download) MetadataPath() string {
	return filepath.Join(c.Dir, "asset_metadata.csv")
}
