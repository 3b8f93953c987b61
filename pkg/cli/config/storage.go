package config

import (
	"context"

	"github.com/m-mizutani/oamfetch/pkg/infra/gcs"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Storage holds Cloud Storage mirror configuration
type Storage struct {
	Bucket          string
	Prefix          string
	CredentialsFile string `masq:"secret"`
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Destination bucket",
			Required:    true,
			Destination: &c.Bucket,
			Sources:     cli.EnvVars("OAMFETCH_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix",
			Destination: &c.Prefix,
			Sources:     cli.EnvVars("OAMFETCH_GCS_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "gcs-credentials",
			Usage:       "Service account key file (application default credentials if empty)",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("OAMFETCH_GCS_CREDENTIALS"),
		},
	}
}

// NewStore creates the bucket client
func (c *Storage) NewStore(ctx context.Context) (*gcs.Store, error) {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return gcs.New(ctx, c.Bucket, c.Prefix, opts...)
}
