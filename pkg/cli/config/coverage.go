package config

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/infra/coveragecache"
	"github.com/m-mizutani/oamfetch/pkg/infra/earthengine"
	"github.com/m-mizutani/oamfetch/pkg/infra/firestore"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Coverage holds raster sampling and coverage cache configuration
type Coverage struct {
	Project         string
	CredentialsFile string `masq:"secret"`
	Dataset         string
	Band            string
	Classes         []int
	Scale           float64

	CacheFile           string
	FirestoreProjectID  string
	FirestoreDatabaseID string
	FirestoreCollection string
}

// Flags returns CLI flags for coverage configuration
func (c *Coverage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "ee-project",
			Usage:       "Google Cloud project registered for Earth Engine",
			Required:    true,
			Destination: &c.Project,
			Sources:     cli.EnvVars("OAMFETCH_EE_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "ee-credentials",
			Usage:       "Service account key file (application default credentials if empty)",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("OAMFETCH_EE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS"),
		},
		&cli.StringFlag{
			Name:        "ee-dataset",
			Usage:       "Land-cover image asset",
			Value:       earthengine.DefaultDataset,
			Destination: &c.Dataset,
			Sources:     cli.EnvVars("OAMFETCH_EE_DATASET"),
		},
		&cli.StringFlag{
			Name:        "ee-band",
			Usage:       "Class band of the land-cover image",
			Value:       earthengine.DefaultBand,
			Destination: &c.Band,
			Sources:     cli.EnvVars("OAMFETCH_EE_BAND"),
		},
		&cli.IntSliceFlag{
			Name:        "ee-class",
			Usage:       "Land-cover class counted as coverage, repeatable",
			Value:       []int{10, 95},
			Destination: &c.Classes,
			Sources:     cli.EnvVars("OAMFETCH_EE_CLASSES"),
		},
		&cli.FloatFlag{
			Name:        "ee-scale",
			Usage:       "Reduction scale in metres",
			Value:       earthengine.DefaultScale,
			Destination: &c.Scale,
			Sources:     cli.EnvVars("OAMFETCH_EE_SCALE"),
		},
		&cli.StringFlag{
			Name:        "coverage-cache",
			Usage:       "Local JSON cache of coverage per footprint",
			Value:       "coverage_cache.json",
			Destination: &c.CacheFile,
			Sources:     cli.EnvVars("OAMFETCH_COVERAGE_CACHE"),
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Use a Firestore coverage cache in this project instead of the local file",
			Destination: &c.FirestoreProjectID,
			Sources:     cli.EnvVars("OAMFETCH_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Destination: &c.FirestoreDatabaseID,
			Sources:     cli.EnvVars("OAMFETCH_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection for coverage documents",
			Value:       firestore.DefaultCollection,
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("OAMFETCH_FIRESTORE_COLLECTION"),
		},
	}
}

func (c *Coverage) clientOptions() []option.ClientOption {
	if c.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
}

// NewSampler creates the Earth Engine sampler
func (c *Coverage) NewSampler(ctx context.Context) (*earthengine.Sampler, error) {
	return earthengine.New(ctx, c.Project, []earthengine.Option{
		earthengine.WithDataset(c.Dataset, c.Band),
		earthengine.WithClasses(c.Classes...),
		earthengine.WithScale(c.Scale),
	}, c.clientOptions()...)
}

// NewCache opens the Firestore cache when configured, the local file cache
// otherwise. The returned closer must be called when done.
func (c *Coverage) NewCache(ctx context.Context) (interfaces.CoverageCache, func(), error) {
	if c.FirestoreProjectID != "" {
		cache, err := firestore.New(ctx, c.FirestoreProjectID, c.FirestoreDatabaseID, c.FirestoreCollection, c.clientOptions()...)
		if err != nil {
			return nil, nil, err
		}
		ctxlog.From(ctx).Info("using firestore coverage cache",
			"project_id", c.FirestoreProjectID,
			"collection", c.FirestoreCollection,
		)
		return cache, func() {
			if err := cache.Close(); err != nil {
				ctxlog.From(ctx).Warn("failed to close firestore client", "error", err)
			}
		}, nil
	}

	cache, err := coveragecache.Open(c.CacheFile)
	if err != nil {
		return nil, nil, err
	}
	ctxlog.From(ctx).Info("using local coverage cache", "path", c.CacheFile, "entries", cache.Len())
	return cache, func() {}, nil
}
