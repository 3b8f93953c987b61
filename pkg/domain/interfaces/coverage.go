package interfaces

import (
	"context"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

// CoverageSampler computes the land-cover percentage (0-100) inside a box
type CoverageSampler interface {
	Coverage(ctx context.Context, bbox model.BBox) (float64, error)
}

// CoverageCache stores sampler results per footprint key
type CoverageCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Put(ctx context.Context, key string, coverage float64) error
}
