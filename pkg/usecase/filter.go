package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
)

// ApplyAttributes keeps records matching every predicate, in input order
func ApplyAttributes(snap *model.Snapshot, pred model.AttributePredicates) *model.Snapshot {
	var kept []*model.AssetRecord
	for _, r := range snap.Records {
		if pred.Match(r) {
			kept = append(kept, r)
		}
	}
	return snap.Derive(kept)
}

// ApplyCoverage keeps annotated records accepted by policy, in input order
func ApplyCoverage(snap *model.Snapshot, policy model.CoveragePolicy) *model.Snapshot {
	var kept []*model.AssetRecord
	for _, r := range snap.Records {
		if policy.Accept(r) {
			kept = append(kept, r)
		}
	}
	return snap.Derive(kept)
}

// AnnotateStats counts how coverage values were obtained
type AnnotateStats struct {
	Sampled     int
	CacheHits   int
	NoFootprint int
	Failed      int
}

// Filter annotates records with land-cover coverage and applies the filters
type Filter struct {
	sampler interfaces.CoverageSampler
	cache   interfaces.CoverageCache
}

// FilterOption configures Filter
type FilterOption func(*Filter)

// WithCoverageCache stores sampler results per footprint
func WithCoverageCache(cache interfaces.CoverageCache) FilterOption {
	return func(f *Filter) {
		f.cache = cache
	}
}

// NewFilter creates a Filter sampling coverage through sampler
func NewFilter(sampler interfaces.CoverageSampler, opts ...FilterOption) *Filter {
	f := &Filter{sampler: sampler}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Annotate returns a copy of snap with Coverage set on every record that has
// a usable footprint. Sampling failures leave Coverage nil. Only context
// cancellation is returned as an error.
func (f *Filter) Annotate(ctx context.Context, snap *model.Snapshot) (*model.Snapshot, *AnnotateStats, error) {
	logger := ctxlog.From(ctx)
	stats := &AnnotateStats{}
	memo := make(map[string]float64)

	records := make([]*model.AssetRecord, 0, snap.Len())
	for i, src := range snap.Records {
		if err := ctx.Err(); err != nil {
			return nil, stats, goerr.Wrap(err, "annotation interrupted", goerr.V("done", i))
		}

		r := src.Clone()
		r.Coverage = nil
		records = append(records, r)

		bbox := r.BBox
		if bbox == nil && r.Footprint != "" {
			b, err := model.BBoxFromWKT(r.Footprint)
			if err != nil {
				logger.Warn("invalid footprint", "id", r.ID, "error", err)
			}
			bbox = b
			r.BBox = b
		}
		if bbox == nil {
			stats.NoFootprint++
			logger.Warn("record has no footprint, coverage left empty", "id", r.ID)
			continue
		}

		key := bbox.Key()
		if v, ok := memo[key]; ok {
			r.Coverage = &v
			stats.CacheHits++
			continue
		}

		if v, ok := f.cached(ctx, key); ok {
			memo[key] = v
			r.Coverage = &v
			stats.CacheHits++
			continue
		}

		v, err := f.sampler.Coverage(ctx, *bbox)
		if err != nil {
			stats.Failed++
			logger.Warn("failed to sample coverage", "id", r.ID, "bbox", bbox.String(), "error", err)
			continue
		}
		stats.Sampled++
		memo[key] = v
		r.Coverage = &v

		if f.cache != nil {
			if err := f.cache.Put(ctx, key, v); err != nil {
				logger.Warn("failed to store coverage in cache", "key", key, "error", err)
			}
		}

		if (i+1)%50 == 0 {
			logger.Info("annotating coverage", "done", i+1, "total", snap.Len())
		}
	}

	return snap.Derive(records), stats, nil
}

func (f *Filter) cached(ctx context.Context, key string) (float64, bool) {
	if f.cache == nil {
		return 0, false
	}
	v, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		ctxlog.From(ctx).Warn("failed to read coverage cache", "key", key, "error", err)
		return 0, false
	}
	return v, ok
}

// FilterOptions are the inputs of a filter run
type FilterOptions struct {
	Predicates      model.AttributePredicates
	Policy          model.CoveragePolicy
	Output          string
	AttributeOutput string // Optional path for the attribute-only snapshot
}

// FilterResult summarizes a filter run
type FilterResult struct {
	Input          int
	AfterAttribute int
	Annotated      int
	Output         int
	Stats          *AnnotateStats
}

// Run applies attribute predicates, annotates survivors and applies the
// coverage policy, persisting the result.
func (f *Filter) Run(ctx context.Context, input *model.Snapshot, opts FilterOptions) (*FilterResult, error) {
	logger := ctxlog.From(ctx)

	if err := opts.Policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid coverage policy")
	}

	result := &FilterResult{Input: input.Len()}

	attr := ApplyAttributes(input, opts.Predicates)
	result.AfterAttribute = attr.Len()
	logger.Info("applied attribute predicates", "input", result.Input, "kept", result.AfterAttribute)

	if opts.AttributeOutput != "" {
		if err := table.WriteSnapshot(opts.AttributeOutput, attr); err != nil {
			return nil, goerr.Wrap(err, "failed to save attribute snapshot", goerr.V("path", opts.AttributeOutput))
		}
	}

	annotated, stats, err := f.Annotate(ctx, attr)
	result.Stats = stats
	if err != nil {
		return result, err
	}
	for _, r := range annotated.Records {
		if r.Coverage != nil {
			result.Annotated++
		}
	}

	final := ApplyCoverage(annotated, opts.Policy)
	result.Output = final.Len()
	logger.Info("applied coverage policy",
		"annotated", result.Annotated,
		"kept", result.Output,
		"sampled", stats.Sampled,
		"cache_hits", stats.CacheHits,
		"failed", stats.Failed,
	)

	if err := table.WriteSnapshot(opts.Output, final); err != nil {
		return result, goerr.Wrap(err, "failed to save filtered snapshot", goerr.V("path", opts.Output))
	}
	return result, nil
}
