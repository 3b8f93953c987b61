package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
)

func filterSnapshot() *model.Snapshot {
	before := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &model.Snapshot{Records: []*model.AssetRecord{
		{
			ID: "a", GSD: ptr(0.05), UploadedAt: &before, Platform: model.PlatformUAV,
			Footprint: "POLYGON((0 0,1 0,1 1,0 1,0 0))",
		},
		{
			ID: "b", GSD: ptr(0.08), UploadedAt: &after, Platform: model.PlatformAircraft,
			BBox: &model.BBox{MinLon: 2, MinLat: 2, MaxLon: 3, MaxLat: 3},
		},
		{
			ID: "c", GSD: ptr(0.02), UploadedAt: &after, Platform: model.PlatformUAV,
		},
	}}
}

func fixedSampler(v float64) *MockCoverageSampler {
	return &MockCoverageSampler{
		coverageFunc: func(ctx context.Context, bbox model.BBox) (float64, error) {
			return v, nil
		},
	}
}

func TestApplyAttributes(t *testing.T) {
	snap := filterSnapshot()
	pred := model.AttributePredicates{
		MaxGSD:    ptr(0.06),
		Platforms: []string{"UAV"},
	}

	got := usecase.ApplyAttributes(snap, pred)
	gt.Equal(t, got.Len(), 2)
	gt.Equal(t, got.Records[0].ID, "a")
	gt.Equal(t, got.Records[1].ID, "c")
	gt.Equal(t, snap.Len(), 3)
}

func TestFilter_Annotate_MissingFootprint(t *testing.T) {
	sampler := fixedSampler(12)
	f := usecase.NewFilter(sampler)

	annotated, stats, err := f.Annotate(context.Background(), filterSnapshot())
	gt.NoError(t, err)
	gt.Equal(t, annotated.Len(), 3)
	gt.Equal(t, stats.NoFootprint, 1)
	gt.Equal(t, stats.Sampled, 2)
	gt.Value(t, annotated.Records[2].Coverage).Nil()

	final := usecase.ApplyCoverage(annotated, model.DefaultCoveragePolicy())
	gt.Equal(t, final.Len(), 2)
	for _, r := range final.Records {
		gt.Value(t, r.Coverage).NotNil()
	}
}

func TestFilter_Annotate_DoesNotMutateInput(t *testing.T) {
	snap := filterSnapshot()
	_, _, err := usecase.NewFilter(fixedSampler(5)).Annotate(context.Background(), snap)
	gt.NoError(t, err)
	for _, r := range snap.Records {
		gt.Value(t, r.Coverage).Nil()
	}
}

func TestFilter_Annotate_SamplerFailure(t *testing.T) {
	sampler := &MockCoverageSampler{
		coverageFunc: func(ctx context.Context, bbox model.BBox) (float64, error) {
			if bbox.MinLon == 2 {
				return 0, errors.New("computation timed out")
			}
			return 20, nil
		},
	}
	cache := &MockCoverageCache{}

	annotated, stats, err := usecase.NewFilter(sampler, usecase.WithCoverageCache(cache)).
		Annotate(context.Background(), filterSnapshot())
	gt.NoError(t, err)
	gt.Equal(t, stats.Failed, 1)
	gt.Equal(t, *annotated.Records[0].Coverage, 20.0)
	gt.Value(t, annotated.Records[1].Coverage).Nil()
	gt.Equal(t, len(cache.entries), 1)
}

func TestFilter_Annotate_UsesCache(t *testing.T) {
	cache := &MockCoverageCache{}
	sampler := fixedSampler(15)
	f := usecase.NewFilter(sampler, usecase.WithCoverageCache(cache))

	_, _, err := f.Annotate(context.Background(), filterSnapshot())
	gt.NoError(t, err)
	gt.A(t, sampler.calls).Length(2)

	_, stats, err := f.Annotate(context.Background(), filterSnapshot())
	gt.NoError(t, err)
	gt.A(t, sampler.calls).Length(2)
	gt.Equal(t, stats.CacheHits, 2)

	t.Run("cache errors are bypassed", func(t *testing.T) {
		broken := &MockCoverageCache{getErr: errors.New("unavailable"), putErr: errors.New("unavailable")}
		annotated, _, err := usecase.NewFilter(fixedSampler(15), usecase.WithCoverageCache(broken)).
			Annotate(context.Background(), filterSnapshot())
		gt.NoError(t, err)
		gt.Equal(t, *annotated.Records[0].Coverage, 15.0)
	})
}

func TestFilter_Annotate_SameFootprintSampledOnce(t *testing.T) {
	box := &model.BBox{MinLon: 1, MinLat: 1, MaxLon: 2, MaxLat: 2}
	snap := &model.Snapshot{Records: []*model.AssetRecord{
		{ID: "a", BBox: box},
		{ID: "b", BBox: box},
	}}
	sampler := fixedSampler(3)

	_, stats, err := usecase.NewFilter(sampler).Annotate(context.Background(), snap)
	gt.NoError(t, err)
	gt.A(t, sampler.calls).Length(1)
	gt.Equal(t, stats.CacheHits, 1)
}

func TestApplyCoverage_RegimeSwitch(t *testing.T) {
	before := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	after := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	snap := &model.Snapshot{Records: []*model.AssetRecord{
		{ID: "before-0", UploadedAt: &before, Coverage: ptr(0.0)},
		{ID: "before-15", UploadedAt: &before, Coverage: ptr(15.0)},
		{ID: "before-45", UploadedAt: &before, Coverage: ptr(45.0)},
		{ID: "after-0", UploadedAt: &after, Coverage: ptr(0.0)},
		{ID: "after-1", UploadedAt: &after, Coverage: ptr(1.0)},
		{ID: "after-80", UploadedAt: &after, Coverage: ptr(80.0)},
		{ID: "unknown", UploadedAt: &after},
	}}

	got := usecase.ApplyCoverage(snap, model.DefaultCoveragePolicy())
	var ids []string
	for _, r := range got.Records {
		ids = append(ids, r.ID)
	}
	gt.Equal(t, ids, []string{"before-15", "after-1", "after-80"})
}

func TestFilter_Run_Deterministic(t *testing.T) {
	dir := t.TempDir()
	cache := &MockCoverageCache{}
	f := usecase.NewFilter(fixedSampler(10), usecase.WithCoverageCache(cache))
	opts := usecase.FilterOptions{
		Predicates:      model.AttributePredicates{MaxGSD: ptr(0.1)},
		Policy:          model.DefaultCoveragePolicy(),
		Output:          filepath.Join(dir, "first.csv"),
		AttributeOutput: filepath.Join(dir, "attr.csv"),
	}

	result, err := f.Run(context.Background(), filterSnapshot(), opts)
	gt.NoError(t, err)
	gt.Equal(t, result.Input, 3)
	gt.Equal(t, result.AfterAttribute, 3)
	gt.Equal(t, result.Annotated, 2)
	gt.Equal(t, result.Output, 2)

	// Second run is served entirely by the cache
	failing := &MockCoverageSampler{
		coverageFunc: func(ctx context.Context, bbox model.BBox) (float64, error) {
			return 0, errors.New("must not be called")
		},
	}
	opts.Output = filepath.Join(dir, "second.csv")
	_, err = usecase.NewFilter(failing, usecase.WithCoverageCache(cache)).Run(context.Background(), filterSnapshot(), opts)
	gt.NoError(t, err)
	gt.A(t, failing.calls).Length(0)

	first, err := os.ReadFile(filepath.Join(dir, "first.csv"))
	gt.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "second.csv"))
	gt.NoError(t, err)
	gt.Equal(t, string(first), string(second))

	attr, err := table.ReadSnapshot(filepath.Join(dir, "attr.csv"))
	gt.NoError(t, err)
	gt.Equal(t, attr.Len(), 3)
}

func TestFilter_Run_InvalidPolicy(t *testing.T) {
	_, err := usecase.NewFilter(fixedSampler(1)).Run(context.Background(), filterSnapshot(), usecase.FilterOptions{
		Output: filepath.Join(t.TempDir(), "out.csv"),
	})
	gt.Error(t, err)
}
