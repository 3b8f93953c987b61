package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
)

const square = "POLYGON((0 0,1 0,1 1,0 1,0 0))"

// pagedCatalog serves found records two per page
func pagedCatalog(found int) *MockCatalogClient {
	return &MockCatalogClient{
		fetchPageFunc: func(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
			resp := &model.CatalogPage{Page: page, Limit: 2, Found: found}
			for i := (page - 1) * 2; i < page*2 && i < found; i++ {
				id := string(rune('a' + i))
				resp.Records = append(resp.Records, model.RawRecord{
					ID:         id,
					UUID:       "https://example.com/" + id + ".tif",
					Footprint:  square,
					UploadedAt: "2024-05-01T00:00:00.000Z",
					Platform:   "UAV",
					GSD:        ptr(0.05),
					Properties: map[string]any{
						"thumbnail": "https://example.com/" + id + ".png",
						"sensor":    "DJI",
					},
				})
			}
			return resp, nil
		},
	}
}

func TestExtractor_Records(t *testing.T) {
	client := pagedCatalog(5)
	x := usecase.NewExtractor(client, usecase.ExtractOptions{PageSize: 2})

	var ids []string
	for r, err := range x.Records(context.Background()) {
		gt.NoError(t, err)
		ids = append(ids, r.ID)
	}
	gt.Equal(t, ids, []string{"a", "b", "c", "d", "e"})
	gt.Equal(t, client.pages, []int{1, 2, 3})
}

func TestExtractor_Records_MaxPages(t *testing.T) {
	client := pagedCatalog(10)
	x := usecase.NewExtractor(client, usecase.ExtractOptions{MaxPages: 2})

	n := 0
	for _, err := range x.Records(context.Background()) {
		gt.NoError(t, err)
		n++
	}
	gt.Equal(t, n, 4)
	gt.A(t, client.pages).Length(2)
}

func TestExtractor_Normalization(t *testing.T) {
	client := &MockCatalogClient{
		fetchPageFunc: func(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
			return &model.CatalogPage{Page: 1, Limit: 10, Found: 4, Records: []model.RawRecord{
				{ID: "full", Footprint: square, BBox: []float64{0, 0, 1, 1}, Platform: " Aircraft ",
					UploadedAt: "not a date", Properties: map[string]any{"license": "CC-BY", "tms": nil}},
				{ID: "nofootprint"},
				{ID: "", Footprint: square},
				{ID: "full", Footprint: square},
			}}, nil
		},
	}

	var records []*model.AssetRecord
	for r, err := range usecase.NewExtractor(client, usecase.ExtractOptions{}).Records(context.Background()) {
		gt.NoError(t, err)
		records = append(records, r)
	}

	gt.A(t, records).Length(1)
	r := records[0]
	gt.Equal(t, r.Platform, model.PlatformAircraft)
	gt.Value(t, r.UploadedAt).Nil()
	gt.Value(t, r.GSD).Nil()
	gt.Equal(t, *r.BBox, model.BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1})
	gt.Equal(t, r.Extra, map[string]string{"property_license": "CC-BY"})
}

func TestExtractor_RetriesTransientPages(t *testing.T) {
	inner := pagedCatalog(3)
	failures := 0
	client := &MockCatalogClient{
		fetchPageFunc: func(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
			if page == 2 && failures < 2 {
				failures++
				return nil, goerr.New("503", goerr.T(types.ErrTagTransient))
			}
			return inner.FetchPage(ctx, page, limit)
		},
	}

	path := filepath.Join(t.TempDir(), "catalog.csv")
	result, err := usecase.NewExtractor(client, usecase.ExtractOptions{Attempts: 3}).Run(context.Background(), path)
	gt.NoError(t, err)
	gt.True(t, result.Complete)
	gt.Equal(t, result.Records, 3)
	gt.Equal(t, client.pages, []int{1, 2, 2, 2})

	snap, err := table.ReadSnapshot(path)
	gt.NoError(t, err)
	gt.Equal(t, snap.Len(), 3)
	gt.Equal(t, snap.ExtraColumns, []string{"property_sensor"})
	gt.Equal(t, snap.Records[0].ThumbnailURL, "https://example.com/a.png")
}

func TestExtractor_Run_SavesIncompleteOnFailure(t *testing.T) {
	inner := pagedCatalog(6)
	client := &MockCatalogClient{
		fetchPageFunc: func(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
			if page == 2 {
				return nil, goerr.New("400", goerr.T(types.ErrTagPermanent))
			}
			return inner.FetchPage(ctx, page, limit)
		},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	result, err := usecase.NewExtractor(client, usecase.ExtractOptions{Attempts: 5}).Run(context.Background(), path)
	gt.Error(t, err)
	gt.False(t, result.Complete)
	gt.A(t, client.pages).Length(2)

	_, statErr := os.Stat(path)
	gt.True(t, os.IsNotExist(statErr))

	partial, err := table.ReadSnapshot(path + usecase.IncompleteSuffix)
	gt.NoError(t, err)
	gt.Equal(t, partial.Len(), 2)

	t.Run("successful run clears incomplete snapshot", func(t *testing.T) {
		_, err := usecase.NewExtractor(pagedCatalog(2), usecase.ExtractOptions{}).Run(context.Background(), path)
		gt.NoError(t, err)
		_, statErr := os.Stat(path + usecase.IncompleteSuffix)
		gt.True(t, os.IsNotExist(statErr))
	})
}

func TestExtractor_Run_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := pagedCatalog(10)
	client := &MockCatalogClient{
		fetchPageFunc: func(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
			if page == 2 {
				cancel()
			}
			return inner.FetchPage(ctx, page, limit)
		},
	}

	path := filepath.Join(t.TempDir(), "catalog.csv")
	result, err := usecase.NewExtractor(client, usecase.ExtractOptions{}).Run(ctx, path)
	gt.Error(t, err)
	gt.Equal(t, result.Records, 4)

	partial, err := table.ReadSnapshot(path + usecase.IncompleteSuffix)
	gt.NoError(t, err)
	gt.Equal(t, partial.Len(), 4)
}
