package usecase_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
)

func TestAssetAuthors(t *testing.T) {
	testCases := []struct {
		name   string
		record model.AssetRecord
		want   string
	}{
		{name: "contact name", record: model.AssetRecord{Contact: "Jane Doe, jane@example.com", Provider: "Club"}, want: "Jane Doe"},
		{name: "contact without comma", record: model.AssetRecord{Contact: "Mapping Team"}, want: "Mapping Team"},
		{name: "provider fallback", record: model.AssetRecord{Contact: " ,x@example.com", Provider: "Club"}, want: "Club"},
		{name: "default", record: model.AssetRecord{}, want: "openaerialmap.org"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, usecase.AssetAuthors(&tc.record), tc.want)
		})
	}
}

func TestNewAssetMetadata(t *testing.T) {
	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	short := start.Add(7 * 24 * time.Hour)
	long := start.Add(8 * 24 * time.Hour)

	r := &model.AssetRecord{ID: "a", AssetURL: "https://example.com/a.tif", Platform: model.PlatformUAV,
		AcquisitionStart: &start, AcquisitionEnd: &short}
	m := usecase.NewAssetMetadata(r, "a.tif")
	gt.Equal(t, m.CaptureDate, "2024-03-01")
	gt.Equal(t, m.Platform, "uav")
	gt.False(t, m.IsLongCampaign)

	r.AcquisitionEnd = &long
	gt.True(t, usecase.NewAssetMetadata(r, "a.tif").IsLongCampaign)
}

func TestUpdateMetadata_Merges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset_metadata.csv")
	gt.NoError(t, table.WriteMetadata(path, []model.AssetMetadata{
		{Filename: "z.tif", ID: "z", Authors: "Old"},
		{Filename: "a.tif", ID: "a", Authors: "Stale"},
	}))

	snap := &model.Snapshot{Records: []*model.AssetRecord{
		{ID: "a", Provider: "Fresh"},
		{ID: "m", Contact: "Mia,mia@example.com"},
	}}
	tasks := []model.DownloadTask{
		{RecordID: "a", Filename: "a.tif"},
		{RecordID: "m", Filename: "m.tif"},
		{RecordID: "unknown", Filename: "unknown.tif"},
	}

	n, err := usecase.UpdateMetadata(context.Background(), path, snap, tasks)
	gt.NoError(t, err)
	gt.Equal(t, n, 3)

	got, err := table.ReadMetadata(path)
	gt.NoError(t, err)
	gt.A(t, got).Length(3)
	gt.Equal(t, got[0].Filename, "a.tif")
	gt.Equal(t, got[0].Authors, "Fresh")
	gt.Equal(t, got[1].Authors, "Mia")
	gt.Equal(t, got[2].Authors, "Old")
}
