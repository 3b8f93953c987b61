package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/cli/config"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

func TestFilter_Load_FromFlags(t *testing.T) {
	cfg := &config.Filter{
		MaxGSD:        0.1,
		UploadedAfter: "2024-04-01",
		Platforms:     []string{"uav", " aircraft "},
	}

	pred, policy, err := cfg.Load()
	gt.NoError(t, err)
	gt.Equal(t, *pred.MaxGSD, 0.1)
	gt.True(t, pred.UploadedAfter.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	gt.Equal(t, pred.Platforms, []string{"uav", "aircraft"})
	gt.A(t, policy.Rules).Length(2)
	gt.Equal(t, policy.Rules[0].Name, "strict-band")
}

func TestFilter_Load_InvalidDate(t *testing.T) {
	cfg := &config.Filter{UploadedAfter: "April 2024"}
	_, _, err := cfg.Load()
	gt.Error(t, err)
}

func TestFilter_Load_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	gt.NoError(t, os.WriteFile(path, []byte(`
[predicates]
max_gsd_m = 0.05
uploaded_after = 2023-01-01T00:00:00Z
platforms = ["uav"]

[[coverage]]
name = "early"
until = 2024-01-01T00:00:00Z
above = 5.0
at_most = 50.0

[[coverage]]
name = "late"
from = 2024-01-01T00:00:00Z
above = 0.0
`), 0o644))

	cfg := &config.Filter{PolicyFile: path, MaxGSD: 0.1}
	pred, policy, err := cfg.Load()
	gt.NoError(t, err)
	gt.Equal(t, *pred.MaxGSD, 0.05)
	gt.Equal(t, pred.Platforms, []string{"uav"})
	gt.A(t, policy.Rules).Length(2)

	early := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	gt.False(t, policy.Accept(&model.AssetRecord{UploadedAt: &early, Coverage: ptr(4.0)}))
	gt.True(t, policy.Accept(&model.AssetRecord{UploadedAt: &early, Coverage: ptr(50.0)}))
	gt.False(t, policy.Accept(&model.AssetRecord{UploadedAt: &early, Coverage: ptr(50.5)}))

	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	gt.True(t, policy.Accept(&model.AssetRecord{UploadedAt: &late, Coverage: ptr(0.5)}))
}

func TestFilter_Load_InvalidPolicy(t *testing.T) {
	dir := t.TempDir()

	t.Run("broken toml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		gt.NoError(t, os.WriteFile(path, []byte("[[coverage]\n"), 0o644))
		_, _, err := (&config.Filter{PolicyFile: path}).Load()
		gt.Error(t, err)
	})

	t.Run("empty window", func(t *testing.T) {
		path := filepath.Join(dir, "window.toml")
		gt.NoError(t, os.WriteFile(path, []byte(`
[[coverage]]
from = 2025-01-01T00:00:00Z
until = 2024-01-01T00:00:00Z
`), 0o644))
		_, _, err := (&config.Filter{PolicyFile: path}).Load()
		gt.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := (&config.Filter{PolicyFile: filepath.Join(dir, "nope.toml")}).Load()
		gt.Error(t, err)
	})
}

func TestDownload_Defaults(t *testing.T) {
	thumbs := config.NewThumbnailDownload()
	opts := thumbs.Options()
	gt.Equal(t, opts.Dir, "thumbnails")
	gt.True(t, opts.SkipExisting)
	gt.Equal(t, thumbs.Timeout, 30*time.Second)

	assets := config.NewAssetDownload()
	gt.Equal(t, assets.Timeout, 60*time.Second)
	gt.Equal(t, assets.MetadataPath(), filepath.Join("assets", "asset_metadata.csv"))
}

func ptr[T any](v T) *T { return &v }
