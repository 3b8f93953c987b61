package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
)

// DefaultAuthor credits the catalog when a record names nobody
const DefaultAuthor = "openaerialmap.org"

// LongCampaignThreshold is the acquisition span above which a capture is
// flagged as a long campaign
const LongCampaignThreshold = 7 * 24 * time.Hour

// AssetAuthors picks the contact name, then the provider, then DefaultAuthor
func AssetAuthors(r *model.AssetRecord) string {
	if contact := strings.TrimSpace(r.Contact); contact != "" {
		name, _, _ := strings.Cut(contact, ",")
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	if provider := strings.TrimSpace(r.Provider); provider != "" {
		return provider
	}
	return DefaultAuthor
}

// NewAssetMetadata describes the file downloaded for r
func NewAssetMetadata(r *model.AssetRecord, filename string) model.AssetMetadata {
	m := model.AssetMetadata{
		Filename: filename,
		ID:       r.ID,
		AssetURL: r.AssetURL,
		Authors:  AssetAuthors(r),
		Platform: string(r.Platform),
	}
	if r.AcquisitionStart != nil {
		m.CaptureDate = r.AcquisitionStart.UTC().Format(time.DateOnly)
	}
	if r.AcquisitionStart != nil && r.AcquisitionEnd != nil {
		m.IsLongCampaign = r.AcquisitionEnd.Sub(*r.AcquisitionStart) > LongCampaignThreshold
	}
	return m
}

// MergeMetadata combines entries by filename, updates winning, sorted by filename
func MergeMetadata(existing, updates []model.AssetMetadata) []model.AssetMetadata {
	byName := make(map[string]model.AssetMetadata, len(existing)+len(updates))
	for _, m := range existing {
		byName[m.Filename] = m
	}
	for _, m := range updates {
		byName[m.Filename] = m
	}

	merged := make([]model.AssetMetadata, 0, len(byName))
	for _, m := range byName {
		merged = append(merged, m)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Filename < merged[j].Filename
	})
	return merged
}

// UpdateMetadata adds entries for completed tasks to the sidecar at path and
// returns the number of entries written.
func UpdateMetadata(ctx context.Context, path string, snap *model.Snapshot, completed []model.DownloadTask) (int, error) {
	existing, err := table.ReadMetadata(path)
	if err != nil {
		return 0, err
	}

	lookup := snap.Lookup()
	var updates []model.AssetMetadata
	for _, task := range completed {
		r, ok := lookup[task.RecordID]
		if !ok {
			continue
		}
		updates = append(updates, NewAssetMetadata(r, task.Filename))
	}

	merged := MergeMetadata(existing, updates)
	if err := table.WriteMetadata(path, merged); err != nil {
		return 0, goerr.Wrap(err, "failed to save asset metadata", goerr.V("path", path))
	}

	ctxlog.From(ctx).Info("updated asset metadata", "path", path, "entries", len(merged), "updated", len(updates))
	return len(merged), nil
}
