package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

// Curation is the manual review of downloaded thumbnails. Rejecting a
// thumbnail deletes it, which removes its record from the curated subset.
type Curation struct {
	dir   string
	dedup *Dedup
}

// NewCuration creates a Curation over dir
func NewCuration(dir string) *Curation {
	return &Curation{dir: dir, dedup: NewDedup()}
}

// Dir returns the thumbnail directory
func (c *Curation) Dir() string {
	return c.dir
}

// List returns the thumbnails awaiting review, sorted by name
func (c *Curation) List(ctx context.Context) ([]model.ThumbnailInfo, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read thumbnail directory", goerr.V("dir", c.dir))
	}

	thumbnails := make([]model.ThumbnailInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") || safefile.IsPartial(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			ctxlog.From(ctx).Warn("failed to stat thumbnail", "name", e.Name(), "error", err)
			continue
		}
		thumbnails = append(thumbnails, model.ThumbnailInfo{
			Name:     e.Name(),
			RecordID: model.IDFromFilename(e.Name()),
			Size:     info.Size(),
		})
	}
	sort.Slice(thumbnails, func(i, j int) bool {
		return thumbnails[i].Name < thumbnails[j].Name
	})
	return thumbnails, nil
}

// Path resolves a thumbnail name to an existing file in the directory
func (c *Curation) Path(name string) (string, error) {
	if !model.IsSafeFilename(name) {
		return "", goerr.New("invalid thumbnail name", goerr.V("name", name), goerr.T(types.ErrTagIntegrity))
	}
	path := filepath.Join(c.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", goerr.New("thumbnail not found", goerr.V("name", name), goerr.T(types.ErrTagNotFound))
	}
	return path, nil
}

// Reject deletes a thumbnail
func (c *Curation) Reject(ctx context.Context, name string) error {
	path, err := c.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return goerr.Wrap(err, "failed to remove thumbnail", goerr.V("name", name))
	}
	ctxlog.From(ctx).Info("rejected thumbnail", "name", name)
	return nil
}

// Duplicates scans the directory for identical thumbnails
func (c *Curation) Duplicates(ctx context.Context) (*model.DuplicateReport, error) {
	return c.dedup.Scan(ctx, c.dir, "")
}
