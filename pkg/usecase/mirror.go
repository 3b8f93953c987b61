package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

// MirrorResult summarizes a mirror pass
type MirrorResult struct {
	Uploaded []string
	Skipped  []string
	Failed   []string
}

// Mirror copies downloaded files to an object store
type Mirror struct {
	store interfaces.ObjectStore
}

// NewMirror creates a Mirror
func NewMirror(store interfaces.ObjectStore) *Mirror {
	return &Mirror{store: store}
}

// Run uploads every visible regular file in dir that the store does not
// have yet. Per-file failures are logged and skipped.
func (m *Mirror) Run(ctx context.Context, dir string) (*MirrorResult, error) {
	logger := ctxlog.From(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read directory", goerr.V("dir", dir), goerr.T(types.ErrTagConfig))
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") || safefile.IsPartial(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	result := &MirrorResult{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, goerr.Wrap(err, "mirror interrupted")
		}

		exists, err := m.store.Exists(ctx, name)
		if err != nil {
			logger.Warn("failed to check object", "name", name, "error", err)
			result.Failed = append(result.Failed, name)
			continue
		}
		if exists {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		if err := m.upload(ctx, filepath.Join(dir, name), name); err != nil {
			logger.Warn("failed to upload", "name", name, "error", err)
			result.Failed = append(result.Failed, name)
			continue
		}
		logger.Info("uploaded", "name", name)
		result.Uploaded = append(result.Uploaded, name)
	}

	return result, nil
}

func (m *Mirror) upload(ctx context.Context, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close()
	return m.store.Upload(ctx, name, f)
}
