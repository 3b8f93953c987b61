package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/infra/table"
)

// IncompleteSuffix is appended to the snapshot path when extraction stops early
const IncompleteSuffix = ".incomplete"

// ExtractOptions controls catalog pagination
type ExtractOptions struct {
	PageSize  int           // Requested page size; 0 leaves it to the catalog
	MaxPages  int           // 0 means no ceiling
	Attempts  int           // Tries per page for transient failures
	RetryWait time.Duration // Wait between tries of the same page
	Delay     time.Duration // Minimum spacing between page requests
}

// ExtractResult summarizes an extraction
type ExtractResult struct {
	Output   string
	Pages    int
	Found    int
	Records  int
	Dropped  int
	Complete bool
}

type extractStats struct {
	pages   int
	found   int
	dropped int
}

// Extractor pulls the catalog into a snapshot
type Extractor struct {
	client interfaces.CatalogClient
	opts   ExtractOptions
}

// NewExtractor creates an Extractor
func NewExtractor(client interfaces.CatalogClient, opts ExtractOptions) *Extractor {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &Extractor{client: client, opts: opts}
}

// Records yields normalized records page by page until the catalog is
// exhausted or MaxPages is reached. Iteration stops after the first error.
func (x *Extractor) Records(ctx context.Context) iter.Seq2[*model.AssetRecord, error] {
	return x.records(ctx, &extractStats{})
}

func (x *Extractor) records(ctx context.Context, stats *extractStats) iter.Seq2[*model.AssetRecord, error] {
	return func(yield func(*model.AssetRecord, error) bool) {
		logger := ctxlog.From(ctx)
		throttle := newThrottle(x.opts.Delay)
		seen := make(map[string]struct{})

		for page := 1; x.opts.MaxPages <= 0 || page <= x.opts.MaxPages; page++ {
			if err := throttle.Wait(ctx); err != nil {
				yield(nil, goerr.Wrap(err, "extraction interrupted", goerr.V("page", page)))
				return
			}

			resp, err := x.fetchPage(ctx, page)
			if err != nil {
				yield(nil, err)
				return
			}
			stats.pages++
			stats.found = resp.Found

			logger.Info("fetched catalog page",
				"page", page,
				"total_pages", resp.TotalPages(),
				"records", len(resp.Records),
				"found", resp.Found,
			)

			for _, raw := range resp.Records {
				record, err := normalizeRecord(raw)
				if err != nil {
					stats.dropped++
					logger.Warn("dropped catalog record", "id", raw.ID, "error", err)
					continue
				}
				if _, ok := seen[record.ID]; ok {
					stats.dropped++
					logger.Warn("dropped repeated catalog record", "id", record.ID, "page", page)
					continue
				}
				seen[record.ID] = struct{}{}

				if !yield(record, nil) {
					return
				}
			}

			if !resp.HasMore() {
				return
			}
		}

		logger.Info("reached page ceiling", "max_pages", x.opts.MaxPages)
	}
}

func (x *Extractor) fetchPage(ctx context.Context, page int) (*model.CatalogPage, error) {
	logger := ctxlog.From(ctx)

	for attempt := 1; ; attempt++ {
		resp, err := x.client.FetchPage(ctx, page, x.opts.PageSize)
		if err == nil {
			return resp, nil
		}

		if !goerr.HasTag(err, types.ErrTagTransient) || attempt >= x.opts.Attempts {
			return nil, goerr.Wrap(err, "failed to fetch catalog page",
				goerr.V("page", page),
				goerr.V("attempt", attempt))
		}

		logger.Warn("retrying catalog page", "page", page, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "extraction interrupted", goerr.V("page", page))
		case <-time.After(x.opts.RetryWait):
		}
	}
}

// Run extracts the full catalog into output. When extraction fails or is
// interrupted, the records gathered so far go to output+IncompleteSuffix and
// output itself is left untouched.
func (x *Extractor) Run(ctx context.Context, output string) (*ExtractResult, error) {
	logger := ctxlog.From(ctx)
	stats := &extractStats{}
	var records []*model.AssetRecord
	var runErr error

	for record, err := range x.records(ctx, stats) {
		if err != nil {
			runErr = err
			break
		}
		records = append(records, record)
	}

	snap := &model.Snapshot{Records: records, ExtraColumns: extraColumns(records)}
	result := &ExtractResult{
		Output:  output,
		Pages:   stats.pages,
		Found:   stats.found,
		Records: len(records),
		Dropped: stats.dropped,
	}

	if runErr != nil {
		partial := output + IncompleteSuffix
		result.Output = partial
		if err := table.WriteSnapshot(partial, snap); err != nil {
			logger.Error("failed to save incomplete snapshot", "path", partial, "error", err)
		} else {
			logger.Warn("saved incomplete snapshot", "path", partial, "records", len(records))
		}
		return result, runErr
	}

	if err := table.WriteSnapshot(output, snap); err != nil {
		return result, goerr.Wrap(err, "failed to save snapshot", goerr.V("path", output))
	}
	if err := os.Remove(output + IncompleteSuffix); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove stale incomplete snapshot", "error", err)
	}

	result.Complete = true
	return result, nil
}

// extraColumns is the sorted union of Extra keys
func extraColumns(records []*model.AssetRecord) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Extra {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// normalizeRecord converts a catalog entry. Unparseable optional fields are
// left empty; a missing ID or footprint rejects the record.
func normalizeRecord(raw model.RawRecord) (*model.AssetRecord, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return nil, goerr.New("record has no id", goerr.T(types.ErrTagIntegrity))
	}
	footprint := strings.TrimSpace(raw.Footprint)
	if footprint == "" {
		return nil, goerr.New("record has no footprint", goerr.V("id", id), goerr.T(types.ErrTagIntegrity))
	}

	r := &model.AssetRecord{
		ID:        id,
		Title:     raw.Title,
		AssetURL:  strings.TrimSpace(raw.UUID),
		GSD:       raw.GSD,
		Platform:  model.ParsePlatform(raw.Platform),
		Provider:  raw.Provider,
		Contact:   raw.Contact,
		Footprint: footprint,
	}

	// Unparseable timestamps are left nil; predicates treat them as missing.
	r.UploadedAt, _ = model.ParseTimestamp(raw.UploadedAt)
	r.AcquisitionStart, _ = model.ParseTimestamp(raw.AcquisitionStart)
	r.AcquisitionEnd, _ = model.ParseTimestamp(raw.AcquisitionEnd)

	if len(raw.BBox) == 4 {
		if b, err := model.NewBBox(raw.BBox); err == nil {
			r.BBox = b
		}
	}
	if r.BBox == nil {
		if b, err := model.BBoxFromWKT(footprint); err == nil {
			r.BBox = b
		}
	}

	for key, value := range raw.Properties {
		if key == "thumbnail" {
			if s, ok := value.(string); ok {
				r.ThumbnailURL = strings.TrimSpace(s)
			}
			continue
		}
		if value == nil {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra["property_"+key] = propertyString(value)
	}

	return r, nil
}

func propertyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
