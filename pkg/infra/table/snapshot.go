// Package table persists snapshots and sidecar metadata as header-bearing CSV.
package table

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

// Snapshot columns, in output order. Extra columns follow.
const (
	ColID               = "id"
	ColTitle            = "title"
	ColPlatform         = "platform"
	ColProvider         = "provider"
	ColContact          = "contact"
	ColGSD              = "gsd"
	ColUploadedAt       = "uploaded_at"
	ColAcquisitionStart = "acquisition_start"
	ColAcquisitionEnd   = "acquisition_end"
	ColThumbnailURL     = "thumbnail_url"
	ColAssetURL         = "asset_url"
	ColFootprint        = "footprint"
	ColBBox             = "bbox"
	ColCoverage         = "coverage_pct"
)

var coreColumns = []string{
	ColID, ColTitle, ColPlatform, ColProvider, ColContact, ColGSD,
	ColUploadedAt, ColAcquisitionStart, ColAcquisitionEnd,
	ColThumbnailURL, ColAssetURL, ColFootprint, ColBBox, ColCoverage,
}

func isCore(name string) bool {
	for _, c := range coreColumns {
		if c == name {
			return true
		}
	}
	return false
}

// ReadSnapshot loads a snapshot file
func ReadSnapshot(path string) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open snapshot", goerr.V("path", path), goerr.T(types.ErrTagConfig))
	}
	defer f.Close()

	snap, err := DecodeSnapshot(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode snapshot", goerr.V("path", path))
	}
	return snap, nil
}

// DecodeSnapshot reads CSV rows, referencing columns by name
func DecodeSnapshot(r io.Reader) (*model.Snapshot, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, goerr.New("snapshot has no header", goerr.T(types.ErrTagIntegrity))
		}
		return nil, goerr.Wrap(err, "failed to read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	snap := &model.Snapshot{}
	for i, name := range header {
		index[name] = i
		if !isCore(name) {
			snap.ExtraColumns = append(snap.ExtraColumns, name)
		}
	}
	if _, ok := index[ColID]; !ok {
		return nil, goerr.New("snapshot has no id column", goerr.T(types.ErrTagIntegrity))
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read row", goerr.V("line", line))
		}

		get := func(name string) string {
			if i, ok := index[name]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}

		record, err := decodeRecord(get, snap.ExtraColumns)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid row", goerr.V("line", line), goerr.T(types.ErrTagIntegrity))
		}
		snap.Records = append(snap.Records, record)
	}

	return snap, nil
}

func decodeRecord(get func(string) string, extras []string) (*model.AssetRecord, error) {
	r := &model.AssetRecord{
		ID:           strings.TrimSpace(get(ColID)),
		Title:        get(ColTitle),
		Platform:     model.ParsePlatform(get(ColPlatform)),
		Provider:     get(ColProvider),
		Contact:      get(ColContact),
		ThumbnailURL: strings.TrimSpace(get(ColThumbnailURL)),
		AssetURL:     strings.TrimSpace(get(ColAssetURL)),
		Footprint:    get(ColFootprint),
	}

	var err error
	if r.GSD, err = parseFloat(get(ColGSD)); err != nil {
		return nil, goerr.Wrap(err, "invalid gsd")
	}
	if r.Coverage, err = parseFloat(get(ColCoverage)); err != nil {
		return nil, goerr.Wrap(err, "invalid coverage")
	}
	if r.UploadedAt, err = model.ParseTimestamp(get(ColUploadedAt)); err != nil {
		return nil, err
	}
	if r.AcquisitionStart, err = model.ParseTimestamp(get(ColAcquisitionStart)); err != nil {
		return nil, err
	}
	if r.AcquisitionEnd, err = model.ParseTimestamp(get(ColAcquisitionEnd)); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(get(ColBBox)); v != "" {
		if r.BBox, err = model.ParseBBox(v); err != nil {
			return nil, err
		}
	}

	if len(extras) > 0 {
		r.Extra = make(map[string]string, len(extras))
		for _, name := range extras {
			if v := get(name); v != "" {
				r.Extra[name] = v
			}
		}
	}

	return r, nil
}

// WriteSnapshot persists a snapshot atomically
func WriteSnapshot(path string, snap *model.Snapshot) error {
	return safefile.WriteAtomic(path, func(w io.Writer) error {
		return EncodeSnapshot(w, snap)
	})
}

// EncodeSnapshot writes the header and one row per record
func EncodeSnapshot(w io.Writer, snap *model.Snapshot) error {
	writer := csv.NewWriter(w)

	header := append(append([]string{}, coreColumns...), snap.ExtraColumns...)
	if err := writer.Write(header); err != nil {
		return goerr.Wrap(err, "failed to write header")
	}

	for _, r := range snap.Records {
		row := []string{
			r.ID,
			r.Title,
			string(r.Platform),
			r.Provider,
			r.Contact,
			formatFloat(r.GSD),
			model.FormatTimestamp(r.UploadedAt),
			model.FormatTimestamp(r.AcquisitionStart),
			model.FormatTimestamp(r.AcquisitionEnd),
			r.ThumbnailURL,
			r.AssetURL,
			r.Footprint,
			"",
			formatFloat(r.Coverage),
		}
		if r.BBox != nil {
			row[12] = r.BBox.String()
		}
		for _, name := range snap.ExtraColumns {
			row = append(row, r.Extra[name])
		}

		if err := writer.Write(row); err != nil {
			return goerr.Wrap(err, "failed to write row", goerr.V("id", r.ID))
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush snapshot")
	}
	return nil
}

func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid number", goerr.V("value", s))
	}
	return &v, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
