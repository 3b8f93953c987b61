package table

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

var metadataColumns = []string{
	"filename", "id", "asset_url", "authors", "capture_date", "platform", "is_long_campaign",
}

// ReadMetadata loads the asset metadata sidecar. A missing file yields no entries.
func ReadMetadata(path string) ([]model.AssetMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open metadata", goerr.V("path", path))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read metadata header", goerr.V("path", path))
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	var entries []model.AssetMetadata
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read metadata row", goerr.V("path", path))
		}
		get := func(name string) string {
			if i, ok := index[name]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}

		long, _ := strconv.ParseBool(get("is_long_campaign"))
		entries = append(entries, model.AssetMetadata{
			Filename:       get("filename"),
			ID:             get("id"),
			AssetURL:       get("asset_url"),
			Authors:        get("authors"),
			CaptureDate:    get("capture_date"),
			Platform:       get("platform"),
			IsLongCampaign: long,
		})
	}

	return entries, nil
}

// WriteMetadata replaces the sidecar atomically
func WriteMetadata(path string, entries []model.AssetMetadata) error {
	return safefile.WriteAtomic(path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(metadataColumns); err != nil {
			return goerr.Wrap(err, "failed to write metadata header")
		}
		for _, e := range entries {
			row := []string{
				e.Filename, e.ID, e.AssetURL, e.Authors, e.CaptureDate, e.Platform,
				strconv.FormatBool(e.IsLongCampaign),
			}
			if err := writer.Write(row); err != nil {
				return goerr.Wrap(err, "failed to write metadata row", goerr.V("filename", e.Filename))
			}
		}
		writer.Flush()
		return writer.Error()
	})
}
