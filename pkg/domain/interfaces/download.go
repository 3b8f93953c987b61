package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

// AssetFetcher streams a remote object into w and returns the bytes written.
// Non-success statuses are errors tagged transient or permanent.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
}

// DownloadJournal is the append-only progress log of the downloader
type DownloadJournal interface {
	Record(ctx context.Context, entry model.DownloadEntry) error
}
