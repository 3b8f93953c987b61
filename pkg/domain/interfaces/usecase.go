package interfaces

import (
	"context"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

// CurationUseCase serves manual review of downloaded thumbnails
type CurationUseCase interface {
	List(ctx context.Context) ([]model.ThumbnailInfo, error)
	Path(name string) (string, error)
	Reject(ctx context.Context, name string) error
	Duplicates(ctx context.Context) (*model.DuplicateReport, error)
}
