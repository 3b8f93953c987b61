package interfaces

import (
	"context"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

// CatalogClient fetches pages of imagery metadata from the upstream catalog
type CatalogClient interface {
	// FetchPage returns the page with 1-based index page and the requested size.
	// Errors are tagged with types.ErrTagTransient or types.ErrTagPermanent.
	FetchPage(ctx context.Context, page, limit int) (*model.CatalogPage, error)
}
