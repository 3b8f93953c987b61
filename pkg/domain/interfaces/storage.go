package interfaces

import (
	"context"
	"io"
)

// ObjectStore is a remote bucket that downloaded assets can be mirrored to
type ObjectStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Upload(ctx context.Context, name string, r io.Reader) error
}

// Notifier posts stage summaries to an external channel
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
