// Package gcs mirrors downloaded assets into a Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"google.golang.org/api/option"
)

// Store implements interfaces.ObjectStore under gs://bucket/prefix
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a store. prefix may be empty.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required", goerr.T(types.ErrTagConfig))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket), goerr.T(types.ErrTagConfig))
	}

	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *Store) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Exists reports whether the object is already in the bucket
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(s.objectName(name)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to get object attributes",
			goerr.V("bucket", s.bucket),
			goerr.V("object", s.objectName(name)))
	}
	return true, nil
}

// Upload writes r to the object. The object becomes visible only when the
// writer is closed successfully; a failed copy cancels the write so no
// truncated object is committed.
func (s *Store) Upload(ctx context.Context, name string, r io.Reader) error {
	objName := s.objectName(name)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.client.Bucket(s.bucket).Object(objName).NewWriter(ctx)

	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", s.bucket), goerr.V("object", objName))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", s.bucket), goerr.V("object", objName))
	}
	return nil
}

// Close releases the client
func (s *Store) Close() error {
	return s.client.Close()
}
