// Package firestore stores coverage results in a Firestore collection so that
// several machines can share sampler work.
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection holds one document per footprint key
const DefaultCollection = "coverage"

type coverageDoc struct {
	Coverage  float64   `firestore:"coverage"`
	Key       string    `firestore:"key"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// Cache implements interfaces.CoverageCache
type Cache struct {
	client     *firestore.Client
	collection string
}

// New connects to the given project and database
func New(ctx context.Context, projectID, databaseID, collection string, opts ...option.ClientOption) (*Cache, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project is required", goerr.T(types.ErrTagConfig))
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
			goerr.T(types.ErrTagConfig))
	}

	return &Cache{client: client, collection: collection}, nil
}

// docID makes a key safe to use as a document ID
func docID(key string) string {
	return strings.ReplaceAll(key, "/", "|")
}

// Get reads a cached coverage value
func (c *Cache) Get(ctx context.Context, key string) (float64, bool, error) {
	snap, err := c.client.Collection(c.collection).Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, false, nil
		}
		return 0, false, goerr.Wrap(err, "failed to get coverage document", goerr.V("key", key))
	}

	var doc coverageDoc
	if err := snap.DataTo(&doc); err != nil {
		return 0, false, goerr.Wrap(err, "failed to decode coverage document", goerr.V("key", key))
	}
	return doc.Coverage, true, nil
}

// Put writes a coverage value
func (c *Cache) Put(ctx context.Context, key string, coverage float64) error {
	doc := coverageDoc{Coverage: coverage, Key: key, UpdatedAt: time.Now().UTC()}
	if _, err := c.client.Collection(c.collection).Doc(docID(key)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put coverage document", goerr.V("key", key))
	}
	return nil
}

// Close releases the client
func (c *Cache) Close() error {
	return c.client.Close()
}
