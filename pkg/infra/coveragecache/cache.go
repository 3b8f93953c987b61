// Package coveragecache keeps sampler results in a local JSON file keyed by
// footprint.
package coveragecache

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

// File implements interfaces.CoverageCache. Every Put rewrites the file
// atomically so an interrupted filter run keeps what it already paid for.
type File struct {
	path    string
	mu      sync.Mutex
	entries map[string]float64
}

// Open loads path, starting empty when it does not exist
func Open(path string) (*File, error) {
	c := &File{path: path, entries: map[string]float64{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, goerr.Wrap(err, "failed to read coverage cache", goerr.V("path", path))
	}
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		return nil, goerr.Wrap(err, "coverage cache is corrupted", goerr.V("path", path), goerr.T(types.ErrTagIntegrity))
	}
	return c, nil
}

// Len returns the number of cached entries
func (c *File) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the cached coverage for key
func (c *File) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

// Put stores coverage under key and flushes the file
func (c *File) Put(_ context.Context, key string, coverage float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries[key]; ok && prev == coverage {
		return nil
	}
	c.entries[key] = coverage

	err := safefile.WriteAtomic(c.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.entries)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to write coverage cache", goerr.V("path", c.path))
	}
	return nil
}
