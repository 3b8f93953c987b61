package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

// MockCatalogClient is a mock implementation of CatalogClient
type MockCatalogClient struct {
	fetchPageFunc func(ctx context.Context, page, limit int) (*model.CatalogPage, error)
	pages         []int
}

func (m *MockCatalogClient) FetchPage(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
	m.pages = append(m.pages, page)
	if m.fetchPageFunc != nil {
		return m.fetchPageFunc(ctx, page, limit)
	}
	return nil, errors.New("mock not configured")
}

// MockCoverageSampler is a mock implementation of CoverageSampler
type MockCoverageSampler struct {
	coverageFunc func(ctx context.Context, bbox model.BBox) (float64, error)
	calls        []model.BBox
}

func (m *MockCoverageSampler) Coverage(ctx context.Context, bbox model.BBox) (float64, error) {
	m.calls = append(m.calls, bbox)
	if m.coverageFunc != nil {
		return m.coverageFunc(ctx, bbox)
	}
	return 0, errors.New("mock not configured")
}

// MockCoverageCache is an in-memory CoverageCache
type MockCoverageCache struct {
	entries map[string]float64
	getErr  error
	putErr  error
}

func (m *MockCoverageCache) Get(ctx context.Context, key string) (float64, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MockCoverageCache) Put(ctx context.Context, key string, coverage float64) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.entries == nil {
		m.entries = map[string]float64{}
	}
	m.entries[key] = coverage
	return nil
}

// MockAssetFetcher is a mock implementation of AssetFetcher
type MockAssetFetcher struct {
	fetchFunc func(ctx context.Context, url string, w io.Writer) (int64, error)
	urls      []string
}

func (m *MockAssetFetcher) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	m.urls = append(m.urls, url)
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url, w)
	}
	return 0, errors.New("mock not configured")
}

// MockJournal records entries in memory
type MockJournal struct {
	mu      sync.Mutex
	entries []model.DownloadEntry
}

func (m *MockJournal) Record(ctx context.Context, entry model.DownloadEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockJournal) count(status model.DownloadStatus) int {
	n := 0
	for _, e := range m.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// MockObjectStore is an in-memory ObjectStore
type MockObjectStore struct {
	objects   map[string][]byte
	uploadErr map[string]error
}

func (m *MockObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := m.objects[name]
	return ok, nil
}

func (m *MockObjectStore) Upload(ctx context.Context, name string, r io.Reader) error {
	if err := m.uploadErr[name]; err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[name] = data
	return nil
}

func ptr[T any](v T) *T { return &v }
