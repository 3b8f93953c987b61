// Package oam reads the OpenAerialMap metadata catalog.
package oam

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/infra/web"
)

// DefaultEndpoint is the public catalog
const DefaultEndpoint = "https://api.openaerialmap.org/meta"

// Client implements interfaces.CatalogClient
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures Client
type Option func(*Client)

// WithEndpoint overrides the catalog URL
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a catalog client
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type metaResponse struct {
	Meta struct {
		Found int `json:"found"`
		Limit int `json:"limit"`
		Page  int `json:"page"`
	} `json:"meta"`
	Results []model.RawRecord `json:"results"`
}

// FetchPage retrieves one catalog page. page is 1-based.
func (c *Client) FetchPage(ctx context.Context, page, limit int) (*model.CatalogPage, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog endpoint", goerr.V("endpoint", c.endpoint), goerr.T(types.ErrTagConfig))
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", u.String()), goerr.T(types.ErrTagPermanent))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "oamfetch/"+types.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch catalog page", goerr.V("page", page), web.ClassifyError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, goerr.New("catalog returned unexpected status",
			goerr.V("page", page),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
			web.ClassifyStatus(resp.StatusCode))
	}

	var data metaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, goerr.Wrap(err, "failed to decode catalog page", goerr.V("page", page), goerr.T(types.ErrTagPermanent))
	}

	result := &model.CatalogPage{
		Page:    page,
		Limit:   data.Meta.Limit,
		Found:   data.Meta.Found,
		Records: data.Results,
	}
	if result.Limit == 0 {
		result.Limit = limit
	}
	return result, nil
}
