package earthengine_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/api/option"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/infra/earthengine"
)

func newSampler(t *testing.T, handler http.HandlerFunc) *earthengine.Sampler {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sampler, err := earthengine.New(context.Background(), "test-project", nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
		option.WithoutAuthentication(),
	)
	gt.NoError(t, err)
	return sampler
}

func TestSampler_Coverage(t *testing.T) {
	var body string
	sampler := newSampler(t, func(w http.ResponseWriter, r *http.Request) {
		gt.String(t, r.URL.Path).Contains("projects/test-project/value:compute")
		raw, err := io.ReadAll(r.Body)
		gt.NoError(t, err)
		body = string(raw)

		w.Header().Set("Content-Type", "application/json")
		gt.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"Map": 0.25},
		}))
	})

	pct, err := sampler.Coverage(context.Background(), model.BBox{MinLon: 85.3, MinLat: 27.7, MaxLon: 85.4, MaxLat: 27.8})
	gt.NoError(t, err)
	gt.Equal(t, pct, 25.0)

	gt.String(t, body).Contains("Image.reduceRegion")
	gt.String(t, body).Contains("Reducer.mean")
	gt.String(t, body).Contains("ESA/WorldCover/v200/2021")
	gt.String(t, body).Contains("Image.or")
	gt.True(t, strings.Contains(body, "85.3"))
}

func TestSampler_Coverage_EmptyRegion(t *testing.T) {
	sampler := newSampler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": {"Map": null}}`))
	})

	pct, err := sampler.Coverage(context.Background(), model.BBox{MinLon: 0, MinLat: 0, MaxLon: 0.001, MaxLat: 0.001})
	gt.NoError(t, err)
	gt.Equal(t, pct, 0.0)
}

func TestSampler_Coverage_Errors(t *testing.T) {
	t.Run("quota exceeded is transient", func(t *testing.T) {
		sampler := newSampler(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"code": 429, "message": "Too many concurrent aggregations"}}`))
		})
		_, err := sampler.Coverage(context.Background(), model.BBox{MaxLon: 1, MaxLat: 1})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagTransient))
	})

	t.Run("invalid request is permanent", func(t *testing.T) {
		sampler := newSampler(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"code": 400, "message": "Image.load: Image asset not found"}}`))
		})
		_, err := sampler.Coverage(context.Background(), model.BBox{MaxLon: 1, MaxLat: 1})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagPermanent))
	})
}

func TestNew_RequiresProject(t *testing.T) {
	_, err := earthengine.New(context.Background(), "", nil, option.WithoutAuthentication())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}
