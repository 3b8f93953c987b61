package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	controller "github.com/m-mizutani/oamfetch/pkg/controller/http"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/usecase"
)

func TestHealthEndpoint(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewCuration(t.TempDir())

	server, err := controller.NewServer(ctx, uc, controller.WithAddr("localhost:0"))
	gt.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)
	gt.Equal(t, w.Code, http.StatusOK)

	var status model.HealthStatus
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	gt.Equal(t, status.Status, "healthy")
	gt.Equal(t, status.Service, "oamfetch")
	gt.True(t, status.Version != "")
}
