package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelterspot/shelterspot/internal/api/handler"
	"github.com/shelterspot/shelterspot/internal/api/models"
	"github.com/shelterspot/shelterspot/internal/routing"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// blockingProvider parks each call until released, so a test can hold one
// request in flight while issuing another.
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (p *blockingProvider) FindWalkingRoute(ctx context.Context, _ routing.RouteRequest) (*routing.RouteResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	p.entered <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &routing.RouteResult{
		DistanceMeters:  500,
		DurationSeconds: 360,
		Provider:        "blocking",
	}, nil
}

func (p *blockingProvider) Name() string     { return "blocking" }
func (p *blockingProvider) Configured() bool { return true }

func newRouteHandler(provider routing.Provider) *handler.RouteHandler {
	logger := zerolog.New(io.Discard)
	routes := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   logger,
	})
	return handler.NewRouteHandler(routes, shelter.SeedCatalog(), nil, logger)
}

func routeRequestBody(t *testing.T, destLat, destLon float64) *bytes.Reader {
	t.Helper()
	input := models.WalkingRouteRequest{
		Origin:      &models.Point{Lat: 37.5665, Lon: 126.9780},
		Destination: &models.Point{Lat: destLat, Lon: destLon},
	}
	body, err := json.Marshal(input)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestComputeWalkingRoute_NewerRequestSupersedesInFlight(t *testing.T) {
	provider := &blockingProvider{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	h := newRouteHandler(provider)

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/routes/walking", routeRequestBody(t, 37.5610, 126.9996))
		req.RemoteAddr = "203.0.113.7:51000"
		w := httptest.NewRecorder()
		h.ComputeWalkingRoute(w, req)
		firstDone <- w
	}()

	// Wait until the first request reaches the provider.
	<-provider.entered

	// A second request from the same client cancels the first. The first's
	// provider call fails with context.Canceled, which degrades to a
	// straight-line result, but the session discards it as superseded.
	secondDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/routes/walking", routeRequestBody(t, 37.5512, 126.9882))
		req.RemoteAddr = "203.0.113.7:51001"
		w := httptest.NewRecorder()
		h.ComputeWalkingRoute(w, req)
		secondDone <- w
	}()

	<-provider.entered

	first := <-firstDone
	assert.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, "application/problem+json", first.Header().Get("Content-Type"))

	close(provider.release)

	second := <-secondDone
	assert.Equal(t, http.StatusOK, second.Code)

	var resp models.WalkingRouteResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "blocking", resp.Provider)
	assert.False(t, resp.Fallback)
}

func TestComputeWalkingRoute_DistinctClientsDoNotInterfere(t *testing.T) {
	provider := &blockingProvider{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	h := newRouteHandler(provider)
	close(provider.release) // no blocking needed here

	for _, addr := range []string{"203.0.113.7:51000", "198.51.100.9:51000"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/routes/walking", routeRequestBody(t, 37.5610, 126.9996))
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ComputeWalkingRoute(w, req)
		<-provider.entered
		assert.Equal(t, http.StatusOK, w.Code, "client %s", addr)
	}
}
