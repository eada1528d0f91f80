package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/chaintest"
	internalindexer "github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	regs       []indexer.Registration
	restartErr error
	restarted  []string
}

func (f *fakeRegistry) Registrations() []indexer.Registration { return f.regs }

func (f *fakeRegistry) Registration(name string) (indexer.Registration, bool) {
	for _, reg := range f.regs {
		if reg.Name == name {
			return reg, true
		}
	}
	return indexer.Registration{}, false
}

func (f *fakeRegistry) Restart(_ context.Context, name string) error {
	if f.restartErr != nil {
		return f.restartErr
	}
	f.restarted = append(f.restarted, name)
	for i := range f.regs {
		if f.regs[i].Name == name {
			f.regs[i].Status = indexer.StatusBackfilling
		}
	}
	return nil
}

func testRegistry() *fakeRegistry {
	return &fakeRegistry{regs: []indexer.Registration{
		{
			ID:         "1",
			Name:       "pools",
			StartPoint: chain.Origin(),
			Status:     indexer.StatusLive,
			Cursor:     chaintest.Point(4492799),
			UpdatedAt:  time.Now(),
		},
		{
			ID:         "2",
			Name:       "orders",
			StartPoint: chaintest.Point(12345),
			Status:     indexer.StatusFailed,
			Cursor:     chaintest.Point(12400),
			LastError:  "index orders failed to handle apply",
			UpdatedAt:  time.Now(),
		},
	}}
}

func newTestServer(registry IndexRegistry) http.Handler {
	cfg := &config.APIConfig{Enabled: true}
	cfg.ApplyDefaults()

	return NewServer(cfg, registry, logger.NewNopLogger()).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}

	return w
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		registry   *fakeRegistry
		wantStatus string
		wantCount  int
	}{
		{
			name:       "no indexes",
			registry:   &fakeRegistry{},
			wantStatus: healthOK,
		},
		{
			name:       "failed index degrades health",
			registry:   testRegistry(),
			wantStatus: healthDegraded,
			wantCount:  2,
		},
		{
			name: "all live",
			registry: &fakeRegistry{regs: []indexer.Registration{
				{Name: "pools", Status: indexer.StatusLive, Cursor: chaintest.Point(10)},
			}},
			wantStatus: healthOK,
			wantCount:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var resp HealthResponse
			w := do(t, newTestServer(tt.registry), http.MethodGet, "/health", &resp)

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, tt.wantStatus, resp.Status)
			require.Len(t, resp.Indexes, tt.wantCount)
			require.False(t, resp.Timestamp.IsZero())
		})
	}

	var resp HealthResponse
	do(t, newTestServer(testRegistry()), http.MethodGet, "/health", &resp)
	require.Equal(t, IndexStatus{Name: "pools", Status: indexer.StatusLive, CursorSlot: 4492799, Healthy: true},
		resp.Indexes[0])
	require.False(t, resp.Indexes[1].Healthy)
}

func TestHandler_ListIndexes(t *testing.T) {
	t.Parallel()

	var resp IndexListResponse
	w := do(t, newTestServer(testRegistry()), http.MethodGet, "/api/v1/indexes", &resp)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, resp.Total)
	require.Equal(t, "pools", resp.Indexes[0].Name)
	require.True(t, resp.Indexes[0].Cursor.Equal(chaintest.Point(4492799)))
	require.True(t, resp.Indexes[1].StartPoint.Equal(chaintest.Point(12345)))

	var empty map[string]any
	do(t, newTestServer(&fakeRegistry{}), http.MethodGet, "/api/v1/indexes", &empty)
	require.Equal(t, []any{}, empty["indexes"])
}

func TestHandler_GetIndex(t *testing.T) {
	t.Parallel()

	h := newTestServer(testRegistry())

	var reg indexer.Registration
	w := do(t, h, http.MethodGet, "/api/v1/indexes/orders", &reg)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, indexer.StatusFailed, reg.Status)
	require.Contains(t, reg.LastError, "failed to handle")

	var errResp ErrorResponse
	w = do(t, h, http.MethodGet, "/api/v1/indexes/missing", &errResp)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, http.StatusNotFound, errResp.Code)
	require.Contains(t, errResp.Message, "missing")
}

func TestHandler_RestartIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		index      string
		wantStatus int
	}{
		{name: "restarts failed index", index: "orders", wantStatus: http.StatusAccepted},
		{name: "unknown index", index: "missing", err: fmt.Errorf("%w: missing", internalindexer.ErrUnknownIndex),
			wantStatus: http.StatusNotFound},
		{name: "index not failed", index: "pools", err: fmt.Errorf("%w: pools is live", internalindexer.ErrNotFailed),
			wantStatus: http.StatusConflict},
		{name: "indexer stopped", index: "orders", err: internalindexer.ErrStopped,
			wantStatus: http.StatusServiceUnavailable},
		{name: "store failure", index: "orders", err: &internalindexer.CursorStoreError{Index: "orders", Consecutive: 1},
			wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry := testRegistry()
			registry.restartErr = tt.err

			w := do(t, newTestServer(registry), http.MethodPost, "/api/v1/indexes/"+tt.index+"/restart", nil)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.err == nil {
				var reg indexer.Registration
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
				require.Equal(t, indexer.StatusBackfilling, reg.Status)
				require.Equal(t, []string{tt.index}, registry.restarted)
			}
		})
	}
}

func TestHandler_RestartRequiresPost(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/indexes/orders/restart", nil)
	w := httptest.NewRecorder()
	newTestServer(testRegistry()).ServeHTTP(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
