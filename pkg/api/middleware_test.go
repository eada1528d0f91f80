package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
	}{
		{name: "wildcard echoes origin", allowed: []string{"*"}, origin: "https://example.com",
			method: http.MethodGet, wantOrigin: "https://example.com"},
		{name: "wildcard without origin", allowed: []string{"*"}, method: http.MethodGet, wantOrigin: "*"},
		{name: "listed origin", allowed: []string{"https://a.com", "https://b.com"}, origin: "https://b.com",
			method: http.MethodGet, wantOrigin: "https://b.com"},
		{name: "unlisted origin", allowed: []string{"https://a.com"}, origin: "https://evil.com",
			method: http.MethodGet},
		{name: "no allowed origins", allowed: nil, origin: "https://a.com", method: http.MethodGet},
		{name: "preflight", allowed: []string{"https://a.com"}, origin: "https://a.com",
			method: http.MethodOptions, wantOrigin: "https://a.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/v1/indexes", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(okHandler()).ServeHTTP(w, req)

			require.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
				require.Equal(t, corsMaxAge, w.Header().Get("Access-Control-Max-Age"))
			}

			require.Equal(t, http.StatusOK, w.Code)
			if tt.method == http.MethodOptions {
				require.Empty(t, w.Body.String())
			} else {
				require.Equal(t, "OK", w.Body.String())
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	for _, v := range []any{"something went wrong", assert.AnError, 42} {
		panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(v) })

		w := httptest.NewRecorder()
		require.NotPanics(t, func() {
			RecoveryMiddleware(logger.NewNopLogger())(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		})
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "Internal Server Error\n", w.Body.String())
	}
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusBadRequest)

	require.Equal(t, http.StatusCreated, wrapped.statusCode)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestMiddlewareChaining(t *testing.T) {
	t.Parallel()

	log := logger.NewNopLogger()
	handler := RecoveryMiddleware(log)(LoggingMiddleware(log)(CORSMiddleware([]string{"*"})(okHandler())))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
	require.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
