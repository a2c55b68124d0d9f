package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, registrars ...RouteRegistrar) *Server {
	t.Helper()
	srv, err := New(&Config{
		ListenAddr:               "127.0.0.1:0",
		Log:                      slog.New(slog.NewTextHandler(io.Discard, nil)),
		DrainDuration:            10 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, registrars...)
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewRequiresListenAddr(t *testing.T) {
	_, err := New(&Config{})
	require.Error(t, err)
}

func TestLivenessAndReadiness(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv.srv.Handler, "/livez")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())

	rec = get(t, srv.srv.Handler, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDrainAndUndrain(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv.srv.Handler, "/drain")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv.srv.Handler, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Draining twice is reported, not an error.
	rec = get(t, srv.srv.Handler, "/drain")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already draining")

	rec = get(t, srv.srv.Handler, "/undrain")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv.srv.Handler, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type testRoutes struct{}

func (testRoutes) RegisterRoutes(r chi.Router) {
	r.Get("/custom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestRouteRegistrars(t *testing.T) {
	srv := newTestServer(t, testRoutes{})

	rec := get(t, srv.srv.Handler, "/custom")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestPprofMounting(t *testing.T) {
	srv, err := New(&Config{
		ListenAddr:  "127.0.0.1:0",
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		EnablePprof: true,
	})
	require.NoError(t, err)

	rec := get(t, srv.srv.Handler, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Without the flag the debug tree does not exist.
	plain := newTestServer(t)
	rec = get(t, plain.srv.Handler, "/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
