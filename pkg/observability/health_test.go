package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		extraErr   error
		wantStatus string
		wantDB     string
	}{
		{name: "all healthy", pinger: &fakePinger{}, wantStatus: "healthy", wantDB: "healthy"},
		{name: "database down", pinger: &fakePinger{err: errors.New("refused")}, wantStatus: "unhealthy", wantDB: "unhealthy: refused"},
		{name: "no database", pinger: nil, wantStatus: "healthy", wantDB: "not configured"},
		{name: "breaker open", pinger: &fakePinger{}, extraErr: errors.New("circuit open"), wantStatus: "unhealthy", wantDB: "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(tt.pinger)
			h.AddCheck("carrier", func(ctx context.Context) error { return tt.extraErr })

			status := h.Check(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantDB, status.Checks["database"])
			assert.Contains(t, status.Checks, "carrier")
		})
	}
}

func TestMetricsMux_Endpoints(t *testing.T) {
	h := NewHealthChecker(&fakePinger{err: errors.New("down")})
	readiness := NewReadiness()
	mux := NewMetricsMux(h, readiness)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	readiness.SetReady(false)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadiness_NilIsReady(t *testing.T) {
	var r *Readiness
	assert.True(t, r.Ready())
}
