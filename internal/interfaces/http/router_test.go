package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/trafficstat/internal/infrastructure/metrics"
	"github.com/orris-inc/trafficstat/internal/interfaces/http/handlers"
	"github.com/orris-inc/trafficstat/internal/testutil"
)

func newTestRouter(t *testing.T, check handlers.CheckFunc) (*Router, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	log := testutil.NewMockLogger()

	health := handlers.NewHealthHandler(time.Second, log)
	health.AddCheck("database", check)

	r := NewRouter(health, reg, log)
	r.SetupRoutes()
	return r, m
}

func TestRouter_Metrics(t *testing.T) {
	r, m := newTestRouter(t, func(context.Context) error { return nil })
	m.DrainCycle(metrics.ResultSuccess)
	m.DrainedBytes("upload", 2048)

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))

	assert.Equal(t, stdhttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `trafficstat_drain_cycles_total{result="success"} 1`)
	assert.Contains(t, w.Body.String(), `trafficstat_drained_bytes_total{direction="upload"} 2048`)
}

func TestRouter_Healthz(t *testing.T) {
	r, _ := newTestRouter(t, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/healthz", nil))
	assert.Equal(t, stdhttp.StatusOK, w.Code)

	r, _ = newTestRouter(t, func(context.Context) error { return errors.New("down") })
	w = httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/healthz", nil))
	assert.Equal(t, stdhttp.StatusServiceUnavailable, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/admin", nil))
	assert.Equal(t, stdhttp.StatusNotFound, w.Code)
}
