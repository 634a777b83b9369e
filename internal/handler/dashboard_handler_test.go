package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/service"
)

type dashboardStub struct{}

func (dashboardStub) Dashboard() dto.DashboardResponse {
	return dto.DashboardResponse{Total: 12, SuccessRate: 75}
}

func TestDashboardHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(dashboardStub{}, service.Predict)

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	h.Dashboard(c)

	require.Equal(t, http.StatusOK, w.Code)
	var dash dto.DashboardResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &dash))
	assert.Equal(t, 12, dash.Total)
}

func TestDashboardHandlerPredict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(dashboardStub{}, service.Predict)

	c, w := newGinContext(http.MethodPost, "/predictions", []byte(`{"attendance":100,"study_hours":40,"participation":8,"previous_average":14}`))
	h.Predict(c)

	require.Equal(t, http.StatusOK, w.Code)
	var pred dto.PredictionResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &pred))
	assert.Equal(t, 87, pred.SuccessPercent)
	assert.Equal(t, "high", pred.Tier)

	c, w = newGinContext(http.MethodPost, "/predictions", []byte(`{"attendance":"lots"}`))
	h.Predict(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()

	ok := NewMetricsHandler(metrics, map[string]ReadinessCheck{"cache": func(ctx context.Context) error { return nil }})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	ok.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	degraded := NewMetricsHandler(metrics, map[string]ReadinessCheck{"registry": func(ctx context.Context) error { return errors.New("down") }})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	degraded.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "down")

	rec := httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	ok.Prometheus(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}
