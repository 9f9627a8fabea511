package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrorail/induction-planner/internal/adapter"
	"github.com/metrorail/induction-planner/internal/auth"
	"github.com/metrorail/induction-planner/internal/common/middleware"
	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/plan"
	"github.com/metrorail/induction-planner/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeCaller(callerID string, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("caller_id", callerID)
		c.Set("role", role)
		c.Next()
	}
}

func newTestRouter(svc *plan.Service) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewHandler(svc)

	api := r.Group("/api/induction")
	api.Use(fakeCaller("supervisor-1", auth.RoleSupervisor))
	{
		api.GET("/latest", h.Latest)
		api.GET("/history", h.History)
		api.GET("/explain/:planId", h.Explain)
		api.POST("/generate", h.Generate)
		api.POST("/simulate", h.Simulate)
	}
	return r
}

func serviceWithOneTrain(now time.Time) (*plan.Service, repository.TrainRepository, repository.PlanRepository) {
	trainRepo := repository.NewMemoryTrainRepository()
	_, _ = trainRepo.Upsert(context.Background(), domain.Train{
		Code:        "TS-01",
		Fitness:     domain.Fitness{Valid: true, Expiry: now.AddDate(0, 6, 0)},
		Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.AddDate(0, 1, 0)},
		Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
		Operational: domain.Operational{AvailableForService: true},
	})
	planRepo := repository.NewMemoryPlanRepository()
	a := adapter.New(adapter.Config{}, discardLogger())
	svc := plan.New(trainRepo, planRepo, a, nil, nil, func() time.Time { return now })
	return svc, trainRepo, planRepo
}

func TestLatest_NoPlanYetReturns404(t *testing.T) {
	svc, _, _ := serviceWithOneTrain(time.Now())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/induction/latest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerate_CreatesAndReturnsPlan(t *testing.T) {
	now := time.Now()
	svc, _, _ := serviceWithOneTrain(now)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/induction/generate", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
}

func TestGenerate_ConflictOnSecondCallWithoutForce(t *testing.T) {
	now := time.Now()
	svc, _, _ := serviceWithOneTrain(now)
	router := newTestRouter(svc)

	for i, expected := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/induction/generate", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, expected, w.Code, "request #%d", i+1)
	}
}

func TestGenerate_NoTrainsAvailableReturnsBadRequest(t *testing.T) {
	trainRepo := repository.NewMemoryTrainRepository()
	planRepo := repository.NewMemoryPlanRepository()
	a := adapter.New(adapter.Config{}, discardLogger())
	svc := plan.New(trainRepo, planRepo, a, nil, nil, time.Now)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/induction/generate", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulate_MissingTrainIDIsRejected(t *testing.T) {
	svc, _, _ := serviceWithOneTrain(time.Now())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/induction/simulate", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulate_UnknownTrainReturns404(t *testing.T) {
	svc, _, _ := serviceWithOneTrain(time.Now())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/induction/simulate", bytes.NewBufferString(`{"trainId":"TS-99"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory_ReturnsPaginationMetadata(t *testing.T) {
	svc, _, _ := serviceWithOneTrain(time.Now())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/induction/history?limit=5&page=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	pagination, ok := data["pagination"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(5), pagination["limit"])
	assert.Equal(t, float64(1), pagination["page"])
}

func TestHistory_DefaultsLimitToTenWhenOmitted(t *testing.T) {
	svc, _, _ := serviceWithOneTrain(time.Now())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/induction/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body.Data.(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(10), pagination["limit"])
}

func TestHistory_ClampsLimitToOneHundred(t *testing.T) {
	svc, _, _ := serviceWithOneTrain(time.Now())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/induction/history?limit=500", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body.Data.(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(100), pagination["limit"])
}

func TestGenerate_AcceptsBareISODatePlanDate(t *testing.T) {
	now := time.Now()
	svc, _, _ := serviceWithOneTrain(now)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/induction/generate", bytes.NewBufferString(`{"planDate":"2026-01-15"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
}
