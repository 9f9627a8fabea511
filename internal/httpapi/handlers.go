// Package httpapi exposes the induction planning engine's five
// operations over /api/induction: a thin Gin layer that binds/validates
// the request, delegates to the service, and translates domain errors
// into the project's standardized error responses.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/metrorail/induction-planner/internal/auth"
	"github.com/metrorail/induction-planner/internal/common/middleware"
	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/optimizer"
	"github.com/metrorail/induction-planner/internal/plan"
	"github.com/metrorail/induction-planner/internal/repository"
	"github.com/metrorail/induction-planner/internal/simulator"
)

// maxHistoryLimit is the documented upper bound on GET /history?limit=.
const maxHistoryLimit = 100

// defaultHistoryLimit is the documented default for GET /history?limit=.
const defaultHistoryLimit = 10

// civilDate unmarshals the wire contract's bare ISO-date fields
// ("2026-01-15", no time-of-day or offset) into a time.Time at
// midnight UTC. time.Time's own UnmarshalJSON requires full RFC3339,
// which rejects these date-only values.
type civilDate time.Time

func (d *civilDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	*d = civilDate(t)
	return nil
}

func (d civilDate) toTime() time.Time {
	return time.Time(d)
}

// Handler serves the induction planning HTTP API.
type Handler struct {
	service   *plan.Service
	validator *validator.Validate
}

// NewHandler creates a new Handler.
func NewHandler(service *plan.Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// SuccessResponse is the envelope for every non-error response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// GenerateRequest is the POST /generate request body.
type GenerateRequest struct {
	PlanDate        *civilDate            `json:"planDate"`
	ForceRegenerate bool                  `json:"forceRegenerate"`
	Constraints     optimizer.Constraints `json:"constraints"`
}

// SimulateRequest is the POST /simulate request body.
type SimulateRequest struct {
	TrainID       string                `json:"trainId" validate:"required"`
	Modifications domain.Modifications  `json:"modifications"`
	BaseDate      *civilDate            `json:"baseDate"`
	Constraints   optimizer.Constraints `json:"constraints"`
}

// Latest handles GET /api/induction/latest.
func (h *Handler) Latest(c *gin.Context) {
	result, err := h.service.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			middleware.AbortWithNotFound(c, "induction plan")
			return
		}
		middleware.AbortWithInternal(c, "failed to load latest plan", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: gin.H{
			"plan":           result.Plan,
			"summary":        result.Summary,
			"topTrains":      result.TopTrains,
			"criticalAlerts": result.CriticalAlerts,
		},
	})
}

// History handles GET /api/induction/history?limit=&page=.
func (h *Handler) History(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	page := parseIntDefault(c.Query("page"), 1)

	plans, total, err := h.service.History(c.Request.Context(), limit, page)
	if err != nil {
		middleware.AbortWithInternal(c, "failed to load plan history", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: gin.H{
			"plans": plans,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		},
	})
}

// Explain handles GET /api/induction/explain/:planId.
func (h *Handler) Explain(c *gin.Context) {
	planID := c.Param("planId")

	result, err := h.service.Explain(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			middleware.AbortWithNotFound(c, "induction plan")
			return
		}
		middleware.AbortWithInternal(c, "failed to explain plan", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: gin.H{
			"plan":                result.Plan,
			"explanations":        result.Explanations,
			"optimizationMetrics": result.OptimizationMetrics,
			"aiModelInfo":         result.AIModelInfo,
			"alerts":              result.Alerts,
		},
	})
}

// Generate handles POST /api/induction/generate.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request body")
		return
	}

	planDate := time.Now()
	if req.PlanDate != nil {
		planDate = req.PlanDate.toTime()
	}

	callerID, _ := auth.CallerFromContext(c)

	result, err := h.service.Generate(c.Request.Context(), planDate, req.ForceRegenerate, callerID, req.Constraints)
	if err != nil {
		var conflict *plan.ErrPlanConflict
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, gin.H{
				"success":      false,
				"existingPlan": conflict.Existing,
				"suggestion":   "pass forceRegenerate=true to replace the existing finalized plan for this date",
			})
			return
		}
		if errors.Is(err, plan.ErrNoTrainsAvailable) {
			middleware.AbortWithBadRequest(c, "no trains available to plan")
			return
		}
		middleware.AbortWithInternal(c, "failed to generate plan", err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data: gin.H{
			"plan":           result.Plan,
			"summary":        result.Summary,
			"processingTime": result.ProcessingTime.Milliseconds(),
		},
	})
}

// Simulate handles POST /api/induction/simulate.
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.AbortWithValidation(c, "trainId is required")
		return
	}

	var baseDate *time.Time
	if req.BaseDate != nil {
		t := req.BaseDate.toTime()
		baseDate = &t
	}

	result, err := h.service.Simulate(c.Request.Context(), req.TrainID, req.Modifications, baseDate, req.Constraints)
	if err != nil {
		if errors.Is(err, simulator.ErrTargetNotFound) {
			middleware.AbortWithNotFound(c, "target train")
			return
		}
		middleware.AbortWithInternal(c, "failed to simulate plan", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: gin.H{
			"simulation": result,
		},
	})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
