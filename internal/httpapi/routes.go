package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/metrorail/induction-planner/internal/auth"
	"github.com/metrorail/induction-planner/internal/common/middleware"
	"github.com/metrorail/induction-planner/internal/common/ratelimit"
)

// SetupRoutes registers the induction planning API under /api/induction.
// Every route requires an authenticated caller (auth.Required); Generate
// and Simulate additionally require at least SUPERVISOR and pass through
// the per-caller rate limiter, since they trigger an Optimizer run.
// responseCache may be nil, in which case GET responses are not cached
// at the HTTP layer (the Plan Service still caches at the data layer).
func SetupRoutes(r *gin.Engine, handler *Handler, jwtSecret string, limiter *ratelimit.Limiter, responseCache *middleware.CacheMiddleware) {
	api := r.Group("/api/induction")
	api.Use(auth.Required(jwtSecret))
	{
		if responseCache != nil {
			api.GET("/latest", responseCache.CacheShort(), handler.Latest)
			api.GET("/history", responseCache.CacheShort(), handler.History)
		} else {
			api.GET("/latest", handler.Latest)
			api.GET("/history", handler.History)
		}
		api.GET("/explain/:planId", handler.Explain)

		write := api.Group("")
		write.Use(auth.RequireRole(auth.RoleSupervisor), limiter.Middleware())
		{
			write.POST("/generate", handler.Generate)
			write.POST("/simulate", handler.Simulate)
		}
	}
}
