package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/documents"
	"procurement-backend/internal/services/health"
	"procurement-backend/internal/shared/config"
	"procurement-backend/internal/shared/metrics"
	"procurement-backend/internal/shared/server/middleware"
	"procurement-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	r.GET("/health", func(c *gin.Context) {
		payload := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if ok, _ := payload["ok"].(bool); !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, payload)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.Config.Env))

	// Classify and analyze run the engines synchronously, so they carry a
	// tighter bucket than the rest of the API.
	heavy := middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"PROCESS": {Rate: 1, Burst: 5},
		},
		DefaultGroup: "PROCESS",
	})

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(api, heavy)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
