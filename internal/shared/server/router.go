package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analyses"
	googleauth "resume-analyzer/internal/auth"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
	localstore "resume-analyzer/internal/shared/storage/object/local"
	"resume-analyzer/internal/users"
)

const aiBurst = 5

// RouterDeps holds everything the router mounts. GoogleAuth and UploadsDir are optional.
type RouterDeps struct {
	Config          config.Config
	Tokens          middleware.TokenVerifier
	Health          *health.Service
	UserHandler     *users.Handler
	ResumeHandler   *resumes.Handler
	AnalysisHandler *analyses.Handler
	GoogleAuth      *googleauth.GoogleService
	UploadsDir      string
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	r.GET("/metrics", metrics.Handler())
	if strings.TrimSpace(deps.UploadsDir) != "" {
		r.Static(localstore.DefaultURLPrefix, deps.UploadsDir)
	}

	api := r.Group("/api")
	deps.UserHandler.RegisterPublicRoutes(api)
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(
		middleware.Auth(deps.Tokens),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.AIRateLimitGroup: middleware.PerMinute(deps.Config.AIRatePerMinute, aiBurst),
			},
			GroupFor: middleware.AIRoutes(analyses.AIRoutePatterns...),
			Limiter:  deps.RateLimiter,
		}),
	)
	deps.UserHandler.RegisterRoutes(protected)
	deps.ResumeHandler.RegisterRoutes(protected)
	deps.AnalysisHandler.RegisterRoutes(protected)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Route not found", nil)
	})

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
