package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/metrics"
	"mediconnect/internal/service"
)

// RouterDeps agrupa handlers y middlewares montados por NewRouter.
type RouterDeps struct {
	Patients    *PatientHandler
	Auth        *AuthHandler
	Bookings    *BookingHandler
	Tests       *LabTestHandler
	System      *SystemHandler
	Gate        *AuthGate
	RateLimiter service.AuthRateLimiter
	Metrics     *metrics.Collector
	CORSOrigins []string
}

// NewRouter configura el router de Gin con middlewares y rutas bajo /api.
func NewRouter(logger *zap.Logger, deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/", deps.System.Root)
	r.GET("/healthz", deps.System.Healthz)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	limited := rateLimitMiddleware(logger, deps.RateLimiter)
	requireAuth := deps.Gate.Require()

	api := r.Group("/api")

	patients := api.Group("/patients")
	patients.POST("/register", limited, deps.Patients.Register)
	patients.POST("/login", limited, deps.Patients.Login)
	patients.GET("/profile", requireAuth, deps.Patients.GetProfile)
	patients.PUT("/profile", requireAuth, deps.Patients.UpdateProfile)

	auth := api.Group("/auth")
	auth.GET("/google", limited, deps.Auth.GoogleStart)
	auth.GET("/google/callback", deps.Auth.GoogleCallback)
	auth.POST("/local", limited, deps.Patients.Login)
	auth.GET("/user", requireAuth, deps.Auth.CurrentUser)
	auth.GET("/providers", deps.Auth.Providers)
	auth.GET("/logout", deps.Auth.Logout)

	api.GET("/tests", deps.Tests.List)

	bookings := api.Group("/bookings", requireAuth)
	bookings.POST("", deps.Bookings.Create)
	bookings.GET("/report/download", deps.Bookings.DownloadReport)
	bookings.POST("/report/email", deps.Bookings.EmailReport)
	bookings.GET("/:patientId", deps.Bookings.List)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
