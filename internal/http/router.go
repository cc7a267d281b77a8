// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-social-backend/docs"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/http/handlers"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *mongo.Database, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20)) // 1 MiB

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// OpenAPI UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repositories ← db
	users := repo.NewUserRepo(db)
	thoughts := repo.NewThoughtRepo(db)
	h := handlers.New(
		services.NewUserService(users, thoughts),
		services.NewThoughtService(thoughts, users),
	)
	mountAPI(r, h, cfg.APIBasePath)
}

// mountAPI binds the public REST surface to h under basePath (e.g. "/api").
func mountAPI(r *gin.Engine, h *handlers.Handlers, basePath string) {
	api := groupWithPrefix(r, basePath)
	{
		// Users
		api.POST("/users", h.CreateUser)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeleteUser)

		// Friends (path parameters on both sides, matching addFriend)
		api.POST("/users/:id/friends/:friendId", h.AddFriend)
		api.DELETE("/users/:id/friends/:friendId", h.RemoveFriend)

		// Thoughts
		api.POST("/thoughts", h.CreateThought)
		api.GET("/thoughts", h.ListThoughts)
		api.GET("/thoughts/:id", h.GetThought)
		api.PUT("/thoughts/:id", h.UpdateThought)
		api.DELETE("/thoughts/:id", h.DeleteThought)

		// Reactions (embedded in thoughts)
		api.POST("/thoughts/:id/reactions", h.AddReaction)
		api.DELETE("/thoughts/:id/reactions/:reactionId", h.RemoveReaction)
	}
}

// corsConfig builds the CORS posture: allow-all when no origins are
// configured, otherwise the explicit allowlist.
func corsConfig(allowedOrigins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = allowedOrigins
	}
	return c
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on downstream reads.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
