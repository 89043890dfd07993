package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/qrawl/api/handler"
	"github.com/use-agent/qrawl/api/middleware"
	"github.com/use-agent/qrawl/cache"
	"github.com/use-agent/qrawl/cleaner"
	"github.com/use-agent/qrawl/config"
	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → RequestID → Metrics
//	API:     Auth (if enabled) → RateLimit
//
// Health and /metrics stay outside auth so monitoring probes always work.
func NewRouter(eng *engine.Engine, pipe *cleaner.Pipeline, st store.PolicyStore, f handler.PageFetcher, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(st, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Extract
	protected.POST("/extract", handler.Extract(eng, cc))
	protected.POST("/extract/auto", handler.ExtractAuto(eng))

	// Policies
	protected.POST("/policies", handler.CreatePolicy(eng))
	protected.GET("/policies", handler.ListPolicies(eng))
	protected.GET("/policies/audit", handler.AuditPolicies(eng))
	protected.GET("/policies/:domain", handler.ReadPolicy(eng))
	protected.PUT("/policies/:domain", handler.UpdatePolicy(eng))
	protected.DELETE("/policies/:domain", handler.DeletePolicy(eng))
	protected.DELETE("/policies", handler.DeleteAllPolicies(eng))

	// Page tools
	protected.POST("/children", handler.Children(f))
	protected.POST("/readable", handler.Readable(pipe, f))

	// Batch
	protected.POST("/batch/extract", handler.PostBatch(eng, cfg.Webhook))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
