package server

import (
	"net/http"

	"github.com/abduss/filegate/internal/config"
	"github.com/abduss/filegate/internal/file"
	"github.com/abduss/filegate/internal/logger"
	"github.com/abduss/filegate/internal/metrics"
	"github.com/abduss/filegate/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	ObjectStore storage.Store
	FileService *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	// keys may contain '/' when sent percent-encoded
	router.UseRawPath = true

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(logger.Middleware(log))
	router.Use(metrics.Middleware())
	router.Use(corsPolicy(deps.Config.CORS))

	registerHealthRoutes(router, deps)
	registerConfigRoute(router, deps.Config.Storage)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.FileService != nil {
		file.RegisterRoutes(router, deps.FileService)
	}

	return router
}

// registerConfigRoute exposes the non-secret storage settings a browser
// client needs. Credentials are never returned.
func registerConfigRoute(router *gin.Engine, cfg config.StorageConfig) {
	router.GET("/aws-config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"S3_BUCKET":        cfg.Bucket,
			"AWS_REGION":       cfg.Region,
			"STORAGE_DRIVER":   cfg.Driver,
			"LINK_TTL_SECONDS": int(file.LinkTTL.Seconds()),
		})
	})
}
