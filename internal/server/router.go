package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swiftloan/backend/internal/config"
	"github.com/swiftloan/backend/internal/domain/calculator"
	"github.com/swiftloan/backend/internal/http/handlers"
	"github.com/swiftloan/backend/internal/http/middleware"
	"github.com/swiftloan/backend/internal/version"
	"github.com/swiftloan/backend/internal/ws"
)

type Dependencies struct {
	Pinger             handlers.Pinger
	ApplicationHandler *handlers.ApplicationHandler
	AdminHandler       *handlers.AdminHandler
	WSHandler          *ws.Handler
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RequestBodyLimit(cfg.MaxBodyBytes))

	health := handlers.NewHealthHandler(deps.Pinger, cfg.StoreDriver)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)
	calc := handlers.NewCalculatorHandler(calculator.DefaultBounds)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/v1/calculator/emi", calc.CalculateEMI)
	r.GET("/v1/calculator/bounds", calc.GetBounds)

	if deps.ApplicationHandler != nil {
		apps := r.Group("/v1/applications")
		apps.POST("", deps.ApplicationHandler.Submit)
		apps.GET("/:applicationNumber", deps.ApplicationHandler.Get)
		apps.GET("/:applicationNumber/summary", deps.ApplicationHandler.DownloadSummary)
	}
	if deps.AdminHandler != nil {
		adminGroup := r.Group("/admin")
		adminGroup.Use(middleware.RequireAdminKey(cfg.AdminAPIKey))
		adminGroup.PATCH("/applications/:id/status", deps.AdminHandler.UpdateStatus)
	}
	if deps.WSHandler != nil {
		r.GET("/v1/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
