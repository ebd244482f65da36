// Package router maps HTTP routes onto handlers and access rules.
package router

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/foi-request-api/api/swagger"
	"github.com/noah-isme/foi-request-api/internal/app"
	"github.com/noah-isme/foi-request-api/internal/handler"
	"github.com/noah-isme/foi-request-api/internal/middleware"
	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/pkg/config"
	"github.com/noah-isme/foi-request-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/foi-request-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/foi-request-api/pkg/middleware/requestid"
)

// LocalIdentity is attached to every request when authentication is disabled.
var LocalIdentity = models.JWTClaims{
	UserID:   "local",
	Email:    "local@localhost",
	FullName: "Local Operator",
	Role:     models.RoleCoordinator,
}

// New builds the gin engine for the assembled application.
func New(a *app.App) *gin.Engine {
	cfg := a.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger.Named("http"), "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(a.Metrics, readinessChecks(a))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requests := handler.NewFOIRequestHandler(a.Requests)
	reports := handler.NewFOIReportHandler(a.Reports)
	exports := handler.NewExportHandler(a.Exporter, a.ExportJobs)

	api := r.Group(cfg.APIPrefix)
	// Signed tokens authorise downloads on their own.
	api.GET("/exports/download/:token", exports.Download)

	secured := api.Group("")
	if a.Auth != nil {
		auth := handler.NewAuthHandler(a.Auth)
		api.POST("/auth/login", auth.Login)
		secured.Use(middleware.JWT(a.Auth))
		secured.GET("/auth/me", auth.Me)
	} else {
		a.Logger.Warn("authentication disabled, all requests act as the local coordinator")
		secured.Use(middleware.StaticIdentity(LocalIdentity))
	}

	read := middleware.RequireRoles(middleware.ReadRoles...)
	write := middleware.RequireRoles(middleware.WriteRoles...)
	exportAudit := middleware.Audit(a.Audit, a.Logger, models.AuditActionRequestExport, models.AuditResourceFOIRequest)

	secured.GET("/requests", read, requests.List)
	secured.POST("/requests", write, requests.Create)
	secured.GET("/requests/:id", read, requests.Get)
	secured.POST("/requests/:id/start", write, requests.Start)
	secured.POST("/requests/:id/extend", write, requests.Extend)
	secured.POST("/requests/:id/complete", write, requests.Complete)

	secured.GET("/reports/summary", read, reports.Summary)
	secured.GET("/reports/urgent", read, reports.Urgent)
	secured.GET("/dashboard", read, reports.Dashboard)

	secured.GET("/exports/requests.csv", read, exportAudit, exports.CSV)
	secured.POST("/exports", read, exportAudit, exports.Create)
	secured.GET("/exports/jobs/:id", read, exports.Status)

	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleCoordinator), metricsHandler.Snapshot)

	return r
}

func readinessChecks(a *app.App) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{}
	if a.DB != nil {
		checks["postgres"] = func(ctx context.Context) error { return a.DB.PingContext(ctx) }
	}
	if a.CacheRepo != nil {
		checks["redis"] = a.CacheRepo.Ping
	}
	return checks
}
