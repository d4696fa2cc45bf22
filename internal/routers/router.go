// Package routers assembles the gin engine and its middleware chain.
package routers

import (
	"time"

	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/internal/middleware"
	"github.com/baluardo/backup-control-service/internal/routers/api_router"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// NewRouter builds the HTTP API router on the app container.
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {
	cfg := appContainer.Config()

	r := gin.New()

	healthHandler := api_router.NewHealthHandler(appContainer)
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, app.Version))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		jobHandler := api_router.NewJobHandler(appContainer)
		runHandler := api_router.NewRunHandler(appContainer)
		hostHandler := api_router.NewHostHandler(appContainer)

		api.POST("/jobs", jobHandler.CreateOrUpdate)
		api.GET("/jobs", jobHandler.List)
		api.GET("/jobs/get", jobHandler.Get)
		api.POST("/jobs/delete", jobHandler.Delete)
		api.POST("/jobs/run", jobHandler.Run)
		api.GET("/jobs/backups", jobHandler.Backups)

		api.GET("/runs", runHandler.List)
		api.GET("/runs/get", runHandler.Get)

		api.POST("/agent/heartbeat", hostHandler.Heartbeat)
		api.GET("/hosts", hostHandler.List)
		api.GET("/hosts/get", hostHandler.Get)
		api.GET("/schedule", hostHandler.Schedule)
	}

	return r
}
