package api_router

import (
	"net/http"

	"github.com/baluardo/backup-control-service/internal/app"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and version probes.
type HealthHandler struct {
	*Handler
}

func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    app.Name,
		"version": app.Version,
	})
}
