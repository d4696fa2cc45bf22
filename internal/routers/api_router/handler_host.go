package api_router

import (
	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/internal/dto"
	pkgapp "github.com/baluardo/backup-control-service/pkg/app"
	"github.com/baluardo/backup-control-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HostHandler serves the agent liveness API: inbound heartbeat pings and
// the operator host view.
type HostHandler struct {
	*Handler
}

func NewHostHandler(a *app.App) *HostHandler {
	return &HostHandler{Handler: NewHandler(a)}
}

// Heartbeat records an inbound agent ping.
func (h *HostHandler) Heartbeat(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.HeartbeatPostRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	if err := h.App.HeartbeatService.Ping(c.Request.Context(), params.ToDomain()); err != nil {
		h.App.Logger().Error("HostHandler.Heartbeat err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	response.ToResponse(code.Success)
}

// List returns every known host with its TTL-derived online state.
func (h *HostHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	heartbeats, err := h.App.HeartbeatService.List(c.Request.Context())
	if err != nil {
		h.App.Logger().Error("HostHandler.List err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	list := make([]*dto.HostDTO, 0, len(heartbeats))
	for _, hb := range heartbeats {
		list = append(list, dto.HostToDTO(hb, h.App.HeartbeatService.Online(hb)))
	}
	response.ToResponse(code.Success.WithData(list))
}

// Get returns one host by hostname.
func (h *HostHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	hostname := c.Query("hostname")
	if hostname == "" {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("hostname is required"))
		return
	}

	hb, err := h.App.HeartbeatService.Get(c.Request.Context(), hostname)
	if err != nil {
		response.ToResponse(codeForError(err))
		return
	}
	if hb == nil {
		response.ToResponse(code.ErrorHostNotFound)
		return
	}
	response.ToResponse(code.Success.WithData(dto.HostToDTO(hb, h.App.HeartbeatService.Online(hb))))
}

// Schedule returns the scheduler timeline, soonest fire first.
func (h *HostHandler) Schedule(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	response.ToResponse(code.Success.WithData(h.App.Scheduler.Entries()))
}
