package api_router

import (
	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/internal/dto"
	pkgapp "github.com/baluardo/backup-control-service/pkg/app"
	"github.com/baluardo/backup-control-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunHandler serves the run history API.
type RunHandler struct {
	*Handler
}

func NewRunHandler(a *app.App) *RunHandler {
	return &RunHandler{Handler: NewHandler(a)}
}

// List returns a page of runs for a job, newest first.
func (h *RunHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RunListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	runs, total, err := h.App.RunRepo.ListByJob(c.Request.Context(), params.JobID, pkgapp.GetPage(c), pkgapp.GetPageSize(c))
	if err != nil {
		h.App.Logger().Error("RunHandler.List err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	list := make([]*dto.RunDTO, 0, len(runs))
	for _, run := range runs {
		list = append(list, dto.RunToDTO(run))
	}
	response.ToResponseList(code.Success, list, total)
}

// Get returns one run by its run id.
func (h *RunHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RunGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	run, err := h.App.RunRepo.GetByRunID(c.Request.Context(), params.RunID)
	if err != nil {
		h.App.Logger().Error("RunHandler.Get err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	if run == nil {
		response.ToResponse(code.ErrorRunNotFound)
		return
	}
	response.ToResponse(code.Success.WithData(dto.RunToDTO(run)))
}
