package api_router

import (
	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/internal/dto"
	pkgapp "github.com/baluardo/backup-control-service/pkg/app"
	"github.com/baluardo/backup-control-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobHandler serves the job definition API.
type JobHandler struct {
	*Handler
}

func NewJobHandler(a *app.App) *JobHandler {
	return &JobHandler{Handler: NewHandler(a)}
}

// CreateOrUpdate creates a job when the body carries no ID, updates it
// otherwise. Any change rebuilds the scheduler timeline.
func (h *JobHandler) CreateOrUpdate(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.JobPostRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("JobHandler.CreateOrUpdate.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()
	saved, err := h.App.JobService.Save(ctx, params.ToDomain())
	if err != nil {
		h.App.Logger().Error("JobHandler.CreateOrUpdate err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	if params.ID > 0 {
		response.ToResponse(code.SuccessUpdate.WithData(dto.JobToDTO(saved)))
	} else {
		response.ToResponse(code.SuccessCreate.WithData(dto.JobToDTO(saved)))
	}
}

// Get returns one job definition.
func (h *JobHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.JobGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	job, err := h.App.JobService.Get(c.Request.Context(), params.ID)
	if err != nil {
		response.ToResponse(codeForError(err))
		return
	}
	response.ToResponse(code.Success.WithData(dto.JobToDTO(job)))
}

// List returns a page of job definitions.
func (h *JobHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	jobs, total, err := h.App.JobService.List(c.Request.Context(), pkgapp.GetPage(c), pkgapp.GetPageSize(c))
	if err != nil {
		h.App.Logger().Error("JobHandler.List err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	list := make([]*dto.JobDTO, 0, len(jobs))
	for _, job := range jobs {
		list = append(list, dto.JobToDTO(job))
	}
	response.ToResponseList(code.Success, list, total)
}

// Delete removes a job definition. Past runs stay on record.
func (h *JobHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.JobDeleteRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	if err := h.App.JobService.Delete(c.Request.Context(), params.ID); err != nil {
		response.ToResponse(codeForError(err))
		return
	}
	response.ToResponse(code.SuccessDelete)
}

// Run executes a job immediately, outside its schedule. The call blocks
// until the run is terminal and returns the full run record.
func (h *JobHandler) Run(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.JobRunRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	run, err := h.App.Scheduler.RunJobNow(c.Request.Context(), params.ID)
	if err != nil {
		h.App.Logger().Error("JobHandler.Run err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	response.ToResponse(code.Success.WithData(dto.RunToDTO(run)))
}

// Backups lists the physical backup directories present on the agent
// for a job's copy-mode mappings.
func (h *JobHandler) Backups(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.JobGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()
	job, err := h.App.JobService.Get(ctx, params.ID)
	if err != nil {
		response.ToResponse(codeForError(err))
		return
	}

	hb, err := h.App.HeartbeatService.Get(ctx, job.ClientHostname)
	if err != nil {
		response.ToResponse(codeForError(err))
		return
	}
	if hb == nil || !h.App.HeartbeatService.Online(hb) || hb.Addr() == "" {
		response.ToResponse(code.ErrorAgentUnreachable)
		return
	}

	backups, err := listJobBackups(ctx, h.App, job, hb.Addr())
	if err != nil {
		h.App.Logger().Error("JobHandler.Backups err", zap.Error(err))
		response.ToResponse(codeForError(err))
		return
	}
	response.ToResponse(code.Success.WithData(backups))
}
