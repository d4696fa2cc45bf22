// Package api_router provides the HTTP API route handlers.
package api_router

import (
	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/internal/service"
	"github.com/baluardo/backup-control-service/pkg/code"

	"github.com/pkg/errors"
)

// Handler is the base handler embedding the app container. All API
// handlers embed it for dependency access.
type Handler struct {
	App *app.App
}

// NewHandler creates the base handler.
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// codeForError maps engine errors to API result codes.
func codeForError(err error) *code.Code {
	if errors.Is(err, service.ErrInvalidJob) {
		return code.ErrorJobInvalid.WithDetails(err.Error())
	}
	switch domain.KindOf(err) {
	case domain.KindJobNotFound:
		return code.ErrorJobNotFound
	case domain.KindJobRunning:
		return code.ErrorJobRunning
	case domain.KindAgentUnreachable, domain.KindAgentTimeout:
		return code.ErrorAgentUnreachable.WithDetails(err.Error())
	case domain.KindUNCInvalidFormat, domain.KindSourceEqualsDestination, domain.KindPathOverlap:
		return code.ErrorJobInvalid.WithDetails(err.Error())
	default:
		return code.ErrorServerInternal.WithDetails(err.Error())
	}
}
