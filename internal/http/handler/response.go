package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"prospect-api/internal/domain"
	"prospect-api/internal/http/httperr"
	"prospect-api/internal/observability/logger"

	"go.uber.org/zap"
)

// writeOK writes the standard success envelope.
func writeOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":   true,
		"data": data,
	})
}

// handleDomainError maps domain error types to HTTP responses.
func handleDomainError(w http.ResponseWriter, ctx context.Context, err error) {
	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &validationErr):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, validationErr.Message)
	case errors.As(err, &notFoundErr):
		httperr.NotFound404(w, ctx, notFoundErr.Error())
	case errors.As(err, &conflictErr):
		httperr.Conflict409(w, ctx, conflictErr.Message)
	default:
		log := logger.GetLogger(ctx)
		log.Error(ctx, "internal error",
			logger.Module("http"),
			logger.Action("handle_error"),
			zap.Error(err),
		)
		logger.SetRootError(ctx, err)
		httperr.InternalError(w, ctx)
	}
}
