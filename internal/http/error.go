package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage"
	"github.com/go-chi/chi/v5/middleware"
)

type ErrorResponse struct {
	Error string            `json:"error"`
	Meta  map[string]string `json:"meta,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, msg string, meta map[string]string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Meta: meta})
}

func BadRequest(w http.ResponseWriter, msg string, meta map[string]string) {
	WriteError(w, http.StatusBadRequest, msg, meta)
}

func NotFound(w http.ResponseWriter, msg string, meta map[string]string) {
	WriteError(w, http.StatusNotFound, msg, meta)
}

func InternalError(w http.ResponseWriter, msg string, meta map[string]string) {
	WriteError(w, http.StatusInternalServerError, msg, meta)
}

func ServiceUnavailable(w http.ResponseWriter, msg string, meta map[string]string) {
	WriteError(w, http.StatusServiceUnavailable, msg, meta)
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMissingContext),
		errors.Is(err, models.ErrInvalidFilters),
		errors.Is(err, models.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrRoomMismatch),
		errors.Is(err, models.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrUnknownSession),
		errors.Is(err, models.ErrUnknownRow),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCommitInProgress),
		errors.Is(err, models.ErrNothingSelected),
		errors.Is(err, models.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErr writes err with its mapped status and the request id.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	meta := map[string]string{"request_id": middleware.GetReqID(r.Context())}
	var mc *models.MissingContextError
	if errors.As(err, &mc) {
		meta["missing"] = strings.Join(mc.Fields, ",")
	}
	var ce *models.CapacityExceededError
	if errors.As(err, &ce) {
		meta["class"] = string(ce.Class)
	}
	WriteError(w, StatusFor(err), err.Error(), meta)
}
