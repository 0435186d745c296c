package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/go_bookstore/internal/logger"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/fjod/go_bookstore/internal/service"
	"github.com/fjod/go_bookstore/internal/storage"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeServiceError maps a service or repository error onto a status code.
// Only client errors echo their message back.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrInvalidCredentials):
		httpStatus, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrUserBlocked):
		httpStatus, code = http.StatusForbidden, "user_blocked"
	case errors.Is(err, service.ErrForbidden):
		httpStatus, code = http.StatusForbidden, "permission_denied"
	case errors.Is(err, service.ErrInvalidProductID):
		httpStatus, code = http.StatusBadRequest, "invalid_product_id"
	case errors.Is(err, service.ErrInvalidQuantity):
		httpStatus, code = http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, service.ErrInvalidAction):
		httpStatus, code = http.StatusBadRequest, "invalid_action"
	case errors.Is(err, service.ErrValidation):
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, storage.ErrInvalidUploadType):
		httpStatus, code = http.StatusBadRequest, "invalid_upload_type"
	case errors.Is(err, repository.ErrBookNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCollectionNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyPurchased):
		httpStatus, code = http.StatusConflict, "already_exists"
	case errors.Is(err, storage.ErrUnavailable):
		httpStatus, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	default:
		l := logger.WithTrace(r.Context(), log)
		l.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
