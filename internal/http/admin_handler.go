package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/fjod/go_bookstore/internal/auth"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetBlocked(ctx context.Context, admin domain.Identity, userID string, blocked bool) error
	Stats(ctx context.Context) (service.Stats, error)
}

type UploadService interface {
	Upload(ctx context.Context, uploadType, fileName, contentType string, body io.Reader) (service.UploadResult, error)
}

type AdminHandler struct {
	admin         AdminService
	uploads       UploadService
	maxUploadSize int64
	log           zerolog.Logger
}

func NewAdminHandler(admin AdminService, uploads UploadService, maxUploadSize int64, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:         admin,
		uploads:       uploads,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

type BlockRequestDTO struct {
	IsBlocked *bool `json:"is_blocked"`
}

type UploadResponseDTO struct {
	Message string `json:"message"`
	URL     string `json:"url"`
	Key     string `json:"key"`
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	var req BlockRequestDTO
	if err := decodeJSON(r, &req); err != nil || req.IsBlocked == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "is_blocked is required")
		return
	}

	userID := chi.URLParam(r, "id")
	if err := h.admin.SetBlocked(r.Context(), auth.FromContext(r.Context()), userID, *req.IsBlocked); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": userID, "is_blocked": *req.IsBlocked})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.uploads.Upload(r.Context(), r.FormValue("type"), header.Filename, contentType, file)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, UploadResponseDTO{Message: "Success", URL: result.URL, Key: result.Key})
}
