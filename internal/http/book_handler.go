package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type CatalogService interface {
	ListBooks(ctx context.Context, tag string) ([]domain.Book, error)
	RankBooks(ctx context.Context, by string, limit int) ([]domain.Book, error)
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	CreateBook(ctx context.Context, in service.BookInput) (*domain.Book, error)
	UpdateBook(ctx context.Context, id string, in service.BookInput) (*domain.Book, error)
	DeleteBook(ctx context.Context, id string) error
	ListCollections(ctx context.Context) ([]service.CollectionSummary, error)
	GetCollection(ctx context.Context, id string) (*service.CollectionDetail, error)
	CreateCollection(ctx context.Context, in service.CollectionInput) (*domain.Collection, error)
	UpdateCollection(ctx context.Context, id string, in service.CollectionInput) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
}

type BookHandler struct {
	catalog CatalogService
	log     zerolog.Logger
}

func NewBookHandler(catalog CatalogService, log zerolog.Logger) *BookHandler {
	return &BookHandler{catalog: catalog, log: log}
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListBooks(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if books == nil {
		books = []domain.Book{}
	}
	respondJSON(w, http.StatusOK, books)
}

// RankBooks serves GET /books/ranking?by=sold|views&limit=N.
func (h *BookHandler) RankBooks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a number")
			return
		}
		limit = n
	}

	books, err := h.catalog.RankBooks(r.Context(), r.URL.Query().Get("by"), limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, books)
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req service.BookInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	book, err := h.catalog.CreateBook(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req service.BookInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	book, err := h.catalog.UpdateBook(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.catalog.ListCollections(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, collections)
}

func (h *BookHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.catalog.GetCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, collection)
}

func (h *BookHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req service.CollectionInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	collection, err := h.catalog.CreateCollection(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, collection)
}

func (h *BookHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req service.CollectionInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	collection, err := h.catalog.UpdateCollection(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, collection)
}

func (h *BookHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCollection(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
