package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/go_bookstore/internal/auth"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type PurchaseService interface {
	Purchase(ctx context.Context, id domain.Identity, bookID string) (*domain.BookPurchased, error)
	HasPurchased(ctx context.Context, id domain.Identity, bookID string) (bool, error)
	ReadURL(ctx context.Context, id domain.Identity, bookID string) (string, error)
}

type PurchaseHandler struct {
	purchases PurchaseService
	log       zerolog.Logger
}

func NewPurchaseHandler(purchases PurchaseService, log zerolog.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, log: log}
}

type PurchaseRequestDTO struct {
	ProductID string `json:"productId"`
	BookID    string `json:"bookId"`
}

type PurchaseResponseDTO struct {
	Message   string `json:"message"`
	Purchased bool   `json:"purchased"`
	EventID   string `json:"event_id,omitempty"`
}

func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	bookID := strings.TrimSpace(req.ProductID)
	if bookID == "" {
		bookID = strings.TrimSpace(req.BookID)
	}

	event, err := h.purchases.Purchase(r.Context(), auth.FromContext(r.Context()), bookID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, PurchaseResponseDTO{Message: "Purchase successful", Purchased: true, EventID: event.EventID})
}

func (h *PurchaseHandler) CheckPurchase(w http.ResponseWriter, r *http.Request) {
	bookID := r.URL.Query().Get("productId")
	if bookID == "" {
		bookID = r.URL.Query().Get("bookId")
	}

	owned, err := h.purchases.HasPurchased(r.Context(), auth.FromContext(r.Context()), bookID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"purchased": owned})
}

func (h *PurchaseHandler) ReadBook(w http.ResponseWriter, r *http.Request) {
	url, err := h.purchases.ReadURL(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
