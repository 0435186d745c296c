package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_bookstore/internal/auth"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/service"
	"github.com/rs/zerolog"
)

type CartService interface {
	View(ctx context.Context, id domain.Identity) (domain.CartView, error)
	Apply(ctx context.Context, id domain.Identity, cmd service.CartCommand) (domain.CartView, error)
	Clear(ctx context.Context, id domain.Identity) error
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
	log     zerolog.Logger
}

func NewCartHandler(cart CartService, timeout time.Duration, log zerolog.Logger) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
		log:     log,
	}
}

// CartRequestDTO accepts productId, or bookId from older clients.
type CartRequestDTO struct {
	ProductID string `json:"productId"`
	BookID    string `json:"bookId"`
	Quantity  *int   `json:"quantity"`
	Action    string `json:"action"`
}

// CartResponseDTO omits total when the cart has no lines.
type CartResponseDTO struct {
	Cart  []domain.CartLine `json:"cart"`
	Total json.Number       `json:"total,omitempty"`
}

func cartResponse(view domain.CartView) CartResponseDTO {
	lines := view.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	resp := CartResponseDTO{Cart: lines}
	if len(lines) > 0 {
		resp.Total = json.Number(view.Total.StringFixed(2))
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.cart.View(ctx, auth.FromContext(r.Context()))
	if errors.Is(err, service.ErrNotAuthenticated) {
		respondJSON(w, http.StatusOK, CartResponseDTO{Cart: []domain.CartLine{}})
		return
	}
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(view))
}

func (h *CartHandler) ModifyCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := auth.FromContext(r.Context())
	if !identity.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	var req CartRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cmd := service.CartCommand{
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  1,
		Action:    service.ActionAdd,
	}
	if cmd.ProductID == "" {
		cmd.ProductID = strings.TrimSpace(req.BookID)
	}
	if req.Quantity != nil {
		cmd.Quantity = *req.Quantity
	}
	if req.Action != "" {
		cmd.Action = service.CartAction(strings.ToLower(req.Action))
	}

	view, err := h.cart.Apply(ctx, identity, cmd)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(view))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx, auth.FromContext(r.Context())); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(domain.CartView{}))
}
