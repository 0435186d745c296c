package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_bookstore/internal/domain"
)

// CartCache holds the raw item list of a user's cart.
type CartCache interface {
	Get(ctx context.Context, userID string) ([]domain.CartItem, error)
	Set(ctx context.Context, userID string, items []domain.CartItem) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
