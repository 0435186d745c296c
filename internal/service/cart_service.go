package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/logger"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

const (
	fetchTimeout   = 5 * time.Second
	cacheOpTimeout = time.Second
)

type CartAction string

const (
	ActionAdd    CartAction = "add"
	ActionUpdate CartAction = "update"
	ActionRemove CartAction = "remove"
)

// CartCommand is one client request against the cart.
type CartCommand struct {
	ProductID string
	Quantity  int
	Action    CartAction
}

type CartService struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	enricher *Enricher
	log      zerolog.Logger
	tracer   trace.Tracer
	sfg      singleflight.Group // Prevents cache stampede
	fence    cacheFence
}

func NewCartService(repo repository.CartRepository, cartCache cache.CartCache, catalog Catalog, log zerolog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		cache:    cartCache,
		enricher: NewEnricher(catalog),
		log:      log.With().Str("component", "cart").Logger(),
		tracer:   otel.Tracer("github.com/fjod/go_bookstore/internal/service"),
	}
}

// Fetch returns the caller's cart items in stored order. A stored cart that
// breaks the one-item-per-product rule is healed on the way out.
func (s *CartService) Fetch(ctx context.Context, id domain.Identity) ([]domain.CartItem, error) {
	if !id.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	// the flight outlives any single caller that joins it
	ch := s.sfg.DoChan(id.UserID, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		items, err := s.cache.Get(fctx, id.UserID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log := logger.WithTrace(ctx, s.log)
			log.Warn().Err(err).Str("user_id", id.UserID).Msg("cache get failed")
		}

		gen := s.fence.generation(id.UserID)
		items, err = s.load(fctx, id.UserID)
		if err != nil {
			return nil, err
		}
		s.fillCache(id.UserID, gen, items)
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// callers sharing a flight must not see each other's edits
		items := res.Val.([]domain.CartItem)
		return append(make([]domain.CartItem, 0, len(items)), items...), nil
	}
}

// load reads the stored cart, bypassing cache and flight.
func (s *CartService) load(ctx context.Context, userID string) ([]domain.CartItem, error) {
	stored, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.heal(ctx, userID, stored), nil
}

// fillCache stores items read under generation gen. A write that invalidated
// the entry after the read wins and the fill is dropped.
func (s *CartService) fillCache(userID string, gen uint64, items []domain.CartItem) {
	filled := s.fence.fill(userID, gen, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()
		if err := s.cache.Set(ctx, userID, items); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("cache set failed")
		}
	})
	if !filled {
		s.log.Debug().Str("user_id", userID).Msg("stale cache fill dropped")
	}
}

func (s *CartService) heal(ctx context.Context, userID string, stored []domain.CartItem) []domain.CartItem {
	healed, changed := domain.HealCart(stored)
	if !changed {
		return healed
	}

	replaced, err := s.repo.ReplaceCartIfUnchanged(ctx, userID, stored, healed)
	log := logger.WithTrace(ctx, s.log)
	log.Warn().
		Err(err).
		Str("user_id", userID).
		Int("stored_items", len(stored)).
		Int("healed_items", len(healed)).
		Bool("written", replaced).
		Msg("healed inconsistent cart")

	return healed
}

func (s *CartService) Add(ctx context.Context, id domain.Identity, productID string, quantity int) error {
	if !id.Authenticated() {
		return ErrNotAuthenticated
	}
	if !domain.ValidProductID(productID) {
		return ErrInvalidProductID
	}
	if quantity < MinQuantity || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}

	if err := s.repo.AddItem(ctx, id.UserID, productID, quantity); err != nil {
		return s.writeFailed(ctx, "add", id, err)
	}

	s.invalidateCache(id.UserID)
	return nil
}

// Update sets the quantity of an item already in the cart, clamped to
// MinQuantity..MaxQuantity. Updating an absent item does nothing.
func (s *CartService) Update(ctx context.Context, id domain.Identity, productID string, quantity int) error {
	if !id.Authenticated() {
		return ErrNotAuthenticated
	}
	if !domain.ValidProductID(productID) {
		return ErrInvalidProductID
	}
	quantity = max(MinQuantity, min(quantity, MaxQuantity))

	err := s.repo.UpdateItemQuantity(ctx, id.UserID, productID, quantity)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return s.writeFailed(ctx, "update", id, err)
	}

	s.invalidateCache(id.UserID)
	return nil
}

func (s *CartService) Remove(ctx context.Context, id domain.Identity, productID string) error {
	if !id.Authenticated() {
		return ErrNotAuthenticated
	}
	if !domain.ValidProductID(productID) {
		return ErrInvalidProductID
	}

	if err := s.repo.RemoveItem(ctx, id.UserID, productID); err != nil {
		return s.writeFailed(ctx, "remove", id, err)
	}

	s.invalidateCache(id.UserID)
	return nil
}

func (s *CartService) Clear(ctx context.Context, id domain.Identity) error {
	if !id.Authenticated() {
		return ErrNotAuthenticated
	}

	if err := s.repo.ClearCart(ctx, id.UserID); err != nil {
		return s.writeFailed(ctx, "clear", id, err)
	}

	s.invalidateCache(id.UserID)
	return nil
}

// View returns the caller's cart joined with the catalog.
func (s *CartService) View(ctx context.Context, id domain.Identity) (domain.CartView, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.View")
	defer span.End()

	items, err := s.Fetch(ctx, id)
	if err != nil {
		return domain.CartView{}, err
	}
	span.SetAttributes(attribute.Int("cart.items", len(items)))

	return s.enricher.Enrich(ctx, items)
}

// Apply runs cmd and returns the resulting cart view.
func (s *CartService) Apply(ctx context.Context, id domain.Identity, cmd CartCommand) (domain.CartView, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Apply", trace.WithAttributes(
		attribute.String("cart.action", string(cmd.Action)),
		attribute.String("cart.product_id", cmd.ProductID),
	))
	defer span.End()

	var err error
	switch cmd.Action {
	case ActionAdd:
		err = s.Add(ctx, id, cmd.ProductID, cmd.Quantity)
	case ActionUpdate:
		err = s.Update(ctx, id, cmd.ProductID, cmd.Quantity)
	case ActionRemove:
		err = s.Remove(ctx, id, cmd.ProductID)
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidAction, cmd.Action)
	}
	if err != nil {
		span.RecordError(err)
		return domain.CartView{}, err
	}

	// read past the cache so a flight started before the write is not joined
	items, err := s.load(ctx, id.UserID)
	if err != nil {
		return domain.CartView{}, err
	}
	span.SetAttributes(attribute.Int("cart.items", len(items)))
	return s.enricher.Enrich(ctx, items)
}

// writeFailed logs a failed cart write. A token whose user no longer exists
// is treated as no identity at all.
func (s *CartService) writeFailed(ctx context.Context, op string, id domain.Identity, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	log := logger.WithTrace(ctx, s.log)
	log.Error().Err(err).Str("op", op).Str("user_id", id.UserID).Msg("cart write failed")
	return err
}

func (s *CartService) invalidateCache(userID string) {
	s.sfg.Forget(userID)
	s.fence.invalidate(userID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()
		if err := s.cache.Delete(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("cache invalidate failed")
		}
	})
}
