package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/logger"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PurchasePublisher interface {
	PublishPurchase(ctx context.Context, event domain.BookPurchased) error
}

type CartItemRemover interface {
	Remove(ctx context.Context, id domain.Identity, productID string) error
}

type URLSigner interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PurchaseService records simulated purchases. No payment is taken.
type PurchaseService struct {
	users     repository.UserRepository
	books     repository.BookRepository
	publisher PurchasePublisher
	cart      CartItemRemover
	signer    URLSigner
	urlTTL    time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewPurchaseService(
	users repository.UserRepository,
	books repository.BookRepository,
	publisher PurchasePublisher,
	cart CartItemRemover,
	signer URLSigner,
	urlTTL time.Duration,
	log zerolog.Logger,
) *PurchaseService {
	return &PurchaseService{
		users:     users,
		books:     books,
		publisher: publisher,
		cart:      cart,
		signer:    signer,
		urlTTL:    urlTTL,
		log:       log.With().Str("component", "purchase").Logger(),
		now:       time.Now,
	}
}

// Purchase adds the book to the caller's library and announces it. If the
// announcement cannot be published the book is taken out of the cart here.
func (s *PurchaseService) Purchase(ctx context.Context, id domain.Identity, bookID string) (*domain.BookPurchased, error) {
	if !id.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if !domain.ValidID(bookID) {
		return nil, ErrInvalidProductID
	}
	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	err := s.users.AddPurchase(ctx, id.UserID, bookID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	log := logger.WithTrace(ctx, s.log)
	if err := s.books.IncrementSold(ctx, bookID); err != nil {
		log.Warn().Err(err).Str("book_id", bookID).Msg("failed to count sale")
	}

	event := domain.BookPurchased{
		EventID:    uuid.NewString(),
		UserID:     id.UserID,
		BookID:     bookID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishPurchase(ctx, event); err != nil {
		log.Error().Err(err).Str("event_id", event.EventID).Msg("failed to publish purchase, removing from cart directly")
		if errRemove := s.cart.Remove(ctx, id, bookID); errRemove != nil {
			log.Error().Err(errRemove).Str("book_id", bookID).Msg("failed to remove purchased book from cart")
		}
	}

	log.Info().Str("user_id", id.UserID).Str("book_id", bookID).Msg("book purchased")
	return &event, nil
}

// HasPurchased reports whether the caller owns the book. Anonymous callers
// own nothing.
func (s *PurchaseService) HasPurchased(ctx context.Context, id domain.Identity, bookID string) (bool, error) {
	if !id.Authenticated() {
		return false, nil
	}
	if !domain.ValidID(bookID) {
		return false, ErrInvalidProductID
	}
	owned, err := s.users.HasPurchased(ctx, id.UserID, bookID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return owned, err
}

// ReadURL returns a link to the full book for its buyers and for admins.
func (s *PurchaseService) ReadURL(ctx context.Context, id domain.Identity, bookID string) (string, error) {
	if !id.Authenticated() {
		return "", ErrNotAuthenticated
	}
	if !domain.ValidID(bookID) {
		return "", ErrInvalidProductID
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return "", err
	}

	if !id.IsAdmin() {
		owned, err := s.HasPurchased(ctx, id, bookID)
		if err != nil {
			return "", err
		}
		if !owned {
			return "", ErrForbidden
		}
	}

	if book.ObjectKey == "" {
		return book.FileURL, nil
	}
	return s.signer.SignedURL(ctx, book.ObjectKey, s.urlTTL)
}
