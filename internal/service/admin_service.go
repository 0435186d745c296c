package service

import (
	"context"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	TotalBooks       int64 `json:"total_books"`
	TotalUsers       int64 `json:"total_users"`
	TotalCollections int64 `json:"total_collections"`
}

type AdminService struct {
	users       repository.UserRepository
	books       repository.BookRepository
	collections repository.CollectionRepository
	log         zerolog.Logger
}

func NewAdminService(users repository.UserRepository, books repository.BookRepository, collections repository.CollectionRepository, log zerolog.Logger) *AdminService {
	return &AdminService{
		users:       users,
		books:       books,
		collections: collections,
		log:         log.With().Str("component", "admin").Logger(),
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *AdminService) SetBlocked(ctx context.Context, admin domain.Identity, userID string, blocked bool) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	if admin.UserID == userID && blocked {
		return ErrForbidden
	}
	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		return err
	}
	s.log.Info().Str("admin_id", admin.UserID).Str("user_id", userID).Bool("blocked", blocked).Msg("user block state changed")
	return nil
}

// Stats counts books, users and collections concurrently.
func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.books.CountBooks(ctx)
		stats.TotalBooks = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.CountUsers(ctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.collections.CountCollections(ctx)
		stats.TotalCollections = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
