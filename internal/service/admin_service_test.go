package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Stats(t *testing.T) {
	users := newMockUserRepository()
	users.seed(domain.User{Email: "a@b.com"})
	users.seed(domain.User{Email: "c@d.com"})
	books := newMockBookRepository(testBook(bookA, "A", 1), testBook(bookB, "B", 1), testBook(bookC, "C", 1))
	collections := newMockCollectionRepository(domain.Collection{Title: "X", Rule: "x"})
	svc := NewAdminService(users, books, collections, zerolog.Nop())

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Stats{TotalBooks: 3, TotalUsers: 2, TotalCollections: 1}, stats)
}

func TestAdminService_StatsError(t *testing.T) {
	users := newMockUserRepository()
	users.err = errors.New("mongo down")
	svc := NewAdminService(users, newMockBookRepository(), newMockCollectionRepository(), zerolog.Nop())

	_, err := svc.Stats(context.Background())

	assert.ErrorIs(t, err, users.err)
}

func TestAdminService_SetBlocked(t *testing.T) {
	users := newMockUserRepository()
	target := users.seed(domain.User{Email: "a@b.com"})
	admin := users.seed(domain.User{Email: "root@b.com", Role: domain.RoleAdmin})
	svc := NewAdminService(users, newMockBookRepository(), newMockCollectionRepository(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.SetBlocked(ctx, admin.Identity(), target.ID.Hex(), true))
	stored, err := users.GetUser(ctx, target.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.IsBlocked)

	assert.ErrorIs(t, svc.SetBlocked(ctx, target.Identity(), admin.ID.Hex(), true), ErrForbidden)
	assert.ErrorIs(t, svc.SetBlocked(ctx, admin.Identity(), admin.ID.Hex(), true), ErrForbidden)
	assert.ErrorIs(t, svc.SetBlocked(ctx, admin.Identity(), "65a1f0c2e4b0a1b2c3d4e5ff", true), repository.ErrUserNotFound)
}

func TestAdminService_ListUsersNeverNil(t *testing.T) {
	svc := NewAdminService(newMockUserRepository(), newMockBookRepository(), newMockCollectionRepository(), zerolog.Nop())

	users, err := svc.ListUsers(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, users)
}
