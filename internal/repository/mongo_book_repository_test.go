package repository

import (
	"context"
	"testing"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustObjectID(t *testing.T, id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(t, err)
	return oid
}

func newTestBook(title string, tags ...string) *domain.Book {
	return &domain.Book{
		Title:       title,
		Author:      "Author",
		Description: "Description",
		Price:       9.99,
		CoverImage:  "https://example.com/cover.png",
		FileURL:     "https://example.com/book.pdf",
		Tags:        tags,
	}
}

func TestFindByIDs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewMongoBookRepository(db)
	ctx := context.Background()

	first := newTestBook("First")
	second := newTestBook("Second")
	require.NoError(t, repo.CreateBook(ctx, first))
	require.NoError(t, repo.CreateBook(ctx, second))

	books, err := repo.FindByIDs(ctx, []string{first.ID.Hex(), "undefined", bookB, second.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, books, 2)

	books, err = repo.FindByIDs(ctx, []string{"undefined"})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCreateBook_DefaultsGenre(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewMongoBookRepository(db)
	ctx := context.Background()

	book := newTestBook("Genre")
	require.NoError(t, repo.CreateBook(ctx, book))

	stored, err := repo.GetBook(ctx, book.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGenre, stored.Genre)
}

func TestUpdateAndDeleteBook(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewMongoBookRepository(db)
	ctx := context.Background()

	book := newTestBook("Before")
	require.NoError(t, repo.CreateBook(ctx, book))
	require.NoError(t, repo.IncrementSold(ctx, book.ID.Hex()))

	changed := newTestBook("After", "classic")
	updated, err := repo.UpdateBook(ctx, book.ID.Hex(), changed)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, int64(1), updated.Sold)

	count, err := repo.CountByTag(ctx, "classic")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.DeleteBook(ctx, book.ID.Hex()))
	assert.ErrorIs(t, repo.DeleteBook(ctx, book.ID.Hex()), ErrBookNotFound)

	_, err = repo.GetBook(ctx, book.ID.Hex())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestListBooks_FilterByTag(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewMongoBookRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, newTestBook("Tagged", "sci-fi")))
	require.NoError(t, repo.CreateBook(ctx, newTestBook("Plain")))

	all, err := repo.ListBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tagged, err := repo.ListBooks(ctx, "sci-fi")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "Tagged", tagged[0].Title)
}

func TestRankBooks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewMongoBookRepository(db)
	ctx := context.Background()

	seller := newTestBook("Seller")
	browsed := newTestBook("Browsed")
	quiet := newTestBook("Quiet")
	for _, b := range []*domain.Book{seller, browsed, quiet} {
		require.NoError(t, repo.CreateBook(ctx, b))
	}
	for range 3 {
		require.NoError(t, repo.IncrementSold(ctx, seller.ID.Hex()))
		require.NoError(t, repo.IncrementViews(ctx, browsed.ID.Hex()))
	}
	require.NoError(t, repo.IncrementSold(ctx, browsed.ID.Hex()))

	bySold, err := repo.RankBooks(ctx, RankBySold, 2)
	require.NoError(t, err)
	require.Len(t, bySold, 2)
	assert.Equal(t, "Seller", bySold[0].Title)
	assert.Equal(t, int64(3), bySold[0].Sold)
	assert.Equal(t, "Browsed", bySold[1].Title)

	byViews, err := repo.RankBooks(ctx, RankByViews, 20)
	require.NoError(t, err)
	require.Len(t, byViews, 3)
	assert.Equal(t, "Browsed", byViews[0].Title)

	_, err = repo.RankBooks(ctx, RankField("price"), 5)
	assert.Error(t, err)
}

func TestCollections_CRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewMongoCollectionRepository(db)
	ctx := context.Background()

	c := &domain.Collection{Title: "Classics", Rule: "classic", IsActive: true}
	require.NoError(t, repo.CreateCollection(ctx, c))

	updated, err := repo.UpdateCollection(ctx, c.ID.Hex(), &domain.Collection{Title: "Old", Rule: "classic"})
	require.NoError(t, err)
	assert.Equal(t, "Old", updated.Title)
	assert.False(t, updated.IsActive)

	count, err := repo.CountCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.DeleteCollection(ctx, c.ID.Hex()))
	_, err = repo.GetCollection(ctx, c.ID.Hex())
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}
