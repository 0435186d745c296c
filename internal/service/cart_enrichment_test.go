package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnricher_EmptyCartSkipsCatalog(t *testing.T) {
	catalog := newMockCatalog()
	e := NewEnricher(catalog)

	view, err := e.Enrich(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, view.Lines)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
	assert.Zero(t, catalog.calls)
}

func TestEnricher_KeepsStoredOrderAndFields(t *testing.T) {
	catalog := newMockCatalog(testBook(bookA, "Dune", 10), testBook(bookB, "Emma", 0.1))
	e := NewEnricher(catalog)

	view, err := e.Enrich(context.Background(), []domain.CartItem{
		{ProductID: bookB, Quantity: 3},
		{ProductID: bookA, Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{
		{ProductID: bookB, Quantity: 3, Title: "Emma", Price: 0.1, Image: "https://img/" + bookB, Author: "Author of Emma"},
		{ProductID: bookA, Quantity: 1, Title: "Dune", Price: 10, Image: "https://img/" + bookA, Author: "Author of Dune"},
	}, view.Lines)
	assert.Equal(t, 1, catalog.calls)
	// 0.1 * 3 must not drift to 0.30000000000000004
	assert.Equal(t, "10.3", view.Total.String())
}

func TestEnricher_DropsMissingBooks(t *testing.T) {
	e := NewEnricher(newMockCatalog(testBook(bookA, "Dune", 4)))

	view, err := e.Enrich(context.Background(), []domain.CartItem{
		{ProductID: bookC, Quantity: 1},
		{ProductID: bookA, Quantity: 2},
	})

	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, bookA, view.Lines[0].ProductID)
	assert.Equal(t, "8", view.Total.String())
}

func TestEnricher_CatalogError(t *testing.T) {
	catalog := newMockCatalog()
	catalog.err = errors.New("mongo down")

	_, err := NewEnricher(catalog).Enrich(context.Background(), []domain.CartItem{{ProductID: bookA, Quantity: 1}})

	assert.ErrorIs(t, err, catalog.err)
}
