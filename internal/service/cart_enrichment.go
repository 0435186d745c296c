package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/shopspring/decimal"
)

// Catalog is the book lookup the cart needs.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Book, error)
}

type Enricher struct {
	catalog Catalog
}

func NewEnricher(catalog Catalog) *Enricher {
	return &Enricher{catalog: catalog}
}

// Enrich joins items with their books in one catalog query. Items whose book
// is gone are left out; the rest keep their stored order.
func (e *Enricher) Enrich(ctx context.Context, items []domain.CartItem) (domain.CartView, error) {
	view := domain.CartView{Lines: []domain.CartLine{}, Total: decimal.Zero}
	if len(items) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	books, err := e.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("failed to load cart books: %w", err)
	}

	byID := make(map[string]domain.Book, len(books))
	for _, b := range books {
		byID[b.ID.Hex()] = b
	}

	total := decimal.Zero
	for _, item := range items {
		book, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		view.Lines = append(view.Lines, domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Title:     book.Title,
			Price:     book.Price,
			Image:     book.CoverImage,
			Author:    book.Author,
		})
		total = total.Add(decimal.NewFromFloat(book.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	view.Total = total.Round(2)

	return view, nil
}
