package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/rs/zerolog"
)

type BookInput struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Author      string   `json:"author" validate:"required"`
	Genre       string   `json:"genre"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	CoverImage  string   `json:"cover_image" validate:"required"`
	FileURL     string   `json:"file_url" validate:"required"`
	ObjectKey   string   `json:"object_key"`
	PreviewURLs []string `json:"preview_urls"`
	Preview     string   `json:"preview"`
	Tags        []string `json:"tags" validate:"dive,required"`
}

func (in BookInput) book() *domain.Book {
	return &domain.Book{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Genre:       strings.TrimSpace(in.Genre),
		Description: in.Description,
		Price:       in.Price,
		CoverImage:  in.CoverImage,
		FileURL:     in.FileURL,
		ObjectKey:   in.ObjectKey,
		PreviewURLs: in.PreviewURLs,
		Preview:     in.Preview,
		Tags:        in.Tags,
	}
}

type CollectionInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Rule        string `json:"rule" validate:"required"`
	IsActive    *bool  `json:"is_active"`
}

func (in CollectionInput) collection() *domain.Collection {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &domain.Collection{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Image:       in.Image,
		Rule:        strings.TrimSpace(in.Rule),
		IsActive:    active,
	}
}

// CollectionSummary is a collection with the number of books its rule matches.
type CollectionSummary struct {
	domain.Collection
	BookCount int64 `json:"book_count"`
}

type CollectionDetail struct {
	domain.Collection
	Books []domain.Book `json:"books"`
}

type CatalogService struct {
	books       repository.BookRepository
	collections repository.CollectionRepository
	log         zerolog.Logger
}

func NewCatalogService(books repository.BookRepository, collections repository.CollectionRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		books:       books,
		collections: collections,
		log:         log.With().Str("component", "catalog").Logger(),
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, tag string) ([]domain.Book, error) {
	return s.books.ListBooks(ctx, strings.TrimSpace(tag))
}

const (
	DefaultRankingLimit = 20
	MaxRankingLimit     = 100
)

// RankBooks lists best sellers, or the most viewed books when by is "views".
// A zero limit means DefaultRankingLimit.
func (s *CatalogService) RankBooks(ctx context.Context, by string, limit int) ([]domain.Book, error) {
	field := repository.RankBySold
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "", string(repository.RankBySold):
	case string(repository.RankByViews):
		field = repository.RankByViews
	default:
		return nil, fmt.Errorf("%w: by must be sold or views", ErrValidation)
	}

	if limit == 0 {
		limit = DefaultRankingLimit
	}
	if limit < 1 || limit > MaxRankingLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxRankingLimit)
	}
	return s.books.RankBooks(ctx, field, int64(limit))
}

// GetBook returns a book and counts the view.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if !domain.ValidID(id) {
		return nil, ErrInvalidProductID
	}
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.books.IncrementViews(ctx, id); err != nil && !errors.Is(err, repository.ErrBookNotFound) {
		s.log.Warn().Err(err).Str("book_id", id).Msg("failed to count view")
	}
	return book, nil
}

func (s *CatalogService) CreateBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	book := in.book()
	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	s.log.Info().Str("book_id", book.ID.Hex()).Str("title", book.Title).Msg("book created")
	return book, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, id string, in BookInput) (*domain.Book, error) {
	if !domain.ValidID(id) {
		return nil, ErrInvalidProductID
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.books.UpdateBook(ctx, id, in.book())
}

func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	if !domain.ValidID(id) {
		return ErrInvalidProductID
	}
	if err := s.books.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("book_id", id).Msg("book deleted")
	return nil
}

func (s *CatalogService) ListCollections(ctx context.Context) ([]CollectionSummary, error) {
	collections, err := s.collections.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		count, err := s.books.CountByTag(ctx, c.Rule)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, CollectionSummary{Collection: c, BookCount: count})
	}
	return summaries, nil
}

func (s *CatalogService) GetCollection(ctx context.Context, id string) (*CollectionDetail, error) {
	c, err := s.collections.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	books, err := s.books.ListBooks(ctx, c.Rule)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []domain.Book{}
	}
	return &CollectionDetail{Collection: *c, Books: books}, nil
}

func (s *CatalogService) CreateCollection(ctx context.Context, in CollectionInput) (*domain.Collection, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	c := in.collection()
	if err := s.collections.CreateCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCollection(ctx context.Context, id string, in CollectionInput) (*domain.Collection, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.collections.UpdateCollection(ctx, id, in.collection())
}

func (s *CatalogService) DeleteCollection(ctx context.Context, id string) error {
	return s.collections.DeleteCollection(ctx, id)
}
