package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoBookRepository struct {
	collection *mongo.Collection
}

func NewMongoBookRepository(db *mongo.Database) *MongoBookRepository {
	return &MongoBookRepository{
		collection: db.Collection("books"),
	}
}

// FindByIDs loads every existing book among ids in one query. Malformed ids
// and ids without a book are left out; order is unspecified.
func (m *MongoBookRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Book{}, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}

	books := []domain.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

func (m *MongoBookRepository) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	oid, err := objectID(id, ErrBookNotFound)
	if err != nil {
		return nil, err
	}

	var book domain.Book
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

func (m *MongoBookRepository) ListBooks(ctx context.Context, tag string) ([]domain.Book, error) {
	filter := bson.M{}
	if tag != "" {
		filter["tags"] = tag
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}

	books := []domain.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

// RankBooks returns at most limit books, highest counter first. Ties go to the
// newer book.
func (m *MongoBookRepository) RankBooks(ctx context.Context, by RankField, limit int64) ([]domain.Book, error) {
	switch by {
	case RankBySold, RankByViews:
	default:
		return nil, fmt.Errorf("unknown rank field %q", by)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: string(by), Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to rank books: %w", err)
	}

	books := []domain.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

func (m *MongoBookRepository) CreateBook(ctx context.Context, book *domain.Book) error {
	now := time.Now()
	book.ID = primitive.NewObjectID()
	if book.Genre == "" {
		book.Genre = domain.DefaultGenre
	}
	if book.Tags == nil {
		book.Tags = []string{}
	}
	book.CreatedAt = now
	book.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, book); err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// UpdateBook overwrites the editable fields of a book. Counters and the
// creation time are kept.
func (m *MongoBookRepository) UpdateBook(ctx context.Context, id string, book *domain.Book) (*domain.Book, error) {
	oid, err := objectID(id, ErrBookNotFound)
	if err != nil {
		return nil, err
	}

	genre := book.Genre
	if genre == "" {
		genre = domain.DefaultGenre
	}
	tags := book.Tags
	if tags == nil {
		tags = []string{}
	}

	update := bson.M{"$set": bson.M{
		"title":        book.Title,
		"author":       book.Author,
		"genre":        genre,
		"description":  book.Description,
		"price":        book.Price,
		"cover_image":  book.CoverImage,
		"file_url":     book.FileURL,
		"object_key":   book.ObjectKey,
		"preview_urls": book.PreviewURLs,
		"preview":      book.Preview,
		"tags":         tags,
		"updated_at":   time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Book
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return &updated, nil
}

func (m *MongoBookRepository) DeleteBook(ctx context.Context, id string) error {
	oid, err := objectID(id, ErrBookNotFound)
	if err != nil {
		return err
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (m *MongoBookRepository) IncrementViews(ctx context.Context, id string) error {
	return m.increment(ctx, id, "views")
}

func (m *MongoBookRepository) IncrementSold(ctx context.Context, id string) error {
	return m.increment(ctx, id, "sold")
}

func (m *MongoBookRepository) increment(ctx context.Context, id, field string) error {
	oid, err := objectID(id, ErrBookNotFound)
	if err != nil {
		return err
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (m *MongoBookRepository) CountBooks(ctx context.Context) (int64, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

func (m *MongoBookRepository) CountByTag(ctx context.Context, tag string) (int64, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{"tags": tag})
	if err != nil {
		return 0, fmt.Errorf("failed to count books by tag: %w", err)
	}
	return count, nil
}
