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

type MongoCollectionRepository struct {
	collection *mongo.Collection
}

func NewMongoCollectionRepository(db *mongo.Database) *MongoCollectionRepository {
	return &MongoCollectionRepository{
		collection: db.Collection("collections"),
	}
}

func (m *MongoCollectionRepository) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}

	collections := []domain.Collection{}
	if err := cursor.All(ctx, &collections); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}
	return collections, nil
}

func (m *MongoCollectionRepository) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	oid, err := objectID(id, ErrCollectionNotFound)
	if err != nil {
		return nil, err
	}

	var c domain.Collection
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &c, nil
}

func (m *MongoCollectionRepository) CreateCollection(ctx context.Context, c *domain.Collection) error {
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (m *MongoCollectionRepository) UpdateCollection(ctx context.Context, id string, c *domain.Collection) (*domain.Collection, error) {
	oid, err := objectID(id, ErrCollectionNotFound)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"title":       c.Title,
		"description": c.Description,
		"image":       c.Image,
		"rule":        c.Rule,
		"is_active":   c.IsActive,
		"updated_at":  time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Collection
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}
	return &updated, nil
}

func (m *MongoCollectionRepository) DeleteCollection(ctx context.Context, id string) error {
	oid, err := objectID(id, ErrCollectionNotFound)
	if err != nil {
		return err
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (m *MongoCollectionRepository) CountCollections(ctx context.Context) (int64, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return count, nil
}
