package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository stores users in the "users" collection. The cart is
// embedded in the user document, so it serves both UserRepository and
// CartRepository.
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (m *MongoUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Cart == nil {
		user.Cart = []domain.CartItem{}
	}
	if user.PurchasedBooks == nil {
		user.PurchasedBooks = []string{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (m *MongoUserRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (m *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := m.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (m *MongoUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"password_hash": 0})

	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (m *MongoUserRepository) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"is_blocked": blocked, "updated_at": time.Now()}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *MongoUserRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	update := bson.M{"$set": bson.M{"role": role, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *MongoUserRepository) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error) {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"name":       profile.Name,
		"address":    profile.Address,
		"phone":      profile.Phone,
		"updated_at": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

// AddPurchase records bookID once; a second call reports ErrAlreadyPurchased.
func (m *MongoUserRepository) AddPurchase(ctx context.Context, userID, bookID string) error {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "purchased_books": bson.M{"$ne": bookID}}
	update := bson.M{
		"$addToSet": bson.M{"purchased_books": bookID},
		"$set":      bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return ErrAlreadyPurchased
}

func (m *MongoUserRepository) HasPurchased(ctx context.Context, userID, bookID string) (bool, error) {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return false, err
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": oid, "purchased_books": bookID})
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return count > 0, nil
}

func (m *MongoUserRepository) CountUsers(ctx context.Context) (int64, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
