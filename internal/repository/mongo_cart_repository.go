package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoUserRepository) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Cart []domain.CartItem `bson:"cart"`
	}
	opts := options.FindOne().SetProjection(bson.M{"cart": 1})
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.Cart, nil
}

// AddItem increments the quantity of an existing item or appends a new one in
// a single pipeline update, so racing adds of the same product cannot produce
// two items for it.
func (m *MongoUserRepository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	cart := bson.D{{Key: "$ifNull", Value: bson.A{"$cart", bson.A{}}}}
	exists := bson.D{{Key: "$in", Value: bson.A{
		productID,
		bson.D{{Key: "$ifNull", Value: bson.A{"$cart.product_id", bson.A{}}}},
	}}}
	increment := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: cart},
		{Key: "as", Value: "item"},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$$item.product_id", productID}}},
			bson.D{{Key: "$mergeObjects", Value: bson.A{
				"$$item",
				bson.D{{Key: "quantity", Value: bson.D{{Key: "$add", Value: bson.A{"$$item.quantity", quantity}}}}},
			}}},
			"$$item",
		}}}},
	}}}
	appendItem := bson.D{{Key: "$concatArrays", Value: bson.A{
		cart,
		bson.A{bson.D{{Key: "product_id", Value: productID}, {Key: "quantity", Value: quantity}}},
	}}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "cart", Value: bson.D{{Key: "$cond", Value: bson.A{exists, increment, appendItem}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (m *MongoUserRepository) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":             oid,
		"cart.product_id": productID,
	}
	update := bson.M{
		"$set": bson.M{
			"cart.$.quantity": quantity,
			"updated_at":      time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (m *MongoUserRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	update := bson.M{
		"$pull": bson.M{
			"cart": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (m *MongoUserRepository) ClearCart(ctx context.Context, userID string) error {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"cart": bson.A{}, "updated_at": time.Now()}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (m *MongoUserRepository) ReplaceCartIfUnchanged(ctx context.Context, userID string, expected, next []domain.CartItem) (bool, error) {
	oid, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return false, err
	}
	if next == nil {
		next = []domain.CartItem{}
	}

	filter := bson.M{"_id": oid, "cart": expected}
	update := bson.M{"$set": bson.M{"cart": next, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to replace cart: %w", err)
	}

	return result.MatchedCount > 0, nil
}
