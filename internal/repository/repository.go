package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_bookstore/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrEmailTaken         = errors.New("email already registered")
	ErrBookNotFound       = errors.New("book not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrAlreadyPurchased   = errors.New("book already purchased")
)

// CartRepository defines the cart operations on a user document.
// Every method is a single atomic update of that document.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
	// ReplaceCartIfUnchanged writes next only if the stored cart still equals expected.
	ReplaceCartIfUnchanged(ctx context.Context, userID string, expected, next []domain.CartItem) (bool, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetBlocked(ctx context.Context, userID string, blocked bool) error
	SetRole(ctx context.Context, email string, role domain.Role) error
	UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error)
	AddPurchase(ctx context.Context, userID, bookID string) error
	HasPurchased(ctx context.Context, userID, bookID string) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
}

// RankField names a book counter that books can be ranked by.
type RankField string

const (
	RankBySold  RankField = "sold"
	RankByViews RankField = "views"
)

type BookRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Book, error)
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListBooks(ctx context.Context, tag string) ([]domain.Book, error)
	RankBooks(ctx context.Context, by RankField, limit int64) ([]domain.Book, error)
	CreateBook(ctx context.Context, book *domain.Book) error
	UpdateBook(ctx context.Context, id string, book *domain.Book) (*domain.Book, error)
	DeleteBook(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementSold(ctx context.Context, id string) error
	CountBooks(ctx context.Context) (int64, error)
	CountByTag(ctx context.Context, tag string) (int64, error)
}

type CollectionRepository interface {
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	GetCollection(ctx context.Context, id string) (*domain.Collection, error)
	CreateCollection(ctx context.Context, c *domain.Collection) error
	UpdateCollection(ctx context.Context, id string, c *domain.Collection) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	CountCollections(ctx context.Context) (int64, error)
}

// objectID parses a hex id; a malformed id cannot match any document, so it
// is reported as notFound.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}
