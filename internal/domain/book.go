package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultGenre = "Fiction"

type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Author      string             `bson:"author" json:"author"`
	Genre       string             `bson:"genre" json:"genre"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	CoverImage  string             `bson:"cover_image" json:"cover_image"`
	FileURL     string             `bson:"file_url" json:"file_url"`
	ObjectKey   string             `bson:"object_key,omitempty" json:"object_key,omitempty"`
	PreviewURLs []string           `bson:"preview_urls,omitempty" json:"preview_urls,omitempty"`
	Preview     string             `bson:"preview,omitempty" json:"preview,omitempty"`
	Tags        []string           `bson:"tags" json:"tags"`
	Rating      float64            `bson:"rating" json:"rating"`
	Views       int64              `bson:"views" json:"views"`
	Sold        int64              `bson:"sold" json:"sold"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type Collection struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	Rule        string             `bson:"rule" json:"rule"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// BookPurchased is published after a purchase is recorded.
type BookPurchased struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	BookID     string    `json:"book_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
