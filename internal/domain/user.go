package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	Role           Role               `bson:"role" json:"role"`
	IsBlocked      bool               `bson:"is_blocked" json:"is_blocked"`
	Address        string             `bson:"address" json:"address"`
	Phone          string             `bson:"phone" json:"phone"`
	Cart           []CartItem         `bson:"cart" json:"-"`
	PurchasedBooks []string           `bson:"purchased_books" json:"purchased_books"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

type Profile struct {
	Name    string
	Address string
	Phone   string
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID.Hex(), Role: u.Role}
}
