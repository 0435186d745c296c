package domain

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID string `bson:"product_id" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// CartLine is a cart item joined with the display fields of its book.
type CartLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Author    string  `json:"author"`
}

type CartView struct {
	Lines []CartLine
	Total decimal.Decimal
}

// ValidID reports whether id is a hex encoded document identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// ValidProductID reports whether id has the catalog identifier format.
func ValidProductID(id string) bool {
	return ValidID(id)
}

// HealCart drops items with malformed product ids, folds duplicate product ids
// into their first occurrence and raises non-positive quantities to 1.
// The second return value is false when items was already clean.
func HealCart(items []CartItem) ([]CartItem, bool) {
	healed := make([]CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	changed := false

	for _, item := range items {
		if !ValidProductID(item.ProductID) {
			changed = true
			continue
		}
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
			changed = true
		}
		if i, ok := index[item.ProductID]; ok {
			healed[i].Quantity += quantity
			changed = true
			continue
		}
		index[item.ProductID] = len(healed)
		healed = append(healed, CartItem{ProductID: item.ProductID, Quantity: quantity})
	}

	return healed, changed
}
