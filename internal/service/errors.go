package service

import (
	"errors"

	"github.com/fjod/go_bookstore/internal/repository"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidProductID   = errors.New("invalid product id")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 99")
	ErrInvalidAction      = errors.New("invalid cart action")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrAlreadyPurchased   = repository.ErrAlreadyPurchased
)
