package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"max=300"`
	Phone   string `json:"phone" validate:"max=30"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	log    zerolog.Logger
	cost   int
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth").Logger(),
		cost:   bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.Hex()).Msg("user registered")
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *domain.User, error) {
	if err := validateInput(in); err != nil {
		return "", nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return "", nil, ErrUserBlocked
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Profile(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if !id.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	user, err := s.users.GetUser(ctx, id.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotAuthenticated
	}
	return user, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, id domain.Identity, in ProfileInput) (*domain.User, error) {
	if !id.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, id.UserID, domain.Profile{
		Name:    in.Name,
		Address: strings.TrimSpace(in.Address),
		Phone:   strings.TrimSpace(in.Phone),
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotAuthenticated
	}
	return user, err
}

// BootstrapAdmin grants the admin role to the account registered under email.
// It is a no-op until that account exists.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	err := s.users.SetRole(ctx, email, domain.RoleAdmin)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log.Info().Str("email", email).Msg("bootstrap admin not registered yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin granted")
	return nil
}
