package service

import (
	"context"
	"log/slog"

	"offrecord/internal/apperr"
	"offrecord/internal/auth"
	"offrecord/internal/models"
	"offrecord/pkg/validator"
)

// UserStore is the persistence surface the auth service needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService handles account registration and login
type AuthService struct {
	users UserStore
	auth  *auth.Service
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, authService *auth.Service) *AuthService {
	return &AuthService{users: users, auth: authService}
}

// Register creates an account and returns it with a signed token
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*models.User, string, error) {
	email = validator.SanitizeEmail(email)
	displayName = validator.SanitizeString(displayName)

	if err := validator.ValidateEmail(email); err != nil {
		return nil, "", apperr.Validation("invalid email address")
	}
	if err := validator.ValidatePassword(password); err != nil {
		return nil, "", apperr.Validation("password must be at least 8 characters")
	}
	if err := validator.ValidateRequired("display_name", displayName); err != nil {
		return nil, "", apperr.Validation("display name is required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Internal("failed to check existing user", err)
	}
	if existing != nil {
		return nil, "", apperr.Conflict("email is already registered")
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", apperr.Internal("failed to create user", err)
	}

	token, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", apperr.Internal("failed to generate token", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the account with a signed token.
// Every failure surfaces as the same flat auth error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = validator.SanitizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Internal("failed to look up user", err)
	}
	if user == nil {
		return nil, "", apperr.Auth("invalid email or password")
	}

	if err := s.auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", apperr.Auth("invalid email or password")
	}

	token, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", apperr.Internal("failed to generate token", err)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Profile retrieves the caller's account
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	return user, nil
}
