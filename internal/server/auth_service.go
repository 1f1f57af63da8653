// Package server provides the HTTP REST API for the production tracker.
package server

import (
	"context"
	"fmt"

	"github.com/rsilveira/shopfloor/internal/config"
	"github.com/rsilveira/shopfloor/internal/db"
)

// AuthService provides credential verification against the user store.
type AuthService struct {
	db             *db.DB
	passwordConfig *config.PasswordConfig
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(database *db.DB, passwordConfig *config.PasswordConfig) *AuthService {
	return &AuthService{
		db:             database,
		passwordConfig: passwordConfig,
	}
}

// Login verifies the username and password and returns the account.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*db.User, error) {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// HashPassword hashes a password for storage.
func (s *AuthService) HashPassword(password string) (string, error) {
	return s.passwordConfig.HashPassword(password)
}
