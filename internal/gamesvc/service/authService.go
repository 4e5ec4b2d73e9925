package service

import (
	"context"
	"errors"
	"fmt"

	"monopoly-service/internal/gamesvc/elo"
	"monopoly-service/internal/gamesvc/models"
	"monopoly-service/internal/gamesvc/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for every login failure. Deliberately
// generic so callers cannot probe which usernames exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

var ErrUsernameTaken = errors.New("username already taken")

// AuthService handles registration, login and session tokens.
type AuthService struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
}

func NewAuthService(userStore *store.UserStore, sessionStore *store.SessionStore) *AuthService {
	return &AuthService{
		userStore:    userStore,
		sessionStore: sessionStore,
	}
}

func validUsername(name string) bool {
	return len(name) >= 3 && len(name) <= 20
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if !validUsername(username) {
		return nil, fmt.Errorf("username must be 3-20 characters")
	}
	if len(password) < 4 {
		return nil, fmt.Errorf("password must be at least 4 characters")
	}

	existing, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register lookup: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userId, err := s.userStore.CreateUser(ctx, username, string(hash), elo.DefaultRating)
	if err != nil {
		return nil, err
	}

	return &models.User{
		UserId:   userId,
		Username: username,
		Rating:   elo.DefaultRating,
	}, nil
}

// Login verifies credentials and issues a session token. Any failure,
// unknown user or wrong password alike, comes back as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token := uuid.New().String()
	if err := s.sessionStore.Create(ctx, token, user.UserId); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	return user, token, nil
}

func (s *AuthService) Validate(ctx context.Context, token string) (*models.SessionToken, error) {
	return s.sessionStore.Validate(ctx, token)
}

func (s *AuthService) Logout(ctx context.Context, userId uint32) error {
	return s.sessionStore.InvalidateForUser(ctx, userId)
}
