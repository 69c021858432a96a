package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"finassist/internal/core"
	"finassist/internal/storage"
)

const minPasswordLength = 8

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUsernameTaken      = errors.New("username already exists")
)

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
}

// PasswordHasher is a one-way password hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
}

type AuthService struct {
	users  storage.UserStore
	hasher PasswordHasher
	tokens TokenService
	now    func() time.Time
}

// NewAuthService wires the service. A nil user store disables signup and
// login but tokens can still be verified.
func NewAuthService(users storage.UserStore, hasher PasswordHasher, tokens TokenService) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Signup(ctx context.Context, username, password string) (core.User, error) {
	if s.users == nil {
		return core.User{}, fmt.Errorf("%w: database connection not configured", ErrUnavailable)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, core.ErrEmptyUsername
	}
	if len(password) < minPasswordLength {
		return core.User{}, core.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, unavailable("create user", err)
	}
	slog.InfoContext(ctx, "User signed up", "user_id", u.ID)
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if s.users == nil {
		return LoginResult{}, fmt.Errorf("%w: database connection not configured", ErrUnavailable)
	}
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, unavailable("login", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{AccessToken: token, TokenType: "bearer", UserID: u.ID}, nil
}

// Authenticate maps an Authorization header value to a user id.
func (s *AuthService) Authenticate(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrUnauthenticated
	}
	userID, err := s.tokens.Verify(header)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return userID, nil
}
