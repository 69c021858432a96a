package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finassist/internal/auth"
	"finassist/internal/core"
	"finassist/internal/storage/memory"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	return NewAuthService(memory.New(), auth.Hasher{Cost: 4}, tokens)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuth(t)

	u, err := svc.Signup(ctx, "  alice ", "correct horse")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Username != "alice" || u.PasswordHash == "correct horse" {
		t.Fatalf("user = %+v", u)
	}

	res, err := svc.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.TokenType != "bearer" || res.UserID != u.ID {
		t.Fatalf("login result = %+v", res)
	}

	userID, err := svc.Authenticate("Bearer " + res.AccessToken)
	if err != nil || userID != u.ID {
		t.Fatalf("authenticate = %q, %v", userID, err)
	}
}

func TestSignupErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuth(t)
	if _, err := svc.Signup(ctx, "bob", "longenough"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, username, password string
		want                     error
	}{
		{"duplicate", "bob", "longenough", ErrUsernameTaken},
		{"empty username", "  ", "longenough", core.ErrEmptyUsername},
		{"short password", "carol", "short", core.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Signup(ctx, tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuth(t)
	if _, err := svc.Signup(ctx, "dave", "password1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "dave", "password2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	svc := newTestAuth(t)
	for _, header := range []string{"", "Bearer ", "Bearer not-a-token"} {
		if _, err := svc.Authenticate(header); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("Authenticate(%q) err = %v", header, err)
		}
	}
}

func TestAuthWithoutStore(t *testing.T) {
	tokens, _ := auth.NewTokens("s", time.Minute)
	svc := NewAuthService(nil, auth.NewHasher(), tokens)
	if _, err := svc.Signup(context.Background(), "eve", "password1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("signup err = %v", err)
	}
	if _, err := svc.Login(context.Background(), "eve", "password1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("login err = %v", err)
	}
}
