package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const RoleAdministrator = "Administrator"

// Session is an issued token pair. Tokens are opaque and never stored
// server side; they exist so the UI has something to hold on to.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Email        string
	Role         string
}

type Provider interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)
}

// Static authenticates a single configured administrator account.
type Static struct {
	adminEmail    string
	adminPassword string
	tokenTTL      time.Duration
	now           func() time.Time
}

func NewStatic(adminEmail, adminPassword string, tokenTTL time.Duration) *Static {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Static{
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		tokenTTL:      tokenTTL,
		now:           time.Now,
	}
}

func (s *Static) Login(ctx context.Context, email, password string) (Session, error) {
	if !strings.EqualFold(strings.TrimSpace(email), s.adminEmail) || password != s.adminPassword {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue()
}

// Refresh trades any non-empty refresh token for a fresh pair. Tokens are
// not persisted, so possession of a token is the whole proof.
func (s *Static) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue()
}

func (s *Static) issue() (Session, error) {
	access, err := randomToken()
	if err != nil {
		return Session{}, err
	}
	refresh, err := randomToken()
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    s.now().UTC().Add(s.tokenTTL),
		Email:        s.adminEmail,
		Role:         RoleAdministrator,
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
