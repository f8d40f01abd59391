package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

const defaultTokenTTL = 8 * time.Hour

// Authenticator verifies the admin credential and issues opaque bearer tokens.
// Tokens live in memory; a restart logs every admin out.
type Authenticator struct {
	username     string
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry
}

// NewAuthenticator creates an authenticator for the configured admin account.
func NewAuthenticator(cfg config.AdminConfig) *Authenticator {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Authenticator{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		ttl:          ttl,
		now:          utils.Now,
		sessions:     make(map[string]time.Time),
	}
}

// HashPassword returns a bcrypt hash suitable for admin.passwordHash.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials and returns a new session.
func (a *Authenticator) Login(ctx context.Context, username, password string) (model.AdminSession, error) {
	log := logger.FromContext(ctx)

	if len(a.passwordHash) == 0 {
		log.Warn("Admin login attempted but no password hash is configured")
		return model.AdminSession{}, fmt.Errorf("%w: admin login disabled", apperrors.ErrUnauthorized)
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		log.Info("Admin login rejected", zap.String("username", username))
		return model.AdminSession{}, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token := uuid.NewString()
	expiresAt := a.now().Add(a.ttl)

	a.mu.Lock()
	a.purgeExpiredLocked()
	a.sessions[token] = expiresAt
	a.mu.Unlock()

	log.Info("Admin logged in", zap.Time("expires_at", expiresAt))
	return model.AdminSession{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate returns the admin subject for a live token.
func (a *Authenticator) Validate(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", apperrors.ErrUnauthorized)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	expiresAt, ok := a.sessions[token]
	if !ok {
		return "", fmt.Errorf("%w: unknown token", apperrors.ErrUnauthorized)
	}
	if !a.now().Before(expiresAt) {
		delete(a.sessions, token)
		return "", fmt.Errorf("%w: token expired", apperrors.ErrUnauthorized)
	}
	return a.username, nil
}

// Revoke ends a session. Unknown tokens are ignored.
func (a *Authenticator) Revoke(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ActiveSessions returns the number of unexpired sessions.
func (a *Authenticator) ActiveSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.purgeExpiredLocked()
	return len(a.sessions)
}

func (a *Authenticator) purgeExpiredLocked() {
	now := a.now()
	for token, exp := range a.sessions {
		if !now.Before(exp) {
			delete(a.sessions, token)
		}
	}
}
