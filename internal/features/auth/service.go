// service.go: login, logout, session verification.

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/config"
	"pixelwerk.nl/backoffice/internal/features/users"
	"pixelwerk.nl/backoffice/internal/passwords"
)

// touchInterval limits last_activity writes to one per minute per session.
const touchInterval = time.Minute

// SessionStore persists sessions and the login audit trail.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByTokenHash(ctx context.Context, hash string) (*Session, error)
	DeleteSession(ctx context.Context, hash string) error
	DeleteUserSessions(ctx context.Context, userID string) (int64, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	LogAttempt(ctx context.Context, a LoginAttempt) error
	PurgeAttempts(ctx context.Context, before time.Time) (int64, error)
}

// AccountStore is the part of users.Repository the auth flow reads.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*users.Account, error)
	GetByEmail(ctx context.Context, email string) (*users.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Options controls session lifetime and cookie attributes.
type Options struct {
	SessionTTL       time.Duration
	RememberTTL      time.Duration
	SecureCookie     bool
	TestLoginEnabled bool
	TestLoginEmail   string
}

// OptionsFromConfig derives Options from the service configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SessionTTL:       cfg.SessionTTL,
		RememberTTL:      cfg.SessionRememberTTL,
		SecureCookie:     cfg.IsProduction(),
		TestLoginEnabled: cfg.AuthTestLoginEnabled && !cfg.IsProduction(),
		TestLoginEmail:   users.NormalizeEmail(cfg.AuthTestLoginEmail),
	}
}

// Issued is the outcome of a successful login.
type Issued struct {
	Principal *access.Principal
	Cookie    *http.Cookie
}

// Service implements the session issuer and verifier.
type Service struct {
	sessions SessionStore
	accounts AccountStore
	opts     Options
	now      func() time.Time
	hashCost int
}

// NewService creates the auth service.
func NewService(sessions SessionStore, accounts AccountStore, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = 30 * 24 * time.Hour
	}
	return &Service{
		sessions: sessions,
		accounts: accounts,
		opts:     opts,
		now:      time.Now,
		hashCost: passwords.DefaultCost,
	}
}

// WithClock replaces time.Now; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithHashCost sets the cost used when upgrading old hashes; tests only.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// Login checks credentials and issues a session. Unknown emails,
// inactive accounts and wrong passwords all yield ErrInvalidCredentials
// after the same amount of bcrypt work.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Issued, error) {
	email := users.NormalizeEmail(in.Email)

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if acc == nil || !acc.IsActive {
		passwords.VerifyDummy(in.Password)
		s.logAttempt(ctx, email, in.IP, false)
		return nil, common.ErrInvalidCredentials
	}

	if !passwords.Verify(acc.PasswordHash, in.Password) {
		s.logAttempt(ctx, email, in.IP, false)
		log.WithFields(log.Fields{"email": email, "ip": in.IP}).Warn("Failed admin login")
		return nil, common.ErrInvalidCredentials
	}

	if passwords.NeedsRehash(acc.PasswordHash) {
		s.upgradeHash(ctx, acc, in.Password)
	}

	issued, err := s.issue(ctx, acc, in.Remember, in.IP, in.UserAgent)
	if err != nil {
		return nil, err
	}
	s.logAttempt(ctx, email, in.IP, true)

	log.WithFields(log.Fields{
		"user_id":  acc.ID,
		"ip":       in.IP,
		"remember": in.Remember,
	}).Info("Admin logged in")
	return issued, nil
}

// TestLogin issues a regular server-side session for the configured
// test account. Disabled unless explicitly switched on outside production.
func (s *Service) TestLogin(ctx context.Context, ip, userAgent string) (*Issued, error) {
	if !s.opts.TestLoginEnabled || s.opts.TestLoginEmail == "" {
		return nil, common.ErrFeatureDisabled
	}

	acc, err := s.accounts.GetByEmail(ctx, s.opts.TestLoginEmail)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !acc.IsActive {
		return nil, common.ErrInvalidCredentials
	}

	issued, err := s.issue(ctx, acc, false, ip, userAgent)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": acc.ID, "ip": ip}).Warn("Test login used")
	return issued, nil
}

// Logout deletes the server-side session and returns a cookie that
// clears the browser copy. An unknown token still logs out.
func (s *Service) Logout(ctx context.Context, token string) (*http.Cookie, error) {
	if token != "" {
		if err := s.sessions.DeleteSession(ctx, HashToken(token)); err != nil {
			return nil, err
		}
	}
	return s.clearCookie(), nil
}

// Verify resolves a session token to the principal behind it.
func (s *Service) Verify(ctx context.Context, token string) (*access.Principal, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	hash := HashToken(token)
	sess, err := s.sessions.GetSessionByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	now := s.now()
	if sess.Expired(now) {
		if err := s.sessions.DeleteSession(ctx, hash); err != nil {
			log.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, common.ErrUnauthenticated
	}

	acc, err := s.accounts.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	if !acc.IsActive {
		return nil, common.ErrUnauthenticated
	}

	if now.Sub(sess.LastActivity) >= touchInterval {
		if err := s.sessions.TouchSession(ctx, sess.ID, now); err != nil {
			log.WithError(err).Warn("Failed to update session activity")
		}
	}

	return principalFor(acc, sess), nil
}

// RevokeUserSessions logs a user out everywhere.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) error {
	n, err := s.sessions.DeleteUserSessions(ctx, userID)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "sessions": n}).Info("Sessions revoked")
	return nil
}

// PurgeExpiredSessions removes expired session rows.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx, s.now())
}

// PurgeLoginAttempts removes audit rows older than retention.
func (s *Service) PurgeLoginAttempts(ctx context.Context, retention time.Duration) (int64, error) {
	return s.sessions.PurgeAttempts(ctx, s.now().Add(-retention))
}

func (s *Service) issue(ctx context.Context, acc *users.Account, remember bool, ip, userAgent string) (*Issued, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	ttl := s.opts.SessionTTL
	if remember {
		ttl = s.opts.RememberTTL
	}
	now := s.now()

	sess := &Session{
		ID:           uuid.NewString(),
		TokenHash:    HashToken(token),
		UserID:       acc.ID,
		Email:        acc.Email,
		Remember:     remember,
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttl),
		LastActivity: now,
		IP:           ip,
		UserAgent:    userAgent,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &Issued{
		Principal: principalFor(acc, sess),
		Cookie: &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			Secure:   s.opts.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		},
	}, nil
}

func (s *Service) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Service) upgradeHash(ctx context.Context, acc *users.Account, password string) {
	hash, err := passwords.HashWithCost(password, s.hashCost)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, acc.ID, hash)
	}
	if err != nil {
		log.WithError(err).WithField("user_id", acc.ID).Warn("Password rehash failed")
		return
	}
	log.WithField("user_id", acc.ID).Info("Password hash upgraded")
}

// logAttempt writes the audit row; a failure never blocks a login.
func (s *Service) logAttempt(ctx context.Context, email, ip string, success bool) {
	if err := s.sessions.LogAttempt(ctx, LoginAttempt{Email: email, IP: ip, Success: success}); err != nil {
		log.WithError(err).Warn("Failed to record login attempt")
	}
}

func principalFor(acc *users.Account, sess *Session) *access.Principal {
	return &access.Principal{
		UserID:       acc.ID,
		Email:        acc.Email,
		FullName:     acc.FullName,
		Role:         acc.Role,
		Permissions:  acc.Effective(),
		SessionID:    sess.ID,
		SessionUntil: sess.ExpiresAt,
	}
}

// HashToken is the form a token is stored in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("sessietoken genereren mislukt: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
