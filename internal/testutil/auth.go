// Package testutil holds in-memory stand-ins for the PostgreSQL
// repositories so handler and router tests run without a database.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/auth"
	"pixelwerk.nl/backoffice/internal/features/users"
	"pixelwerk.nl/backoffice/internal/passwords"
)

// Accounts implements users.Store and auth.AccountStore.
type Accounts struct {
	mu   sync.Mutex
	byID map[string]*users.Account
}

// NewAccounts returns an empty account store.
func NewAccounts() *Accounts {
	return &Accounts{byID: make(map[string]*users.Account)}
}

// Add stores an active account with a cheap bcrypt hash of password.
func (s *Accounts) Add(email, password string, role access.Role, caps ...access.Capability) *users.Account {
	hash, err := passwords.HashWithCost(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	a := &users.Account{
		ID:           uuid.NewString(),
		Email:        users.NormalizeEmail(email),
		PasswordHash: hash,
		FullName:     email,
		Role:         role,
		Capabilities: access.NewCapabilitySet(caps...),
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.byID[a.ID] = a
	s.mu.Unlock()
	return a
}

func (s *Accounts) Create(_ context.Context, a *users.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == a.Email {
			return common.ErrConflict
		}
	}
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *Accounts) GetByID(_ context.Context, id string) (*users.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Accounts) GetByEmail(_ context.Context, email string) (*users.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *Accounts) List(_ context.Context) ([]*users.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*users.Account, 0, len(s.byID))
	for _, a := range s.byID {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Accounts) mutate(id string, fn func(a *users.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(a)
	return nil
}

func (s *Accounts) UpdateCapabilities(_ context.Context, id string, caps access.CapabilitySet) error {
	return s.mutate(id, func(a *users.Account) { a.Capabilities = caps })
}

func (s *Accounts) UpdateRole(_ context.Context, id string, role access.Role) error {
	return s.mutate(id, func(a *users.Account) { a.Role = role })
}

func (s *Accounts) SetActive(_ context.Context, id string, active bool) error {
	return s.mutate(id, func(a *users.Account) { a.IsActive = active })
}

func (s *Accounts) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return s.mutate(id, func(a *users.Account) { a.PasswordHash = hash })
}

// Sessions implements auth.SessionStore.
type Sessions struct {
	mu       sync.Mutex
	byHash   map[string]*auth.Session
	Attempts []auth.LoginAttempt
}

// NewSessions returns an empty session store.
func NewSessions() *Sessions {
	return &Sessions{byHash: make(map[string]*auth.Session)}
}

// Len is the number of stored sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}

func (s *Sessions) CreateSession(_ context.Context, sess *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.byHash[sess.TokenHash] = &cp
	return nil
}

func (s *Sessions) GetSessionByTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byHash[hash]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Sessions) DeleteSession(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, hash)
	return nil
}

func (s *Sessions) DeleteUserSessions(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for h, sess := range s.byHash {
		if sess.UserID == userID {
			delete(s.byHash, h)
			n++
		}
	}
	return n, nil
}

func (s *Sessions) TouchSession(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.byHash {
		if sess.ID == id {
			sess.LastActivity = at
		}
	}
	return nil
}

func (s *Sessions) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for h, sess := range s.byHash {
		if sess.Expired(now) {
			delete(s.byHash, h)
			n++
		}
	}
	return n, nil
}

func (s *Sessions) LogAttempt(_ context.Context, a auth.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attempts = append(s.Attempts, a)
	return nil
}

func (s *Sessions) PurgeAttempts(context.Context, time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.Attempts))
	s.Attempts = nil
	return n, nil
}
