// service.go holds the account management rules: who may
// change which flag, idempotent capability toggles, session revocation
// on deactivation.

package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/passwords"
)

// Store is the persistence the service needs; Repository implements it.
type Store interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	UpdateCapabilities(ctx context.Context, id string, caps access.CapabilitySet) error
	UpdateRole(ctx context.Context, id string, role access.Role) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID string) error
}

// Service manages admin accounts.
type Service struct {
	store    Store
	revoker  SessionRevoker
	hashCost int
}

// NewService creates the account service.
func NewService(store Store, revoker SessionRevoker) *Service {
	return &Service{store: store, revoker: revoker, hashCost: passwords.DefaultCost}
}

// WithHashCost lowers the bcrypt cost; tests only.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return s.store.List(ctx)
}

// Get returns one account or a 404.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Create adds an account. Only a super admin may create another super admin.
func (s *Service) Create(ctx context.Context, actor *access.Principal, in CreateInput) (*Account, error) {
	role := access.Role(in.Role)
	if role == "" {
		role = access.RoleAdmin
	}
	if role == access.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, common.ErrSuperAdminOnly
	}

	hash, err := passwords.HashWithCost(in.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("wachtwoord hashen: %w", err)
	}

	a := &Account{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		Capabilities: access.CapabilitySetFromStrings(in.Capabilities),
		IsActive:     true,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  a.ID,
		"email":    a.Email,
		"role":     a.Role,
		"actor_id": actorID(actor),
	}).Info("Admin account created")
	return a, nil
}

// SetCapability toggles one capability. Setting the value it already has
// is a successful no-op and does not touch the database.
func (s *Service) SetCapability(ctx context.Context, actor *access.Principal, id string, c access.Capability, enabled bool) (*Account, error) {
	target, err := s.guardTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := target.Capabilities.With(c, enabled)
	if next.Equal(target.Capabilities) {
		return target, nil
	}

	if err := s.store.UpdateCapabilities(ctx, id, next); err != nil {
		return nil, notFound(err)
	}
	target.Capabilities = next

	log.WithFields(log.Fields{
		"user_id":    id,
		"capability": c,
		"enabled":    enabled,
		"actor_id":   actorID(actor),
	}).Info("Capability updated")
	return target, nil
}

// SetRole is reserved for super admins.
func (s *Service) SetRole(ctx context.Context, actor *access.Principal, id string, role access.Role) (*Account, error) {
	if !actor.IsSuperAdmin() {
		return nil, common.ErrSuperAdminOnly
	}
	target, err := s.guardTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}

	if err := s.store.UpdateRole(ctx, id, role); err != nil {
		return nil, notFound(err)
	}
	target.Role = role

	log.WithFields(log.Fields{
		"user_id":  id,
		"role":     role,
		"actor_id": actorID(actor),
	}).Info("Role updated")
	return target, nil
}

// SetActive (de)activates an account. Deactivation revokes all sessions
// so the change takes effect immediately.
func (s *Service) SetActive(ctx context.Context, actor *access.Principal, id string, active bool) (*Account, error) {
	target, err := s.guardTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if target.IsActive == active {
		return target, nil
	}

	if err := s.store.SetActive(ctx, id, active); err != nil {
		return nil, notFound(err)
	}
	target.IsActive = active

	if !active && s.revoker != nil {
		if err := s.revoker.RevokeUserSessions(ctx, id); err != nil {
			return nil, fmt.Errorf("sessies intrekken: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"user_id":  id,
		"active":   active,
		"actor_id": actorID(actor),
	}).Info("Account activation changed")
	return target, nil
}

// ChangePassword lets a user replace their own password.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	a, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if !passwords.Verify(a.PasswordHash, current) {
		return common.ErrWrongPassword
	}

	hash, err := passwords.HashWithCost(next, s.hashCost)
	if err != nil {
		return fmt.Errorf("wachtwoord hashen: %w", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Password changed")
	return nil
}

// guardTarget loads the account an actor wants to modify and enforces
// the shared rules: never yourself, super admins only by super admins.
func (s *Service) guardTarget(ctx context.Context, actor *access.Principal, id string) (*Account, error) {
	if actor != nil && actor.UserID == id {
		return nil, common.ErrSelfModification
	}
	target, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if target.Role == access.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, common.ErrSuperAdminOnly
	}
	return target, nil
}

func notFound(err error) error {
	return common.MapNotFound(err, "Gebruiker")
}

func actorID(p *access.Principal) string {
	if p == nil {
		return "system"
	}
	return p.UserID
}
