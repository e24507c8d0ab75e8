// Package users manages admin accounts: creation, capability flags,
// roles, activation and password changes.
// models.go describes the account record and request payloads.
package users

import (
	"strings"
	"time"

	"pixelwerk.nl/backoffice/internal/access"
)

// Account is an admin panel user. Accounts are never deleted; they are
// deactivated instead.
type Account struct {
	ID           string               `json:"id" db:"id"`
	Email        string               `json:"email" db:"email"`
	PasswordHash string               `json:"-" db:"password_hash"`
	FullName     string               `json:"full_name" db:"full_name"`
	Role         access.Role          `json:"role" db:"role"`
	Capabilities access.CapabilitySet `json:"permissions" db:"capabilities"`
	IsActive     bool                 `json:"is_active" db:"is_active"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" db:"updated_at"`
}

// Effective returns what the account may actually do.
func (a *Account) Effective() access.CapabilitySet {
	return access.Effective(a.Role, a.Capabilities)
}

// NormalizeEmail lower-cases and trims, the form stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateInput is the body of POST /api/users.
type CreateInput struct {
	Email        string   `json:"email" validate:"required,email,max=255"`
	FullName     string   `json:"full_name" validate:"required,max=120"`
	Password     string   `json:"password" validate:"required,min=10,max=72"`
	Role         string   `json:"role" validate:"omitempty,oneof=admin superadmin"`
	Capabilities []string `json:"capabilities" validate:"dive,oneof=leads customers analytics users"`
}

// CapabilityInput is the body of PATCH /api/users/{id}/capabilities.
type CapabilityInput struct {
	Capability string `json:"capability" validate:"required,oneof=leads customers analytics users"`
	Enabled    *bool  `json:"enabled" validate:"required"`
}

// RoleInput is the body of PUT /api/users/{id}/role.
type RoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin superadmin"`
}

// ActiveInput is the body of PATCH /api/users/{id}/active.
type ActiveInput struct {
	Active *bool `json:"active" validate:"required"`
}

// PasswordInput is the body of PUT /api/account/password.
type PasswordInput struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=10,max=72"`
}
