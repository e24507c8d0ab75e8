package access

import (
	"context"
	"time"
)

// Principal is the verified identity behind an admin request.
type Principal struct {
	UserID       string        `json:"id"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	Role         Role          `json:"role"`
	Permissions  CapabilitySet `json:"permissions"`
	SessionID    string        `json:"-"`
	SessionUntil time.Time     `json:"expires_at"`
}

// Can reports whether the principal may use capability c.
func (p *Principal) Can(c Capability) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleSuperAdmin {
		return true
	}
	return p.Permissions.Has(c)
}

// IsSuperAdmin reports the explicit role, never an email comparison.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

type principalKey struct{}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal set by the permission gate.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
