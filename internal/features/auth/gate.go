// gate.go is the one permission check every protected
// route goes through.

package auth

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// Verifier resolves a session token; Service implements it.
type Verifier interface {
	Verify(ctx context.Context, token string) (*access.Principal, error)
}

// Gate authenticates requests and checks capabilities.
type Gate struct {
	verifier Verifier
}

// NewGate creates a gate on top of a verifier.
func NewGate(v Verifier) *Gate {
	return &Gate{verifier: v}
}

// Check authenticates r and, when c is not empty, requires capability c.
// It returns either the principal or the error response to send:
// 401 without a valid session, 403 when the capability is missing.
func (g *Gate) Check(r *http.Request, c access.Capability) (*access.Principal, *common.APIError) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, common.ToAPIError(common.ErrUnauthenticated)
	}

	p, err := g.verifier.Verify(r.Context(), cookie.Value)
	if err != nil {
		return nil, common.ToAPIError(err)
	}

	if c != "" && !p.Can(c) {
		return nil, &common.APIError{
			Status:  http.StatusForbidden,
			Message: c.DeniedMessage(),
			Cause:   common.ErrForbidden,
		}
	}
	return p, nil
}

// Require wraps next so it only runs for principals holding c.
func (g *Gate) Require(c access.Capability, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, apiErr := g.Check(r, c)
		if apiErr != nil {
			g.reject(w, r, apiErr)
			return
		}
		next(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
	})
}

// Authenticated only requires a valid session.
func (g *Gate) Authenticated(next http.HandlerFunc) http.Handler {
	return g.Require("", next)
}

// RequireSuperAdmin requires the superadmin role.
func (g *Gate) RequireSuperAdmin(next http.HandlerFunc) http.Handler {
	return g.Authenticated(func(w http.ResponseWriter, r *http.Request) {
		p, _ := access.PrincipalFrom(r.Context())
		if !p.IsSuperAdmin() {
			g.reject(w, r, common.ToAPIError(common.ErrSuperAdminOnly))
			return
		}
		next(w, r)
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, apiErr *common.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		log.WithError(apiErr.Cause).WithField("path", r.URL.Path).Error("Session verification failed")
	} else if apiErr.Status == http.StatusForbidden {
		log.WithFields(log.Fields{
			"path": r.URL.Path,
			"ip":   common.ClientIP(r),
		}).Debug("Access denied")
	}
	common.WriteError(w, apiErr)
}
