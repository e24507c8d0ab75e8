// handlers.go: /api/auth/*.

package auth

import (
	"net/http"
	"time"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// Handler serves the auth endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sessionResponse struct {
	User      *access.Principal `json:"user"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	in.IP = common.ClientIP(r)
	in.UserAgent = r.UserAgent()

	issued, err := h.service.Login(r.Context(), in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}

	http.SetCookie(w, issued.Cookie)
	common.WriteJSON(w, http.StatusOK, sessionResponse{User: issued.Principal, ExpiresAt: issued.Cookie.Expires})
}

// TestLogin handles POST /api/auth/test-login. 404 unless enabled.
func (h *Handler) TestLogin(w http.ResponseWriter, r *http.Request) {
	issued, err := h.service.TestLogin(r.Context(), common.ClientIP(r), r.UserAgent())
	if err != nil {
		common.Fail(w, r, err)
		return
	}

	http.SetCookie(w, issued.Cookie)
	common.WriteJSON(w, http.StatusOK, sessionResponse{User: issued.Principal, ExpiresAt: issued.Cookie.Expires})
}

// Logout handles POST /api/auth/logout. Works without a valid session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(CookieName); err == nil {
		token = c.Value
	}

	cookie, err := h.service.Logout(r.Context(), token)
	if err != nil {
		common.Fail(w, r, err)
		return
	}

	http.SetCookie(w, cookie)
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "Uitgelogd"})
}

// Session handles GET /api/auth/session, behind Gate.Authenticated.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	p, ok := access.PrincipalFrom(r.Context())
	if !ok {
		common.Fail(w, r, common.ErrUnauthenticated)
		return
	}
	common.WriteJSON(w, http.StatusOK, sessionResponse{User: p, ExpiresAt: p.SessionUntil})
}
