// handlers.go exposes account management over HTTP.
// Access checks (capability "users", super admin) happen in the router;
// handlers only read the principal to pass it to the service.

package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// Handler serves /api/users and /api/account.
type Handler struct {
	service *Service
}

// NewHandler creates the users handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// accountView adds the effective permissions next to the stored ones.
type accountView struct {
	*Account
	Effective access.CapabilitySet `json:"effective_permissions"`
}

func view(a *Account) accountView {
	return accountView{Account: a, Effective: a.Effective()}
}

// List handles GET /api/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, view(a))
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

// Create handles POST /api/users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	a, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, view(a))
}

// SetCapability handles PATCH /api/users/{id}/capabilities.
func (h *Handler) SetCapability(w http.ResponseWriter, r *http.Request) {
	var in CapabilityInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	c, _ := access.ParseCapability(in.Capability)
	actor, _ := access.PrincipalFrom(r.Context())

	a, err := h.service.SetCapability(r.Context(), actor, mux.Vars(r)["id"], c, *in.Enabled)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, view(a))
}

// SetRole handles PUT /api/users/{id}/role.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var in RoleInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	a, err := h.service.SetRole(r.Context(), actor, mux.Vars(r)["id"], access.Role(in.Role))
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, view(a))
}

// SetActive handles PATCH /api/users/{id}/active.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var in ActiveInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	a, err := h.service.SetActive(r.Context(), actor, mux.Vars(r)["id"], *in.Active)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, view(a))
}

// ChangePassword handles PUT /api/account/password, always for the caller.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in PasswordInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, ok := access.PrincipalFrom(r.Context())
	if !ok {
		common.Fail(w, r, common.ErrUnauthenticated)
		return
	}

	if err := h.service.ChangePassword(r.Context(), actor.UserID, in.Current, in.New); err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "Wachtwoord gewijzigd"})
}
