// handlers.go: /api/leads/{id}/quotes and /api/quotes/*.

package quotes

import (
	"net/http"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// Handler serves the quote endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the quotes handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListByLead handles GET /api/leads/{id}/quotes.
func (h *Handler) ListByLead(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListByLead(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"quotes": items})
}

// Create handles POST /api/leads/{id}/quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	q, err := h.service.Create(r.Context(), actor, mux.Vars(r)["id"], in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, q)
}

// Get handles GET /api/quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, q)
}

// Update handles PUT /api/quotes/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	q, err := h.service.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, q)
}

// ChangeStatus handles PATCH /api/quotes/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	q, err := h.service.ChangeStatus(r.Context(), actor, mux.Vars(r)["id"], Status(in.Status))
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, q)
}
