// handlers.go: /api/customers/* and lead conversion.

package customers

import (
	"net/http"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// Handler serves the customer endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the customers handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/customers?q=&limit=&offset=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := common.Paging(r, 50, 200)
	items, total, err := h.service.List(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"customers": items,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// Create handles POST /api/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	c, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, c)
}

// Update handles PATCH /api/customers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	c, err := h.service.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, c)
}

// Convert handles POST /api/leads/{id}/convert. An empty body is allowed.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var in ConvertInput
	if r.ContentLength != 0 {
		if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
			common.WriteError(w, apiErr)
			return
		}
	}
	actor, _ := access.PrincipalFrom(r.Context())

	c, err := h.service.ConvertLead(r.Context(), actor, mux.Vars(r)["id"], in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, c)
}
