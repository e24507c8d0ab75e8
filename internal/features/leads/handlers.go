// handlers.go: /api/leads/* and the public form.

package leads

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler serves the lead endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the leads handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /api/leads/submit (public).
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in SubmitInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	if err := h.service.Submit(r.Context(), in, common.ClientIP(r)); err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Bedankt voor je aanvraag! We nemen binnen één werkdag contact op.",
	})
}

// List handles GET /api/leads.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, apiErr := parseFilter(r)
	if apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}

	leads, total, err := h.service.List(r.Context(), f)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leads":  leads,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// Create handles POST /api/leads.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	l, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, l)
}

// Get handles GET /api/leads/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, l)
}

// Update handles PATCH /api/leads/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	l, err := h.service.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, l)
}

// Delete handles DELETE /api/leads/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFrom(r.Context())
	if err := h.service.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		common.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus handles PATCH /api/leads/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	l, err := h.service.ChangeStatus(r.Context(), actor, mux.Vars(r)["id"], Status(in.Status))
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, l)
}

// Activities handles GET /api/leads/{id}/activities.
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Activities(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"activities": items})
}

// AddActivity handles POST /api/leads/{id}/activities.
func (h *Handler) AddActivity(w http.ResponseWriter, r *http.Request) {
	var in ActivityInput
	if apiErr := common.DecodeJSON(r, &in); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	actor, _ := access.PrincipalFrom(r.Context())

	a, err := h.service.AddActivity(r.Context(), actor, mux.Vars(r)["id"], in)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, a)
}

func parseFilter(r *http.Request) (Filter, *common.APIError) {
	q := r.URL.Query()
	f := Filter{
		Status: Status(q.Get("status")),
		Source: Source(q.Get("source")),
		Query:  strings.TrimSpace(q.Get("q")),
	}
	f.Limit, f.Offset = common.Paging(r, defaultPageSize, maxPageSize)

	details := map[string]string{}
	if f.Status != "" && !validStatus(f.Status) {
		details["status"] = "moet een van new, contacted, qualified, converted, lost zijn"
	}
	if f.Source != "" && f.Source != SourceForm && f.Source != SourceManual {
		details["source"] = "moet form of manual zijn"
	}
	if len(details) > 0 {
		return f, &common.APIError{Status: http.StatusBadRequest, Message: common.MsgInvalidInput, Details: details}
	}

	var apiErr *common.APIError
	if f.From, apiErr = common.ParseDateParam(r, "from"); apiErr != nil {
		return f, apiErr
	}
	to, apiErr := common.ParseDateParam(r, "to")
	if apiErr != nil {
		return f, apiErr
	}
	if !to.IsZero() {
		// "to" is inclusive for the user, exclusive in the query.
		f.To = to.AddDate(0, 0, 1)
	}
	return f, nil
}

func validStatus(s Status) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}
