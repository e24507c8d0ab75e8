// handlers.go: GET /api/analytics and /api/dashboard.

package analytics

import (
	"net/http"

	"pixelwerk.nl/backoffice/internal/common"
)

// Handler serves the analytics endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the analytics handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Report handles GET /api/analytics?period=&from=&to= (to inclusive).
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := Query{Period: Period(r.URL.Query().Get("period"))}

	var apiErr *common.APIError
	if q.From, apiErr = common.ParseDateParam(r, "from"); apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	to, apiErr := common.ParseDateParam(r, "to")
	if apiErr != nil {
		common.WriteError(w, apiErr)
		return
	}
	if !to.IsZero() {
		q.To = to.AddDate(0, 0, 1)
	}

	report, err := h.service.Report(r.Context(), q)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, report)
}

// Dashboard handles GET /api/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, d)
}
