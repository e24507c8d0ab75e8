// handlers.go: company search and postcode lookup.

package companies

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/common"
)

// Searcher is implemented by Registry.
type Searcher interface {
	Search(ctx context.Context, name string) ([]Company, error)
}

// Handler serves /api/companies/search and /api/postcode/{postcode}.
type Handler struct {
	registry Searcher
}

// NewHandler creates the companies handler.
func NewHandler(registry Searcher) *Handler {
	return &Handler{registry: registry}
}

// Search handles GET /api/companies/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if n := utf8.RuneCountInString(q); n < 2 || n > 100 {
		common.WriteError(w, &common.APIError{
			Status:  http.StatusBadRequest,
			Message: common.MsgInvalidInput,
			Details: map[string]string{"q": "moet tussen 2 en 100 tekens lang zijn"},
		})
		return
	}

	results, err := h.registry.Search(r.Context(), q)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"companies": results})
}

// Postcode handles GET /api/postcode/{postcode} (public).
func (h *Handler) Postcode(w http.ResponseWriter, r *http.Request) {
	info, err := LookupPostcode(mux.Vars(r)["postcode"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, info)
}
