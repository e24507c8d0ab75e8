// handlers.go: multipart upload and download.

package attachments

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// multipartMemory is how much of a form is kept in memory before the
// rest spills to temporary files.
const multipartMemory = 4 << 20

// Handler serves the attachment endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the attachments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/leads/{id}/attachments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"attachments": items})
}

// Upload handles POST /api/leads/{id}/attachments, multipart field "file".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+(1<<20))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.Fail(w, r, common.ErrFileTooLarge)
			return
		}
		common.WriteError(w, &common.APIError{
			Status:  http.StatusBadRequest,
			Message: "Ongeldig formulier, verwacht multipart/form-data",
			Cause:   err,
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, &common.APIError{
			Status:  http.StatusBadRequest,
			Message: common.MsgInvalidInput,
			Details: map[string]string{"file": "is verplicht"},
		})
		return
	}
	defer file.Close()

	actor, _ := access.PrincipalFrom(r.Context())
	a, err := h.service.Upload(r.Context(), actor, mux.Vars(r)["id"], header.Filename, file)
	if err != nil {
		common.Fail(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, a)
}

// Download handles GET /api/attachments/{id}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	a, data, err := h.service.Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.Fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Delete handles DELETE /api/attachments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFrom(r.Context())
	if err := h.service.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		common.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
