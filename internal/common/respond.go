// respond.go writes JSON responses and maps errors to
// HTTP status codes. Every handler ends in WriteJSON or Fail.

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// MsgInternal is the only text a client sees for unexpected failures.
const MsgInternal = "Interne serverfout"

// APIError is an error that already knows its HTTP status and the
// message shown to the user. Cause is logged, never returned.
type APIError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
	Cause   error             `json:"-"`
}

// NewAPIError creates an APIError without a cause.
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Cause }

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode JSON response")
	}
}

// WriteError writes an APIError as JSON.
func WriteError(w http.ResponseWriter, apiErr *APIError) {
	WriteJSON(w, apiErr.Status, apiErr)
}

// Fail converts err into a JSON error response. Unknown errors become
// a 500 and the cause goes to the server log only.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := ToAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("Request failed")
	}
	WriteError(w, apiErr)
}

// ToAPIError resolves err to the response it should produce.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewAPIError(http.StatusUnauthorized, "Ongeldige inloggegevens")
	case errors.Is(err, ErrUnauthenticated):
		return NewAPIError(http.StatusUnauthorized, "Niet ingelogd")
	case errors.Is(err, ErrForbidden):
		return NewAPIError(http.StatusForbidden, "Geen toegang")
	case errors.Is(err, ErrSelfModification):
		return NewAPIError(http.StatusForbidden, "Je kunt je eigen account hier niet aanpassen")
	case errors.Is(err, ErrSuperAdminOnly):
		return NewAPIError(http.StatusForbidden, "Alleen een super admin mag dit aanpassen")
	case errors.Is(err, ErrWrongPassword):
		return NewAPIError(http.StatusBadRequest, "Huidig wachtwoord is onjuist")
	case errors.Is(err, ErrFeatureDisabled):
		return NewAPIError(http.StatusNotFound, "Deze functie is uitgeschakeld")
	case errors.Is(err, ErrNotFound):
		return NewAPIError(http.StatusNotFound, "Niet gevonden")
	case errors.Is(err, ErrConflict):
		return NewAPIError(http.StatusConflict, "Bestaat al")
	case errors.Is(err, ErrInvalidTransition):
		return NewAPIError(http.StatusConflict, "Ongeldige statusovergang")
	case errors.Is(err, ErrFileTooLarge):
		return NewAPIError(http.StatusRequestEntityTooLarge, "Bestand is te groot")
	case errors.Is(err, ErrLookupUnavailable):
		return NewAPIError(http.StatusServiceUnavailable, "Opzoeken is tijdelijk niet beschikbaar")
	}

	return &APIError{Status: http.StatusInternalServerError, Message: MsgInternal, Cause: err}
}

// NotFound builds a 404 naming the kind of record, e.g. NotFound("Lead").
func NotFound(what string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: what + " niet gevonden", Cause: ErrNotFound}
}

// MapNotFound replaces a wrapped ErrNotFound with NotFound(what) so the
// client sees which record was missing. Other errors pass through.
func MapNotFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		nf := NotFound(what)
		nf.Cause = err
		return nf
	}
	return err
}
