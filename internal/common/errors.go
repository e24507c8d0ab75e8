// errors.go defines the sentinel errors shared by all
// feature packages. Handlers translate them into HTTP responses with a
// Dutch message via Fail, so the text here is what an admin sees.

package common

import "errors"

// Authentication and authorization.
var (
	// ErrInvalidCredentials: wrong email or password; deliberately says
	// nothing about which of the two was wrong.
	ErrInvalidCredentials = errors.New("ongeldige inloggegevens")
	// ErrUnauthenticated: no session cookie or the session is no longer valid.
	ErrUnauthenticated = errors.New("niet ingelogd")
	// ErrForbidden: the account lacks the required capability.
	ErrForbidden = errors.New("geen toegang")
	// ErrWrongPassword: current password mismatch when changing it.
	ErrWrongPassword = errors.New("huidig wachtwoord is onjuist")
	// ErrSelfModification: admins cannot change their own flags or status.
	ErrSelfModification = errors.New("je kunt je eigen account hier niet aanpassen")
	// ErrSuperAdminOnly: only a super admin may touch roles or super admin accounts.
	ErrSuperAdminOnly = errors.New("alleen een super admin mag dit aanpassen")
	// ErrFeatureDisabled: an endpoint switched off by configuration.
	ErrFeatureDisabled = errors.New("deze functie is uitgeschakeld")
)

// Records.
var (
	// ErrNotFound: the requested record does not exist.
	ErrNotFound = errors.New("niet gevonden")
	// ErrConflict: the record already exists (unique constraint).
	ErrConflict = errors.New("bestaat al")
	// ErrInvalidTransition: the status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("ongeldige statusovergang")
	// ErrFileTooLarge: an uploaded attachment exceeds the configured maximum.
	ErrFileTooLarge = errors.New("bestand is te groot")
)

// External lookups.
var (
	// ErrLookupUnavailable: the company registry did not answer in time
	// or the circuit breaker is open.
	ErrLookupUnavailable = errors.New("opzoeken is tijdelijk niet beschikbaar")
)
