package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemInput struct {
	Description string `json:"description" validate:"required,max=10"`
}

type sampleInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Status   string      `json:"status" validate:"omitempty,oneof=new lost"`
	Postcode string      `json:"postcode" validate:"omitempty,nl_postcode"`
	Items    []itemInput `json:"items" validate:"dive"`
}

func TestValidate_FieldDetails(t *testing.T) {
	in := sampleInput{
		Email:    "not-an-email",
		Status:   "maybe",
		Postcode: "0123XX",
		Items:    []itemInput{{Description: ""}},
	}

	apiErr := Validate(&in)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, MsgInvalidInput, apiErr.Message)
	assert.Equal(t, "moet een geldig e-mailadres zijn", apiErr.Details["email"])
	assert.Equal(t, "moet een van de volgende zijn: new, lost", apiErr.Details["status"])
	assert.Contains(t, apiErr.Details["postcode"], "postcode")
	assert.Equal(t, "is verplicht", apiErr.Details["items[0].description"])
}

func TestValidate_OK(t *testing.T) {
	in := sampleInput{Email: "info@example.nl", Postcode: "1012 AB"}
	assert.Nil(t, Validate(&in))
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"email":"a@b.nl"}`, 0},
		{"empty body", ``, http.StatusBadRequest},
		{"broken json", `{"email":`, http.StatusBadRequest},
		{"unknown field", `{"email":"a@b.nl","admin":true}`, http.StatusBadRequest},
		{"invalid email", `{"email":"nope"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in sampleInput
			apiErr := DecodeJSON(r, &in)
			if tt.wantStatus == 0 {
				assert.Nil(t, apiErr)
				return
			}
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
		})
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{ErrLookupUnavailable, http.StatusServiceUnavailable},
		{NotFound("Lead"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, ToAPIError(tt.err).Status)
		})
	}
}

func TestFail_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)

	Fail(w, r, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Interne serverfout"}`, w.Body.String())
}

func TestNotFound_IsErrNotFound(t *testing.T) {
	err := NotFound("Klant")
	assert.Equal(t, "Klant niet gevonden", err.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "€ 0,00", FormatEuro(0))
	assert.Equal(t, "€ 1.234,56", FormatEuro(123456))
	assert.Equal(t, "€ 1.000.000,00", FormatEuro(100000000))
	assert.Equal(t, "€ -5,00", FormatEuro(-500))
	assert.Equal(t, "1 nieuwe lead", PluralizeLeads(1))
	assert.Equal(t, "0 nieuwe leads", PluralizeLeads(0))
}

func TestStartOfWeek(t *testing.T) {
	SetTimezone("Europe/Amsterdam")
	// Sunday 18 October 2026, late evening.
	sunday := time.Date(2026, 10, 18, 23, 30, 0, 0, Location())
	monday := StartOfWeek(sunday)
	assert.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, 12, monday.Day())

	assert.Equal(t, 1, StartOfMonth(sunday).Day())
	assert.Equal(t, 0, StartOfDay(sunday).Hour())
}

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name string
		xff  []string
		hops int
		want string
	}{
		{"untrusted ignores header", []string{"203.0.113.9"}, 0, "10.0.0.1"},
		{"one proxy takes rightmost", []string{"6.6.6.6, 203.0.113.9"}, 1, "203.0.113.9"},
		{"two proxies", []string{"6.6.6.6, 203.0.113.9, 10.0.0.7"}, 2, "203.0.113.9"},
		{"header split over lines", []string{"6.6.6.6", "203.0.113.9"}, 1, "203.0.113.9"},
		{"too few entries", []string{"203.0.113.9"}, 2, "10.0.0.1"},
		{"no header", nil, 1, "10.0.0.1"},
		{"garbage entry", []string{"niet-een-ip"}, 1, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "10.0.0.1:5555"
			for _, v := range tt.xff {
				r.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, ResolveClientIP(r, tt.hops))
		})
	}
}

func TestParseDateParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?from=2026-01-31&to=31-01-2026", nil)

	from, apiErr := ParseDateParam(r, "from")
	require.Nil(t, apiErr)
	assert.Equal(t, 31, from.Day())

	_, apiErr = ParseDateParam(r, "to")
	require.NotNil(t, apiErr)
	assert.Contains(t, apiErr.Details, "to")

	missing, apiErr := ParseDateParam(r, "since")
	assert.Nil(t, apiErr)
	assert.True(t, missing.IsZero())
}
