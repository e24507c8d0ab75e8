package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/analytics"
	"pixelwerk.nl/backoffice/internal/features/attachments"
	"pixelwerk.nl/backoffice/internal/features/auth"
	"pixelwerk.nl/backoffice/internal/features/companies"
	"pixelwerk.nl/backoffice/internal/features/customers"
	"pixelwerk.nl/backoffice/internal/features/leads"
	"pixelwerk.nl/backoffice/internal/features/quotes"
	"pixelwerk.nl/backoffice/internal/features/users"
	"pixelwerk.nl/backoffice/internal/ratelimit"
	"pixelwerk.nl/backoffice/internal/testutil"
)

// emptyLeads is a leads.Store without rows.
type emptyLeads struct{}

func (emptyLeads) Create(context.Context, *leads.Lead) error { return nil }
func (emptyLeads) GetByID(context.Context, string) (*leads.Lead, error) {
	return nil, common.ErrNotFound
}
func (emptyLeads) List(context.Context, leads.Filter) ([]*leads.Lead, int, error) {
	return []*leads.Lead{}, 0, nil
}
func (emptyLeads) CreatedBetween(context.Context, time.Time, time.Time) ([]*leads.Lead, error) {
	return nil, nil
}
func (emptyLeads) Update(context.Context, *leads.Lead) error { return nil }
func (emptyLeads) ChangeStatus(context.Context, string, leads.Status, *leads.Activity) error {
	return nil
}
func (emptyLeads) Delete(context.Context, string) error                 { return nil }
func (emptyLeads) AddActivity(context.Context, *leads.Activity) error { return nil }
func (emptyLeads) ListActivities(context.Context, string) ([]*leads.Activity, error) {
	return nil, nil
}

type fixture struct {
	router   http.Handler
	accounts *testutil.Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accounts := testutil.NewAccounts()
	authSvc := auth.NewService(testutil.NewSessions(), accounts, auth.Options{}).WithHashCost(bcrypt.MinCost)
	usersSvc := users.NewService(accounts, authSvc).WithHashCost(bcrypt.MinCost)
	leadsSvc := leads.NewService(emptyLeads{}, nil)

	store := ratelimit.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	h := Handlers{
		Auth:        auth.NewHandler(authSvc),
		Users:       users.NewHandler(usersSvc),
		Leads:       leads.NewHandler(leadsSvc),
		Attachments: attachments.NewHandler(attachments.NewService(nil, leadsSvc, 1<<20)),
		Quotes:      quotes.NewHandler(quotes.NewService(nil, leadsSvc, quotes.Defaults{VATRate: 21, ValidDays: 30})),
		Customers:   customers.NewHandler(customers.NewService(nil, leadsSvc)),
		Analytics:   analytics.NewHandler(analytics.NewService(nil)),
		Companies:   companies.NewHandler(companies.NewRegistry(companies.RegistryConfig{}, nil)),
	}
	router := NewRouter(h, RouterConfig{
		Gate:    auth.NewGate(authSvc),
		Limiter: ratelimit.NewLimiter(store),
		Quotas: Quotas{
			Login:    ratelimit.Quota{Max: 10, Window: 15 * time.Minute},
			Contact:  ratelimit.Quota{Max: 5, Window: time.Hour},
			Postcode: ratelimit.Quota{Max: 60, Window: time.Minute},
			API:      ratelimit.Quota{Max: 300, Window: time.Minute},
		},
	})
	return &fixture{router: router, accounts: accounts}
}

func (f *fixture) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	f := newFixture(t)
	f.accounts.Add("sanne@pixelwerk.nl", "geheim123", access.RoleAdmin, access.CapLeads)

	cookie := f.login(t, "sanne@pixelwerk.nl", "geheim123")
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	rec := f.do(http.MethodGet, "/api/auth/session", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sanne@pixelwerk.nl")
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.accounts.Add("sanne@pixelwerk.nl", "geheim123", access.RoleAdmin)

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"sanne@pixelwerk.nl","password":"fout"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Ongeldige inloggegevens", errorMessage(t, rec))
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_MalformedEmailIsInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"admin","password":"geheim123"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Ongeldige inloggegevens", errorMessage(t, rec))
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.accounts.Add("sanne@pixelwerk.nl", "geheim123", access.RoleAdmin)
	body := `{"email":"sanne@pixelwerk.nl","password":"fout"}`

	for i := 1; i <= 10; i++ {
		rec := f.do(http.MethodPost, "/api/auth/login", body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
	}

	rec := f.do(http.MethodPost, "/api/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Te veel verzoeken, probeer het later opnieuw", errorMessage(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestProtectedRoutes(t *testing.T) {
	f := newFixture(t)
	f.accounts.Add("sales@pixelwerk.nl", "geheim123", access.RoleAdmin, access.CapLeads, access.CapUsers)
	f.accounts.Add("finance@pixelwerk.nl", "geheim123", access.RoleAdmin, access.CapAnalytics)
	f.accounts.Add("baas@pixelwerk.nl", "geheim123", access.RoleSuperAdmin)

	sales := f.login(t, "sales@pixelwerk.nl", "geheim123")
	finance := f.login(t, "finance@pixelwerk.nl", "geheim123")
	boss := f.login(t, "baas@pixelwerk.nl", "geheim123")
	forged := &http.Cookie{Name: auth.CookieName, Value: "bestaat-niet"}

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		cookie  *http.Cookie
		status  int
		message string
	}{
		{"no cookie", http.MethodGet, "/api/leads", "", nil, http.StatusUnauthorized, "Niet ingelogd"},
		{"forged cookie", http.MethodGet, "/api/leads", "", forged, http.StatusUnauthorized, "Niet ingelogd"},
		{"missing capability", http.MethodGet, "/api/leads", "", finance, http.StatusForbidden, "Geen toegang tot leads"},
		{"with capability", http.MethodGet, "/api/leads", "", sales, http.StatusOK, ""},
		{"superadmin passes", http.MethodGet, "/api/leads", "", boss, http.StatusOK, ""},
		{"customers need their own capability", http.MethodGet, "/api/customers", "", sales, http.StatusForbidden, "Geen toegang tot klanten"},
		{"role change is superadmin only", http.MethodPut, "/api/users/x/role", `{"role":"admin"}`, sales, http.StatusForbidden, "Alleen een super admin mag dit aanpassen"},
		{"unknown route", http.MethodGet, "/api/nope", "", sales, http.StatusNotFound, "Niet gevonden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body, tt.cookie)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, errorMessage(t, rec))
			}
		})
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := newFixture(t)
	f.accounts.Add("sanne@pixelwerk.nl", "geheim123", access.RoleAdmin, access.CapLeads)
	cookie := f.login(t, "sanne@pixelwerk.nl", "geheim123")

	rec := f.do(http.MethodPost, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/leads", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicPostcodeLookup(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/postcode/3511AB", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Utrecht")
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
}
