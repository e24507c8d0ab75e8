package auth_test

import (
	"context"
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
	"pixelwerk.nl/backoffice/internal/features/auth"
	"pixelwerk.nl/backoffice/internal/passwords"
	"pixelwerk.nl/backoffice/internal/testutil"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	svc      *auth.Service
	accounts *testutil.Accounts
	sessions *testutil.Sessions
	clock    *clock
}

func newFixture(opts auth.Options) *fixture {
	if opts.SessionTTL == 0 {
		opts.SessionTTL = 24 * time.Hour
		opts.RememberTTL = 30 * 24 * time.Hour
	}
	f := &fixture{
		accounts: testutil.NewAccounts(),
		sessions: testutil.NewSessions(),
		clock:    &clock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	f.svc = auth.NewService(f.sessions, f.accounts, opts).
		WithClock(f.clock.Now).
		WithHashCost(bcrypt.MinCost)
	return f
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(auth.Options{})
	acc := f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin, access.CapLeads)

	issued, err := f.svc.Login(context.Background(), auth.LoginInput{
		Email:    "Admin@Pixelwerk.nl",
		Password: "correct-horse",
		IP:       "203.0.113.7",
	})
	require.NoError(t, err)

	c := issued.Cookie
	assert.Equal(t, auth.CookieName, c.Name)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, f.clock.now.Add(24*time.Hour), c.Expires)
	assert.Equal(t, 86400, c.MaxAge)

	assert.Equal(t, acc.ID, issued.Principal.UserID)
	assert.True(t, issued.Principal.Can(access.CapLeads))
	assert.False(t, issued.Principal.Can(access.CapUsers))

	assert.Equal(t, 1, f.sessions.Len())
	require.Len(t, f.sessions.Attempts, 1)
	assert.True(t, f.sessions.Attempts[0].Success)
}

func TestLogin_RememberExtendsExpiry(t *testing.T) {
	f := newFixture(auth.Options{})
	f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)

	issued, err := f.svc.Login(context.Background(), auth.LoginInput{
		Email: "admin@pixelwerk.nl", Password: "correct-horse", Remember: true,
	})
	require.NoError(t, err)
	assert.Equal(t, f.clock.now.Add(30*24*time.Hour), issued.Cookie.Expires)
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	f := newFixture(auth.Options{SecureCookie: true})
	f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)

	issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: "admin@pixelwerk.nl", Password: "correct-horse"})
	require.NoError(t, err)
	assert.True(t, issued.Cookie.Secure)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(auth.Options{})
	f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)
	inactive := f.accounts.Add("oud@pixelwerk.nl", "correct-horse", access.RoleAdmin)
	require.NoError(t, f.accounts.SetActive(context.Background(), inactive.ID, false))

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "admin@pixelwerk.nl", "wrong"},
		{"unknown email", "niemand@pixelwerk.nl", "correct-horse"},
		{"inactive account", "oud@pixelwerk.nl", "correct-horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: tt.email, Password: tt.pass})
			assert.Nil(t, issued)
			assert.ErrorIs(t, err, common.ErrInvalidCredentials)

			apiErr := common.ToAPIError(err)
			assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
			assert.Equal(t, "Ongeldige inloggegevens", apiErr.Message)
		})
	}
	assert.Equal(t, 0, f.sessions.Len())
	assert.Len(t, f.sessions.Attempts, 3)
}

func TestLogin_UpgradesArgon2Hash(t *testing.T) {
	f := newFixture(auth.Options{})
	acc := f.accounts.Add("admin@pixelwerk.nl", "ignored", access.RoleAdmin)
	legacy, err := passwords.HashArgon2id("correct-horse")
	require.NoError(t, err)
	require.NoError(t, f.accounts.UpdatePasswordHash(context.Background(), acc.ID, legacy))

	_, err = f.svc.Login(context.Background(), auth.LoginInput{Email: "admin@pixelwerk.nl", Password: "correct-horse"})
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.True(t, passwords.Verify(stored.PasswordHash, "correct-horse"))
}

func TestVerify(t *testing.T) {
	f := newFixture(auth.Options{})
	acc := f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleSuperAdmin)
	issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: acc.Email, Password: "correct-horse"})
	require.NoError(t, err)
	token := issued.Cookie.Value

	p, err := f.svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, p.UserID)
	assert.True(t, p.IsSuperAdmin())
	for _, c := range access.AllCapabilities {
		assert.True(t, p.Can(c), c)
	}

	_, err = f.svc.Verify(context.Background(), "forged-token")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = f.svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestVerify_ExpiredSession(t *testing.T) {
	f := newFixture(auth.Options{})
	f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)
	issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: "admin@pixelwerk.nl", Password: "correct-horse"})
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(24 * time.Hour)
	_, err = f.svc.Verify(context.Background(), issued.Cookie.Value)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestVerify_DeactivatedAccount(t *testing.T) {
	f := newFixture(auth.Options{})
	acc := f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)
	issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: acc.Email, Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.accounts.SetActive(context.Background(), acc.ID, false))
	_, err = f.svc.Verify(context.Background(), issued.Cookie.Value)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestLogout(t *testing.T) {
	f := newFixture(auth.Options{})
	f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)
	issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: "admin@pixelwerk.nl", Password: "correct-horse"})
	require.NoError(t, err)

	cookie, err := f.svc.Logout(context.Background(), issued.Cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, auth.CookieName, cookie.Name)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Equal(t, 0, f.sessions.Len())

	_, err = f.svc.Verify(context.Background(), issued.Cookie.Value)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestRevokeUserSessions(t *testing.T) {
	f := newFixture(auth.Options{})
	acc := f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(context.Background(), auth.LoginInput{Email: acc.Email, Password: "correct-horse"})
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.sessions.Len())

	require.NoError(t, f.svc.RevokeUserSessions(context.Background(), acc.ID))
	assert.Equal(t, 0, f.sessions.Len())
}

func TestTestLogin(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(auth.Options{})
		_, err := f.svc.TestLogin(context.Background(), "127.0.0.1", "")
		assert.ErrorIs(t, err, common.ErrFeatureDisabled)
	})

	t.Run("issues a server-side session", func(t *testing.T) {
		f := newFixture(auth.Options{TestLoginEnabled: true, TestLoginEmail: "test@pixelwerk.nl"})
		f.accounts.Add("test@pixelwerk.nl", "whatever-pass", access.RoleAdmin, access.CapLeads)

		issued, err := f.svc.TestLogin(context.Background(), "127.0.0.1", "")
		require.NoError(t, err)
		assert.Equal(t, 1, f.sessions.Len())
		assert.NotContains(t, issued.Cookie.Value, "test@pixelwerk.nl")

		p, err := f.svc.Verify(context.Background(), issued.Cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "test@pixelwerk.nl", p.Email)
	})
}

func TestGate(t *testing.T) {
	f := newFixture(auth.Options{})
	f.accounts.Add("sales@pixelwerk.nl", "correct-horse", access.RoleAdmin, access.CapCustomers)
	f.accounts.Add("owner@pixelwerk.nl", "correct-horse", access.RoleSuperAdmin)

	login := func(email string) *http.Cookie {
		issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: email, Password: "correct-horse"})
		require.NoError(t, err)
		return issued.Cookie
	}
	sales := login("sales@pixelwerk.nl")
	owner := login("owner@pixelwerk.nl")

	gate := auth.NewGate(f.svc)
	h := gate.Require(access.CapLeads, func(w http.ResponseWriter, r *http.Request) {
		p, ok := access.PrincipalFrom(r.Context())
		require.True(t, ok)
		common.WriteJSON(w, http.StatusOK, map[string]string{"email": p.Email})
	})

	tests := []struct {
		name   string
		cookie *http.Cookie
		status int
		body   string
	}{
		{"no cookie", nil, http.StatusUnauthorized, "Niet ingelogd"},
		{"forged cookie", &http.Cookie{Name: auth.CookieName, Value: "nope"}, http.StatusUnauthorized, "Niet ingelogd"},
		{"missing capability", sales, http.StatusForbidden, "Geen toegang tot leads"},
		{"super admin passes", owner, http.StatusOK, "owner@pixelwerk.nl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestGate_RequireSuperAdmin(t *testing.T) {
	f := newFixture(auth.Options{})
	f.accounts.Add("admin@pixelwerk.nl", "correct-horse", access.RoleAdmin, access.AllCapabilities...)
	issued, err := f.svc.Login(context.Background(), auth.LoginInput{Email: "admin@pixelwerk.nl", Password: "correct-horse"})
	require.NoError(t, err)

	h := auth.NewGate(f.svc).RequireSuperAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodPut, "/api/users/x/role", nil)
	req.AddCookie(issued.Cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
