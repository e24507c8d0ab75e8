package users

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/passwords"
)

type memStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	writes   int
}

func newMemStore(accounts ...*Account) *memStore {
	s := &memStore{accounts: make(map[string]*Account)}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *memStore) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return common.ErrConflict
		}
	}
	cp := *a
	s.accounts[a.ID] = &cp
	s.writes++
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *memStore) List(_ context.Context) ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) update(id string, fn func(a *Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(a)
	s.writes++
	return nil
}

func (s *memStore) UpdateCapabilities(_ context.Context, id string, caps access.CapabilitySet) error {
	return s.update(id, func(a *Account) { a.Capabilities = caps })
}

func (s *memStore) UpdateRole(_ context.Context, id string, role access.Role) error {
	return s.update(id, func(a *Account) { a.Role = role })
}

func (s *memStore) SetActive(_ context.Context, id string, active bool) error {
	return s.update(id, func(a *Account) { a.IsActive = active })
}

func (s *memStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return s.update(id, func(a *Account) { a.PasswordHash = hash })
}

type revokerSpy struct {
	revoked []string
}

func (r *revokerSpy) RevokeUserSessions(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

var (
	superAdmin = &access.Principal{UserID: "u-super", Role: access.RoleSuperAdmin}
	plainAdmin = &access.Principal{UserID: "u-admin", Role: access.RoleAdmin, Permissions: access.NewCapabilitySet(access.CapUsers)}
)

func fixture() (*Service, *memStore, *revokerSpy) {
	store := newMemStore(
		&Account{ID: "u-super", Email: "owner@pixelwerk.nl", Role: access.RoleSuperAdmin, IsActive: true, Capabilities: access.NewCapabilitySet()},
		&Account{ID: "u-admin", Email: "admin@pixelwerk.nl", Role: access.RoleAdmin, IsActive: true, Capabilities: access.NewCapabilitySet(access.CapUsers)},
		&Account{ID: "u-sales", Email: "sales@pixelwerk.nl", Role: access.RoleAdmin, IsActive: true, Capabilities: access.NewCapabilitySet(access.CapLeads)},
	)
	spy := &revokerSpy{}
	return NewService(store, spy).WithHashCost(bcrypt.MinCost), store, spy
}

func TestCreate(t *testing.T) {
	svc, store, _ := fixture()
	ctx := context.Background()

	a, err := svc.Create(ctx, plainAdmin, CreateInput{
		Email:        "  Nieuw@PixelWerk.nl ",
		FullName:     "Nieuwe Collega",
		Password:     "lang-genoeg-wachtwoord",
		Capabilities: []string{"leads", "analytics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "nieuw@pixelwerk.nl", a.Email)
	assert.Equal(t, access.RoleAdmin, a.Role)
	assert.True(t, a.Capabilities.Has(access.CapLeads))
	assert.False(t, a.Capabilities.Has(access.CapUsers))
	assert.NotEmpty(t, a.ID)

	stored, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, passwords.Verify(stored.PasswordHash, "lang-genoeg-wachtwoord"))
}

func TestCreate_SuperAdminRequiresSuperAdmin(t *testing.T) {
	svc, _, _ := fixture()
	in := CreateInput{Email: "x@pixelwerk.nl", FullName: "X", Password: "lang-genoeg-wachtwoord", Role: "superadmin"}

	_, err := svc.Create(context.Background(), plainAdmin, in)
	assert.ErrorIs(t, err, common.ErrSuperAdminOnly)

	a, err := svc.Create(context.Background(), superAdmin, in)
	require.NoError(t, err)
	assert.Equal(t, access.RoleSuperAdmin, a.Role)
}

func TestSetCapability(t *testing.T) {
	svc, store, _ := fixture()
	ctx := context.Background()

	a, err := svc.SetCapability(ctx, plainAdmin, "u-sales", access.CapCustomers, true)
	require.NoError(t, err)
	assert.True(t, a.Capabilities.Has(access.CapCustomers))
	assert.True(t, a.Capabilities.Has(access.CapLeads))

	stored, _ := store.GetByID(ctx, "u-sales")
	assert.True(t, stored.Capabilities.Has(access.CapCustomers))
}

func TestSetCapability_UnchangedIsNoop(t *testing.T) {
	svc, store, _ := fixture()
	before := store.writes

	a, err := svc.SetCapability(context.Background(), plainAdmin, "u-sales", access.CapLeads, true)
	require.NoError(t, err)
	assert.True(t, a.Capabilities.Has(access.CapLeads))
	assert.Equal(t, before, store.writes)
}

func TestSetCapability_Guards(t *testing.T) {
	tests := []struct {
		name   string
		actor  *access.Principal
		target string
		want   error
	}{
		{"self", plainAdmin, "u-admin", common.ErrSelfModification},
		{"super admin target", plainAdmin, "u-super", common.ErrSuperAdminOnly},
		{"unknown", plainAdmin, "u-missing", common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := fixture()
			_, err := svc.SetCapability(context.Background(), tt.actor, tt.target, access.CapLeads, false)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetCapability_UnknownUserIs404WithName(t *testing.T) {
	svc, _, _ := fixture()
	_, err := svc.SetCapability(context.Background(), plainAdmin, "u-missing", access.CapLeads, true)

	apiErr := common.ToAPIError(err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Gebruiker niet gevonden", apiErr.Message)
}

func TestSetRole(t *testing.T) {
	svc, _, _ := fixture()
	ctx := context.Background()

	_, err := svc.SetRole(ctx, plainAdmin, "u-sales", access.RoleSuperAdmin)
	assert.ErrorIs(t, err, common.ErrSuperAdminOnly)

	_, err = svc.SetRole(ctx, superAdmin, "u-super", access.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrSelfModification)

	a, err := svc.SetRole(ctx, superAdmin, "u-sales", access.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, access.RoleSuperAdmin, a.Role)
	assert.True(t, a.Effective().Has(access.CapUsers))
}

func TestSetActive_DeactivationRevokesSessions(t *testing.T) {
	svc, store, spy := fixture()
	ctx := context.Background()

	a, err := svc.SetActive(ctx, plainAdmin, "u-sales", false)
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.Equal(t, []string{"u-sales"}, spy.revoked)

	stored, _ := store.GetByID(ctx, "u-sales")
	assert.False(t, stored.IsActive)

	// Reactivation does not revoke anything.
	_, err = svc.SetActive(ctx, plainAdmin, "u-sales", true)
	require.NoError(t, err)
	assert.Len(t, spy.revoked, 1)
}

func TestSetActive_CannotDeactivateSelf(t *testing.T) {
	svc, _, spy := fixture()
	_, err := svc.SetActive(context.Background(), plainAdmin, "u-admin", false)
	assert.ErrorIs(t, err, common.ErrSelfModification)
	assert.Empty(t, spy.revoked)
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := fixture()
	ctx := context.Background()

	hash, err := passwords.HashWithCost("oud-wachtwoord-123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.UpdatePasswordHash(ctx, "u-sales", hash))

	err = svc.ChangePassword(ctx, "u-sales", "verkeerd", "nieuw-wachtwoord-456")
	assert.True(t, errors.Is(err, common.ErrWrongPassword))

	require.NoError(t, svc.ChangePassword(ctx, "u-sales", "oud-wachtwoord-123", "nieuw-wachtwoord-456"))
	stored, _ := store.GetByID(ctx, "u-sales")
	assert.True(t, passwords.Verify(stored.PasswordHash, "nieuw-wachtwoord-456"))
	assert.False(t, passwords.Verify(stored.PasswordHash, "oud-wachtwoord-123"))
}
