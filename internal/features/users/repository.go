// repository.go works with the admin_users table.
// Each method runs one SQL statement.

package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/db/postgres"
)

const accountColumns = `id, email, password_hash, full_name, role, capabilities, is_active, created_at, updated_at`

// Repository implements Store on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account. A duplicate email yields common.ErrConflict.
func (r *Repository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO admin_users (id, email, password_hash, full_name, role, capabilities, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.FullName, string(a.Role), a.Capabilities.Strings(), a.IsActive,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("account aanmaken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// GetByID returns common.ErrNotFound when the account does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE id = $1`
	a, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("account lezen (id=%s): %w", id, postgres.MapError(err))
	}
	return a, nil
}

// GetByEmail expects an already normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE email = $1`
	a, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("account lezen (email=%s): %w", email, postgres.MapError(err))
	}
	return a, nil
}

// List returns all accounts, active first.
func (r *Repository) List(ctx context.Context) ([]*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users ORDER BY is_active DESC, full_name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("accounts opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("account scannen mislukt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("accounts lezen mislukt: %w", postgres.MapError(err))
	}
	return out, nil
}

// UpdateCapabilities replaces the capability set of an account.
func (r *Repository) UpdateCapabilities(ctx context.Context, id string, caps access.CapabilitySet) error {
	query := `UPDATE admin_users SET capabilities = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "rechten bijwerken", query, id, caps.Strings())
}

// UpdateRole sets the role of an account.
func (r *Repository) UpdateRole(ctx context.Context, id string, role access.Role) error {
	query := `UPDATE admin_users SET role = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "rol bijwerken", query, id, string(role))
}

// SetActive activates or deactivates an account.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE admin_users SET is_active = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "status bijwerken", query, id, active)
}

// UpdatePasswordHash stores a new password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE admin_users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "wachtwoord bijwerken", query, id, hash)
}

func (r *Repository) execOne(ctx context.Context, what, query string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s mislukt: %w", what, postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a    Account
		role string
		caps []string
	)
	if err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &role, &caps,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Role = access.Role(role)
	a.Capabilities = access.CapabilitySetFromStrings(caps)
	return &a, nil
}
