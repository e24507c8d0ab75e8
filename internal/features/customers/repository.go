// repository.go works with the customers table.

package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/db/postgres"
	"pixelwerk.nl/backoffice/internal/features/leads"
)

const customerColumns = `id, lead_id, company_name, contact_name, email, phone, kvk_number, address,
	postcode, city, project_type, project_status, contract_value_cents, monthly_fee_cents,
	start_date, notes, created_at, updated_at`

// Repository implements Store on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the customers repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *Customer) error {
	return insertCustomer(ctx, r.db, c)
}

// Convert inserts the customer and marks its lead converted, with the
// status_change activity, in one transaction.
func (r *Repository) Convert(ctx context.Context, c *Customer, a *leads.Activity) error {
	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertCustomer(ctx, tx, c); err != nil {
			return err
		}
		return leads.ChangeStatusTx(ctx, tx, *c.LeadID, leads.StatusConverted, a)
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("klant lezen (id=%s): %w", id, postgres.MapError(err))
	}
	return c, nil
}

// List returns one page of customers, optionally searched by name or
// city, plus the total match count.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]*Customer, int, error) {
	where := ""
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+s+"%")
		where = ` WHERE company_name ILIKE $1 OR contact_name ILIKE $1 OR city ILIKE $1`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("klanten tellen mislukt: %w", postgres.MapError(err))
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("klanten opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	out := make([]*Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("klant scannen mislukt: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("klanten lezen mislukt: %w", postgres.MapError(err))
	}
	return out, total, nil
}

// Update writes every editable field of c.
func (r *Repository) Update(ctx context.Context, c *Customer) error {
	err := r.db.QueryRow(ctx, `
		UPDATE customers SET company_name = $2, contact_name = $3, email = $4, phone = $5,
		       kvk_number = $6, address = $7, postcode = $8, city = $9, project_type = $10,
		       project_status = $11, contract_value_cents = $12, monthly_fee_cents = $13,
		       start_date = $14, notes = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, c.ID, c.CompanyName, c.ContactName, c.Email, c.Phone, c.KvKNumber, c.Address, c.Postcode,
		c.City, c.ProjectType, string(c.ProjectStatus), c.ContractValueCents, c.MonthlyFeeCents,
		c.StartDate, c.Notes,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("klant bijwerken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func insertCustomer(ctx context.Context, db queryRower, c *Customer) error {
	err := db.QueryRow(ctx, `
		INSERT INTO customers (id, lead_id, company_name, contact_name, email, phone, kvk_number,
		                       address, postcode, city, project_type, project_status,
		                       contract_value_cents, monthly_fee_cents, start_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`, c.ID, c.LeadID, c.CompanyName, c.ContactName, c.Email, c.Phone, c.KvKNumber, c.Address,
		c.Postcode, c.City, c.ProjectType, string(c.ProjectStatus), c.ContractValueCents,
		c.MonthlyFeeCents, c.StartDate, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("klant opslaan mislukt: %w", postgres.MapError(err))
	}
	return nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var (
		c      Customer
		status string
	)
	if err := row.Scan(
		&c.ID, &c.LeadID, &c.CompanyName, &c.ContactName, &c.Email, &c.Phone, &c.KvKNumber,
		&c.Address, &c.Postcode, &c.City, &c.ProjectType, &status, &c.ContractValueCents,
		&c.MonthlyFeeCents, &c.StartDate, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.ProjectStatus = ProjectStatus(status)
	return &c, nil
}
