// repository.go reads the rows a report needs in
// bulk, one query per table.

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/db/postgres"
)

// Repository implements Store on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the analytics repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Dataset fetches leads and accepted quotes in [from, to) and every
// customer created before to.
func (r *Repository) Dataset(ctx context.Context, from, to time.Time) (*Dataset, error) {
	d := &Dataset{}

	rows, err := r.db.Query(ctx, `
		SELECT status, source, service, created_at
		FROM leads
		WHERE created_at >= $1 AND created_at < $2
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("leads voor analyse opvragen mislukt: %w", postgres.MapError(err))
	}
	for rows.Next() {
		var l LeadRow
		if err := rows.Scan(&l.Status, &l.Source, &l.Service, &l.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("lead scannen mislukt: %w", err)
		}
		d.Leads = append(d.Leads, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads lezen mislukt: %w", postgres.MapError(err))
	}

	rows, err = r.db.Query(ctx, `
		SELECT contract_value_cents, monthly_fee_cents, created_at
		FROM customers
		WHERE created_at < $1
	`, to)
	if err != nil {
		return nil, fmt.Errorf("klanten voor analyse opvragen mislukt: %w", postgres.MapError(err))
	}
	for rows.Next() {
		var c CustomerRow
		if err := rows.Scan(&c.ContractValueCents, &c.MonthlyFeeCents, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("klant scannen mislukt: %w", err)
		}
		d.Customers = append(d.Customers, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("klanten lezen mislukt: %w", postgres.MapError(err))
	}

	rows, err = r.db.Query(ctx, `
		SELECT total_cents, updated_at
		FROM quotes
		WHERE status = 'accepted' AND updated_at >= $1 AND updated_at < $2
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("offertes voor analyse opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()
	for rows.Next() {
		var q QuoteRow
		if err := rows.Scan(&q.TotalCents, &q.AcceptedAt); err != nil {
			return nil, fmt.Errorf("offerte scannen mislukt: %w", err)
		}
		d.Quotes = append(d.Quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offertes lezen mislukt: %w", postgres.MapError(err))
	}
	return d, nil
}

// Dashboard computes the headline counters in a single round trip per table.
func (r *Repository) Dashboard(ctx context.Context, today, week, month time.Time) (*Dashboard, error) {
	var d Dashboard
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE created_at >= $3),
			COUNT(*) FILTER (WHERE status IN ('new', 'contacted', 'qualified'))
		FROM leads
	`, today, week, month).Scan(&d.LeadsToday, &d.LeadsThisWeek, &d.LeadsThisMonth, &d.OpenLeads)
	if err != nil {
		return nil, fmt.Errorf("leadtellers lezen mislukt: %w", postgres.MapError(err))
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(monthly_fee_cents), 0)::BIGINT FROM customers
	`).Scan(&d.Customers, &d.MonthlyRecurringCents)
	if err != nil {
		return nil, fmt.Errorf("klanttellers lezen mislukt: %w", postgres.MapError(err))
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_cents), 0)::BIGINT FROM quotes WHERE status = 'sent'
	`).Scan(&d.OpenQuotes, &d.OpenQuoteCents)
	if err != nil {
		return nil, fmt.Errorf("offertetellers lezen mislukt: %w", postgres.MapError(err))
	}
	return &d, nil
}
