// repository.go works with quotes and quote_sequences.

package quotes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/db/postgres"
)

const quoteColumns = `id, lead_id, quote_number, title, items, vat_rate, subtotal_cents, vat_cents,
	total_cents, status, valid_until, notes, created_by, created_at, updated_at`

// Repository implements Store on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the quotes repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create assigns the next number of the quote's year and inserts it.
// Numbering and insert share a transaction so a failed insert does not
// burn a number.
func (r *Repository) Create(ctx context.Context, q *Quote, year int) error {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("offerteregels coderen mislukt: %w", err)
	}

	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var seq int
		err := tx.QueryRow(ctx, `
			INSERT INTO quote_sequences (year, last_number) VALUES ($1, 1)
			ON CONFLICT (year) DO UPDATE SET last_number = quote_sequences.last_number + 1
			RETURNING last_number
		`, year).Scan(&seq)
		if err != nil {
			return fmt.Errorf("offertenummer bepalen mislukt: %w", postgres.MapError(err))
		}
		q.Number = FormatNumber(year, seq)

		err = tx.QueryRow(ctx, `
			INSERT INTO quotes (id, lead_id, quote_number, title, items, vat_rate, subtotal_cents,
			                    vat_cents, total_cents, status, valid_until, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING created_at, updated_at
		`, q.ID, q.LeadID, q.Number, q.Title, items, q.VATRate, q.SubtotalCents,
			q.VATCents, q.TotalCents, string(q.Status), q.ValidUntil, q.Notes, q.CreatedBy,
		).Scan(&q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("offerte opslaan mislukt: %w", postgres.MapError(err))
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	q, err := scanQuote(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("offerte lezen (id=%s): %w", id, postgres.MapError(err))
	}
	return q, nil
}

func (r *Repository) ListByLead(ctx context.Context, leadID string) ([]*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE lead_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("offertes opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	out := make([]*Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("offerte scannen mislukt: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateContent replaces title, items, totals, validity and notes.
func (r *Repository) UpdateContent(ctx context.Context, q *Quote) error {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("offerteregels coderen mislukt: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		UPDATE quotes SET title = $2, items = $3, vat_rate = $4, subtotal_cents = $5,
		       vat_cents = $6, total_cents = $7, valid_until = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, q.ID, q.Title, items, q.VATRate, q.SubtotalCents, q.VATCents, q.TotalCents, q.ValidUntil, q.Notes,
	).Scan(&q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("offerte bijwerken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// UpdateStatus moves the quote only if it is still in status from, so
// two concurrent transitions cannot both succeed.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE quotes SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("offertestatus bijwerken mislukt: %w", postgres.MapError(err))
	}
	return tag.RowsAffected() == 1, nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var (
		q      Quote
		items  []byte
		status string
	)
	if err := row.Scan(
		&q.ID, &q.LeadID, &q.Number, &q.Title, &items, &q.VATRate, &q.SubtotalCents, &q.VATCents,
		&q.TotalCents, &status, &q.ValidUntil, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &q.Items); err != nil {
		return nil, fmt.Errorf("offerteregels decoderen: %w", err)
	}
	q.Status = Status(status)
	return &q, nil
}
