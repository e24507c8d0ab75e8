// repository.go works with lead_attachments and
// attachment_blobs.

package attachments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/db/postgres"
)

const attachmentColumns = `id, lead_id, file_name, content_type, size_bytes, uploaded_by, created_at`

// Repository implements Store on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the attachments repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts metadata and bytes in one transaction.
func (r *Repository) Create(ctx context.Context, a *Attachment, data []byte) error {
	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO lead_attachments (id, lead_id, file_name, content_type, size_bytes, uploaded_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, a.ID, a.LeadID, a.FileName, a.ContentType, a.SizeBytes, a.UploadedBy).Scan(&a.CreatedAt)
		if err != nil {
			return fmt.Errorf("bijlage opslaan mislukt: %w", postgres.MapError(err))
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO attachment_blobs (attachment_id, data) VALUES ($1, $2)`, a.ID, data,
		); err != nil {
			return fmt.Errorf("bestand opslaan mislukt: %w", postgres.MapError(err))
		}
		return nil
	})
}

func (r *Repository) ListByLead(ctx context.Context, leadID string) ([]*Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM lead_attachments WHERE lead_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("bijlagen opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	out := make([]*Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("bijlage scannen mislukt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM lead_attachments WHERE id = $1`
	a, err := scanAttachment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("bijlage lezen (id=%s): %w", id, postgres.MapError(err))
	}
	return a, nil
}

// Data loads the stored bytes.
func (r *Repository) Data(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM attachment_blobs WHERE attachment_id = $1`, id).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("bestand lezen (id=%s): %w", id, postgres.MapError(err))
	}
	return data, nil
}

// Delete removes metadata; the blob follows via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lead_attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bijlage verwijderen mislukt: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bijlage verwijderen: %w", common.ErrNotFound)
	}
	return nil
}

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	if err := row.Scan(&a.ID, &a.LeadID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
