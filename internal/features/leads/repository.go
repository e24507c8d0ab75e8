// repository.go works with the leads and
// lead_activities tables.

package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/db/postgres"
)

const leadColumns = `id, name, email, phone, company, website, service, budget, message,
	postcode, city, kvk_number, source, status, created_at, updated_at`

// Repository implements Store on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the leads repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, l *Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, company, website, service, budget, message,
		                   postcode, city, kvk_number, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Website, l.Service, l.Budget, l.Message,
		l.Postcode, l.City, l.KvKNumber, string(l.Source), string(l.Status),
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("lead aanmaken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	l, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("lead lezen (id=%s): %w", id, postgres.MapError(err))
	}
	return l, nil
}

// List returns one page of leads matching f plus the total match count.
func (r *Repository) List(ctx context.Context, f Filter) ([]*Lead, int, error) {
	where, args := filterClause(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("leads tellen mislukt: %w", postgres.MapError(err))
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("leads opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	out := make([]*Lead, 0, f.Limit)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("lead scannen mislukt: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("leads lezen mislukt: %w", postgres.MapError(err))
	}
	return out, total, nil
}

// CreatedBetween returns all leads created in [from, to), oldest first.
func (r *Repository) CreatedBetween(ctx context.Context, from, to time.Time) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("leads opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("lead scannen mislukt: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update writes every editable field of l.
func (r *Repository) Update(ctx context.Context, l *Lead) error {
	query := `
		UPDATE leads SET name = $2, email = $3, phone = $4, company = $5, website = $6,
		       service = $7, budget = $8, message = $9, postcode = $10, city = $11,
		       kvk_number = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Website, l.Service, l.Budget,
		l.Message, l.Postcode, l.City, l.KvKNumber,
	).Scan(&l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("lead bijwerken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// ChangeStatus sets the status and appends the activity in one transaction.
func (r *Repository) ChangeStatus(ctx context.Context, id string, status Status, a *Activity) error {
	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return ChangeStatusTx(ctx, tx, id, status, a)
	})
}

// ChangeStatusTx is ChangeStatus inside a caller's transaction; lead
// conversion uses it next to the customer insert.
func ChangeStatusTx(ctx context.Context, tx pgx.Tx, id string, status Status, a *Activity) error {
	tag, err := tx.Exec(ctx,
		`UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("leadstatus bijwerken mislukt: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("leadstatus bijwerken: %w", common.ErrNotFound)
	}
	return insertActivity(ctx, tx, a)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("lead verwijderen mislukt: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lead verwijderen: %w", common.ErrNotFound)
	}
	return nil
}

func (r *Repository) AddActivity(ctx context.Context, a *Activity) error {
	return insertActivity(ctx, r.db, a)
}

// ListActivities returns the log of one lead, newest first.
func (r *Repository) ListActivities(ctx context.Context, leadID string) ([]*Activity, error) {
	query := `
		SELECT id, lead_id, type, description, created_by, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("activiteiten opvragen mislukt: %w", postgres.MapError(err))
	}
	defer rows.Close()

	out := make([]*Activity, 0)
	for rows.Next() {
		var (
			a   Activity
			typ string
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &typ, &a.Description, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("activiteit scannen mislukt: %w", err)
		}
		a.Type = ActivityType(typ)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func insertActivity(ctx context.Context, db execer, a *Activity) error {
	query := `
		INSERT INTO lead_activities (id, lead_id, type, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := db.QueryRow(ctx, query, a.ID, a.LeadID, string(a.Type), a.Description, a.CreatedBy).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("activiteit opslaan mislukt: %w", postgres.MapError(err))
	}
	return nil
}

func filterClause(f Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%[1]d OR email ILIKE $%[1]d OR company ILIKE $%[1]d OR city ILIKE $%[1]d)", n))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		l              Lead
		source, status string
	)
	if err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Website, &l.Service, &l.Budget,
		&l.Message, &l.Postcode, &l.City, &l.KvKNumber, &source, &status, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Source = Source(source)
	l.Status = Status(status)
	return &l, nil
}
