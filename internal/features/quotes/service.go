// service.go: creating, editing and moving quotes
// through their status flow.

package quotes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/leads"
)

// Store is the persistence the service needs; Repository implements it.
type Store interface {
	Create(ctx context.Context, q *Quote, year int) error
	GetByID(ctx context.Context, id string) (*Quote, error)
	ListByLead(ctx context.Context, leadID string) ([]*Quote, error)
	UpdateContent(ctx context.Context, q *Quote) error
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
}

// LeadLookup confirms the lead exists; leads.Service implements it.
type LeadLookup interface {
	Get(ctx context.Context, id string) (*leads.Lead, error)
}

// Defaults for new quotes.
type Defaults struct {
	VATRate   int
	ValidDays int
}

// Service implements the quote operations.
type Service struct {
	store    Store
	leads    LeadLookup
	defaults Defaults
	now      func() time.Time
}

// NewService creates the quotes service.
func NewService(store Store, leads LeadLookup, defaults Defaults) *Service {
	if defaults.ValidDays <= 0 {
		defaults.ValidDays = 30
	}
	return &Service{store: store, leads: leads, defaults: defaults, now: common.LocalNow}
}

// WithClock replaces the clock; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create builds a draft quote for a lead.
func (s *Service) Create(ctx context.Context, actor *access.Principal, leadID string, in Input) (*Quote, error) {
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return nil, err
	}

	now := s.now()
	q := &Quote{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		Status:    StatusDraft,
		CreatedBy: actorEmail(actor),
	}
	if err := s.apply(q, in, now); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, q, now.Year()); err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}

	log.WithFields(log.Fields{
		"quote_id": q.ID,
		"number":   q.Number,
		"lead_id":  leadID,
		"total":    common.FormatEuro(q.TotalCents),
	}).Info("Quote created")
	return q, nil
}

// Get returns a quote or 404 "Offerte niet gevonden".
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, common.MapNotFound(err, "Offerte")
	}
	return q, nil
}

// ListByLead returns the quotes of an existing lead.
func (s *Service) ListByLead(ctx context.Context, leadID string) ([]*Quote, error) {
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListByLead(ctx, leadID)
}

// Update replaces the content of a draft. Sent or decided quotes are
// frozen.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusDraft {
		return nil, &common.APIError{
			Status:  http.StatusConflict,
			Message: "Alleen conceptoffertes kunnen worden aangepast",
			Cause:   common.ErrInvalidTransition,
		}
	}
	if err := s.apply(q, in, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateContent(ctx, q); err != nil {
		return nil, common.MapNotFound(err, "Offerte")
	}
	return q, nil
}

// ChangeStatus applies one allowed transition; anything else is 409.
func (s *Service) ChangeStatus(ctx context.Context, actor *access.Principal, id string, to Status) (*Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(q.Status, to) {
		return nil, common.ErrInvalidTransition
	}

	ok, err := s.store.UpdateStatus(ctx, id, q.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else moved it first.
		return nil, common.ErrInvalidTransition
	}

	log.WithFields(log.Fields{
		"quote_id": id,
		"from":     q.Status,
		"to":       to,
		"actor":    actorEmail(actor),
	}).Info("Quote status changed")

	q.Status = to
	q.UpdatedAt = s.now()
	return q, nil
}

func (s *Service) apply(q *Quote, in Input, now time.Time) error {
	vat := s.defaults.VATRate
	if in.VATRate != nil {
		vat = *in.VATRate
	}
	days := s.defaults.ValidDays
	if in.ValidDays != nil {
		days = *in.ValidDays
	}

	totals, err := Calculate(in.Items, vat)
	if err != nil {
		return &common.APIError{
			Status:  http.StatusBadRequest,
			Message: common.MsgInvalidInput,
			Details: map[string]string{"items": "het totaal mag niet negatief zijn"},
			Cause:   err,
		}
	}

	q.Title = strings.TrimSpace(in.Title)
	q.Items = totals.Items
	q.VATRate = vat
	q.SubtotalCents = totals.SubtotalCents
	q.VATCents = totals.VATCents
	q.TotalCents = totals.TotalCents
	q.ValidUntil = ValidUntil(now, days)
	q.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func actorEmail(p *access.Principal) string {
	if p == nil {
		return "systeem"
	}
	return p.Email
}
