// service.go: lead capture, editing, the status
// pipeline and the activity log.

package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
)

// notifyTimeout bounds one new-lead notification.
const notifyTimeout = 10 * time.Second

// Store is the persistence the service needs; Repository implements it.
type Store interface {
	Create(ctx context.Context, l *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, f Filter) ([]*Lead, int, error)
	CreatedBetween(ctx context.Context, from, to time.Time) ([]*Lead, error)
	Update(ctx context.Context, l *Lead) error
	ChangeStatus(ctx context.Context, id string, status Status, a *Activity) error
	Delete(ctx context.Context, id string) error
	AddActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, leadID string) ([]*Activity, error)
}

// Notifier tells the agency about a new lead.
type Notifier interface {
	NewLead(ctx context.Context, l *Lead) error
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) NewLead(context.Context, *Lead) error { return nil }

// Service implements the lead operations.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
	// async is false in tests so notifications are observable synchronously.
	async bool
}

// NewService creates the leads service. A nil notifier disables notifications.
func NewService(store Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{store: store, notifier: notifier, now: time.Now, async: true}
}

// Synchronous makes Submit notify inline; tests only.
func (s *Service) Synchronous() *Service {
	s.async = false
	return s
}

// Submit stores a lead from the public form. A filled honeypot is
// accepted silently and discarded.
func (s *Service) Submit(ctx context.Context, in SubmitInput, ip string) error {
	if strings.TrimSpace(in.Fax) != "" {
		log.WithField("ip", ip).Info("Honeypot triggered, lead discarded")
		return nil
	}

	l := &Lead{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Company:   strings.TrimSpace(in.Company),
		Website:   strings.TrimSpace(in.Website),
		Service:   in.Service,
		Budget:    in.Budget,
		Message:   strings.TrimSpace(in.Message),
		Postcode:  normalizePostcode(in.Postcode),
		City:      strings.TrimSpace(in.City),
		KvKNumber: in.KvKNumber,
		Source:    SourceForm,
		Status:    StatusNew,
	}
	if err := s.store.Create(ctx, l); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"lead_id": l.ID,
		"service": l.Service,
		"ip":      ip,
	}).Info("Lead submitted")

	s.notify(l)
	return nil
}

// Create stores a lead entered by an admin.
func (s *Service) Create(ctx context.Context, actor *access.Principal, in CreateInput) (*Lead, error) {
	l := &Lead{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Company:   strings.TrimSpace(in.Company),
		Website:   strings.TrimSpace(in.Website),
		Service:   in.Service,
		Budget:    in.Budget,
		Message:   strings.TrimSpace(in.Message),
		Postcode:  normalizePostcode(in.Postcode),
		City:      strings.TrimSpace(in.City),
		KvKNumber: in.KvKNumber,
		Source:    SourceManual,
		Status:    StatusNew,
	}
	if err := s.store.Create(ctx, l); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"lead_id": l.ID, "actor": actorEmail(actor)}).Info("Lead created")
	return l, nil
}

// Get returns a lead or a 404 "Lead niet gevonden".
func (s *Service) Get(ctx context.Context, id string) (*Lead, error) {
	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}
	return l, nil
}

// List returns one page of leads and the total count.
func (s *Service) List(ctx context.Context, f Filter) ([]*Lead, int, error) {
	return s.store.List(ctx, f)
}

// CreatedBetween is used by the daily digest.
func (s *Service) CreatedBetween(ctx context.Context, from, to time.Time) ([]*Lead, error) {
	return s.store.CreatedBetween(ctx, from, to)
}

// Update applies the non-nil fields of in. Empty name or email are ignored.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Lead, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	setTrimmed := func(dst *string, v *string, allowEmpty bool) {
		if v == nil {
			return
		}
		t := strings.TrimSpace(*v)
		if t == "" && !allowEmpty {
			return
		}
		*dst = t
	}
	setTrimmed(&l.Name, in.Name, false)
	setTrimmed(&l.Email, in.Email, false)
	setTrimmed(&l.Phone, in.Phone, true)
	setTrimmed(&l.Company, in.Company, true)
	setTrimmed(&l.Website, in.Website, true)
	setTrimmed(&l.Service, in.Service, true)
	setTrimmed(&l.Budget, in.Budget, true)
	setTrimmed(&l.Message, in.Message, true)
	setTrimmed(&l.City, in.City, true)
	setTrimmed(&l.KvKNumber, in.KvKNumber, true)
	if in.Postcode != nil {
		l.Postcode = normalizePostcode(*in.Postcode)
	}
	l.Email = strings.ToLower(l.Email)

	if err := s.store.Update(ctx, l); err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}
	return l, nil
}

// ChangeStatus moves a lead through the pipeline and logs a
// status_change activity. Setting the current status is a no-op.
func (s *Service) ChangeStatus(ctx context.Context, actor *access.Principal, id string, status Status) (*Lead, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status == status {
		return l, nil
	}

	a := &Activity{
		ID:          uuid.NewString(),
		LeadID:      id,
		Type:        ActivityStatusChange,
		Description: StatusChangeDescription(l.Status, status),
		CreatedBy:   actorEmail(actor),
	}
	if err := s.store.ChangeStatus(ctx, id, status, a); err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}

	log.WithFields(log.Fields{
		"lead_id": id,
		"from":    l.Status,
		"to":      status,
		"actor":   a.CreatedBy,
	}).Info("Lead status changed")

	l.Status = status
	l.UpdatedAt = s.now()
	return l, nil
}

// Delete removes a lead with its activities, attachments and quotes.
func (s *Service) Delete(ctx context.Context, actor *access.Principal, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return common.MapNotFound(err, "Lead")
	}
	log.WithFields(log.Fields{"lead_id": id, "actor": actorEmail(actor)}).Info("Lead deleted")
	return nil
}

// Activities returns the log of an existing lead.
func (s *Service) Activities(ctx context.Context, leadID string) ([]*Activity, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListActivities(ctx, leadID)
}

// AddActivity appends a manual entry (note, call, email, meeting).
func (s *Service) AddActivity(ctx context.Context, actor *access.Principal, leadID string, in ActivityInput) (*Activity, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	a := &Activity{
		ID:          uuid.NewString(),
		LeadID:      leadID,
		Type:        ActivityType(in.Type),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   actorEmail(actor),
	}
	if err := s.store.AddActivity(ctx, a); err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}
	return a, nil
}

func (s *Service) notify(l *Lead) {
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NewLead(ctx, l); err != nil {
			log.WithError(err).WithField("lead_id", l.ID).Warn("Lead notification failed")
		}
	}
	if s.async {
		go send()
		return
	}
	send()
}

// StatusChangeDescription is the text of a status_change activity.
func StatusChangeDescription(from, to Status) string {
	return fmt.Sprintf("Status gewijzigd van %s naar %s", from.Label(), to.Label())
}

// normalizePostcode formats "1234ab" as "1234 AB".
func normalizePostcode(p string) string {
	p = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p), " ", ""))
	if len(p) == 6 {
		return p[:4] + " " + p[4:]
	}
	return p
}

func actorEmail(p *access.Principal) string {
	if p == nil {
		return "systeem"
	}
	return p.Email
}
