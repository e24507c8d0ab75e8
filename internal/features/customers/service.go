// service.go: customer CRUD and lead conversion.

package customers

import (
	"context"
	"fmt"
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
	Create(ctx context.Context, c *Customer) error
	Convert(ctx context.Context, c *Customer, a *leads.Activity) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Customer, int, error)
	Update(ctx context.Context, c *Customer) error
}

// LeadLookup reads the lead being converted; leads.Service implements it.
type LeadLookup interface {
	Get(ctx context.Context, id string) (*leads.Lead, error)
}

// Service implements the customer operations.
type Service struct {
	store Store
	leads LeadLookup
}

// NewService creates the customers service.
func NewService(store Store, leads LeadLookup) *Service {
	return &Service{store: store, leads: leads}
}

func (s *Service) Create(ctx context.Context, actor *access.Principal, in CreateInput) (*Customer, error) {
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	status := ProjectStatus(in.ProjectStatus)
	if status == "" {
		status = ProjectIntake
	}

	c := &Customer{
		ID:                 uuid.NewString(),
		CompanyName:        strings.TrimSpace(in.CompanyName),
		ContactName:        strings.TrimSpace(in.ContactName),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              strings.TrimSpace(in.Phone),
		KvKNumber:          in.KvKNumber,
		Address:            strings.TrimSpace(in.Address),
		Postcode:           strings.ToUpper(strings.TrimSpace(in.Postcode)),
		City:               strings.TrimSpace(in.City),
		ProjectType:        in.ProjectType,
		ProjectStatus:      status,
		ContractValueCents: in.ContractValueCents,
		MonthlyFeeCents:    in.MonthlyFeeCents,
		StartDate:          start,
		Notes:              strings.TrimSpace(in.Notes),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"customer_id": c.ID, "actor": actorEmail(actor)}).Info("Customer created")
	return c, nil
}

// ConvertLead turns a lead into a customer. The lead's contact details
// are copied; the lead ends up with status converted.
func (s *Service) ConvertLead(ctx context.Context, actor *access.Principal, leadID string, in ConvertInput) (*Customer, error) {
	l, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if l.Status == leads.StatusConverted {
		return nil, &common.APIError{
			Status:  http.StatusConflict,
			Message: "Deze lead is al omgezet naar een klant",
			Cause:   common.ErrConflict,
		}
	}

	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}

	company := firstNonEmpty(strings.TrimSpace(in.CompanyName), l.Company, l.Name)
	c := &Customer{
		ID:                 uuid.NewString(),
		LeadID:             &l.ID,
		CompanyName:        company,
		ContactName:        l.Name,
		Email:              l.Email,
		Phone:              l.Phone,
		KvKNumber:          l.KvKNumber,
		Address:            strings.TrimSpace(in.Address),
		Postcode:           l.Postcode,
		City:               l.City,
		ProjectType:        firstNonEmpty(in.ProjectType, l.Service),
		ProjectStatus:      ProjectIntake,
		ContractValueCents: in.ContractValueCents,
		MonthlyFeeCents:    in.MonthlyFeeCents,
		StartDate:          start,
		Notes:              strings.TrimSpace(in.Notes),
	}
	a := &leads.Activity{
		ID:          uuid.NewString(),
		LeadID:      l.ID,
		Type:        leads.ActivityStatusChange,
		Description: fmt.Sprintf("%s (klant: %s)", leads.StatusChangeDescription(l.Status, leads.StatusConverted), company),
		CreatedBy:   actorEmail(actor),
	}

	if err := s.store.Convert(ctx, c, a); err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}

	log.WithFields(log.Fields{
		"customer_id": c.ID,
		"lead_id":     l.ID,
		"contract":    common.FormatEuro(c.ContractValueCents),
		"actor":       a.CreatedBy,
	}).Info("Lead converted to customer")
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, common.MapNotFound(err, "Klant")
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*Customer, int, error) {
	return s.store.List(ctx, search, limit, offset)
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	if in.CompanyName != nil && strings.TrimSpace(*in.CompanyName) != "" {
		c.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	set(&c.ContactName, in.ContactName)
	set(&c.Email, in.Email)
	set(&c.Phone, in.Phone)
	set(&c.KvKNumber, in.KvKNumber)
	set(&c.Address, in.Address)
	set(&c.Postcode, in.Postcode)
	set(&c.City, in.City)
	set(&c.ProjectType, in.ProjectType)
	set(&c.Notes, in.Notes)
	c.Email = strings.ToLower(c.Email)
	c.Postcode = strings.ToUpper(c.Postcode)
	if in.ProjectStatus != nil {
		c.ProjectStatus = ProjectStatus(*in.ProjectStatus)
	}
	if in.ContractValueCents != nil {
		c.ContractValueCents = *in.ContractValueCents
	}
	if in.MonthlyFeeCents != nil {
		c.MonthlyFeeCents = *in.MonthlyFeeCents
	}
	if in.StartDate != nil {
		if c.StartDate, err = parseDate("start_date", *in.StartDate); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, c); err != nil {
		return nil, common.MapNotFound(err, "Klant")
	}
	return c, nil
}

// parseDate reads an optional YYYY-MM-DD value; empty means no date.
func parseDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, common.Location())
	if err != nil {
		return nil, &common.APIError{
			Status:  http.StatusBadRequest,
			Message: common.MsgInvalidInput,
			Details: map[string]string{field: "moet een datum zijn (JJJJ-MM-DD)"},
			Cause:   err,
		}
	}
	return &t, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func actorEmail(p *access.Principal) string {
	if p == nil {
		return "systeem"
	}
	return p.Email
}
