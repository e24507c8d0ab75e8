// service.go: upload limits, type detection,
// file name cleanup.

package attachments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/leads"
)

// Store is the persistence the service needs; Repository implements it.
type Store interface {
	Create(ctx context.Context, a *Attachment, data []byte) error
	ListByLead(ctx context.Context, leadID string) ([]*Attachment, error)
	GetByID(ctx context.Context, id string) (*Attachment, error)
	Data(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// LeadLookup confirms the lead exists; leads.Service implements it.
type LeadLookup interface {
	Get(ctx context.Context, id string) (*leads.Lead, error)
}

// Service implements the attachment operations.
type Service struct {
	store    Store
	leads    LeadLookup
	maxBytes int64
}

// NewService creates the attachments service.
func NewService(store Store, leads LeadLookup, maxBytes int64) *Service {
	return &Service{store: store, leads: leads, maxBytes: maxBytes}
}

// MaxBytes is the upload limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload stores one file for a lead. Content larger than the limit
// yields common.ErrFileTooLarge; the type is sniffed from the bytes,
// not trusted from the client.
func (s *Service) Upload(ctx context.Context, actor *access.Principal, leadID, fileName string, r io.Reader) (*Attachment, error) {
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload lezen mislukt: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, common.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, &common.APIError{
			Status:  http.StatusBadRequest,
			Message: common.MsgInvalidInput,
			Details: map[string]string{"file": "bestand is leeg"},
		}
	}

	a := &Attachment{
		ID:          uuid.NewString(),
		LeadID:      leadID,
		FileName:    SanitizeFileName(fileName),
		ContentType: http.DetectContentType(data),
		SizeBytes:   int64(len(data)),
		UploadedBy:  actorEmail(actor),
	}
	if err := s.store.Create(ctx, a, data); err != nil {
		return nil, common.MapNotFound(err, "Lead")
	}

	log.WithFields(log.Fields{
		"attachment_id": a.ID,
		"lead_id":       leadID,
		"size":          a.SizeBytes,
		"type":          a.ContentType,
	}).Info("Attachment uploaded")
	return a, nil
}

// List returns the attachments of an existing lead.
func (s *Service) List(ctx context.Context, leadID string) ([]*Attachment, error) {
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListByLead(ctx, leadID)
}

// Open returns metadata and bytes for download.
func (s *Service) Open(ctx context.Context, id string) (*Attachment, []byte, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, common.MapNotFound(err, "Bijlage")
	}
	data, err := s.store.Data(ctx, id)
	if err != nil {
		return nil, nil, common.MapNotFound(err, "Bijlage")
	}
	return a, data, nil
}

func (s *Service) Delete(ctx context.Context, actor *access.Principal, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return common.MapNotFound(err, "Bijlage")
	}
	log.WithFields(log.Fields{"attachment_id": id, "actor": actorEmail(actor)}).Info("Attachment deleted")
	return nil
}

// SanitizeFileName keeps the base name and drops control characters and
// quotes, which would break the Content-Disposition header.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '"' {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "bestand"
	}
	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:255-len(ext)] + ext
	}
	return name
}

func actorEmail(p *access.Principal) string {
	if p == nil {
		return "systeem"
	}
	return p.Email
}
