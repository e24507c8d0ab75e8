// Package leads is the CRM core: leads captured by the public form or
// entered by hand, their status pipeline and the activity log.
package leads

import "time"

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Statuses lists all stages in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost}

var statusLabels = map[Status]string{
	StatusNew:       "Nieuw",
	StatusContacted: "Gecontacteerd",
	StatusQualified: "Gekwalificeerd",
	StatusConverted: "Klant geworden",
	StatusLost:      "Verloren",
}

// Label is the Dutch name used in activity descriptions.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Source is where a lead came from.
type Source string

const (
	SourceForm   Source = "form"
	SourceManual Source = "manual"
)

// ActivityType classifies an entry in the activity log.
type ActivityType string

const (
	ActivityNote         ActivityType = "note"
	ActivityCall         ActivityType = "call"
	ActivityEmail        ActivityType = "email"
	ActivityMeeting      ActivityType = "meeting"
	ActivityStatusChange ActivityType = "status_change"
)

// Lead is a prospective customer.
type Lead struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Company   string    `json:"company" db:"company"`
	Website   string    `json:"website" db:"website"`
	Service   string    `json:"service" db:"service"`
	Budget    string    `json:"budget" db:"budget"`
	Message   string    `json:"message" db:"message"`
	Postcode  string    `json:"postcode" db:"postcode"`
	City      string    `json:"city" db:"city"`
	KvKNumber string    `json:"kvk_number" db:"kvk_number"`
	Source    Source    `json:"source" db:"source"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Activity is one entry in a lead's log.
type Activity struct {
	ID          string       `json:"id" db:"id"`
	LeadID      string       `json:"lead_id" db:"lead_id"`
	Type        ActivityType `json:"type" db:"type"`
	Description string       `json:"description" db:"description"`
	CreatedBy   string       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// Filter narrows GET /api/leads. Zero values mean "no filter".
type Filter struct {
	Status Status
	Source Source
	Query  string
	From   time.Time
	To     time.Time // exclusive
	Limit  int
	Offset int
}

// SubmitInput is the body of POST /api/leads/submit, the public contact form.
// Fax is a honeypot: hidden in the form, only bots fill it in.
type SubmitInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Phone     string `json:"phone" validate:"max=40"`
	Company   string `json:"company" validate:"max=160"`
	Website   string `json:"website" validate:"max=255"`
	Service   string `json:"service" validate:"max=60"`
	Budget    string `json:"budget" validate:"max=60"`
	Message   string `json:"message" validate:"required,max=5000"`
	Postcode  string `json:"postcode" validate:"omitempty,nl_postcode"`
	City      string `json:"city" validate:"max=120"`
	KvKNumber string `json:"kvk_number" validate:"omitempty,numeric,len=8"`
	Fax       string `json:"fax"`
}

// CreateInput is the body of POST /api/leads, entered by an admin.
type CreateInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Phone     string `json:"phone" validate:"max=40"`
	Company   string `json:"company" validate:"max=160"`
	Website   string `json:"website" validate:"max=255"`
	Service   string `json:"service" validate:"max=60"`
	Budget    string `json:"budget" validate:"max=60"`
	Message   string `json:"message" validate:"max=5000"`
	Postcode  string `json:"postcode" validate:"omitempty,nl_postcode"`
	City      string `json:"city" validate:"max=120"`
	KvKNumber string `json:"kvk_number" validate:"omitempty,numeric,len=8"`
}

// UpdateInput is the body of PATCH /api/leads/{id}. Nil fields stay unchanged.
type UpdateInput struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=40"`
	Company   *string `json:"company" validate:"omitempty,max=160"`
	Website   *string `json:"website" validate:"omitempty,max=255"`
	Service   *string `json:"service" validate:"omitempty,max=60"`
	Budget    *string `json:"budget" validate:"omitempty,max=60"`
	Message   *string `json:"message" validate:"omitempty,max=5000"`
	Postcode  *string `json:"postcode" validate:"omitempty,nl_postcode"`
	City      *string `json:"city" validate:"omitempty,max=120"`
	KvKNumber *string `json:"kvk_number" validate:"omitempty,numeric,len=8"`
}

// StatusInput is the body of PATCH /api/leads/{id}/status.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified converted lost"`
}

// ActivityInput is the body of POST /api/leads/{id}/activities. status_change
// entries are written by the system only.
type ActivityInput struct {
	Type        string `json:"type" validate:"required,oneof=note call email meeting"`
	Description string `json:"description" validate:"required,max=5000"`
}
