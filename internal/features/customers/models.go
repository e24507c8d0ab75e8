// Package customers tracks converted leads: contract value, monthly fee
// and the project's progress.
package customers

import "time"

// ProjectStatus is the delivery stage of a customer's project.
type ProjectStatus string

const (
	ProjectIntake      ProjectStatus = "intake"
	ProjectDesign      ProjectStatus = "design"
	ProjectDevelopment ProjectStatus = "development"
	ProjectReview      ProjectStatus = "review"
	ProjectLive        ProjectStatus = "live"
	ProjectMaintenance ProjectStatus = "maintenance"
)

// Customer is a paying client. LeadID is set when it came from a lead.
type Customer struct {
	ID                 string        `json:"id" db:"id"`
	LeadID             *string       `json:"lead_id" db:"lead_id"`
	CompanyName        string        `json:"company_name" db:"company_name"`
	ContactName        string        `json:"contact_name" db:"contact_name"`
	Email              string        `json:"email" db:"email"`
	Phone              string        `json:"phone" db:"phone"`
	KvKNumber          string        `json:"kvk_number" db:"kvk_number"`
	Address            string        `json:"address" db:"address"`
	Postcode           string        `json:"postcode" db:"postcode"`
	City               string        `json:"city" db:"city"`
	ProjectType        string        `json:"project_type" db:"project_type"`
	ProjectStatus      ProjectStatus `json:"project_status" db:"project_status"`
	ContractValueCents int64         `json:"contract_value_cents" db:"contract_value_cents"`
	MonthlyFeeCents    int64         `json:"monthly_fee_cents" db:"monthly_fee_cents"`
	StartDate          *time.Time    `json:"start_date" db:"start_date"`
	Notes              string        `json:"notes" db:"notes"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateInput is the body of POST /api/customers.
type CreateInput struct {
	CompanyName        string `json:"company_name" validate:"required,max=160"`
	ContactName        string `json:"contact_name" validate:"max=120"`
	Email              string `json:"email" validate:"omitempty,email,max=255"`
	Phone              string `json:"phone" validate:"max=40"`
	KvKNumber          string `json:"kvk_number" validate:"omitempty,numeric,len=8"`
	Address            string `json:"address" validate:"max=255"`
	Postcode           string `json:"postcode" validate:"omitempty,nl_postcode"`
	City               string `json:"city" validate:"max=120"`
	ProjectType        string `json:"project_type" validate:"max=60"`
	ProjectStatus      string `json:"project_status" validate:"omitempty,oneof=intake design development review live maintenance"`
	ContractValueCents int64  `json:"contract_value_cents" validate:"gte=0"`
	MonthlyFeeCents    int64  `json:"monthly_fee_cents" validate:"gte=0"`
	StartDate          string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Notes              string `json:"notes" validate:"max=5000"`
}

// UpdateInput is the body of PATCH /api/customers/{id}. Nil fields stay unchanged.
type UpdateInput struct {
	CompanyName        *string `json:"company_name" validate:"omitempty,max=160"`
	ContactName        *string `json:"contact_name" validate:"omitempty,max=120"`
	Email              *string `json:"email" validate:"omitempty,email,max=255"`
	Phone              *string `json:"phone" validate:"omitempty,max=40"`
	KvKNumber          *string `json:"kvk_number" validate:"omitempty,numeric,len=8"`
	Address            *string `json:"address" validate:"omitempty,max=255"`
	Postcode           *string `json:"postcode" validate:"omitempty,nl_postcode"`
	City               *string `json:"city" validate:"omitempty,max=120"`
	ProjectType        *string `json:"project_type" validate:"omitempty,max=60"`
	ProjectStatus      *string `json:"project_status" validate:"omitempty,oneof=intake design development review live maintenance"`
	ContractValueCents *int64  `json:"contract_value_cents" validate:"omitempty,gte=0"`
	MonthlyFeeCents    *int64  `json:"monthly_fee_cents" validate:"omitempty,gte=0"`
	StartDate          *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Notes              *string `json:"notes" validate:"omitempty,max=5000"`
}

// ConvertInput is the body of POST /api/leads/{id}/convert. Contact details come from
// the lead; these are the commercial fields only known at signing.
type ConvertInput struct {
	CompanyName        string `json:"company_name" validate:"max=160"`
	Address            string `json:"address" validate:"max=255"`
	ProjectType        string `json:"project_type" validate:"max=60"`
	ContractValueCents int64  `json:"contract_value_cents" validate:"gte=0"`
	MonthlyFeeCents    int64  `json:"monthly_fee_cents" validate:"gte=0"`
	StartDate          string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Notes              string `json:"notes" validate:"max=5000"`
}
