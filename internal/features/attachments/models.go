// Package attachments stores files uploaded to a lead: offers from
// competitors, briefs, logos. Metadata and bytes live in separate tables
// so listing never loads blobs.
package attachments

import "time"

// Attachment is the metadata of one uploaded file.
type Attachment struct {
	ID          string    `json:"id" db:"id"`
	LeadID      string    `json:"lead_id" db:"lead_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
