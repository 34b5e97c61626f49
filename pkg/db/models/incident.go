package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	IncidentStatusSubmitted   = "submitted"
	IncidentStatusUnderReview = "under_review"
	IncidentStatusForwarded   = "forwarded"
	IncidentStatusResolved    = "resolved"
)

const (
	IncidentTypeCorruption           = "corruption"
	IncidentTypePoliceMisconduct     = "police_misconduct"
	IncidentTypeGovernmentNegligence = "government_negligence"
	IncidentTypeFraud                = "fraud"
	IncidentTypeOther                = "other"
)

const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// EvidenceFile describes one uploaded piece of evidence, serialized into the
// incident's jsonb column.
type EvidenceFile struct {
	URL      string `json:"url"`
	Kind     string `json:"kind"` // image, video or document
	Filename string `json:"filename"`
}

// Incident is a citizen-reported incident forwarded to the authorities.
type Incident struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// IncidentNumber is the human-facing reference, e.g. INC-123456789.
	IncidentNumber string `json:"incident_number" gorm:"uniqueIndex;not null"`

	Title           string    `json:"title" gorm:"not null"`
	IncidentDetails string    `json:"incident_details" gorm:"not null"`
	Location        string    `json:"location" gorm:"not null"`
	ReporterEmail   string    `json:"reporter_email" gorm:"not null"`
	ReportedBy      uuid.UUID `json:"reported_by" gorm:"type:uuid;not null;index"`

	IncidentType string `json:"incident_type" gorm:"not null"`
	Urgency      string `json:"urgency" gorm:"not null;default:medium"`
	Status       string `json:"status" gorm:"not null;default:submitted"`

	EvidenceFiles datatypes.JSON `json:"evidence_files,omitempty" gorm:"type:jsonb"`

	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
}
