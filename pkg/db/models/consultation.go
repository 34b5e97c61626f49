package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConsultationStatusPending  = "pending"
	ConsultationStatusAccepted = "accepted"
	ConsultationStatusRejected = "rejected"
)

const (
	LegalIssueCivil     = "civil"
	LegalIssueCriminal  = "criminal"
	LegalIssueCorporate = "corporate"
	LegalIssueFamily    = "family"
	LegalIssueProperty  = "property"
	LegalIssueLabor     = "labor"
	LegalIssueOther     = "other"
)

// ConsultationRequest is a client's request for a consultation with a specific
// advocate. The advocate accepts or rejects it; rejection requires a reason.
type ConsultationRequest struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientID   uuid.UUID `json:"client_id" gorm:"type:uuid;not null;index"`
	AdvocateID uuid.UUID `json:"advocate_id" gorm:"type:uuid;not null;index"`

	Message    string `json:"message" gorm:"not null"`
	LegalIssue string `json:"legal_issue" gorm:"not null"`
	Urgency    string `json:"urgency" gorm:"not null;default:medium"`

	Status          string     `json:"status" gorm:"not null;default:pending;index"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
}
