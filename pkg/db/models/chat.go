package models

import (
	"time"

	"github.com/google/uuid"
)

// Message role tags. These are the wire values the generation API expects, so
// prompt assembly can map them without translation tables.
const (
	MessageRoleUser  = "user"
	MessageRoleModel = "model"
)

// Conversation is a titled AI-assistant thread owned by exactly one principal.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// OwnerID together with OwnerKind identifies the principal; client and
	// advocate ids are separate spaces.
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	OwnerKind string    `json:"owner_kind" gorm:"not null"`

	Title string `json:"title" gorm:"not null"`

	// LastActivity is bumped on every message appended to the conversation.
	LastActivity time.Time `json:"last_activity" gorm:"index"`
}

// Message is one immutable turn in a conversation.
type Message struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	AuthorID       uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	AuthorKind     string    `json:"author_kind" gorm:"not null"`

	Content string `json:"content" gorm:"not null"`
	Role    string `json:"role" gorm:"not null;default:user"`
}
