package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the fixed length of message embeddings.
const EmbeddingDimensions = 768

// MemoryRecord is the long-term memory entry for one message: its embedding
// plus enough metadata to filter retrieval by principal and reconstruct the
// original text. Written once per message, never updated or deleted.
type MemoryRecord struct {
	// ID is the id of the message this record was derived from.
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	PrincipalID    uuid.UUID `json:"principal_id" gorm:"type:uuid;not null;index"`
	PrincipalKind  string    `json:"principal_kind" gorm:"not null"`

	Text      string          `json:"text" gorm:"not null"`
	Embedding pgvector.Vector `json:"-" gorm:"type:vector(768)"`
}
