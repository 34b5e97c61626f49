package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm/clause"

	"github.com/nyaysahay/nyaysahay/pkg/db"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// Match is one nearest-neighbor hit from the long-term memory index.
type Match struct {
	MessageID      uuid.UUID `json:"message_id" gorm:"column:message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	PrincipalID    uuid.UUID `json:"principal_id"`
	PrincipalKind  string    `json:"principal_kind"`
	Text           string    `json:"text"`
	// Score is cosine similarity; higher is more similar.
	Score float64 `json:"score"`
}

// Index is the long-term memory store. Records are keyed by message id and
// retrieval is always filtered to a single principal.
type Index struct {
	dbc *db.DB
}

func NewIndex(dbc *db.DB) *Index {
	return &Index{dbc: dbc}
}

// Upsert stores the memory record for a message. Replaying the same message id
// is a no-op, so at most one record ever exists per message.
func (ix *Index) Upsert(ctx context.Context, record *models.MemoryRecord) error {
	return ix.dbc.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(record).Error
}

// Query returns up to topK records nearest to the given vector, restricted to
// the principal's own memory. An empty index yields an empty slice.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int, principalID uuid.UUID) ([]Match, error) {
	target := pgvector.NewVector(vector)

	matches := []Match{}
	err := ix.dbc.DB.WithContext(ctx).
		Model(&models.MemoryRecord{}).
		Select("id AS message_id, conversation_id, principal_id, principal_kind, text, 1 - (embedding <=> ?) AS score", target).
		Where("principal_id = ?", principalID).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <=> ?",
			Vars:               []interface{}{target},
			WithoutParentheses: true,
		}}).
		Limit(topK).
		Scan(&matches).Error
	if err != nil {
		return nil, err
	}

	return matches, nil
}
