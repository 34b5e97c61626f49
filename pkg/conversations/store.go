package conversations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyaysahay/nyaysahay/pkg/db"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// Store is the durable conversation and message log.
type Store struct {
	dbc *db.DB
}

func NewStore(dbc *db.DB) *Store {
	return &Store{dbc: dbc}
}

// Create starts a new conversation owned by the given principal.
func (s *Store) Create(ctx context.Context, ownerID uuid.UUID, ownerKind, title string) (*models.Conversation, error) {
	conversation := &models.Conversation{
		OwnerID:      ownerID,
		OwnerKind:    ownerKind,
		Title:        title,
		LastActivity: time.Now(),
	}
	if err := s.dbc.DB.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// Get fetches a conversation, enforcing ownership. Returns
// gorm.ErrRecordNotFound both when the conversation does not exist and when it
// belongs to someone else, so callers cannot tell the two apart.
func (s *Store) Get(ctx context.Context, id, ownerID uuid.UUID, ownerKind string) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	err := s.dbc.DB.WithContext(ctx).
		First(conversation, "id = ? AND owner_id = ? AND owner_kind = ?", id, ownerID, ownerKind).Error
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListByOwner returns the principal's conversations, most recently active first.
func (s *Store) ListByOwner(ctx context.Context, ownerID uuid.UUID, ownerKind string) ([]models.Conversation, error) {
	conversations := []models.Conversation{}
	err := s.dbc.DB.WithContext(ctx).
		Where("owner_id = ? AND owner_kind = ?", ownerID, ownerKind).
		Order("last_activity DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// Delete removes a conversation and all of its messages. Ownership is enforced
// the same way as Get.
func (s *Store) Delete(ctx context.Context, id, ownerID uuid.UUID, ownerKind string) error {
	return s.dbc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conversation := &models.Conversation{}
		if err := tx.First(conversation, "id = ? AND owner_id = ? AND owner_kind = ?", id, ownerID, ownerKind).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(conversation).Error
	})
}

// Append adds one immutable turn to a conversation and bumps its last-activity
// timestamp.
func (s *Store) Append(ctx context.Context, conversationID, authorID uuid.UUID, authorKind, content, role string) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conversationID,
		AuthorID:       authorID,
		AuthorKind:     authorKind,
		Content:        content,
		Role:           role,
	}

	err := s.dbc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_activity", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

// Recent returns the newest messages in a conversation, newest first.
func (s *Store) Recent(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.dbc.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MessagesAsc returns the full message history, oldest first.
func (s *Store) MessagesAsc(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.dbc.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
