package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

// MessageRepository provides data access for chat messages.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Send stores a message and updates the parent chat in one transaction.
//
// Behavior:
//   - Inserts the message with created_at = now.
//   - Sets chat.last_message = content and chat.updated_at = now.
//   - Sender's read flag becomes true, the recipient's false.
//
// The caller has already checked that sender belongs to the chat.
func (r *MessageRepository) Send(
	ctx context.Context,
	chat *db.Chat,
	senderID, content string,
	kind db.MessageType,
) (*db.Message, error) {
	// v7 ids grow with time, so (created_at, id) follows send order
	// even within one millisecond.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	now := db.Now()
	msg := db.Message{
		ID:          id.String(),
		ChatID:      chat.ID,
		SenderID:    senderID,
		Content:     content,
		MessageType: kind,
		CreatedAt:   now,
	}

	senderIsUser1 := chat.User1ID == senderID
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		res := tx.Model(&db.Chat{}).
			Where("id = ?", chat.ID).
			Updates(map[string]any{
				"last_message": content,
				"updated_at":   now,
				"user1_read":   senderIsUser1,
				"user2_read":   !senderIsUser1,
			})
		if res.Error != nil {
			return fmt.Errorf("update chat: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	chat.LastMessage = content
	chat.LastMessageAt = &now
	chat.User1Read = senderIsUser1
	chat.User2Read = !senderIsUser1
	return &msg, nil
}

// ListAfter returns up to limit messages of the chat strictly after cursor,
// ascending by (created_at, id). A zero cursor starts at the beginning.
//
// Example:
//
//	msgs, _ := repo.ListAfter(ctx, chatID, pagination.Cursor{}, 50) // first 50 messages
func (r *MessageRepository) ListAfter(
	ctx context.Context,
	chatID string,
	cursor pagination.Cursor,
	limit int,
) ([]db.Message, error) {
	query := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC")

	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(created_at > ? OR (created_at = ? AND id > ?))",
			ts, ts, cursor.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var msgs []db.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// Latest returns the cursor of the newest message in the chat, or a zero
// cursor when the chat is empty.
func (r *MessageRepository) Latest(ctx context.Context, chatID string) (pagination.Cursor, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&msgs).Error
	if err != nil || len(msgs) == 0 {
		return pagination.Cursor{}, err
	}
	return pagination.At(msgs[0].ID, msgs[0].CreatedAt), nil
}
