package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unimeet/match-core/internal/db"
)

// ChatRepository provides data access for one-to-one chat threads.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// FindOrCreate returns the chat between a and b, creating it if needed.
//
// Behavior:
//   - Inserts {user1=a, user2=b, last_message="", updated_at=NULL} with
//     ON CONFLICT (pair_key) DO NOTHING, then reads the row back by pair_key.
//   - The unique pair_key makes this atomic: concurrent callers, in either
//     user order, all end up with the same row and no duplicate is written.
//   - created reports whether this call inserted the row.
//
// Example:
//
//	chat, _, err := repo.FindOrCreate(ctx, "1", "2") // same chat as FindOrCreate(ctx, "2", "1")
func (r *ChatRepository) FindOrCreate(ctx context.Context, a, b string) (*db.Chat, bool, error) {
	key := db.PairKey(a, b)

	candidate := db.Chat{
		ID:      uuid.NewString(),
		User1ID: a,
		User2ID: b,
		PairKey: key,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}

	chat, err := r.FindByPair(ctx, a, b)
	if err != nil {
		return nil, false, err
	}
	return chat, res.RowsAffected > 0 && chat.ID == candidate.ID, nil
}

// FindByPair returns the chat between a and b in either order.
// Returns gorm.ErrRecordNotFound when none exists.
func (r *ChatRepository) FindByPair(ctx context.Context, a, b string) (*db.Chat, error) {
	var chat db.Chat
	if err := r.db.WithContext(ctx).Where("pair_key = ?", db.PairKey(a, b)).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// Get loads a chat by id.
func (r *ChatRepository) Get(ctx context.Context, id string) (*db.Chat, error) {
	var chat db.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListForUser returns the user's chats, most recent activity first; chats
// without messages come last, newest first.
// activeOnly keeps chats with at least one message (updated_at set).
func (r *ChatRepository) ListForUser(ctx context.Context, userID string, activeOnly bool) ([]db.Chat, error) {
	query := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID)
	if activeOnly {
		query = query.Where("updated_at IS NOT NULL")
	}

	var chats []db.Chat
	err := query.
		Order("CASE WHEN updated_at IS NULL THEN 1 ELSE 0 END").
		Order("updated_at DESC").
		Order("created_at DESC").
		Order("id").
		Find(&chats).Error
	return chats, err
}

// MarkRead sets the read flag of userID on the chat.
func (r *ChatRepository) MarkRead(ctx context.Context, chat *db.Chat, userID string) error {
	col := "user2_read"
	if chat.User1ID == userID {
		col = "user1_read"
	}
	return r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ?", chat.ID).
		Update(col, true).Error
}
