package db

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// InteractionType is the directional action a user takes toward another.
type InteractionType string

const (
	InteractionLike   InteractionType = "like"
	InteractionFriend InteractionType = "friend"
	InteractionReject InteractionType = "reject"
)

// IsValid reports whether t is one of the known interaction types.
func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionLike, InteractionFriend, InteractionReject:
		return true
	}
	return false
}

// IsPositive reports whether t expresses interest (like or friend).
func (t InteractionType) IsPositive() bool {
	return t == InteractionLike || t == InteractionFriend
}

// MessageType classifies message content.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageAudio MessageType = "audio"
)

func (t MessageType) IsValid() bool {
	switch t {
	case MessageText, MessageImage, MessageAudio:
		return true
	}
	return false
}

// User table. The id is the opaque identity issued by the external auth system.
type User struct {
	ID              string                      `gorm:"primaryKey;size:64"`
	Name            string                      `gorm:"size:128;not null;index"`
	BirthDate       *time.Time                  `gorm:"index"`
	Gender          string                      `gorm:"size:32;index"`
	ConnectionTypes datatypes.JSONSlice[string] `gorm:"column:connection_types"`
	PreferredMatch  datatypes.JSONSlice[string] `gorm:"column:preferred_match"`
	Latitude        *float64
	Longitude       *float64
	Image           string    `gorm:"size:512"`
	Active          bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// Interaction is a directional edge: UserID did Type to TargetID.
//
// Unique index: (user_id, target_id, type)
//   - A repeated like/friend/reject is a no-op insert, not a second row.
//
// Indexes:
//   - idx_interactions_target_type(target_id, type)
//     Serves "who liked me" lookups.
type Interaction struct {
	ID        string          `gorm:"primaryKey;size:36"`
	UserID    string          `gorm:"size:64;not null;uniqueIndex:idx_interactions_edge,priority:1"`
	TargetID  string          `gorm:"size:64;not null;uniqueIndex:idx_interactions_edge,priority:2;index:idx_interactions_target_type,priority:1"`
	Type      InteractionType `gorm:"size:16;not null;uniqueIndex:idx_interactions_edge,priority:3;index:idx_interactions_target_type,priority:2"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index"`
}

// Chat is the single thread between two users.
//
// PairKey holds the unordered pair (see PairKey func) under a unique index, so
// at most one thread exists per pair no matter who initiates or how many
// callers race. LastMessageAt maps to updated_at and stays NULL until the
// first message is sent.
type Chat struct {
	ID            string     `gorm:"primaryKey;size:36"`
	User1ID       string     `gorm:"column:user1_id;size:64;not null;index"`
	User2ID       string     `gorm:"column:user2_id;size:64;not null;index"`
	PairKey       string     `gorm:"size:140;not null;uniqueIndex"`
	LastMessage   string     `gorm:"type:text;not null"`
	LastMessageAt *time.Time `gorm:"column:updated_at;index"`
	User1Read     bool       `gorm:"column:user1_read;not null;default:true"`
	User2Read     bool       `gorm:"column:user2_read;not null;default:true"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
}

// HasParticipant reports whether userID is one of the two chat members.
func (c *Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Counterpart returns the other member of the chat.
func (c *Chat) Counterpart(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ReadBy returns the read flag of userID.
func (c *Chat) ReadBy(userID string) bool {
	if c.User1ID == userID {
		return c.User1Read
	}
	return c.User2Read
}

// Message belongs to exactly one chat.
//
// Index idx_messages_chat_created(chat_id, created_at, id) backs ordered
// history reads and the realtime reconciliation cursor.
type Message struct {
	ID          string      `gorm:"primaryKey;size:36;index:idx_messages_chat_created,priority:3"`
	ChatID      string      `gorm:"size:36;not null;index:idx_messages_chat_created,priority:1"`
	SenderID    string      `gorm:"size:64;not null"`
	Content     string      `gorm:"type:text;not null"`
	MessageType MessageType `gorm:"size:16;not null;default:text"`
	CreatedAt   time.Time   `gorm:"index:idx_messages_chat_created,priority:2"`
}

// PairKey returns the order-independent key of a user pair. The smaller id is
// length-prefixed, so ids containing the separator cannot collide.
//
// Example:
//
//	PairKey("2", "1") // "1:1|2"
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strconv.Itoa(len(a)) + ":" + a + "|" + b
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&User{}, &Interaction{}, &Chat{}, &Message{}}
}
