package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

var positiveTypes = []db.InteractionType{db.InteractionLike, db.InteractionFriend}

// InteractionRepository provides data access for like/friend/reject edges.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given DB connection.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// Record inserts the edge source → target of the given type.
//
// Behavior:
//   - The (user_id, target_id, type) unique index makes the insert idempotent:
//     a repeated tap hits ON CONFLICT DO NOTHING.
//   - created reports whether a new row was written.
//
// Example:
//
//	repo.Record(ctx, "1", "2", db.InteractionLike) // user 1 liked user 2
func (r *InteractionRepository) Record(
	ctx context.Context,
	sourceID, targetID string,
	kind db.InteractionType,
) (created bool, err error) {
	in := db.Interaction{
		ID:       uuid.NewString(),
		UserID:   sourceID,
		TargetID: targetID,
		Type:     kind,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(&in)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasAny reports whether source has an interaction of any of kinds toward target.
//
// Example:
//
//	repo.HasAny(ctx, "2", "1", db.InteractionLike, db.InteractionFriend) // did 2 like/friend 1?
func (r *InteractionRepository) HasAny(
	ctx context.Context,
	sourceID, targetID string,
	kinds ...db.InteractionType,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Interaction{}).
		Where("user_id = ? AND target_id = ? AND type IN ?", sourceID, targetID, kinds).
		Count(&count).Error
	return count > 0, err
}

// TargetsOf returns every user the source has interacted with, any type.
func (r *InteractionRepository) TargetsOf(ctx context.Context, sourceID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Interaction{}).
		Where("user_id = ?", sourceID).
		Distinct("target_id").
		Pluck("target_id", &ids).Error
	return ids, err
}

// Positive returns like/friend edges involving the user, split by direction.
func (r *InteractionRepository) Positive(ctx context.Context, userID string) (outgoing, incoming []db.Interaction, err error) {
	if err = r.db.WithContext(ctx).
		Where("user_id = ? AND type IN ?", userID, positiveTypes).
		Order("created_at, id").
		Find(&outgoing).Error; err != nil {
		return nil, nil, err
	}
	if err = r.db.WithContext(ctx).
		Where("target_id = ? AND type IN ?", userID, positiveTypes).
		Order("created_at, id").
		Find(&incoming).Error; err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

// pendingScope selects like/friend edges toward recipient that still await
// the recipient's answer.
//
// Behavior:
//   - Excludes edges the recipient reciprocated: with sameType only the same
//     type counts, otherwise any positive type does.
//   - Excludes actors the recipient rejected.
//   - Keeps only the latest positive edge per actor, so someone who sent both
//     a like and a friend request appears once.
func (r *InteractionRepository) pendingScope(ctx context.Context, recipientID string, sameType bool) *gorm.DB {
	reciprocated := r.db.
		Table("interactions r").
		Select("1").
		Where("r.user_id = d.target_id AND r.target_id = d.user_id")
	if sameType {
		reciprocated = reciprocated.Where("r.type = d.type")
	} else {
		reciprocated = reciprocated.Where("r.type IN ?", positiveTypes)
	}

	rejected := r.db.
		Table("interactions x").
		Select("1").
		Where("x.user_id = d.target_id AND x.target_id = d.user_id AND x.type = ?", db.InteractionReject)

	newer := r.db.
		Table("interactions o").
		Select("1").
		Where("o.user_id = d.user_id AND o.target_id = d.target_id AND o.type IN ?", positiveTypes).
		Where("(o.created_at > d.created_at OR (o.created_at = d.created_at AND o.id > d.id))")

	return r.db.WithContext(ctx).
		Table("interactions d").
		Where("d.target_id = ? AND d.type IN ?", recipientID, positiveTypes).
		Where("NOT EXISTS (?)", reciprocated).
		Where("NOT EXISTS (?)", rejected).
		Where("NOT EXISTS (?)", newer)
}

// PendingLikers returns users who liked/friended the recipient and are still
// waiting for an answer.
//
// Behavior:
//   - See pendingScope for the filter.
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken; a nil next token
//     means the last page.
//   - limit <= 0 returns everything.
//
// Example:
//
//	repo.PendingLikers(ctx, "42", false, nil, 20) // first 20 pending admirers of user 42
func (r *InteractionRepository) PendingLikers(
	ctx context.Context,
	recipientID string,
	sameType bool,
	paginationToken *string,
	limit int,
) ([]db.Interaction, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.pendingScope(ctx, recipientID, sameType).
		Select("d.*").
		Order("d.created_at DESC, d.id DESC")

	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(d.created_at < ? OR (d.created_at = ? AND d.id < ?))",
			ts, ts, cursor.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit + 1)
	}

	var interactions []db.Interaction
	if err := query.Find(&interactions).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if limit > 0 && len(interactions) > limit {
		last := interactions[limit-1]
		token, err := pagination.Encode(pagination.At(last.ID, last.CreatedAt))
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		interactions = interactions[:limit]
	}

	return interactions, nextToken, nil
}

// CountPendingLikers counts the rows PendingLikers would return.
// Used in conjunction with Redis cache (DB is fallback).
func (r *InteractionRepository) CountPendingLikers(ctx context.Context, recipientID string, sameType bool) (int64, error) {
	var count int64
	err := r.pendingScope(ctx, recipientID, sameType).Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
