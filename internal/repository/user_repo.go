package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/unimeet/match-core/internal/db"
)

// UserRepository provides data access for user profiles.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// CandidateQuery narrows the user table before in-process ranking.
// Nil/empty fields apply no filter.
type CandidateQuery struct {
	// ExcludeIDs always contains the requester.
	ExcludeIDs []string
	// BornOnOrAfter is inclusive, BornBefore exclusive.
	BornOnOrAfter *time.Time
	BornBefore    *time.Time
	// Genders is matched case-insensitively.
	Genders []string
}

// Get loads one user. Returns gorm.ErrRecordNotFound when missing.
func (r *UserRepository) Get(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany loads users by id, keyed by id. Missing ids are absent from the map.
func (r *UserRepository) GetMany(ctx context.Context, ids []string) (map[string]db.User, error) {
	out := make(map[string]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Exists reports whether a user row exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create inserts a new user profile. Every column is written, so an explicit
// Active=false is kept instead of the column default.
// Returns gorm.ErrDuplicatedKey when the id already exists.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Select("*").Create(u).Error
}

// Update applies a column map to one user.
// Returns gorm.ErrRecordNotFound when no row matched.
func (r *UserRepository) Update(ctx context.Context, id string, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// QueryCandidates returns active users matching the SQL-expressible filters.
//
// Behavior:
//   - Always excludes ExcludeIDs and inactive users.
//   - Birth-date bounds exclude users without a birth date.
//   - Gender filter compares lowercase values.
//   - Connection-type overlap is NOT applied here; JSON array operators differ
//     per dialect, so callers intersect in process.
//   - Ordered by id for deterministic results.
func (r *UserRepository) QueryCandidates(ctx context.Context, q CandidateQuery) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("active = ?", true)

	if len(q.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", q.ExcludeIDs)
	}
	if q.BornOnOrAfter != nil {
		query = query.Where("birth_date >= ?", *q.BornOnOrAfter)
	}
	if q.BornBefore != nil {
		query = query.Where("birth_date < ?", *q.BornBefore)
	}
	if len(q.Genders) > 0 {
		query = query.Where("LOWER(gender) IN ?", q.Genders)
	}

	var users []db.User
	if err := query.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SearchByName returns active users whose name contains term, case-insensitive.
//
// Example:
//
//	repo.SearchByName(ctx, "no", "1", 20) // Noa, Noam ... but never user 1
func (r *UserRepository) SearchByName(ctx context.Context, term, excludeID string, limit int) ([]db.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var users []db.User
	err := r.db.WithContext(ctx).
		Where("active = ? AND id <> ?", true, excludeID).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("name, id").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
