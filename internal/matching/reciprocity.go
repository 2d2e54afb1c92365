package matching

import (
	"fmt"
	"strings"

	"github.com/unimeet/match-core/internal/db"
	svcErr "github.com/unimeet/match-core/internal/errors"
)

// Reciprocity decides which answer turns a positive interaction into a match.
type Reciprocity string

const (
	// ReciprocityAny: like and friend answer each other.
	ReciprocityAny Reciprocity = "any"
	// ReciprocitySame: only the same type answers (like↔like, friend↔friend).
	ReciprocitySame Reciprocity = "same"
)

// ParseReciprocity reads the configured policy; empty means ReciprocityAny.
func ParseReciprocity(s string) (Reciprocity, error) {
	switch Reciprocity(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReciprocityAny:
		return ReciprocityAny, nil
	case ReciprocitySame:
		return ReciprocitySame, nil
	}
	return "", fmt.Errorf("%w: unknown reciprocity policy %q", svcErr.ErrInvalidArgument, s)
}

// SameTypeOnly reports whether only identical types reciprocate.
func (p Reciprocity) SameTypeOnly() bool {
	return p == ReciprocitySame
}

// Answers lists the reverse interaction types that make kind mutual.
// Reject has no answers.
func (p Reciprocity) Answers(kind db.InteractionType) []db.InteractionType {
	if !kind.IsPositive() {
		return nil
	}
	if p.SameTypeOnly() {
		return []db.InteractionType{kind}
	}
	return []db.InteractionType{db.InteractionLike, db.InteractionFriend}
}

// Mutual reports whether a and b, sent in opposite directions, form a match.
func (p Reciprocity) Mutual(a, b db.InteractionType) bool {
	if !a.IsPositive() || !b.IsPositive() {
		return false
	}
	return !p.SameTypeOnly() || a == b
}
