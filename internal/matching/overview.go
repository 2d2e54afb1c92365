package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unimeet/match-core/internal/db"
)

// OverviewStore reads the interaction views the aggregator needs.
type OverviewStore interface {
	PendingLikers(ctx context.Context, recipientID string, sameType bool, token *string, limit int) ([]db.Interaction, *string, error)
	Positive(ctx context.Context, userID string) (outgoing, incoming []db.Interaction, err error)
}

// ChatLister lists the chats of a user.
type ChatLister interface {
	ListForUser(ctx context.Context, userID string, activeOnly bool) ([]db.Chat, error)
}

// Match is a confirmed mutual pair seen from one side.
type Match struct {
	UserID    string
	MatchedAt time.Time
	// ChatID is empty when the pair's chat was never provisioned.
	ChatID string
}

// Overview is the likes screen of one user.
type Overview struct {
	LikedYou    []db.Interaction
	Matches     []Match
	ActiveChats []db.Chat
}

// Aggregator assembles the likes/matches/chats views.
type Aggregator struct {
	interactions OverviewStore
	chats        ChatLister
	policy       Reciprocity
}

func NewAggregator(interactions OverviewStore, chats ChatLister, policy Reciprocity) *Aggregator {
	return &Aggregator{interactions: interactions, chats: chats, policy: policy}
}

// Overview builds the three lists for userID.
//
// Behavior:
//   - LikedYou: pending positive interactions toward the user, newest first.
//   - Matches: mutual pairs under the policy, newest match first, each with
//     the pair's chat id.
//   - ActiveChats: chats with at least one message, most recent first.
func (a *Aggregator) Overview(ctx context.Context, userID string) (*Overview, error) {
	liked, _, err := a.interactions.PendingLikers(ctx, userID, a.policy.SameTypeOnly(), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("load liked-you: %w", err)
	}

	outgoing, incoming, err := a.interactions.Positive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	chats, err := a.chats.ListForUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("load chats: %w", err)
	}

	chatByPartner := make(map[string]string, len(chats))
	active := make([]db.Chat, 0, len(chats))
	for _, c := range chats {
		chatByPartner[c.Counterpart(userID)] = c.ID
		if c.LastMessageAt != nil {
			active = append(active, c)
		}
	}

	matches := MutualPairs(outgoing, incoming, a.policy)
	for i := range matches {
		matches[i].ChatID = chatByPartner[matches[i].UserID]
	}

	return &Overview{LikedYou: liked, Matches: matches, ActiveChats: active}, nil
}

// MutualPairs pairs the user's outgoing positive edges with incoming ones.
// A pair's MatchedAt is when its earliest qualifying edge pair completed.
func MutualPairs(outgoing, incoming []db.Interaction, policy Reciprocity) []Match {
	byPartner := make(map[string][]db.Interaction, len(incoming))
	for _, in := range incoming {
		byPartner[in.UserID] = append(byPartner[in.UserID], in)
	}

	found := map[string]time.Time{}
	for _, out := range outgoing {
		for _, in := range byPartner[out.TargetID] {
			if !policy.Mutual(out.Type, in.Type) {
				continue
			}
			at := out.CreatedAt
			if in.CreatedAt.After(at) {
				at = in.CreatedAt
			}
			if prev, ok := found[out.TargetID]; !ok || at.Before(prev) {
				found[out.TargetID] = at
			}
		}
	}

	matches := make([]Match, 0, len(found))
	for id, at := range found {
		matches = append(matches, Match{UserID: id, MatchedAt: at})
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].MatchedAt.Equal(matches[j].MatchedAt) {
			return matches[i].MatchedAt.After(matches[j].MatchedAt)
		}
		return matches[i].UserID < matches[j].UserID
	})
	return matches
}
