package matching

import (
	"context"
	"fmt"

	"github.com/unimeet/match-core/internal/db"
	svcErr "github.com/unimeet/match-core/internal/errors"
)

// InteractionStore records edges and answers reverse-edge lookups.
type InteractionStore interface {
	Record(ctx context.Context, sourceID, targetID string, kind db.InteractionType) (bool, error)
	HasAny(ctx context.Context, sourceID, targetID string, kinds ...db.InteractionType) (bool, error)
}

// UserChecker confirms a user exists.
type UserChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ChatProvisioner finds or creates the thread of a user pair.
type ChatProvisioner interface {
	FindOrCreate(ctx context.Context, a, b string) (*db.Chat, bool, error)
}

// Outcome is the result of recording one interaction.
type Outcome struct {
	// Recorded is false when the same edge already existed.
	Recorded bool
	// Matched is true when the reverse answer exists under the policy.
	Matched bool
	// Chat is the pair's thread; set only when Matched.
	Chat *db.Chat
}

// Recorder stores interactions and detects mutuality.
type Recorder struct {
	users        UserChecker
	interactions InteractionStore
	chats        ChatProvisioner
	policy       Reciprocity
}

func NewRecorder(users UserChecker, interactions InteractionStore, chats ChatProvisioner, policy Reciprocity) *Recorder {
	return &Recorder{users: users, interactions: interactions, chats: chats, policy: policy}
}

// Policy returns the reciprocity policy in force.
func (r *Recorder) Policy() Reciprocity { return r.policy }

// Record stores source → target of kind and, for like/friend, checks whether
// target already answered. A mutual pair gets its chat provisioned.
//
// Behavior:
//   - Self-interaction and unknown types are rejected; target must exist.
//   - The insert is idempotent, so repeated taps never duplicate rows.
//   - Mutuality is re-evaluated even for an existing edge, letting a client
//     retry after a failed chat provisioning.
//   - Concurrent reciprocal taps may both report Matched; FindOrCreate
//     guarantees they share one chat.
func (r *Recorder) Record(ctx context.Context, sourceID, targetID string, kind db.InteractionType) (*Outcome, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown interaction type %q", svcErr.ErrInvalidArgument, kind)
	}
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: source and target are required", svcErr.ErrInvalidArgument)
	}
	if sourceID == targetID {
		return nil, svcErr.ErrSelfInteraction
	}

	exists, err := r.users.Exists(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("check target: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("target %s: %w", targetID, svcErr.ErrNotFound)
	}

	created, err := r.interactions.Record(ctx, sourceID, targetID, kind)
	if err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}
	out := &Outcome{Recorded: created}

	answers := r.policy.Answers(kind)
	if len(answers) == 0 {
		return out, nil
	}

	mutual, err := r.interactions.HasAny(ctx, targetID, sourceID, answers...)
	if err != nil {
		return nil, fmt.Errorf("check reverse interaction: %w", err)
	}
	if !mutual {
		return out, nil
	}

	chat, _, err := r.chats.FindOrCreate(ctx, sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("provision chat: %w", err)
	}
	out.Matched = true
	out.Chat = chat
	return out, nil
}
