package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unimeet/match-core/internal/db"
	svcErr "github.com/unimeet/match-core/internal/errors"
	"github.com/unimeet/match-core/internal/profile"
	"github.com/unimeet/match-core/internal/repository"
)

// UserStore is the slice of the user repository the finder reads.
type UserStore interface {
	Get(ctx context.Context, id string) (*db.User, error)
	QueryCandidates(ctx context.Context, q repository.CandidateQuery) ([]db.User, error)
}

// DecisionStore lists users someone already acted on.
type DecisionStore interface {
	TargetsOf(ctx context.Context, sourceID string) ([]string, error)
}

// FindRequest describes one candidate search. Nil bounds are open.
type FindRequest struct {
	RequesterID    string
	MinAge         *int
	MaxAge         *int
	MaxDistanceKm  *float64
	ExcludeDecided bool
	// Limit <= 0 returns every candidate.
	Limit int
}

// Candidate is a user annotated relative to the requester.
type Candidate struct {
	User                  db.User
	Age                   *int
	SharedConnectionTypes []string
	SharedCount           int
	DistanceKm            *float64
}

// Finder selects and ranks candidate matches.
type Finder struct {
	users     UserStore
	decisions DecisionStore
	now       func() time.Time
}

// NewFinder wires a finder. now defaults to time.Now.
func NewFinder(users UserStore, decisions DecisionStore, now func() time.Time) *Finder {
	if now == nil {
		now = time.Now
	}
	return &Finder{users: users, decisions: decisions, now: now}
}

// Find returns candidates for the requester.
//
// Behavior:
//   - Requester lookup failure aborts the call.
//   - Age bounds become a birth-date window (see BirthBounds).
//   - preferred_match narrows genders unless empty or a wildcard.
//   - With requester connection types set, candidates sharing none are dropped.
//   - Ranked by shared count desc, distance asc (unknown last), then id.
func (f *Finder) Find(ctx context.Context, req FindRequest) ([]Candidate, error) {
	if err := validateAges(req.MinAge, req.MaxAge); err != nil {
		return nil, err
	}
	if req.MaxDistanceKm != nil && *req.MaxDistanceKm <= 0 {
		return nil, fmt.Errorf("%w: max_distance_km must be positive", svcErr.ErrInvalidArgument)
	}

	requester, err := f.users.Get(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester %s: %w", req.RequesterID, err)
	}

	now := f.now()
	q := repository.CandidateQuery{
		ExcludeIDs: []string{requester.ID},
		Genders:    GenderFilter(requester.PreferredMatch),
	}
	q.BornOnOrAfter, q.BornBefore = BirthBounds(req.MinAge, req.MaxAge, now)

	if req.ExcludeDecided {
		decided, err := f.decisions.TargetsOf(ctx, requester.ID)
		if err != nil {
			return nil, fmt.Errorf("load decided users: %w", err)
		}
		q.ExcludeIDs = append(q.ExcludeIDs, decided...)
	}

	users, err := f.users.QueryCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	wanted := profile.NormalizeList(requester.ConnectionTypes)
	out := make([]Candidate, 0, len(users))
	for _, u := range users {
		c := annotate(requester, u, wanted, now)
		if len(wanted) > 0 && c.SharedCount == 0 {
			continue
		}
		if req.MaxDistanceKm != nil && (c.DistanceKm == nil || *c.DistanceKm > *req.MaxDistanceKm) {
			continue
		}
		out = append(out, c)
	}

	rank(out)
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func validateAges(minAge, maxAge *int) error {
	if minAge != nil && *minAge < 0 {
		return fmt.Errorf("%w: min_age must not be negative", svcErr.ErrInvalidArgument)
	}
	if maxAge != nil && *maxAge < 0 {
		return fmt.Errorf("%w: max_age must not be negative", svcErr.ErrInvalidArgument)
	}
	if minAge != nil && maxAge != nil && *minAge > *maxAge {
		return fmt.Errorf("%w: min_age exceeds max_age", svcErr.ErrInvalidArgument)
	}
	return nil
}

var wildcardGenders = map[string]struct{}{"any": {}, "both": {}, "everyone": {}, "all": {}}

// GenderFilter turns a preferred-match list into a gender filter.
// nil means no filter.
func GenderFilter(preferred []string) []string {
	genders := profile.NormalizeList(preferred)
	for _, g := range genders {
		if _, ok := wildcardGenders[g]; ok {
			return nil
		}
	}
	if len(genders) == 0 {
		return nil
	}
	return genders
}

// SharedTypes returns the elements of wanted present in other, in wanted's order.
func SharedTypes(wanted, other []string) []string {
	have := make(map[string]struct{}, len(other))
	for _, t := range profile.NormalizeList(other) {
		have[t] = struct{}{}
	}
	shared := []string{}
	for _, t := range wanted {
		if _, ok := have[t]; ok {
			shared = append(shared, t)
		}
	}
	return shared
}

func annotate(requester *db.User, u db.User, wanted []string, now time.Time) Candidate {
	c := Candidate{User: u}
	if u.BirthDate != nil {
		age := Age(*u.BirthDate, now)
		c.Age = &age
	}
	c.SharedConnectionTypes = SharedTypes(wanted, u.ConnectionTypes)
	c.SharedCount = len(c.SharedConnectionTypes)
	if requester.Latitude != nil && requester.Longitude != nil && u.Latitude != nil && u.Longitude != nil {
		d := DistanceKm(*requester.Latitude, *requester.Longitude, *u.Latitude, *u.Longitude)
		c.DistanceKm = &d
	}
	return c
}

func rank(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.SharedCount != b.SharedCount {
			return a.SharedCount > b.SharedCount
		}
		switch {
		case a.DistanceKm != nil && b.DistanceKm != nil && *a.DistanceKm != *b.DistanceKm:
			return *a.DistanceKm < *b.DistanceKm
		case a.DistanceKm != nil && b.DistanceKm == nil:
			return true
		case a.DistanceKm == nil && b.DistanceKm != nil:
			return false
		}
		return a.User.ID < b.User.ID
	})
}
