package matching

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/unimeet/match-core/internal/api"
	"github.com/unimeet/match-core/internal/app"
	"github.com/unimeet/match-core/internal/db"
	svcErr "github.com/unimeet/match-core/internal/errors"
	"github.com/unimeet/match-core/internal/logger"
	domain "github.com/unimeet/match-core/internal/matching"
	"github.com/unimeet/match-core/internal/profile"
	"github.com/unimeet/match-core/internal/repository"
	"github.com/unimeet/match-core/internal/session"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

const (
	searchLimit       = 20
	defaultLikerLimit = 20
	maxLikerLimit     = 100
)

// Service implements the MatchingService gRPC API.
// It contains the business logic on top of repository and cache layers.
// Every method acts on behalf of the session user.
type Service struct {
	appCtx       *app.AppContext
	users        *repository.UserRepository
	interactions *repository.InteractionRepository

	finder     *domain.Finder
	recorder   *domain.Recorder
	aggregator *domain.Aggregator

	api.UnimplementedMatchingServiceServer
}

// NewMatchingService creates a new Matching service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via user, interaction and chat repositories)
//   - RedisCache for the liked-you counter
//   - the reciprocity policy and clock
func NewMatchingService(appCtx *app.AppContext) *Service {
	users := repository.NewUserRepository(appCtx.DB)
	interactions := repository.NewInteractionRepository(appCtx.DB)
	chats := repository.NewChatRepository(appCtx.DB)

	return &Service{
		appCtx:       appCtx,
		users:        users,
		interactions: interactions,
		finder:       domain.NewFinder(users, interactions, appCtx.Now),
		recorder:     domain.NewRecorder(users, interactions, chats, appCtx.Reciprocity),
		aggregator:   domain.NewAggregator(interactions, chats, appCtx.Reciprocity),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// FindCandidates returns ranked candidate profiles for the caller.
//
// Behavior:
//   - Filters by age window, preferred genders and activity.
//   - Drops candidates sharing no connection type with the caller.
//   - Limit is capped at the configured CANDIDATE_LIMIT.
//
// Example:
//
//	svc.FindCandidates(ctx, &api.FindCandidatesRequest{MinAge: ptr(25), MaxAge: ptr(35)})
func (s *Service) FindCandidates(ctx context.Context, req *api.FindCandidatesRequest) (*api.FindCandidatesResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.log(ctx).Debug("FindCandidates called", "limit", req.Limit, "exclude_decided", req.ExcludeDecided)

	limit := s.appCtx.Config.Matching.CandidateLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	candidates, err := s.finder.Find(ctx, domain.FindRequest{
		RequesterID:    userID,
		MinAge:         req.MinAge,
		MaxAge:         req.MaxAge,
		MaxDistanceKm:  req.MaxDistanceKm,
		ExcludeDecided: req.ExcludeDecided,
		Limit:          limit,
	})
	if err != nil {
		s.log(ctx).Error("FindCandidates failed", "err", err)
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Now()
	resp := &api.FindCandidatesResponse{Candidates: make([]*api.Candidate, 0, len(candidates))}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, api.CandidateFromMatch(c, now))
	}

	s.log(ctx).Debug("FindCandidates result", "count", len(resp.Candidates))
	return resp, nil
}

// RecordInteraction stores like/friend/reject toward target and reports a match.
//
// Behavior:
//   - Repeated taps are no-ops (Recorded=false) but still report the match.
//   - On a match the pair's chat is found or created and its id returned.
//   - Cached liked-you counts of both users are dropped when a row is stored.
//
// Example:
//
//	svc.RecordInteraction(ctx, &api.RecordInteractionRequest{TargetID: "2", Type: "like"})
func (s *Service) RecordInteraction(ctx context.Context, req *api.RecordInteractionRequest) (*api.RecordInteractionResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	targetID := strings.TrimSpace(req.TargetID)
	kind := db.InteractionType(strings.ToLower(strings.TrimSpace(req.Type)))
	s.log(ctx).Debug("RecordInteraction called", "target", targetID, "type", kind)

	out, err := s.recorder.Record(ctx, userID, targetID, kind)
	if err != nil {
		s.log(ctx).Error("RecordInteraction failed", "target", targetID, "err", err)
		return nil, svcErr.Map(err)
	}

	if out.Recorded {
		if err := s.appCtx.RedisCache.InvalidateLikedYouCount(ctx, userID, targetID); err != nil {
			s.log(ctx).Warn("liked-you cache invalidation failed", "err", err)
		}
	}

	resp := &api.RecordInteractionResponse{Recorded: out.Recorded, Matched: out.Matched}
	if out.Chat != nil {
		resp.ChatID = out.Chat.ID
	}
	if out.Matched {
		s.log(ctx).Info("match", "user", userID, "target", targetID, "chat_id", resp.ChatID)
	}
	return resp, nil
}

// GetLikesOverview returns liked-you, matches and active chats of the caller.
func (s *Service) GetLikesOverview(ctx context.Context, _ *api.GetLikesOverviewRequest) (*api.GetLikesOverviewResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ov, err := s.aggregator.Overview(ctx, userID)
	if err != nil {
		s.log(ctx).Error("GetLikesOverview failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &api.GetLikesOverviewResponse{
		LikedYou:    make([]*api.Liker, 0, len(ov.LikedYou)),
		Matches:     make([]*api.Match, 0, len(ov.Matches)),
		ActiveChats: make([]*api.Chat, 0, len(ov.ActiveChats)),
	}
	ids := make([]string, 0, len(ov.LikedYou)+len(ov.Matches))
	for _, i := range ov.LikedYou {
		ids = append(ids, i.UserID)
	}
	for _, m := range ov.Matches {
		ids = append(ids, m.UserID)
	}
	profiles, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	for _, i := range ov.LikedYou {
		liker := api.LikerFromInteraction(i)
		liker.User = profiles[i.UserID]
		resp.LikedYou = append(resp.LikedYou, liker)
	}
	for _, m := range ov.Matches {
		match := api.MatchFromPair(m)
		match.User = profiles[m.UserID]
		resp.Matches = append(resp.Matches, match)
	}
	for i := range ov.ActiveChats {
		resp.ActiveChats = append(resp.ActiveChats, api.ChatFromModel(&ov.ActiveChats[i]))
	}
	return resp, nil
}

// ListLikedYou pages through the users still waiting for the caller's answer.
//
// Behavior:
//   - Newest first; excludes users the caller answered or rejected.
//   - Supports cursor-based pagination with PaginationToken.
//
// Example:
//
//	svc.ListLikedYou(ctx, &api.ListLikedYouRequest{Limit: 10})
func (s *Service) ListLikedYou(ctx context.Context, req *api.ListLikedYouRequest) (*api.ListLikedYouResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.log(ctx).Debug("ListLikedYou called", "token", req.PaginationToken, "limit", req.Limit)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLikerLimit
	}
	if limit > maxLikerLimit {
		limit = maxLikerLimit
	}

	likers, next, err := s.interactions.PendingLikers(ctx, userID, s.appCtx.Reciprocity.SameTypeOnly(), req.PaginationToken, limit)
	if errors.Is(err, pagination.ErrInvalidToken) {
		return nil, svcErr.InvalidArgument("invalid pagination_token")
	}
	if err != nil {
		s.log(ctx).Error("PendingLikers failed", "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(likers))
	for _, i := range likers {
		ids = append(ids, i.UserID)
	}
	profiles, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.ListLikedYouResponse{Likers: make([]*api.Liker, 0, len(likers)), NextPaginationToken: next}
	for _, i := range likers {
		liker := api.LikerFromInteraction(i)
		liker.User = profiles[i.UserID]
		resp.Likers = append(resp.Likers, liker)
	}
	return resp, nil
}

// profiles loads counterpart profiles in one query. Deleted users are absent.
func (s *Service) profiles(ctx context.Context, ids []string) (map[string]*api.UserProfile, error) {
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		s.log(ctx).Error("GetMany failed", "err", err)
		return nil, err
	}
	now := s.appCtx.Now()
	out := make(map[string]*api.UserProfile, len(users))
	for id, u := range users {
		out[id] = api.ProfileFromUser(&u, now)
	}
	return out, nil
}

// CountLikedYou returns how many users are waiting for the caller's answer.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:pending:userID).
//  2. On a miss or Redis error, falls back to DB via CountPendingLikers.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, _ *api.CountLikedYouRequest) (*api.CountLikedYouResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	n, ok, err := s.appCtx.RedisCache.GetLikedYouCount(ctx, userID)
	if err != nil {
		s.log(ctx).Warn("liked-you cache read failed", "err", err)
	}
	if ok {
		return &api.CountLikedYouResponse{Count: n}, nil
	}

	count, err := s.interactions.CountPendingLikers(ctx, userID, s.appCtx.Reciprocity.SameTypeOnly())
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.RedisCache.SetLikedYouCount(ctx, userID, count); err != nil {
		s.log(ctx).Warn("liked-you cache write failed", "err", err)
	}
	return &api.CountLikedYouResponse{Count: count}, nil
}

// SearchUsersByName finds active users whose name contains the term.
// A blank term returns an empty list without touching the store.
func (s *Service) SearchUsersByName(ctx context.Context, req *api.SearchUsersByNameRequest) (*api.SearchUsersByNameResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.SearchUsersByNameResponse{Users: []*api.UserProfile{}}
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return resp, nil
	}

	users, err := s.users.SearchByName(ctx, term, userID, searchLimit)
	if err != nil {
		s.log(ctx).Error("SearchByName failed", "term", term, "err", err)
		return nil, svcErr.Map(err)
	}
	now := s.appCtx.Now()
	for i := range users {
		resp.Users = append(resp.Users, api.ProfileFromUser(&users[i], now))
	}
	return resp, nil
}

// GetProfile returns a profile; an empty UserID means the caller.
func (s *Service) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.GetProfileResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	id := strings.TrimSpace(req.UserID)
	if id == "" {
		id = userID
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.GetProfileResponse{User: api.ProfileFromUser(u, s.appCtx.Now())}, nil
}

// UpdateProfile applies loosely-typed attributes to the caller's profile.
//
// Behavior:
//   - Attributes are converted by profile.ParseAttributes; unknown keys and
//     malformed values fail with InvalidArgument and nothing is written.
//   - The first write of a new identity creates its row; it must carry a name.
//   - Returns the stored profile after the update.
//
// Example:
//
//	svc.UpdateProfile(ctx, &api.UpdateProfileRequest{Attributes: map[string]any{
//		"connectionTypes": `["dating","study"]`,
//		"active":          "true",
//	}})
func (s *Service) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.UpdateProfileResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	upd, err := profile.ParseAttributes(req.Attributes)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.users.Update(ctx, userID, upd.Columns()); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log(ctx).Error("UpdateProfile failed", "err", err)
			return nil, svcErr.Map(err)
		}
		if err := s.createProfile(ctx, userID, upd); err != nil {
			return nil, err
		}
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UpdateProfileResponse{User: api.ProfileFromUser(u, s.appCtx.Now())}, nil
}

// createProfile inserts the caller's first profile row. A concurrent first
// write that wins the insert is followed by a plain update.
func (s *Service) createProfile(ctx context.Context, userID string, upd profile.Update) error {
	if upd.Name == nil {
		return svcErr.InvalidArgument("name is required to create a profile")
	}
	err := s.users.Create(ctx, upd.NewUser(userID))
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.users.Update(ctx, userID, upd.Columns())
	}
	if err != nil {
		s.log(ctx).Error("create profile failed", "err", err)
		return svcErr.Map(err)
	}
	s.log(ctx).Info("profile created", "user", userID)
	return nil
}
