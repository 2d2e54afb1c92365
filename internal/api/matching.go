package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const MatchingServiceName = "unimeet.matching.v1.MatchingService"

const (
	MatchingService_FindCandidates_FullMethodName    = "/" + MatchingServiceName + "/FindCandidates"
	MatchingService_RecordInteraction_FullMethodName = "/" + MatchingServiceName + "/RecordInteraction"
	MatchingService_GetLikesOverview_FullMethodName  = "/" + MatchingServiceName + "/GetLikesOverview"
	MatchingService_ListLikedYou_FullMethodName      = "/" + MatchingServiceName + "/ListLikedYou"
	MatchingService_CountLikedYou_FullMethodName     = "/" + MatchingServiceName + "/CountLikedYou"
	MatchingService_SearchUsersByName_FullMethodName = "/" + MatchingServiceName + "/SearchUsersByName"
	MatchingService_GetProfile_FullMethodName        = "/" + MatchingServiceName + "/GetProfile"
	MatchingService_UpdateProfile_FullMethodName     = "/" + MatchingServiceName + "/UpdateProfile"
)

// --- messages ---

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type UserProfile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BirthDate       string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	Age             *int      `json:"age,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	ConnectionTypes []string  `json:"connection_types"`
	PreferredMatch  []string  `json:"preferred_match"`
	Location        *Location `json:"location,omitempty"`
	Image           string    `json:"image,omitempty"`
	Active          bool      `json:"active"`
}

type FindCandidatesRequest struct {
	MinAge         *int     `json:"min_age,omitempty"`
	MaxAge         *int     `json:"max_age,omitempty"`
	MaxDistanceKm  *float64 `json:"max_distance_km,omitempty"`
	ExcludeDecided bool     `json:"exclude_decided,omitempty"`
	Limit          int      `json:"limit,omitempty"`
}

type Candidate struct {
	User                  *UserProfile `json:"user"`
	SharedConnectionTypes []string     `json:"shared_connection_types"`
	SharedCount           int          `json:"shared_count"`
	DistanceKm            *float64     `json:"distance_km,omitempty"`
}

type FindCandidatesResponse struct {
	Candidates []*Candidate `json:"candidates"`
}

type RecordInteractionRequest struct {
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
}

type RecordInteractionResponse struct {
	Recorded bool   `json:"recorded"`
	Matched  bool   `json:"matched"`
	ChatID   string `json:"chat_id,omitempty"`
}

type Liker struct {
	UserID        string       `json:"user_id"`
	Type          string       `json:"type"`
	UnixTimestamp int64        `json:"unix_timestamp"` // ms
	User          *UserProfile `json:"user,omitempty"`
}

type Match struct {
	UserID        string       `json:"user_id"`
	ChatID        string       `json:"chat_id,omitempty"`
	UnixTimestamp int64        `json:"unix_timestamp"` // ms
	User          *UserProfile `json:"user,omitempty"`
}

type GetLikesOverviewRequest struct{}

type GetLikesOverviewResponse struct {
	LikedYou    []*Liker `json:"liked_you"`
	Matches     []*Match `json:"matches"`
	ActiveChats []*Chat  `json:"active_chats"`
}

type ListLikedYouRequest struct {
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit,omitempty"`
}

type ListLikedYouResponse struct {
	Likers              []*Liker `json:"likers"`
	NextPaginationToken *string  `json:"next_pagination_token,omitempty"`
}

type CountLikedYouRequest struct{}

type CountLikedYouResponse struct {
	Count int64 `json:"count"`
}

type SearchUsersByNameRequest struct {
	Term string `json:"term"`
}

type SearchUsersByNameResponse struct {
	Users []*UserProfile `json:"users"`
}

type GetProfileRequest struct {
	// UserID defaults to the caller.
	UserID string `json:"user_id,omitempty"`
}

type GetProfileResponse struct {
	User *UserProfile `json:"user"`
}

// UpdateProfileRequest carries loosely-typed attributes; see profile.ParseAttributes.
type UpdateProfileRequest struct {
	Attributes map[string]any `json:"attributes"`
}

type UpdateProfileResponse struct {
	User *UserProfile `json:"user"`
}

// --- server ---

// MatchingServiceServer is the server API for MatchingService.
type MatchingServiceServer interface {
	FindCandidates(context.Context, *FindCandidatesRequest) (*FindCandidatesResponse, error)
	RecordInteraction(context.Context, *RecordInteractionRequest) (*RecordInteractionResponse, error)
	GetLikesOverview(context.Context, *GetLikesOverviewRequest) (*GetLikesOverviewResponse, error)
	ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	CountLikedYou(context.Context, *CountLikedYouRequest) (*CountLikedYouResponse, error)
	SearchUsersByName(context.Context, *SearchUsersByNameRequest) (*SearchUsersByNameResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*GetProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error)
}

// UnimplementedMatchingServiceServer can be embedded for forward compatibility.
type UnimplementedMatchingServiceServer struct{}

func (UnimplementedMatchingServiceServer) FindCandidates(context.Context, *FindCandidatesRequest) (*FindCandidatesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FindCandidates not implemented")
}
func (UnimplementedMatchingServiceServer) RecordInteraction(context.Context, *RecordInteractionRequest) (*RecordInteractionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordInteraction not implemented")
}
func (UnimplementedMatchingServiceServer) GetLikesOverview(context.Context, *GetLikesOverviewRequest) (*GetLikesOverviewResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLikesOverview not implemented")
}
func (UnimplementedMatchingServiceServer) ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListLikedYou not implemented")
}
func (UnimplementedMatchingServiceServer) CountLikedYou(context.Context, *CountLikedYouRequest) (*CountLikedYouResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CountLikedYou not implemented")
}
func (UnimplementedMatchingServiceServer) SearchUsersByName(context.Context, *SearchUsersByNameRequest) (*SearchUsersByNameResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchUsersByName not implemented")
}
func (UnimplementedMatchingServiceServer) GetProfile(context.Context, *GetProfileRequest) (*GetProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedMatchingServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}

func matchingServer(srv any) MatchingServiceServer { return srv.(MatchingServiceServer) }

// MatchingService_ServiceDesc is the grpc.ServiceDesc for MatchingService.
var MatchingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchingServiceName,
	HandlerType: (*MatchingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MatchingServiceName, "FindCandidates", func(srv any, ctx context.Context, in *FindCandidatesRequest) (*FindCandidatesResponse, error) {
			return matchingServer(srv).FindCandidates(ctx, in)
		}),
		unary(MatchingServiceName, "RecordInteraction", func(srv any, ctx context.Context, in *RecordInteractionRequest) (*RecordInteractionResponse, error) {
			return matchingServer(srv).RecordInteraction(ctx, in)
		}),
		unary(MatchingServiceName, "GetLikesOverview", func(srv any, ctx context.Context, in *GetLikesOverviewRequest) (*GetLikesOverviewResponse, error) {
			return matchingServer(srv).GetLikesOverview(ctx, in)
		}),
		unary(MatchingServiceName, "ListLikedYou", func(srv any, ctx context.Context, in *ListLikedYouRequest) (*ListLikedYouResponse, error) {
			return matchingServer(srv).ListLikedYou(ctx, in)
		}),
		unary(MatchingServiceName, "CountLikedYou", func(srv any, ctx context.Context, in *CountLikedYouRequest) (*CountLikedYouResponse, error) {
			return matchingServer(srv).CountLikedYou(ctx, in)
		}),
		unary(MatchingServiceName, "SearchUsersByName", func(srv any, ctx context.Context, in *SearchUsersByNameRequest) (*SearchUsersByNameResponse, error) {
			return matchingServer(srv).SearchUsersByName(ctx, in)
		}),
		unary(MatchingServiceName, "GetProfile", func(srv any, ctx context.Context, in *GetProfileRequest) (*GetProfileResponse, error) {
			return matchingServer(srv).GetProfile(ctx, in)
		}),
		unary(MatchingServiceName, "UpdateProfile", func(srv any, ctx context.Context, in *UpdateProfileRequest) (*UpdateProfileResponse, error) {
			return matchingServer(srv).UpdateProfile(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "unimeet/matching/v1/matching.json",
}

func RegisterMatchingServiceServer(s grpc.ServiceRegistrar, srv MatchingServiceServer) {
	s.RegisterService(&MatchingService_ServiceDesc, srv)
}

// --- client ---

// MatchingServiceClient calls MatchingService with the JSON codec.
type MatchingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchingServiceClient(cc grpc.ClientConnInterface) *MatchingServiceClient {
	return &MatchingServiceClient{cc: cc}
}

func (c *MatchingServiceClient) FindCandidates(ctx context.Context, in *FindCandidatesRequest, opts ...grpc.CallOption) (*FindCandidatesResponse, error) {
	return invoke[FindCandidatesResponse](ctx, c.cc, MatchingService_FindCandidates_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) RecordInteraction(ctx context.Context, in *RecordInteractionRequest, opts ...grpc.CallOption) (*RecordInteractionResponse, error) {
	return invoke[RecordInteractionResponse](ctx, c.cc, MatchingService_RecordInteraction_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) GetLikesOverview(ctx context.Context, in *GetLikesOverviewRequest, opts ...grpc.CallOption) (*GetLikesOverviewResponse, error) {
	return invoke[GetLikesOverviewResponse](ctx, c.cc, MatchingService_GetLikesOverview_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) ListLikedYou(ctx context.Context, in *ListLikedYouRequest, opts ...grpc.CallOption) (*ListLikedYouResponse, error) {
	return invoke[ListLikedYouResponse](ctx, c.cc, MatchingService_ListLikedYou_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) CountLikedYou(ctx context.Context, in *CountLikedYouRequest, opts ...grpc.CallOption) (*CountLikedYouResponse, error) {
	return invoke[CountLikedYouResponse](ctx, c.cc, MatchingService_CountLikedYou_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) SearchUsersByName(ctx context.Context, in *SearchUsersByNameRequest, opts ...grpc.CallOption) (*SearchUsersByNameResponse, error) {
	return invoke[SearchUsersByNameResponse](ctx, c.cc, MatchingService_SearchUsersByName_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*GetProfileResponse, error) {
	return invoke[GetProfileResponse](ctx, c.cc, MatchingService_GetProfile_FullMethodName, in, opts)
}

func (c *MatchingServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*UpdateProfileResponse, error) {
	return invoke[UpdateProfileResponse](ctx, c.cc, MatchingService_UpdateProfile_FullMethodName, in, opts)
}
