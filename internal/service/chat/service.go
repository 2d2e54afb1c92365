package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"

	"github.com/unimeet/match-core/internal/api"
	"github.com/unimeet/match-core/internal/app"
	"github.com/unimeet/match-core/internal/db"
	svcErr "github.com/unimeet/match-core/internal/errors"
	"github.com/unimeet/match-core/internal/logger"
	"github.com/unimeet/match-core/internal/realtime"
	"github.com/unimeet/match-core/internal/repository"
	"github.com/unimeet/match-core/internal/session"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service implements the ChatService gRPC API: chat provisioning,
// messaging and the realtime message stream.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	stream   *realtime.Stream

	api.UnimplementedChatServiceServer
}

// NewChatService creates a new Chat service with dependencies from AppContext.
func NewChatService(appCtx *app.AppContext) *Service {
	messages := repository.NewMessageRepository(appCtx.DB)

	var bus realtime.Signaler
	if appCtx.RedisCache != nil {
		bus = appCtx.RedisCache
	}
	interval := realtime.DefaultPollInterval
	if appCtx.Config != nil {
		interval = appCtx.Config.Realtime.PollInterval
	}

	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		chats:    repository.NewChatRepository(appCtx.DB),
		messages: messages,
		stream:   realtime.NewStream(messages, bus, interval, appCtx.Logger),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// participantChat loads a chat the caller belongs to.
func (s *Service) participantChat(ctx context.Context, chatID, userID string) (*db.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("%w: chat_id is required", svcErr.ErrInvalidArgument)
	}
	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, svcErr.ErrNotParticipant
	}
	return chat, nil
}

// FindOrCreateChat returns the single chat of a user pair, creating it on
// first use.
//
// Behavior:
//   - User1ID defaults to the caller; the caller must be one of the pair.
//   - Symmetric: (A,B) and (B,A) return the same chat.
//   - Idempotent: concurrent calls converge on one row via the pair_key
//     unique index.
//
// Example:
//
//	svc.FindOrCreateChat(ctx, &api.FindOrCreateChatRequest{User2ID: "2"})
func (s *Service) FindOrCreateChat(ctx context.Context, req *api.FindOrCreateChatRequest) (*api.FindOrCreateChatResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	a, b := strings.TrimSpace(req.User1ID), strings.TrimSpace(req.User2ID)
	if a == "" {
		a = userID
	}
	switch {
	case b == "":
		return nil, svcErr.InvalidArgument("user2_id is required")
	case a == b:
		return nil, svcErr.Map(svcErr.ErrSelfInteraction)
	case userID != a && userID != b:
		return nil, svcErr.Map(svcErr.ErrNotParticipant)
	}

	other := a
	if other == userID {
		other = b
	}
	exists, err := s.users.Exists(ctx, other)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.Map(svcErr.ErrNotFound)
	}

	chat, created, err := s.chats.FindOrCreate(ctx, a, b)
	if err != nil {
		s.log(ctx).Error("FindOrCreateChat failed", "a", a, "b", b, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.FindOrCreateChatResponse{Chat: api.ChatFromModel(chat), Created: created}, nil
}

// SendMessage stores a message from the caller and updates the chat summary.
//
// Behavior:
//   - Caller must be a participant; content must be non-empty after trim.
//   - Message insert and chat update (last_message, updated_at, read flags)
//     commit together.
//   - The realtime signal is best effort; a failed publish is logged and
//     subscribers pick the message up on their next poll.
//
// Example:
//
//	svc.SendMessage(ctx, &api.SendMessageRequest{ChatID: "1", Content: "שלום"})
func (s *Service) SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.SendMessageResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, svcErr.InvalidArgument("content must not be empty")
	}
	kind := db.MessageType(strings.ToLower(strings.TrimSpace(req.MessageType)))
	if kind == "" {
		kind = db.MessageText
	}
	if !kind.IsValid() {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("unknown message_type %q", req.MessageType))
	}

	chat, err := s.participantChat(ctx, req.ChatID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	msg, err := s.messages.Send(ctx, chat, userID, content, kind)
	if err != nil {
		s.log(ctx).Error("SendMessage failed", "chat_id", chat.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	if s.appCtx.RedisCache != nil {
		if err := s.appCtx.RedisCache.PublishChatMessage(ctx, chat.ID, msg.ID); err != nil {
			s.log(ctx).Warn("realtime publish failed", "chat_id", chat.ID, "message_id", msg.ID, "err", err)
		}
	}

	return &api.SendMessageResponse{Message: api.MessageFromModel(msg), Chat: api.ChatFromModel(chat)}, nil
}

// MarkChatRead sets the caller's read flag on the chat.
func (s *Service) MarkChatRead(ctx context.Context, req *api.MarkChatReadRequest) (*api.MarkChatReadResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	chat, err := s.participantChat(ctx, req.ChatID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.chats.MarkRead(ctx, chat, userID); err != nil {
		return nil, svcErr.Map(err)
	}
	if chat.User1ID == userID {
		chat.User1Read = true
	} else {
		chat.User2Read = true
	}
	return &api.MarkChatReadResponse{Chat: api.ChatFromModel(chat)}, nil
}

// ListMessages returns chat history in send order, after PaginationToken.
//
// Example:
//
//	page, _ := svc.ListMessages(ctx, &api.ListMessagesRequest{ChatID: id, Limit: 20})
//	next, _ := svc.ListMessages(ctx, &api.ListMessagesRequest{ChatID: id, PaginationToken: page.NextPaginationToken})
func (s *Service) ListMessages(ctx context.Context, req *api.ListMessagesRequest) (*api.ListMessagesResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	chat, err := s.participantChat(ctx, req.ChatID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	cursor, err := pagination.Decode(req.PaginationToken)
	if err != nil {
		return nil, svcErr.InvalidArgument("invalid pagination_token")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	msgs, err := s.messages.ListAfter(ctx, chat.ID, cursor, limit+1)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.ListMessagesResponse{}
	if len(msgs) > limit {
		msgs = msgs[:limit]
		last := msgs[limit-1]
		resp.NextPaginationToken = pagination.MustEncode(pagination.At(last.ID, last.CreatedAt))
	}
	resp.Messages = make([]*api.Message, 0, len(msgs))
	for i := range msgs {
		resp.Messages = append(resp.Messages, api.MessageFromModel(&msgs[i]))
	}
	return resp, nil
}

// ListChats returns the caller's chats, most recent activity first.
func (s *Service) ListChats(ctx context.Context, req *api.ListChatsRequest) (*api.ListChatsResponse, error) {
	userID, err := session.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	chats, err := s.chats.ListForUser(ctx, userID, req.ActiveOnly)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.ListChatsResponse{Chats: make([]*api.Chat, 0, len(chats))}
	for i := range chats {
		resp.Chats = append(resp.Chats, api.ChatFromModel(&chats[i]))
	}
	return resp, nil
}

// SubscribeMessages streams new messages of a chat until the client leaves.
//
// Behavior:
//   - Without ResumeToken only messages sent after the call are streamed.
//   - With ResumeToken (a Message.Cursor) delivery restarts right after that
//     message, so reconnecting clients miss nothing.
//   - Each streamed message carries its own Cursor for the next resume.
func (s *Service) SubscribeMessages(req *api.SubscribeMessagesRequest, stream grpc.ServerStreamingServer[api.Message]) error {
	ctx := stream.Context()
	userID, err := session.UserID(ctx)
	if err != nil {
		return svcErr.Map(err)
	}
	chat, err := s.participantChat(ctx, req.ChatID, userID)
	if err != nil {
		return svcErr.Map(err)
	}

	var from pagination.Cursor
	if req.ResumeToken != "" {
		if from, err = pagination.Decode(req.ResumeToken); err != nil {
			return svcErr.InvalidArgument("invalid resume_token")
		}
	} else if from, err = s.messages.Latest(ctx, chat.ID); err != nil {
		return svcErr.Map(err)
	}

	s.log(ctx).Debug("SubscribeMessages started", "chat_id", chat.ID)
	for ev := range s.stream.Subscribe(ctx, chat.ID, from) {
		msg := api.MessageFromModel(&ev.Message)
		msg.Cursor = ev.Cursor
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
	s.log(ctx).Debug("SubscribeMessages ended", "chat_id", chat.ID)

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return svcErr.Map(err)
	}
	return nil
}
