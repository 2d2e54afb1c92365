package server_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/unimeet/match-core/internal/api"
	"github.com/unimeet/match-core/internal/app"
	"github.com/unimeet/match-core/internal/cache"
	"github.com/unimeet/match-core/internal/config"
	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/logger"
	"github.com/unimeet/match-core/internal/server"
	"github.com/unimeet/match-core/internal/service/chat"
	"github.com/unimeet/match-core/internal/service/matching"
	"github.com/unimeet/match-core/internal/session"
)

const secret = "test-secret"

type stack struct {
	conn     *grpc.ClientConn
	sessions *session.Manager
	appCtx   *app.AppContext
}

// setupStack runs the full gRPC stack over bufconn with users 1, 2 and 3.
func setupStack(t *testing.T) stack {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{NowFunc: db.Now, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, gdb.Create(&[]db.User{{ID: "1", Name: "Avi"}, {ID: "2", Name: "Noa"}, {ID: "3", Name: "Dana"}}).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Auth.JWTSecret = secret
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	appCtx, err := app.New(cfg, gdb, rc, logger.Discard())
	require.NoError(t, err)

	sessions := session.NewManager(cfg.Auth.JWTSecret)
	srv := server.NewGRPCServer(appCtx.Logger, sessions, matching.NewRegistrar(appCtx), chat.NewRegistrar(appCtx))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return stack{conn: conn, sessions: sessions, appCtx: appCtx}
}

func (s stack) as(t *testing.T, userID string) context.Context {
	t.Helper()
	tok, err := s.sessions.Issue(userID, time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func TestGRPC_RejectsMissingOrBadToken(t *testing.T) {
	s := setupStack(t)
	client := api.NewMatchingServiceClient(s.conn)

	_, err := client.CountLikedYou(context.Background(), &api.CountLikedYouRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	forged, err := session.NewManager("other").Issue("1", time.Hour)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+forged)
	_, err = client.CountLikedYou(ctx, &api.CountLikedYouRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPC_HealthIsPublic(t *testing.T) {
	s := setupStack(t)

	resp, err := healthpb.NewHealthClient(s.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: api.ChatServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestGRPC_RequestIDHeader(t *testing.T) {
	s := setupStack(t)

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(s.as(t, "1"), "x-request-id", "req-42")
	_, err := api.NewMatchingServiceClient(s.conn).CountLikedYou(ctx, &api.CountLikedYouRequest{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get("x-request-id"))
}

// TestGRPC_MatchThenChat walks the whole flow: mutual like, chat, message,
// realtime delivery.
func TestGRPC_MatchThenChat(t *testing.T) {
	s := setupStack(t)
	matches := api.NewMatchingServiceClient(s.conn)
	chats := api.NewChatServiceClient(s.conn)
	as1, as2 := s.as(t, "1"), s.as(t, "2")

	first, err := matches.RecordInteraction(as2, &api.RecordInteractionRequest{TargetID: "1", Type: "like"})
	require.NoError(t, err)
	assert.False(t, first.Matched)

	count, err := matches.CountLikedYou(as1, &api.CountLikedYouRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	rec, err := matches.RecordInteraction(as1, &api.RecordInteractionRequest{TargetID: "2", Type: "like"})
	require.NoError(t, err)
	require.True(t, rec.Matched)
	require.NotEmpty(t, rec.ChatID)

	opened, err := chats.FindOrCreateChat(as2, &api.FindOrCreateChatRequest{User2ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, rec.ChatID, opened.Chat.ID)
	assert.False(t, opened.Created)
	assert.Equal(t, "", opened.Chat.LastMessage)

	hello, err := chats.SendMessage(as1, &api.SendMessageRequest{ChatID: rec.ChatID, Content: "שלום"})
	require.NoError(t, err)
	assert.Equal(t, "שלום", hello.Chat.LastMessage)
	assert.True(t, hello.Chat.User1Read || hello.Chat.User2Read)

	ctx, cancel := context.WithCancel(as2)
	defer cancel()
	stream, err := chats.SubscribeMessages(ctx, &api.SubscribeMessagesRequest{ChatID: rec.ChatID, ResumeToken: hello.Message.Cursor})
	require.NoError(t, err)

	reply, err := chats.SendMessage(as2, &api.SendMessageRequest{ChatID: rec.ChatID, Content: "hi!"})
	require.NoError(t, err)

	got, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, reply.Message.ID, got.ID)
	assert.Equal(t, "hi!", got.Content)
	assert.NotEmpty(t, got.Cursor)

	overview, err := matches.GetLikesOverview(as1, &api.GetLikesOverviewRequest{})
	require.NoError(t, err)
	require.Len(t, overview.Matches, 1)
	assert.Equal(t, rec.ChatID, overview.Matches[0].ChatID)
	require.Len(t, overview.ActiveChats, 1)
	assert.Equal(t, "hi!", overview.ActiveChats[0].LastMessage)
}

func TestGRPC_SubscribeRequiresParticipant(t *testing.T) {
	s := setupStack(t)
	chats := api.NewChatServiceClient(s.conn)

	opened, err := chats.FindOrCreateChat(s.as(t, "1"), &api.FindOrCreateChatRequest{User2ID: "2"})
	require.NoError(t, err)

	stream, err := chats.SubscribeMessages(s.as(t, "3"), &api.SubscribeMessagesRequest{ChatID: opened.Chat.ID})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestHTTP_Probes(t *testing.T) {
	s := setupStack(t)

	probes := server.NewHTTPServer(server.ReadinessChecks(s.appCtx))

	resp, err := probes.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = probes.Test(httptest.NewRequest("GET", "/readyz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHTTP_ReadyzReportsFailures(t *testing.T) {
	probes := server.NewHTTPServer(map[string]server.Check{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	resp, err := probes.Test(httptest.NewRequest("GET", "/readyz", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "connection refused")
	assert.Contains(t, string(body), `"redis"`)
}
