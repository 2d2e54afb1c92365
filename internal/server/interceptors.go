package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	svcErr "github.com/unimeet/match-core/internal/errors"
	"github.com/unimeet/match-core/internal/logger"
	"github.com/unimeet/match-core/internal/session"
)

const requestIDHeader = "x-request-id"

// TokenVerifier turns an authorization header value into a session.
type TokenVerifier interface {
	Verify(raw string) (*session.Session, error)
}

// publicPrefixes are served without a session.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

func isPublic(fullMethod string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

// authenticate attaches the caller session to ctx from "authorization" metadata.
func authenticate(ctx context.Context, fullMethod string, verifier TokenVerifier) (context.Context, error) {
	if isPublic(fullMethod) {
		return ctx, nil
	}
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ctx, svcErr.Map(session.ErrNoSession)
	}
	s, err := verifier.Verify(vals[0])
	if err != nil {
		return ctx, svcErr.Map(err)
	}
	return session.NewContext(ctx, s), nil
}

// requestContext tags ctx with a request id (taken from the caller or
// generated) and a logger carrying it.
func requestContext(ctx context.Context, base *slog.Logger, fullMethod string) (context.Context, *slog.Logger) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(requestIDHeader); len(vals) > 0 {
			id = vals[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id))

	l := base.With("request_id", id, "method", fullMethod)
	return logger.NewContext(ctx, l), l
}

func logCall(ctx context.Context, l *slog.Logger, start time.Time, err error) {
	code := status.Code(err)
	attrs := []any{"code", code.String(), "duration", time.Since(start)}
	if s, ok := session.FromContext(ctx); ok {
		attrs = append(attrs, "user_id", s.UserID)
	}

	switch code {
	case codes.OK, codes.Canceled:
		l.Info("grpc call", attrs...)
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		l.Error("grpc call", append(attrs, "err", err)...)
	default:
		l.Warn("grpc call", append(attrs, "err", err)...)
	}
}

// UnaryInterceptor authenticates and logs every unary call.
func UnaryInterceptor(log *slog.Logger, verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, l := requestContext(ctx, log, info.FullMethod)

		ctx, err := authenticate(ctx, info.FullMethod, verifier)
		var resp any
		if err == nil {
			resp, err = handler(ctx, req)
		}
		logCall(ctx, l, start, err)
		return resp, err
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }

// StreamInterceptor is UnaryInterceptor for streaming calls.
func StreamInterceptor(log *slog.Logger, verifier TokenVerifier) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, l := requestContext(ss.Context(), log, info.FullMethod)

		ctx, err := authenticate(ctx, info.FullMethod, verifier)
		if err == nil {
			err = handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
		}
		logCall(ctx, l, start, err)
		return err
	}
}
