// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Domain sentinels. Wrap them with fmt.Errorf("...: %w", ErrX) to add detail;
// Map keeps the wrapped message for InvalidArgument and PermissionDenied.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSelfInteraction = errors.New("cannot interact with yourself")
	ErrNotParticipant  = errors.New("user is not a participant of this chat")
	ErrUnauthenticated = errors.New("missing or invalid session")
	ErrNotFound        = errors.New("record not found")
)

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrSelfInteraction):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())

	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicateKey(err):
		return status.Error(codes.AlreadyExists, "record already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// isDuplicateKey catches unique violations from drivers opened without
// TranslateError.
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
