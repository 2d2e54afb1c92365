package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/unimeet/match-core/internal/errors"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", gorm.ErrRecordNotFound, codes.NotFound},
		{"wrapped not found", fmt.Errorf("load requester: %w", gorm.ErrRecordNotFound), codes.NotFound},
		{"invalid", fmt.Errorf("%w: bad type", svcErr.ErrInvalidArgument), codes.InvalidArgument},
		{"self", svcErr.ErrSelfInteraction, codes.InvalidArgument},
		{"participant", svcErr.ErrNotParticipant, codes.PermissionDenied},
		{"unauthenticated", svcErr.ErrUnauthenticated, codes.Unauthenticated},
		{"duplicate", gorm.ErrDuplicatedKey, codes.AlreadyExists},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: chats.pair_key"), codes.AlreadyExists},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(svcErr.Map(tc.err)))
		})
	}
}

func TestMap_PassesThroughStatus(t *testing.T) {
	in := svcErr.InvalidArgument("nope")
	assert.Equal(t, in, svcErr.Map(in))
	assert.Nil(t, svcErr.Map(nil))
}
