package api_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/unimeet/match-core/internal/api"
	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(api.CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestCodec_StructsUseJSONTags(t *testing.T) {
	c := api.Codec{}
	b, err := c.Marshal(&api.RecordInteractionRequest{TargetID: "2", Type: "like"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target_id":"2","type":"like"}`, string(b))

	var out api.RecordInteractionResponse
	require.NoError(t, c.Unmarshal([]byte(`{"recorded":true,"matched":true,"chat_id":"c1"}`), &out))
	assert.Equal(t, api.RecordInteractionResponse{Recorded: true, Matched: true, ChatID: "c1"}, out)
}

func TestCodec_ProtoMessagesUseProtoJSON(t *testing.T) {
	c := api.Codec{}
	b, err := c.Marshal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"SERVING"}`, string(b))

	var out healthpb.HealthCheckResponse
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, out.GetStatus())
}

func TestConvert(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	birth := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	lat, lng := 32.1, 34.8

	p := api.ProfileFromUser(&db.User{ID: "1", Name: "Dana", BirthDate: &birth, Latitude: &lat, Longitude: &lng}, now)
	assert.Equal(t, "2000-01-02", p.BirthDate)
	require.NotNil(t, p.Age)
	assert.Equal(t, 26, *p.Age)
	assert.Equal(t, &api.Location{Lat: lat, Lng: lng}, p.Location)
	assert.NotNil(t, p.ConnectionTypes)

	chat := api.ChatFromModel(&db.Chat{ID: "c", User1ID: "1", User2ID: "2", User1Read: true, User2Read: true})
	assert.Zero(t, chat.UpdatedAt)
	assert.Equal(t, "", chat.LastMessage)

	m := api.MessageFromModel(&db.Message{ID: "m", ChatID: "c", CreatedAt: now})
	cur, err := pagination.Decode(m.Cursor)
	require.NoError(t, err)
	assert.Equal(t, pagination.At("m", now), cur)
}
