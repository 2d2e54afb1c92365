package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unimeet/match-core/internal/config"
)

// LikedYouTTL bounds how long a cached liked-you count may be served.
const LikedYouTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForLikedYouCount generates the Redis key for a user's pending-likes count.
func KeyForLikedYouCount(userID string) string {
	return fmt.Sprintf("likes:pending:%s", userID)
}

// GetLikedYouCount returns the cached count. ok is false on a cache miss or
// an unparsable value; a hit refreshes the TTL since the user is active.
func (c *RedisCache) GetLikedYouCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := KeyForLikedYouCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	_ = c.Client.Expire(ctx, key, LikedYouTTL).Err()
	return n, true, nil
}

// SetLikedYouCount stores the count with a fresh TTL.
func (c *RedisCache) SetLikedYouCount(ctx context.Context, userID string, count int64) error {
	return c.Client.Set(ctx, KeyForLikedYouCount(userID), count, LikedYouTTL).Err()
}

// InvalidateLikedYouCount drops the cached counts of the given users. Any
// interaction can change who is pending for both sides, so callers pass both.
func (c *RedisCache) InvalidateLikedYouCount(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, KeyForLikedYouCount(id))
	}
	return c.Client.Del(ctx, keys...).Err()
}

// ChannelForChat is the pub/sub channel carrying new-message signals of a chat.
func ChannelForChat(chatID string) string {
	return fmt.Sprintf("chat:%s:messages", chatID)
}

// PublishChatMessage announces a new message id on the chat channel.
func (c *RedisCache) PublishChatMessage(ctx context.Context, chatID, messageID string) error {
	return c.Client.Publish(ctx, ChannelForChat(chatID), messageID).Err()
}

// SubscribeChat subscribes to the chat channel and waits for the
// subscription to be confirmed. The caller closes the returned PubSub.
func (c *RedisCache) SubscribeChat(ctx context.Context, chatID string) (*redis.PubSub, error) {
	ps := c.Client.Subscribe(ctx, ChannelForChat(chatID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}
