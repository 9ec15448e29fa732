package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/courtsidehq/booking-server/internal/entity"
)

// SessionCache keeps session reads off the database for the listing and
// detail endpoints. Writes invalidate, never update in place.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id int64) string {
	return fmt.Sprintf("session:%d", id)
}

func (c *SessionCache) Set(ctx context.Context, session *entity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, sessionKey(session.ID), data, c.ttl).Err()
}

func (c *SessionCache) Get(ctx context.Context, id int64) (*entity.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (c *SessionCache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}
