package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "presence:"
	onlineSetKey      = "online_users"
)

// RedisStore keeps presence records in Redis so multiple instances can share
// one view: the record as JSON under presence:<userId>, plus an online_users
// set for sweep enumeration. Within one instance the Tracker still serializes
// writers per user; cross-instance callers are expected to route a given
// user's traffic to one instance (sticky sessions), as the surrounding
// gateway does.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load fetches and decodes the record for userID, or (nil, nil) when absent.
func (s *RedisStore) Load(ctx context.Context, userID string) (*Record, error) {
	data, err := s.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load presence: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode presence record: %w", err)
	}
	return &rec, nil
}

// Save upserts the record and maintains the online set in one pipeline so a
// record and its set membership cannot drift apart.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode presence record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+rec.UserID, data, 0)
	if rec.Online {
		pipe.SAdd(ctx, onlineSetKey, rec.UserID)
	} else {
		pipe.SRem(ctx, onlineSetKey, rec.UserID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save presence: %w", err)
	}
	return nil
}

// OnlineIDs lists the members of the online set.
func (s *RedisStore) OnlineIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list online users: %w", err)
	}
	return ids, nil
}
