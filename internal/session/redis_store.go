package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const stateKey = "console:session"

// RedisStore persists session state in a redis hash so the console
// survives restarts without forcing a re-login.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a redis-backed state store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Save writes the full state, replacing whatever was stored.
func (s *RedisStore) Save(ctx context.Context, state State) error {
	return s.rdb.HSet(ctx, stateKey,
		"token", state.Token,
		"username", state.Username,
		"caller_id", state.CallerID,
	).Err()
}

// Load reads the persisted state. A missing key yields a zero State.
func (s *RedisStore) Load(ctx context.Context) (State, error) {
	values, err := s.rdb.HGetAll(ctx, stateKey).Result()
	if err != nil {
		return State{}, err
	}
	return State{
		Token:    values["token"],
		Username: values["username"],
		CallerID: values["caller_id"],
	}, nil
}

// Clear removes the persisted state.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, stateKey).Err()
}

// Compile-time check that RedisStore implements StateStore.
var _ StateStore = (*RedisStore)(nil)
