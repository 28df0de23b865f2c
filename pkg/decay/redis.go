package decay

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces decay records in a shared Redis database.
const DefaultKeyPrefix = "latencyscaler:decay"

// RedisStore keeps the record of one resource under a single string key.
// A missing key is treated as an empty record.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store for resource using prefix as key namespace.
func NewRedisStore(client redis.UniversalClient, prefix, resource string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    RedisKey(prefix, resource),
	}
}

// RedisKey builds the key holding the decay record of resource.
func RedisKey(prefix, resource string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s:%s", prefix, resource)
}

// Key returns the Redis key of the record.
func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) Get(ctx context.Context) (State, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("%w: redis get %s: %w", ErrStorageRead, s.key, err)
	}
	return Decode(data)
}

func (s *RedisStore) Update(ctx context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %w", ErrStorageWrite, s.key, err)
	}
	return nil
}
