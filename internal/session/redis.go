package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"classhub/internal/models"
)

const redisKeyPrefix = "classhub:session:"

// RedisStore keeps sessions in redis with a native TTL, so sessions
// survive hub restarts. Selected with auth.store = "redis".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects a session registry to redis. The connection is
// verified so a bad address fails at startup rather than at first login.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Create(ctx context.Context, username string) (models.Session, error) {
	sess := models.Session{
		Token:     newToken(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return models.Session{}, err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.Token, payload, s.ttl).Err(); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) Validate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	// Redis expires the key on its own; the age check only matters if
	// the TTL was shortened after the session was created.
	if expired(sess.CreatedAt, s.ttl, time.Now()) {
		_ = s.client.Del(ctx, redisKeyPrefix+token).Err()
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisKeyPrefix+token).Err()
}

// Sweep is a no-op: redis removes expired keys natively.
func (s *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
