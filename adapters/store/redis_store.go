package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/ports"
	"github.com/redis/go-redis/v9"
)

const (
	challengePrefix = "certlayer:challenge:"
	sessionPrefix   = "certlayer:session:"
)

// RedisChallengeStore is a Redis-backed ChallengeStore. Entries carry a
// native TTL matching the challenge expiry, so Redis drops stale entries
// on its own; the service still checks expiry before trusting a hit.
type RedisChallengeStore struct {
	client *redis.Client
	clock  ports.Clock
}

// NewRedisChallengeStore creates a Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client, clock ports.Clock) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, clock: clock}
}

func (s *RedisChallengeStore) Put(ctx context.Context, challenge core.Challenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}

	ttl := challenge.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, challengePrefix+challenge.Wallet, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return nil
}

func (s *RedisChallengeStore) Get(ctx context.Context, wallet string) (core.Challenge, bool, error) {
	payload, err := s.client.Get(ctx, challengePrefix+wallet).Bytes()
	if err == redis.Nil {
		return core.Challenge{}, false, nil
	}
	if err != nil {
		return core.Challenge{}, false, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}

	var challenge core.Challenge
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return core.Challenge{}, false, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return challenge, true, nil
}

// Consume relies on DEL's atomicity: the returned count tells exactly one
// of several concurrent callers that it removed the entry.
func (s *RedisChallengeStore) Consume(ctx context.Context, wallet string) (bool, error) {
	removed, err := s.client.Del(ctx, challengePrefix+wallet).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return removed > 0, nil
}

// RedisSessionStore is a Redis-backed SessionStore.
type RedisSessionStore struct {
	client *redis.Client
	clock  ports.Clock
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, clock ports.Clock) *RedisSessionStore {
	return &RedisSessionStore{client: client, clock: clock}
}

func (s *RedisSessionStore) Put(ctx context.Context, session core.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, sessionPrefix+session.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (core.Session, bool, error) {
	payload, err := s.client.Get(ctx, sessionPrefix+token).Bytes()
	if err == redis.Nil {
		return core.Session{}, false, nil
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}

	var session core.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return core.Session{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return nil
}

var (
	_ ports.ChallengeStore = (*RedisChallengeStore)(nil)
	_ ports.SessionStore   = (*RedisSessionStore)(nil)
)
