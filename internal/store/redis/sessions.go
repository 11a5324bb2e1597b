package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flowboardhq/flowboard/internal/domain"
)

const sessionKeyPrefix = "session:"

// Sessions stores live refresh sessions in Redis, keyed by the refresh
// token's session ID with the token TTL as expiry. A missing key means the
// session was revoked or expired.
type Sessions struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Sessions, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Sessions{client: client}, nil
}

func (s *Sessions) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.Sessions.Close: %w", err)
	}
	return nil
}

// Save records a refresh session for the user with the given TTL.
func (s *Sessions) Save(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.Save: %w", err)
	}
	return nil
}

// UserID resolves a session to its user. Returns domain.ErrNotFound for
// revoked or expired sessions.
func (s *Sessions) UserID(ctx context.Context, sessionID string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, fmt.Errorf("redis.Sessions.UserID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis.Sessions.UserID: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis.Sessions.UserID: parse: %w", err)
	}

	return userID, nil
}

// Revoke deletes a session. Revoking an absent session is a no-op.
func (s *Sessions) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.Revoke: %w", err)
	}
	return nil
}
