package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"MudaBot/internal/lib/sl"
)

const sessionKeyPrefix = "intake:session:"

// RedisStore keeps sessions in Redis, so intake conversations survive a
// process restart. Abandoned sessions expire via the key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log.With(sl.Module("intake.redistore")),
	}
}

func sessionKey(conversationID string) string {
	return sessionKeyPrefix + conversationID
}

func (s *RedisStore) Create(ctx context.Context, conversationID string) (*Session, error) {
	sess := NewSession(conversationID)
	if err := s.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ConversationID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, sessionKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) MarkProcessing(ctx context.Context, conversationID string, busy bool) error {
	sess, err := s.Get(ctx, conversationID)
	if err != nil || sess == nil {
		return err
	}
	sess.Processing = busy
	return s.Update(ctx, sess)
}

func (s *RedisStore) MarkPromptSent(ctx context.Context, conversationID string) error {
	sess, err := s.Get(ctx, conversationID)
	if err != nil || sess == nil {
		return err
	}
	sess.LastPromptAt = time.Now()
	return s.Update(ctx, sess)
}
