package memory_repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const memoryKeyFormat = "customer:%s:memory"

// RedisStore keeps each customer's entries in a list.
type RedisStore struct {
	client *redis.Client
}

// Conn dials redis and verifies the connection with PING.
func Conn(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client, err := Conn(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("redis memory store: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Read(ctx context.Context, id string) (string, error) {
	id, err := checkID(id)
	if err != nil {
		return "", err
	}
	raw, err := s.client.LRange(ctx, fmt.Sprintf(memoryKeyFormat, id), 0, -1).Result()
	if err != nil {
		return "", err
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			e = Entry{Content: item}
		}
		entries = append(entries, e)
	}
	return joinEntries(entries), nil
}

func (s *RedisStore) Append(ctx context.Context, id, content string) error {
	id, err := checkID(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Entry{Timestamp: now().Format(time.RFC3339), Content: content})
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, fmt.Sprintf(memoryKeyFormat, id), data).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
