package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisNamespace = "fsm"

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and returns a Store persisting
// records as JSON under fsm:<user_id>. Records carry no TTL: a flow
// left incomplete persists until the user sends another message.
func NewRedisStore(cfg RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session redis ping: %w", err)
	}
	return &redisStore{client: client}, nil
}

func redisKey(userID int64) string {
	return redisNamespace + ":" + strconv.FormatInt(userID, 10)
}

func (s *redisStore) Get(ctx context.Context, userID int64) (Record, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("session get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt record would otherwise pin the user to a broken
		// step forever; drop it and report no active flow.
		_ = s.client.Del(ctx, redisKey(userID)).Err()
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *redisStore) Set(ctx context.Context, userID int64, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
