package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLRedirectRules = 10 * time.Minute // 리다이렉트 규칙 스냅샷 (변경 시 즉시 무효화)
	TTLRedirectLock  = 5 * time.Second  // 리다이렉트 쓰기 락
	TTLDefault       = 5 * time.Minute  // 기본값
)

// 캐시 키 접두사
const (
	PrefixRedirects = "redirects:"
	PrefixLock      = "lock:"
)

// 고정 키 / 채널
const (
	KeyRedirectRules      = PrefixRedirects + "rules"
	LockRedirectWrites    = PrefixLock + "redirects"
	ChannelRedirectsFlush = PrefixRedirects + "changed"
)

// ErrUnavailable is returned by reads when Redis is not configured
var ErrUnavailable = errors.New("redis not available")

// ErrMiss is returned by Get when the key does not exist
var ErrMiss = errors.New("cache miss")

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	DeleteByPattern(ctx context.Context, pattern string) error

	// 분산 락
	// TryLock returns a release token when the lock was acquired.
	// Without Redis it always succeeds with an empty token.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error

	// Pub/Sub
	Publish(ctx context.Context, channel string, payload interface{}) error
	// Subscribe returns nil when Redis is not configured
	Subscribe(ctx context.Context, channel string) *redis.PubSub

	// 유틸리티
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성. client may be nil.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable Redis 연결 가능 여부
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping Redis 연결 테스트
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrUnavailable
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists 캐시 존재 여부 확인
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// DeleteByPattern SCAN으로 패턴에 맞는 키 삭제
func (c *redisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// ========================================
// 분산 락
// ========================================

// 토큰이 일치할 때만 삭제 (다른 인스턴스의 락을 풀지 않도록)
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *redisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if c.client == nil {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (c *redisCache) Unlock(ctx context.Context, key, token string) error {
	if c.client == nil || token == "" {
		return nil
	}
	return unlockScript.Run(ctx, c.client, []string{key}, token).Err()
}

// ========================================
// Pub/Sub
// ========================================

func (c *redisCache) Publish(ctx context.Context, channel string, payload interface{}) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, channel, data).Err()
}

func (c *redisCache) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if c.client == nil {
		return nil
	}
	return c.client.Subscribe(ctx, channel)
}
