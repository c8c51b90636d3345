package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter Redis 기반 분산 Rate Limiter (고정 윈도우 카운터)
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// RateLimitInfo Rate Limit 상태 정보 (응답 헤더용)
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
}

// Lua 스크립트로 카운터 증가와 TTL 설정을 원자적으로 수행
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, window)
	end

	local ttl = redis.call('PTTL', key)
	return {count, ttl}
`)

// NewRedisRateLimiter Redis 기반 Rate Limiter 생성
func NewRedisRateLimiter(client *redis.Client, keyPrefix string) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Allow 요청 허용 여부 확인
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, _, err := r.AllowWithInfo(ctx, key, limit, window)
	return allowed, err
}

// AllowWithInfo 요청 허용 여부와 현재 윈도우 상태를 함께 반환
func (r *RedisRateLimiter) AllowWithInfo(ctx context.Context, key string, limit int, window time.Duration) (bool, *RateLimitInfo, error) {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	redisKey := r.keyPrefix + key

	res, err := fixedWindowScript.Run(ctx, r.client, []string{redisKey},
		limit, window.Milliseconds()).Slice()
	if err != nil {
		return false, nil, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(res) != 2 {
		return false, nil, fmt.Errorf("unexpected script result: %v", res)
	}

	count, _ := res[0].(int64)
	ttlMillis, _ := res[1].(int64)
	if ttlMillis < 0 {
		ttlMillis = window.Milliseconds()
	}

	info := &RateLimitInfo{
		Limit:     limit,
		Remaining: limit - int(count),
		ResetTime: time.Now().Add(time.Duration(ttlMillis) * time.Millisecond),
	}
	if info.Remaining < 0 {
		info.Remaining = 0
	}

	return count <= int64(limit), info, nil
}
