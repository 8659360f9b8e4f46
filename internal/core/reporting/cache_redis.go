// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/libris/internal/platform/constants"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisCache implements [Cache] with a single TTL-bound key.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a summary cache. ttl bounds how stale a dashboard may be.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

/*
GetSummary returns the cached summary.

Returns:
  - *Summary: nil on a miss
  - error: connectivity or decoding failures
*/
func (cache *RedisCache) GetSummary(context context.Context) (*Summary, error) {
	payload, err := cache.client.Get(context, constants.RedisPrefixReportSummary).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_report_summary_get_failed: %w", err)
	}

	var summary Summary
	if err := codec.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("redis_report_summary_decode_failed: %w", err)
	}
	return &summary, nil
}

// SetSummary stores summary under the TTL.
func (cache *RedisCache) SetSummary(context context.Context, summary *Summary) error {
	payload, err := codec.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis_report_summary_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, constants.RedisPrefixReportSummary, payload, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_report_summary_set_failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary.
func (cache *RedisCache) Invalidate(context context.Context) error {
	if err := cache.client.Del(context, constants.RedisPrefixReportSummary).Err(); err != nil {
		return fmt.Errorf("redis_report_summary_delete_failed: %w", err)
	}
	return nil
}
