// Copyright 2024-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

// ErrCacheMiss is returned when the key is in neither the local nor the
// shared cache tier.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a bounded byte cache with a local LRU tier and an optional shared
// redis tier. Values are lz4 compressed. Eviction is size-based locally and
// TTL-based on the redis tier; Invalidate drops everything at once.
type Cache struct {
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCache creates a cache holding at most size entries locally. If redisURL
// is not empty a redis tier is added with the given TTL per key.
func NewCache(size int, redisURL string, ttl time.Duration) (*Cache, error) {
	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		local: local,
		ttl:   ttl,
	}

	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		c.rdb = redis.NewClient(opt)
	}

	return c, nil
}

// NewCacheFromConfig builds a Cache from the viper keys cache.local_size,
// cache.redis_url and cache.ttl (seconds).
func NewCacheFromConfig() (*Cache, error) {
	size := viper.GetInt("cache.local_size")
	if size == 0 {
		size = 256
	}
	ttl := time.Duration(viper.GetInt("cache.ttl")) * time.Second
	return NewCache(size, viper.GetString("cache.redis_url"), ttl)
}

// CacheKey hashes the parts into a stable hex key
func CacheKey(parts ...string) string {
	h := blake3.New()
	for _, part := range parts {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(in); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(in))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	compressed, err := compress(val)
	if err != nil {
		return err
	}

	c.local.Add(key, compressed)

	if c.rdb != nil {
		return c.rdb.Set(ctx, key, compressed, c.ttl).Err()
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.local.Get(key); ok {
		return decompress(v.([]byte))
	}

	if c.rdb != nil {
		val, err := c.rdb.GetEx(ctx, key, c.ttl).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrCacheMiss
			}
			return nil, err
		}
		c.local.Add(key, val)
		return decompress(val)
	}

	return nil, ErrCacheMiss
}

// Invalidate purges both cache tiers. There is no per-key eviction; callers
// that need fresh data clear everything.
func (c *Cache) Invalidate(ctx context.Context) {
	c.local.Purge()
	if c.rdb != nil {
		if err := c.rdb.FlushDB(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("could not flush redis cache")
		}
	}
}

// Len returns the number of entries in the local tier
func (c *Cache) Len() int {
	return c.local.Len()
}
