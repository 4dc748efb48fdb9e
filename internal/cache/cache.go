// cache.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package cache is the key-value cache used for hot admin-managed documents.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss signals a cache miss, distinct from transport errors
var ErrMiss = errors.New("cache: miss")

// Cache is a concurrency-safe string cache
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value with ttl; zero or negative ttl means no expiry
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON decodes a cached JSON value into target. A nil cache always misses.
func GetJSON(ctx context.Context, c Cache, key string, target interface{}) error {
	if c == nil {
		return ErrMiss
	}
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), target)
}

// SetJSON encodes value and stores it. A nil cache is a no-op.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(b), ttl)
}

// Invalidate deletes keys. A nil cache is a no-op.
func Invalidate(ctx context.Context, c Cache, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	_, err := c.Del(ctx, keys...)
	return err
}
