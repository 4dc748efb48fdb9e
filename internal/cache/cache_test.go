// cache_test.go
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

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *mapCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Del(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *mapCache) Ping(ctx context.Context) error { return nil }
func (m *mapCache) Close() error                   { return nil }

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := &mapCache{data: map[string]string{}}

	type doc struct {
		Name string `json:"name"`
	}

	var out doc
	if err := GetJSON(ctx, c, "k", &out); !errors.Is(err, ErrMiss) {
		t.Fatalf("Expected miss, got %v", err)
	}

	if err := SetJSON(ctx, c, "k", doc{Name: "triage"}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if err := GetJSON(ctx, c, "k", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != "triage" {
		t.Errorf("Expected triage, got %q", out.Name)
	}

	if err := Invalidate(ctx, c, "k"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if err := GetJSON(ctx, c, "k", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected miss after invalidate, got %v", err)
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var out map[string]string
	if err := GetJSON(ctx, nil, "k", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected miss from nil cache, got %v", err)
	}
	if err := SetJSON(ctx, nil, "k", "v", time.Minute); err != nil {
		t.Errorf("Expected nil cache set to be a no-op, got %v", err)
	}
	if err := Invalidate(ctx, nil, "k"); err != nil {
		t.Errorf("Expected nil cache invalidate to be a no-op, got %v", err)
	}
}
