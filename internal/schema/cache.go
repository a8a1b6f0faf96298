// Copyright 2026 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a keyed TTL cache. Concurrent misses for one key share a single
// fetch. The fetch runs detached from any one caller, bounded by the fetch
// timeout, so a caller giving up does not fail the others.
type Cache[V any] struct {
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	group   singleflight.Group
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// NewCache returns a cache holding entries for ttl.
func NewCache[V any](ttl, fetchTimeout time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		entries:      make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key, calling fetch on a miss or after
// expiry. Failed fetches are not cached.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// a caller that raced the previous fetch may find it stored already
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: v, expires: c.now().Add(c.ttl)}
}

// Len reports the number of live and expired entries still held.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
