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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ConcurrentGetFetchesOnce(t *testing.T) {
	c := NewCache[string](time.Hour, time.Second)

	var fetches atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		fetches.Add(1)
		<-release
		return "schema", nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), "release/1.3.0", fetch)
		}()
	}

	// let every caller reach the cache before the fetch completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "schema", results[i])
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := NewCache[int](time.Hour, time.Second)
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	var fetches int
	fetch := func(context.Context) (int, error) {
		fetches++
		return fetches, nil
	}

	v, err := c.Get(context.Background(), "main", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(59 * time.Minute)
	v, err = c.Get(context.Background(), "main", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "entry still fresh")

	now = now.Add(time.Minute)
	v, err = c.Get(context.Background(), "main", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "entry expired")
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := NewCache[string](time.Hour, time.Second)

	boom := errors.New("boom")
	_, err := c.Get(context.Background(), "k", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.Get(context.Background(), "k", func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_CallerCancellationDoesNotAbortFetch(t *testing.T) {
	c := NewCache[string](time.Hour, time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "k", fetch)
		errc <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
}
