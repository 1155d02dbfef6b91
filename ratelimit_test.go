// Copyright 2025 Agentic World, LLC (Sherin Thomas)
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

package aeolens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitRuleInit(t *testing.T) {
	rule := &LimitRule{DomainGlob: "*.example.com", Parallelism: 2}
	require.NoError(t, rule.Init())
	assert.True(t, rule.Match("blog.example.com"))
	assert.False(t, rule.Match("example.org"))

	empty := &LimitRule{}
	assert.ErrorIs(t, empty.Init(), ErrNoPattern)

	defaulted := &LimitRule{DomainGlob: "*"}
	require.NoError(t, defaulted.Init())
	assert.Equal(t, DefaultMaxConcurrent, defaulted.Parallelism)
}

func TestRateLimiterBoundsParallelism(t *testing.T) {
	rl, err := NewRateLimiter(2, 0)
	require.NoError(t, err)

	ctx := context.Background()
	var current, peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, rl.Acquire(ctx, "example.com"))
			defer rl.Release("example.com")

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, 0, rl.InFlight())
}

func TestRateLimiterFirstRuleWins(t *testing.T) {
	rl, err := NewRateLimiter(5, 0)
	require.NoError(t, err)
	require.NoError(t, rl.AddRule(&LimitRule{DomainGlob: "slow.example.com", Delay: time.Hour}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The wildcard rule was added first, so even the "slow" domain gets
	// the zero-delay rule.
	start := time.Now()
	require.NoError(t, rl.Acquire(ctx, "slow.example.com"))
	rl.Release("slow.example.com")
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterAcquireRespectsContext(t *testing.T) {
	rl, err := NewRateLimiter(1, 0)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, rl.Acquire(ctx, "example.com"))

	blocked, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err = rl.Acquire(blocked, "example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	rl.Release("example.com")
	assert.Equal(t, 0, rl.InFlight())
}

func TestRateLimiterDelayCancellation(t *testing.T) {
	rl, err := NewRateLimiter(1, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = rl.Acquire(ctx, "example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// Capacity taken before the delay must be handed back on cancellation.
	assert.Equal(t, 0, rl.InFlight())
}

func TestJitteredDelayBounds(t *testing.T) {
	base := 100 * time.Millisecond
	lo := 80 * time.Millisecond
	hi := 120 * time.Millisecond
	for i := 0; i < 1000; i++ {
		d := jitteredDelay(base)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
	assert.Equal(t, time.Duration(0), jitteredDelay(0))
}
