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
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
)

// ErrNoPattern is returned when a LimitRule has neither a domain glob nor
// a wildcard scope.
var ErrNoPattern = errors.New("no pattern defined in LimitRule")

// LimitRule restricts fetch concurrency and pacing for matching domains.
// Parallelism bounds in-flight fetches; Delay is the base wait before each
// fetch, widened by a uniform jitter of ±20%.
type LimitRule struct {
	// DomainGlob is a glob pattern matched against hostnames ("*" for all)
	DomainGlob string
	// Delay is the base duration to wait before each fetch
	Delay time.Duration
	// Parallelism is the maximum allowed concurrent fetches (default 5)
	Parallelism int

	waitChan     chan struct{}
	compiledGlob glob.Glob
}

// Init compiles the rule's pattern and sizes its semaphore.
func (r *LimitRule) Init() error {
	if r.DomainGlob == "" {
		return ErrNoPattern
	}
	g, err := glob.Compile(r.DomainGlob)
	if err != nil {
		return err
	}
	r.compiledGlob = g

	if r.Parallelism < 1 {
		r.Parallelism = DefaultMaxConcurrent
	}
	r.waitChan = make(chan struct{}, r.Parallelism)
	return nil
}

// Match checks whether the domain triggers the rule.
func (r *LimitRule) Match(domain string) bool {
	return r.compiledGlob != nil && r.compiledGlob.Match(domain)
}

// RateLimiter enforces the process-wide fetch budget: a semaphore bounding
// in-flight fetches plus a jittered launch delay. Rules are matched by
// domain; the first matching rule applies.
type RateLimiter struct {
	mu       sync.RWMutex
	rules    []*LimitRule
	inFlight atomic.Int64
}

// NewRateLimiter creates a limiter with a single wildcard rule.
func NewRateLimiter(maxConcurrent int, delay time.Duration) (*RateLimiter, error) {
	rl := &RateLimiter{}
	err := rl.AddRule(&LimitRule{
		DomainGlob:  "*",
		Delay:       delay,
		Parallelism: maxConcurrent,
	})
	if err != nil {
		return nil, err
	}
	return rl, nil
}

// AddRule registers a limit rule. Rules added earlier take precedence.
func (rl *RateLimiter) AddRule(rule *LimitRule) error {
	if err := rule.Init(); err != nil {
		return err
	}
	rl.mu.Lock()
	rl.rules = append(rl.rules, rule)
	rl.mu.Unlock()
	return nil
}

func (rl *RateLimiter) matchingRule(domain string) *LimitRule {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	for _, r := range rl.rules {
		if r.Match(domain) {
			return r
		}
	}
	return nil
}

// Acquire blocks until fetch capacity is available for the domain, then
// sleeps the rule's jittered delay. The caller must call Release with the
// same domain when the fetch finishes, normally via defer.
func (rl *RateLimiter) Acquire(ctx context.Context, domain string) error {
	r := rl.matchingRule(domain)
	if r == nil {
		return nil
	}

	select {
	case r.waitChan <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	rl.inFlight.Add(1)

	if r.Delay > 0 {
		select {
		case <-time.After(jitteredDelay(r.Delay)):
		case <-ctx.Done():
			rl.release(r)
			return ctx.Err()
		}
	}
	return nil
}

// Release frees the capacity taken by Acquire.
func (rl *RateLimiter) Release(domain string) {
	if r := rl.matchingRule(domain); r != nil {
		rl.release(r)
	}
}

func (rl *RateLimiter) release(r *LimitRule) {
	rl.inFlight.Add(-1)
	select {
	case <-r.waitChan:
	default:
	}
}

// InFlight returns the number of fetches currently holding capacity.
func (rl *RateLimiter) InFlight() int {
	return int(rl.inFlight.Load())
}

// jitteredDelay widens a base delay by a uniform ±20%.
func jitteredDelay(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	spread := int64(base) * 2 / 5 // 40% window centered on base
	offset := rand.Int63n(spread+1) - spread/2
	return time.Duration(int64(base) + offset)
}
