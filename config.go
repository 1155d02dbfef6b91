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
	"fmt"
	"regexp"
	"time"

	"github.com/agentberlin/aeolens/internal/config"
)

// Crawl defaults, overridable per config or via environment.
const (
	DefaultMaxConcurrent  = 5
	DefaultTimeoutMs      = 30000
	DefaultMaxPages       = 100
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = time.Second
)

// CrawlMode selects how the queue is seeded.
type CrawlMode string

const (
	// ModeAuto seeds from the start URL plus sitemap discovery
	ModeAuto CrawlMode = "auto"
	// ModeManual seeds from an explicit URL list and follows no outlinks
	ModeManual CrawlMode = "manual"
)

// CrawlConfig holds all recognized crawl options for one project.
type CrawlConfig struct {
	// MaxPages caps the number of fetched pages
	MaxPages int
	// CrawlDelay is the per-fetch base delay, jittered ±20%
	CrawlDelay time.Duration
	// MaxConcurrent bounds in-flight fetches
	MaxConcurrent int
	// IncludePatterns keeps only matching URLs when non-empty
	IncludePatterns []string
	// ExcludePatterns drops matching URLs
	ExcludePatterns []string
	// RespectRobotsTxt enables robots.txt enforcement
	RespectRobotsTxt bool
	// UserAgent overrides the rotating pool when set
	UserAgent string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// MaxDepth is reserved; the auto-sitemap mode does not use it
	MaxDepth int
	// Mode selects auto or manual seeding
	Mode CrawlMode
	// ManualURLs is the seed list for manual mode
	ManualURLs []string

	includeRe []*regexp.Regexp
	excludeRe []*regexp.Regexp
}

// NewDefaultCrawlConfig builds a config from defaults and process-level env:
// CRAWLER_USER_AGENT, CRAWLER_TIMEOUT_MS, CRAWLER_CONCURRENT_REQUESTS.
func NewDefaultCrawlConfig() *CrawlConfig {
	return &CrawlConfig{
		MaxPages:         DefaultMaxPages,
		MaxConcurrent:    config.GetEnvInt("CRAWLER_CONCURRENT_REQUESTS", DefaultMaxConcurrent),
		RespectRobotsTxt: true,
		UserAgent:        config.GetEnv("CRAWLER_USER_AGENT", ""),
		Timeout:          time.Duration(config.GetEnvInt("CRAWLER_TIMEOUT_MS", DefaultTimeoutMs)) * time.Millisecond,
		Mode:             ModeAuto,
	}
}

// Validate compiles the include/exclude patterns and checks mode invariants.
func (c *CrawlConfig) Validate() error {
	if c.Mode == ModeManual && len(c.ManualURLs) == 0 {
		return fmt.Errorf("manual mode requires manualUrls")
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeoutMs * time.Millisecond
	}

	c.includeRe = c.includeRe[:0]
	for _, p := range c.IncludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		c.includeRe = append(c.includeRe, re)
	}
	c.excludeRe = c.excludeRe[:0]
	for _, p := range c.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		c.excludeRe = append(c.excludeRe, re)
	}
	return nil
}

// AllowsURL applies the include/exclude pattern filter. An empty include
// list allows everything not excluded.
func (c *CrawlConfig) AllowsURL(u string) bool {
	for _, re := range c.excludeRe {
		if re.MatchString(u) {
			return false
		}
	}
	if len(c.includeRe) == 0 {
		return true
	}
	for _, re := range c.includeRe {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}
