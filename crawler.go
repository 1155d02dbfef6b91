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
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agentberlin/aeolens/internal/logging"
)

// CrawlStatus is the lifecycle state of one crawl.
type CrawlStatus string

const (
	StatusIdle      CrawlStatus = "idle"
	StatusRunning   CrawlStatus = "running"
	StatusCompleted CrawlStatus = "completed"
	StatusFailed    CrawlStatus = "failed"
)

// CrawlProgress is a read-only snapshot of a crawl's counters.
type CrawlProgress struct {
	SessionID string      `json:"sessionId"`
	Status    CrawlStatus `json:"status"`
	Crawled   int         `json:"crawled"`
	Total     int         `json:"total"`
	Errors    int         `json:"errors"`
}

// crawlSession owns the queue, visited set and counters for one crawl.
// It lives only while the crawl runs and is discarded on terminal state.
// The queue is an ordered set: queued tracks membership by URL hash so a
// URL is never enqueued twice, visited tracks completed fetches.
type crawlSession struct {
	id        string
	projectID uint

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []string
	queued   map[uint64]bool
	visited  map[uint64]bool
	crawled  int
	errors   int
	inFlight int
	status   CrawlStatus
	stopped  bool
}

func newCrawlSession(projectID uint) *crawlSession {
	s := &crawlSession{
		id:        uuid.NewString(),
		projectID: projectID,
		queued:    make(map[uint64]bool),
		visited:   make(map[uint64]bool),
		status:    StatusIdle,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// enqueue adds a normalized URL unless it is already queued or visited.
// Callers must hold mu.
func (s *crawlSession) enqueue(normalized string) {
	h := URLHash(normalized)
	if s.queued[h] || s.visited[h] {
		return
	}
	s.queued[h] = true
	s.queue = append(s.queue, normalized)
}

// snapshot copies the counters. Callers must not hold mu.
func (s *crawlSession) snapshot() CrawlProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CrawlProgress{
		SessionID: s.id,
		Status:    s.status,
		Crawled:   s.crawled,
		Total:     s.crawled + s.inFlight + len(s.queue),
		Errors:    s.errors,
	}
}

// Crawler orchestrates polite, bounded website crawls: sitemap-first seed
// discovery, robots enforcement, rate-limited concurrent fetching, URL
// dedup and progress events. One crawl per project runs at a time.
type Crawler struct {
	repo      Repository
	robots    *RobotsPolicy
	limiter   *RateLimiter
	discovery *SitemapDiscovery
	extractor *PageExtractor
	emitter   Emitter
	logger    *logrus.Logger

	mu       sync.RWMutex
	sessions map[uint]*crawlSession
}

// NewCrawler wires a crawler from its collaborators. A nil emitter
// discards events and a nil logger discards logs.
func NewCrawler(repo Repository, cfg *CrawlConfig, emitter Emitter, logger *logrus.Logger) (*Crawler, error) {
	if cfg == nil {
		cfg = NewDefaultCrawlConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if emitter == nil {
		emitter = &NoOpEmitter{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	limiter, err := NewRateLimiter(cfg.MaxConcurrent, cfg.CrawlDelay)
	if err != nil {
		return nil, err
	}
	robots := NewRobotsPolicy(nil)

	return &Crawler{
		repo:      repo,
		robots:    robots,
		limiter:   limiter,
		discovery: NewSitemapDiscovery(nil, robots, logger),
		extractor: NewPageExtractor(nil, repo, limiter, cfg, logger),
		emitter:   emitter,
		logger:    logger,
		sessions:  make(map[uint]*crawlSession),
	}, nil
}

// SetHTTPClient swaps the HTTP client used for page fetches, robots and
// sitemap probes. Tests use this to install a mock transport.
func (c *Crawler) SetHTTPClient(client *http.Client) {
	c.extractor.client = client
	c.robots.client = client
	c.discovery.client = client
}

// Status returns a snapshot of the project's active crawl, or an idle
// zero snapshot when none is running.
func (c *Crawler) Status(projectID uint) CrawlProgress {
	c.mu.RLock()
	session, ok := c.sessions[projectID]
	c.mu.RUnlock()
	if !ok {
		return CrawlProgress{Status: StatusIdle}
	}
	return session.snapshot()
}

// Stop requests cancellation of the project's active crawl. In-flight
// fetches complete; the crawl ends in failed state.
func (c *Crawler) Stop(projectID uint) error {
	c.mu.RLock()
	session, ok := c.sessions[projectID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no active crawl for project %d", projectID)
	}
	session.mu.Lock()
	session.stopped = true
	session.cond.Broadcast()
	session.mu.Unlock()
	return nil
}

// CrawlWebsite runs a full crawl for the project and blocks until it
// reaches a terminal state. Per-page fetch failures are counted and never
// fail the crawl; only orchestrator-level errors (invalid config, a
// repository write failure, cancellation) produce a failed status.
func (c *Crawler) CrawlWebsite(ctx context.Context, projectID uint, startURL string, cfg *CrawlConfig) (CrawlProgress, error) {
	if cfg == nil {
		cfg = NewDefaultCrawlConfig()
	}
	if err := cfg.Validate(); err != nil {
		return CrawlProgress{Status: StatusFailed}, err
	}

	c.mu.Lock()
	if _, exists := c.sessions[projectID]; exists {
		c.mu.Unlock()
		return CrawlProgress{Status: StatusFailed}, fmt.Errorf("crawl already in progress for project %d", projectID)
	}
	session := newCrawlSession(projectID)
	c.sessions[projectID] = session
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.sessions, projectID)
		c.mu.Unlock()
	}()

	start := NormalizeURL(startURL)
	if start == "" {
		return CrawlProgress{Status: StatusFailed}, fmt.Errorf("invalid start URL %q", startURL)
	}
	c.seed(session, start, cfg)

	session.mu.Lock()
	session.status = StatusRunning
	total := len(session.queue)
	session.mu.Unlock()

	c.emitter.Emit(EventCrawlStarted, CrawlEvent{
		ProjectID: projectID,
		StartURL:  start,
		MaxPages:  cfg.MaxPages,
		Total:     total,
	})
	c.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"start_url":  start,
		"mode":       string(cfg.Mode),
		"seeded":     total,
	}).Info("crawl started")

	err := c.runLoop(ctx, session, start, cfg)

	session.mu.Lock()
	if err != nil {
		session.status = StatusFailed
	} else {
		session.status = StatusCompleted
	}
	crawled, errCount := session.crawled, session.errors
	session.mu.Unlock()

	progress := session.snapshot()
	if err != nil {
		c.emitter.Emit(EventCrawlFailed, CrawlEvent{
			ProjectID: projectID,
			Crawled:   crawled,
			Total:     crawled,
			Errors:    errCount,
			Error:     err.Error(),
		})
		return progress, err
	}
	c.emitter.Emit(EventCrawlCompleted, CrawlEvent{
		ProjectID: projectID,
		Crawled:   crawled,
		Total:     crawled,
		Errors:    errCount,
	})
	c.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"crawled":    crawled,
		"errors":     errCount,
	}).Info("crawl completed")
	return progress, nil
}

// seed fills and orders the queue. Manual mode takes the configured list
// shuffled; auto mode takes the start URL plus sitemap expansion, with
// the homepage forced to the front and the rest shuffled so crawling a
// site twice with a small budget samples different pages.
func (c *Crawler) seed(session *crawlSession, start string, cfg *CrawlConfig) {
	if cfg.Mode == ModeManual {
		session.mu.Lock()
		defer session.mu.Unlock()
		for _, u := range cfg.ManualURLs {
			if n := NormalizeURL(u); n != "" {
				session.enqueue(n)
			}
		}
		rand.Shuffle(len(session.queue), func(i, j int) {
			session.queue[i], session.queue[j] = session.queue[j], session.queue[i]
		})
		return
	}

	// Sitemap discovery runs before the session is visible to workers,
	// so the network calls happen outside the lock.
	discovered := c.discovery.Discover(start, cfg.MaxPages, cfg)

	session.mu.Lock()
	defer session.mu.Unlock()
	session.enqueue(start)
	for _, u := range discovered {
		if len(session.queue) >= cfg.MaxPages {
			break
		}
		session.enqueue(u)
	}

	homepage := homepageOf(start)
	rest := make([]string, 0, len(session.queue))
	for _, u := range session.queue {
		if u != homepage {
			rest = append(rest, u)
		}
	}
	rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	session.queue = append([]string{homepage}, rest...)
	session.queued[URLHash(homepage)] = true
}

// homepageOf returns the normalized root URL for the start URL's host.
func homepageOf(start string) string {
	scheme := "https"
	if strings.HasPrefix(start, "http://") {
		scheme = "http"
	}
	return NormalizeURL(scheme + "://" + URLHost(start) + "/")
}

// runLoop is the crawl main loop: pop, filter, dispatch a fetch worker,
// repeat while the queue is non-empty and the page budget holds, then
// drain in-flight workers.
func (c *Crawler) runLoop(ctx context.Context, session *crawlSession, start string, cfg *CrawlConfig) error {
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var loopErr error

	setErr := func(err error) {
		errMu.Lock()
		if loopErr == nil {
			loopErr = err
		}
		errMu.Unlock()
		// Wake the dispatcher so it stops handing out work.
		session.mu.Lock()
		session.stopped = true
		session.cond.Broadcast()
		session.mu.Unlock()
	}

	for {
		if ctx.Err() != nil {
			setErr(ctx.Err())
			break
		}

		session.mu.Lock()
		// The budget counts in-flight fetches too, so workers can never
		// push crawled past MaxPages.
		for !session.stopped && session.inFlight > 0 &&
			(len(session.queue) == 0 || session.crawled+session.inFlight >= cfg.MaxPages) {
			session.cond.Wait()
		}
		if session.stopped || len(session.queue) == 0 || session.crawled >= cfg.MaxPages {
			stopped := session.stopped
			session.mu.Unlock()
			if stopped {
				errMu.Lock()
				failed := loopErr != nil
				errMu.Unlock()
				if !failed {
					setErr(fmt.Errorf("crawl stopped"))
				}
			}
			break
		}

		next := session.queue[0]
		session.queue = session.queue[1:]
		delete(session.queued, URLHash(next))
		if session.visited[URLHash(next)] {
			session.mu.Unlock()
			continue
		}
		session.inFlight++
		crawled := session.crawled
		pending := len(session.queue)
		session.mu.Unlock()

		release := func() {
			session.mu.Lock()
			session.inFlight--
			session.cond.Broadcast()
			session.mu.Unlock()
		}

		if cfg.RespectRobotsTxt && !c.robots.IsAllowed(next, c.extractor.userAgent) {
			c.logger.WithField("url", next).Debug("skipped by robots.txt")
			release()
			continue
		}
		if !cfg.AllowsURL(next) {
			release()
			continue
		}

		c.emitter.Emit(EventCrawlProgress, CrawlEvent{
			ProjectID:  session.projectID,
			CurrentURL: next,
			Crawled:    crawled,
			Total:      crawled + pending + 1,
		})

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			defer release()
			c.fetchOne(ctx, session, target, start, cfg, setErr)
		}(next)
	}

	wg.Wait()
	errMu.Lock()
	defer errMu.Unlock()
	return loopErr
}

// fetchOne runs one fetch task: extract the page, record the outcome and,
// in auto mode, feed same-host outlinks from successful pages back into
// the queue.
func (c *Crawler) fetchOne(ctx context.Context, session *crawlSession, target, start string, cfg *CrawlConfig, setErr func(error)) {
	page, err := c.extractor.Extract(ctx, session.projectID, target)

	session.mu.Lock()
	session.visited[URLHash(target)] = true
	if err != nil {
		if page == nil {
			// Not a fetch failure: the repository write itself failed.
			session.mu.Unlock()
			setErr(err)
			return
		}
		session.errors++
		session.mu.Unlock()
		c.logger.WithError(err).WithField("url", target).Warn("page fetch failed")
		return
	}

	session.crawled++
	if cfg.Mode != ModeManual && page.StatusCode == 200 {
		for _, link := range page.OutboundLinks {
			if isNonContentURL(link) || !SameHost(link, start) || !cfg.AllowsURL(link) {
				continue
			}
			session.enqueue(link)
		}
	}
	crawled := session.crawled
	total := crawled + session.inFlight + len(session.queue)
	session.mu.Unlock()

	c.emitter.Emit(EventPageCrawled, CrawlEvent{
		ProjectID:  session.projectID,
		CurrentURL: page.URL,
		StatusCode: page.StatusCode,
		RespTimeMs: page.ResponseTimeMs,
		Crawled:    crawled,
		Total:      total,
	})
}
