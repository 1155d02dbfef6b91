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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentberlin/aeolens/testutil"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []EventType
}

func (r *recordingEmitter) Emit(event EventType, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) count(event EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestCrawlWebsiteAuto(t *testing.T) {
	srv := testutil.NewSiteServer()
	defer srv.Close()

	repo := newMemRepo()
	emitter := &recordingEmitter{}
	crawler, err := NewCrawler(repo, nil, emitter, nil)
	require.NoError(t, err)

	progress, err := crawler.CrawlWebsite(context.Background(), 1, srv.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, progress.Status)
	assert.Equal(t, 5, progress.Crawled)
	assert.Equal(t, 0, progress.Errors)

	urls := repo.urls(1)
	assert.ElementsMatch(t, []string{
		srv.URL + "/",
		srv.URL + "/about",
		srv.URL + "/pricing",
		srv.URL + "/blog/first-post",
		srv.URL + "/blog/second-post",
	}, urls)

	assert.Equal(t, 1, emitter.count(EventCrawlStarted))
	assert.Equal(t, 1, emitter.count(EventCrawlCompleted))
	assert.Equal(t, 5, emitter.count(EventPageCrawled))

	// Pages are stored with their parsed metadata.
	about := repo.page(1, srv.URL+"/about")
	require.NotNil(t, about)
	assert.Equal(t, "About Acme", about.Metadata.Title)
	assert.Equal(t, "Jo Acme", about.Metadata.Author)
}

func TestCrawlWebsiteHomepageFirst(t *testing.T) {
	srv := testutil.NewSiteServer()
	defer srv.Close()

	repo := newMemRepo()
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)

	cfg := NewDefaultCrawlConfig()
	cfg.MaxPages = 1
	progress, err := crawler.CrawlWebsite(context.Background(), 1, srv.URL+"/pricing", cfg)
	require.NoError(t, err)

	// A one-page budget always spends its budget on the homepage.
	assert.Equal(t, 1, progress.Crawled)
	require.NotNil(t, repo.page(1, srv.URL+"/"))
}

func TestCrawlWebsiteMaxPages(t *testing.T) {
	srv := testutil.NewSiteServer()
	defer srv.Close()

	repo := newMemRepo()
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)

	cfg := NewDefaultCrawlConfig()
	cfg.MaxPages = 3
	progress, err := crawler.CrawlWebsite(context.Background(), 1, srv.URL, cfg)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, progress.Status)
	assert.Equal(t, 3, progress.Crawled)
	assert.Equal(t, 3, repo.pageCount(1))
}

func TestCrawlWebsiteRespectsRobots(t *testing.T) {
	srv := testutil.NewSiteServer()
	defer srv.Close()

	repo := newMemRepo()
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)

	cfg := NewDefaultCrawlConfig()
	cfg.Mode = ModeManual
	cfg.ManualURLs = []string{srv.URL + "/admin/login", srv.URL + "/about"}
	progress, err := crawler.CrawlWebsite(context.Background(), 1, srv.URL, cfg)
	require.NoError(t, err)

	// /admin/ is disallowed by robots.txt and never fetched.
	assert.Equal(t, 1, progress.Crawled)
	assert.Nil(t, repo.page(1, srv.URL+"/admin/login"))
	assert.NotNil(t, repo.page(1, srv.URL+"/about"))
}

func TestCrawlWebsiteManualModeFollowsNoOutlinks(t *testing.T) {
	srv := testutil.NewSiteServer()
	defer srv.Close()

	repo := newMemRepo()
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)

	cfg := NewDefaultCrawlConfig()
	cfg.Mode = ModeManual
	cfg.ManualURLs = []string{srv.URL + "/blog/first-post"}
	progress, err := crawler.CrawlWebsite(context.Background(), 1, srv.URL, cfg)
	require.NoError(t, err)

	// The first post links to the second, but manual mode crawls only
	// the seeds.
	assert.Equal(t, 1, progress.Crawled)
	assert.Equal(t, 1, repo.pageCount(1))
}

func TestCrawlWebsiteCountsFetchFailures(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterRobots("https://example.com/robots.txt", "User-agent: *\nDisallow:\n")
	transport.RegisterHTML("https://example.com/good", "<html><head><title>Good</title></head><body></body></html>")
	transport.RegisterError("https://example.com/bad", errors.New("connection reset"))

	repo := newMemRepo()
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)
	crawler.SetHTTPClient(transport.Client())
	crawler.extractor.retryBaseDelay = 0

	cfg := NewDefaultCrawlConfig()
	cfg.Mode = ModeManual
	cfg.ManualURLs = []string{"https://example.com/good", "https://example.com/bad"}
	progress, err := crawler.CrawlWebsite(context.Background(), 1, "https://example.com/", cfg)
	require.NoError(t, err)

	// Per-page failures never fail the crawl.
	assert.Equal(t, StatusCompleted, progress.Status)
	assert.Equal(t, 1, progress.Crawled)
	assert.Equal(t, 1, progress.Errors)

	// The failed page is stored as a placeholder for later inspection.
	bad := repo.page(1, "https://example.com/bad")
	require.NotNil(t, bad)
	assert.Equal(t, 0, bad.StatusCode)
	assert.NotEmpty(t, bad.ErrorMessage)
}

func TestCrawlWebsiteRepositoryFailureFailsCrawl(t *testing.T) {
	srv := testutil.NewSiteServer()
	defer srv.Close()

	repo := newMemRepo()
	repo.failUpserts = true
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)

	progress, err := crawler.CrawlWebsite(context.Background(), 1, srv.URL, nil)
	assert.Error(t, err)
	assert.Equal(t, StatusFailed, progress.Status)
}

func TestCrawlWebsiteRejectsConcurrentCrawl(t *testing.T) {
	repo := newMemRepo()
	crawler, err := NewCrawler(repo, nil, nil, nil)
	require.NoError(t, err)

	// Simulate an active session.
	crawler.mu.Lock()
	crawler.sessions[7] = newCrawlSession(7)
	crawler.mu.Unlock()

	_, err = crawler.CrawlWebsite(context.Background(), 7, "https://example.com/", nil)
	assert.ErrorContains(t, err, "already in progress")
}

func TestCrawlWebsiteInvalidStartURL(t *testing.T) {
	crawler, err := NewCrawler(newMemRepo(), nil, nil, nil)
	require.NoError(t, err)

	cfg := NewDefaultCrawlConfig()
	cfg.Mode = ModeManual
	// Manual mode is irrelevant here; seeding never happens.
	cfg.ManualURLs = []string{"https://example.com/a"}

	_, err = crawler.CrawlWebsite(context.Background(), 1, "", cfg)
	assert.Error(t, err)
}

func TestCrawlerStatusIdleWithoutSession(t *testing.T) {
	crawler, err := NewCrawler(newMemRepo(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, crawler.Status(42).Status)
	assert.Error(t, crawler.Stop(42))
}
