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
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(transport *MockTransport, repo Repository) *PageExtractor {
	pe := NewPageExtractor(transport.Client(), repo, nil, NewDefaultCrawlConfig(), nil)
	pe.retryBaseDelay = time.Millisecond
	return pe
}

func TestExtractPersistsPage(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterHTML("https://example.com/about", `<!DOCTYPE html>
<html lang="en">
<head>
  <title>About Acme</title>
  <meta name="description" content="Acme builds rock-solid widgets.">
  <meta name="author" content="Jo Smith">
  <link rel="canonical" href="https://example.com/about">
  <script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization","name":"Acme"}</script>
</head>
<body>
  <a href="/pricing">Pricing</a>
  <a href="/pricing#plans">Plans</a>
  <a href="https://other.com/x">Elsewhere</a>
  <a href="mailto:hi@example.com">Mail</a>
</body>
</html>`)

	repo := newMemRepo()
	page, err := newTestExtractor(transport, repo).Extract(context.Background(), 1, "https://example.com/about")
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, "https://example.com/about", page.URL)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, "About Acme", page.Metadata.Title)
	assert.Equal(t, "Acme builds rock-solid widgets.", page.Metadata.Description)
	assert.Equal(t, "Jo Smith", page.Metadata.Author)
	assert.Equal(t, "https://example.com/about", page.Metadata.CanonicalURL)
	assert.Equal(t, "en", page.Metadata.Lang)
	require.Len(t, page.Metadata.Schema, 1)
	assert.Equal(t, "Organization", page.Metadata.Schema[0]["@type"])

	// Same-host outlinks only, normalized and deduplicated.
	assert.Equal(t, []string{"https://example.com/pricing"}, page.OutboundLinks)

	assert.NotEmpty(t, page.ContentHash)
	require.NotNil(t, repo.page(1, "https://example.com/about"))
}

func TestExtractDates(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterHTML("https://example.com/blog/post", `<html><head>
  <meta property="article:published_time" content="2024-05-01T10:00:00Z">
  <meta property="article:modified_time" content="2024-06-15T08:30:00Z">
</head><body><p>hi</p></body></html>`)

	page, err := newTestExtractor(transport, newMemRepo()).Extract(context.Background(), 1, "https://example.com/blog/post")
	require.NoError(t, err)

	require.NotNil(t, page.Metadata.PublishDate)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), page.Metadata.PublishDate.UTC())
	require.NotNil(t, page.Metadata.ModifiedDate)
	assert.Equal(t, time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC), page.Metadata.ModifiedDate.UTC())
}

func TestExtractNon2xxIsNotAnError(t *testing.T) {
	transport := NewMockTransport()
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html")
	transport.RegisterResponse("https://example.com/gone", &MockResponse{
		StatusCode: 404,
		Body:       "<html><body>gone</body></html>",
		Headers:    headers,
	})

	repo := newMemRepo()
	page, err := newTestExtractor(transport, repo).Extract(context.Background(), 1, "https://example.com/gone")
	require.NoError(t, err)
	assert.Equal(t, 404, page.StatusCode)
	assert.Empty(t, page.ErrorMessage)
	// One request: HTTP errors are responses, not retryable failures.
	assert.Equal(t, 1, transport.Requests("https://example.com/gone"))
}

func TestExtractRetriesTransientFailures(t *testing.T) {
	transport := NewMockTransport()
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html")
	transport.RegisterResponse("https://example.com/flaky", &MockResponse{
		StatusCode: 200,
		Body:       "<html><head><title>Flaky</title></head><body></body></html>",
		Headers:    headers,
		FailFirst:  2,
	})

	page, err := newTestExtractor(transport, newMemRepo()).Extract(context.Background(), 1, "https://example.com/flaky")
	require.NoError(t, err)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, "Flaky", page.Metadata.Title)
	assert.Equal(t, 3, transport.Requests("https://example.com/flaky"))
}

func TestExtractPersistsPlaceholderAfterExhaustedRetries(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterResponse("https://example.com/down", &MockResponse{
		Body:      "never served",
		FailFirst: 10,
	})

	repo := newMemRepo()
	page, err := newTestExtractor(transport, repo).Extract(context.Background(), 1, "https://example.com/down")
	require.Error(t, err)
	require.NotNil(t, page)

	assert.Equal(t, 0, page.StatusCode)
	assert.Equal(t, failedFetchHTML, page.HTML)
	assert.NotEmpty(t, page.ErrorMessage)
	assert.Equal(t, DefaultRetryAttempts, transport.Requests("https://example.com/down"))

	// The placeholder reached the repository.
	stored := repo.page(1, "https://example.com/down")
	require.NotNil(t, stored)
	assert.Equal(t, failedFetchHTML, stored.HTML)
}

func TestExtractRepositoryFailure(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterHTML("https://example.com/", "<html><body>ok</body></html>")

	repo := newMemRepo()
	repo.failUpserts = true
	page, err := newTestExtractor(transport, repo).Extract(context.Background(), 1, "https://example.com/")
	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestExtractGzipBody(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("<html><head><title>Compressed</title></head><body></body></html>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	headers := make(http.Header)
	headers.Set("Content-Type", "text/html")
	headers.Set("Content-Encoding", "gzip")

	transport := NewMockTransport()
	transport.RegisterResponse("https://example.com/gzipped", &MockResponse{
		StatusCode: 200,
		Body:       buf.String(),
		Headers:    headers,
	})

	page, err := newTestExtractor(transport, newMemRepo()).Extract(context.Background(), 1, "https://example.com/gzipped")
	require.NoError(t, err)
	assert.Equal(t, "Compressed", page.Metadata.Title)
}

func TestExtractContextCancellation(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterResponse("https://example.com/slow", &MockResponse{
		Body:      "<html></html>",
		FailFirst: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(transport, newMemRepo()).Extract(ctx, 1, "https://example.com/slow")
	assert.Error(t, err)
}

func TestExtractPinnedUserAgent(t *testing.T) {
	var mu sync.Mutex
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		_, _ = w.Write([]byte("<html><head><title>ok</title></head><body></body></html>"))
	}))
	defer server.Close()

	pe := NewPageExtractor(server.Client(), newMemRepo(), nil, NewDefaultCrawlConfig(), nil)
	for i := 0; i < 4; i++ {
		_, err := pe.Extract(context.Background(), 1, fmt.Sprintf("%s/page-%d", server.URL, i))
		require.NoError(t, err)
	}

	// Every fetch sends the agent pinned at construction, so robots
	// decisions made with it match the traffic.
	require.Len(t, agents, 4)
	for _, ua := range agents {
		assert.Equal(t, pe.userAgent, ua)
	}
	assert.Contains(t, userAgentPool, pe.userAgent)
}

func TestExtractConfiguredUserAgentWins(t *testing.T) {
	cfg := NewDefaultCrawlConfig()
	cfg.UserAgent = "scorebot/1.0"
	pe := NewPageExtractor(nil, newMemRepo(), nil, cfg, nil)
	assert.Equal(t, "scorebot/1.0", pe.userAgent)
}
