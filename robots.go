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
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const robotsFetchTimeout = 5 * time.Second

// robotsEntry is the per-host cache record. A nil data pointer means the
// robots.txt could not be fetched or parsed; the policy is then allow-all.
type robotsEntry struct {
	data     *robotstxt.RobotsData
	sitemaps []string
}

// RobotsPolicy fetches and caches robots.txt interpreters per host.
// The cache is process-wide, write-once per host and read-mostly.
type RobotsPolicy struct {
	client *http.Client
	mu     sync.RWMutex
	hosts  map[string]*robotsEntry
}

// NewRobotsPolicy creates a policy cache. If client is nil a dedicated
// client with the robots fetch timeout is used.
func NewRobotsPolicy(client *http.Client) *RobotsPolicy {
	if client == nil {
		client = &http.Client{Timeout: robotsFetchTimeout}
	}
	return &RobotsPolicy{
		client: client,
		hosts:  make(map[string]*robotsEntry),
	}
}

// IsAllowed reports whether the given user agent may fetch rawURL under the
// host's robots.txt. Hosts without a retrievable policy default to allow.
func (rp *RobotsPolicy) IsAllowed(rawURL, userAgent string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	entry := rp.entryFor(parsed)
	if entry.data == nil {
		return true
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return entry.data.FindGroup(userAgent).Test(path)
}

// Sitemaps returns the Sitemap: directive URLs declared in the host's
// robots.txt. The host's policy is fetched on first use.
func (rp *RobotsPolicy) Sitemaps(rawURL string) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	return rp.entryFor(parsed).sitemaps
}

// entryFor returns the cached entry for the URL's host, fetching the
// robots.txt once on a miss. Concurrent first lookups may both fetch;
// the first write wins and later ones are discarded.
func (rp *RobotsPolicy) entryFor(parsed *url.URL) *robotsEntry {
	host := strings.ToLower(parsed.Host)

	rp.mu.RLock()
	entry, ok := rp.hosts[host]
	rp.mu.RUnlock()
	if ok {
		return entry
	}

	entry = rp.fetch(parsed.Scheme, host)

	rp.mu.Lock()
	if existing, ok := rp.hosts[host]; ok {
		entry = existing
	} else {
		rp.hosts[host] = entry
	}
	rp.mu.Unlock()
	return entry
}

// fetch retrieves and parses a host's robots.txt. No retries: a failed
// fetch is treated as "no policy".
func (rp *RobotsPolicy) fetch(scheme, host string) *robotsEntry {
	if scheme == "" {
		scheme = "https"
	}
	resp, err := rp.client.Get(scheme + "://" + host + "/robots.txt")
	if err != nil {
		return &robotsEntry{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &robotsEntry{}
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		data = nil
	}
	return &robotsEntry{data: data, sitemaps: extractSitemapDirectives(body)}
}

// extractSitemapDirectives pulls Sitemap: lines (case-insensitive) out of a
// robots.txt body.
func extractSitemapDirectives(body []byte) []string {
	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) < 8 || !strings.EqualFold(line[:8], "sitemap:") {
			continue
		}
		if u := strings.TrimSpace(line[8:]); u != "" {
			sitemaps = append(sitemaps, u)
		}
	}
	return sitemaps
}
