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
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/sirupsen/logrus"
)

const (
	sitemapFetchTimeout = 10 * time.Second
	sitemapMaxDepth     = 5
)

// defaultSitemapPaths are the standard locations probed before consulting
// robots.txt Sitemap: directives.
var defaultSitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemaps.xml",
	"/sitemap/sitemap.xml",
}

// nonContentSegments filters path segments that never carry answer-worthy
// content: admin surfaces, API endpoints and feeds. Matched on whole
// segments so /feed is filtered but /feedback is not.
var nonContentSegments = []string{
	"wp-admin", "wp-login", "admin", "login", "signin", "signup",
	"cart", "checkout", "account",
	"api", "wp-json", "feed", "rss", "atom",
}

// nonContentExtensions filters binary and machine-readable assets,
// anchored to the path suffix.
var nonContentExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
	".css", ".js", ".zip", ".gz", ".mp3", ".mp4", ".webm", ".woff", ".woff2",
	".xml", ".txt",
}

// isNonContentURL checks the hard-coded denylists against the URL's path.
func isNonContentURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return true
	}
	p := strings.ToLower(parsed.Path)
	for _, ext := range nonContentExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	for _, segment := range strings.Split(strings.Trim(p, "/"), "/") {
		for _, deny := range nonContentSegments {
			if segment == deny {
				return true
			}
		}
	}
	return false
}

// SitemapDiscovery expands a start URL into content URLs using the site's
// sitemaps. Probes are tried in order and the first location that yields
// URLs wins; any probe failure is non-fatal.
type SitemapDiscovery struct {
	client *http.Client
	robots *RobotsPolicy
	logger *logrus.Logger
}

// NewSitemapDiscovery creates a discovery helper. A nil client gets a
// dedicated one with the sitemap fetch timeout; robots may be nil to skip
// robots.txt Sitemap: directives.
func NewSitemapDiscovery(client *http.Client, robots *RobotsPolicy, logger *logrus.Logger) *SitemapDiscovery {
	if client == nil {
		client = &http.Client{Timeout: sitemapFetchTimeout}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &SitemapDiscovery{client: client, robots: robots, logger: logger}
}

// Discover returns up to maxPages same-host content URLs for startURL.
// cfg's include/exclude patterns are applied; cfg may be nil.
func (sd *SitemapDiscovery) Discover(startURL string, maxPages int, cfg *CrawlConfig) []string {
	parsed, err := url.Parse(NormalizeURL(startURL))
	if err != nil || parsed.Host == "" {
		return nil
	}

	candidates := make([]string, 0, len(defaultSitemapPaths)+2)
	base := parsed.Scheme + "://" + parsed.Host
	for _, p := range defaultSitemapPaths {
		candidates = append(candidates, base+p)
	}
	if sd.robots != nil {
		candidates = append(candidates, sd.robots.Sitemaps(startURL)...)
	}

	seenProbe := make(map[string]bool, len(candidates))
	seenURL := make(map[string]bool)
	var collected []string

	for _, candidate := range candidates {
		if seenProbe[candidate] {
			continue
		}
		seenProbe[candidate] = true

		urls := sd.fetchSitemap(candidate, 0)
		for _, u := range urls {
			normalized := NormalizeURL(u)
			if seenURL[normalized] {
				continue
			}
			if !SameHost(normalized, startURL) {
				continue
			}
			if cfg != nil && !cfg.AllowsURL(normalized) {
				continue
			}
			if isNonContentURL(normalized) {
				continue
			}
			seenURL[normalized] = true
			collected = append(collected, normalized)
			if maxPages > 0 && len(collected) >= maxPages {
				return collected
			}
		}

		// First contributing probe wins; remaining candidates are
		// usually aliases of the same index.
		if len(collected) > 0 {
			break
		}
	}
	return collected
}

// fetchSitemap fetches and parses one sitemap document, recursing into
// sitemap indexes. Returns the contained page URLs.
func (sd *SitemapDiscovery) fetchSitemap(sitemapURL string, depth int) []string {
	if depth > sitemapMaxDepth {
		return nil
	}

	req, err := http.NewRequest(http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := sd.client.Do(req)
	if err != nil {
		sd.logger.WithError(err).WithField("sitemap", sitemapURL).Debug("sitemap fetch failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		sd.logger.WithError(err).WithField("sitemap", sitemapURL).Debug("sitemap parse failed")
		return nil
	}

	root := doc.SelectElement("sitemapindex")
	if root != nil {
		var urls []string
		for _, loc := range xmlquery.Find(doc, "//sitemap/loc") {
			child := strings.TrimSpace(loc.InnerText())
			if child == "" {
				continue
			}
			urls = append(urls, sd.fetchSitemap(child, depth+1)...)
		}
		return urls
	}

	if doc.SelectElement("urlset") != nil {
		var urls []string
		for _, loc := range xmlquery.Find(doc, "//url/loc") {
			if u := strings.TrimSpace(loc.InnerText()); u != "" {
				urls = append(urls, u)
			}
		}
		return urls
	}

	// Neither index nor urlset: not a sitemap we understand.
	return nil
}
