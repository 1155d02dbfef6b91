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
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/saintfish/chardet"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// failedFetchHTML is the sentinel body stored for pages that could not be
// fetched. CrawledPage.HTML must never be empty.
const failedFetchHTML = "<html><body></body></html>"

var htmlCommentRe = regexp.MustCompile(`<!--[\s\S]*?-->`)

// PageExtractor fetches one URL with retries, parses the HTML and persists
// the resulting CrawledPage through the repository.
type PageExtractor struct {
	client  *http.Client
	repo    Repository
	limiter *RateLimiter
	cfg     *CrawlConfig
	logger  *logrus.Logger

	// userAgent is pinned at construction so the agent checked against
	// robots.txt is the one every fetch actually sends.
	userAgent string

	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewPageExtractor creates an extractor. A nil client gets a dedicated one
// using the config's timeout; limiter may be nil to disable rate limiting.
func NewPageExtractor(client *http.Client, repo Repository, limiter *RateLimiter, cfg *CrawlConfig, logger *logrus.Logger) *PageExtractor {
	if cfg == nil {
		cfg = NewDefaultCrawlConfig()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &PageExtractor{
		client:         client,
		repo:           repo,
		limiter:        limiter,
		cfg:            cfg,
		logger:         logger,
		userAgent:      pickUserAgent(cfg.UserAgent),
		retryAttempts:  DefaultRetryAttempts,
		retryBaseDelay: DefaultRetryBaseDelay,
	}
}

// Extract fetches rawURL, extracts metadata and outlinks, and upserts the
// page. On transport failure after all retries the placeholder record is
// persisted and the fetch error is returned so the orchestrator can count
// it. Non-2xx statuses are valid responses, never errors.
func (pe *PageExtractor) Extract(ctx context.Context, projectID uint, rawURL string) (*CrawledPage, error) {
	pageURL := NormalizeURL(rawURL)

	body, statusCode, headers, elapsed, fetchErr := pe.fetchWithRetry(ctx, pageURL)
	if fetchErr != nil {
		placeholder := &CrawledPage{
			ProjectID:      projectID,
			URL:            pageURL,
			CrawledAt:      time.Now(),
			StatusCode:     0,
			ResponseTimeMs: elapsed.Milliseconds(),
			HTML:           failedFetchHTML,
			Headers:        map[string]string{},
			ContentHash:    hashBody([]byte(failedFetchHTML)),
			ErrorMessage:   fetchErr.Error(),
			IsProcessed:    false,
		}
		if _, err := pe.repo.UpsertCrawledPage(ctx, placeholder); err != nil {
			return nil, fmt.Errorf("persist placeholder for %s: %w", pageURL, err)
		}
		return placeholder, fetchErr
	}

	if len(body) == 0 {
		body = []byte(failedFetchHTML)
	}

	page := &CrawledPage{
		ProjectID:      projectID,
		URL:            pageURL,
		CrawledAt:      time.Now(),
		StatusCode:     statusCode,
		ResponseTimeMs: elapsed.Milliseconds(),
		HTML:           string(body),
		Headers:        lowercaseHeaders(headers),
		ContentHash:    hashBody(body),
		IsProcessed:    false,
	}

	if isHTMLResponse(headers) {
		decoded := decodeCharset(body, headers.Get("Content-Type"))
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded)); err == nil {
			page.Metadata = extractMetadata(doc)
			page.OutboundLinks = extractOutboundLinks(doc, pageURL)
		}
	}

	saved, err := pe.repo.UpsertCrawledPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("persist page %s: %w", pageURL, err)
	}
	saved.OutboundLinks = page.OutboundLinks
	return saved, nil
}

// fetchWithRetry performs up to retryAttempts fetches with exponential
// backoff. Rate-limiter capacity is taken per attempt and released in a
// deferred closure so transport panics or early returns can't leak slots.
func (pe *PageExtractor) fetchWithRetry(ctx context.Context, pageURL string) (body []byte, status int, headers http.Header, elapsed time.Duration, err error) {
	domain := URLHost(pageURL)

	for attempt := 0; attempt < pe.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := pe.retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, 0, nil, elapsed, ctx.Err()
			}
		}

		body, status, headers, elapsed, err = func() ([]byte, int, http.Header, time.Duration, error) {
			if pe.limiter != nil {
				if lerr := pe.limiter.Acquire(ctx, domain); lerr != nil {
					return nil, 0, nil, 0, lerr
				}
				defer pe.limiter.Release(domain)
			}
			return pe.fetchOnce(ctx, pageURL)
		}()

		if err == nil {
			return body, status, headers, elapsed, nil
		}
		if ctx.Err() != nil {
			return nil, 0, nil, elapsed, ctx.Err()
		}
		pe.logger.WithError(err).WithFields(logrus.Fields{"url": pageURL, "attempt": attempt + 1}).Debug("fetch attempt failed")
	}
	return nil, 0, nil, elapsed, fmt.Errorf("fetch %s failed after %d attempts: %w", pageURL, pe.retryAttempts, err)
}

// fetchOnce performs a single GET. Every HTTP status is a success at this
// level; only transport errors are returned as errors.
func (pe *PageExtractor) fetchOnce(ctx context.Context, pageURL string) ([]byte, int, http.Header, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, nil, 0, err
	}
	req.Header.Set("User-Agent", pe.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := pe.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, 0, nil, elapsed, err
	}
	defer resp.Body.Close()

	reader, err := contentDecoder(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, resp.StatusCode, resp.Header, elapsed, err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, elapsed, err
	}
	return body, resp.StatusCode, resp.Header, elapsed, nil
}

// contentDecoder wraps a body reader according to Content-Encoding.
// Unknown encodings pass through unchanged.
func contentDecoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return r, nil
	}
}

// decodeCharset converts a response body to UTF-8. The Content-Type
// charset wins; bodies without one go through chardet detection.
func decodeCharset(body []byte, contentType string) []byte {
	label := ""
	if idx := strings.Index(strings.ToLower(contentType), "charset="); idx >= 0 {
		label = strings.Trim(contentType[idx+8:], `"' `)
		if semi := strings.Index(label, ";"); semi >= 0 {
			label = label[:semi]
		}
	}
	if label == "" {
		detector := chardet.NewHtmlDetector()
		if result, err := detector.DetectBest(body); err == nil {
			label = result.Charset
		}
	}
	if label == "" || strings.EqualFold(label, "utf-8") {
		return body
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}

// hashBody returns the SHA-256 hex digest of the raw body.
func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func isHTMLResponse(headers http.Header) bool {
	ct := headers.Get("Content-Type")
	// Servers that omit Content-Type are treated as HTML; the parser is
	// tolerant and non-HTML simply yields empty metadata.
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

func lowercaseHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) > 0 {
			out[strings.ToLower(name)] = values[0]
		}
	}
	return out
}

// metaContent returns the first non-empty content attribute among the
// given selectors.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// publishDateSelectors are tried in order: meta tags carry machine dates
// and win over visible elements.
var publishDateSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[name="publish-date"]`, "content"},
	{`meta[name="publication_date"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`time[datetime]`, "datetime"},
	{`time[pubdate]`, "datetime"},
	{`.published-date`, ""},
	{`.post-date`, ""},
	{`.entry-date`, ""},
}

var modifiedDateSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:modified_time"]`, "content"},
	{`meta[property="og:updated_time"]`, "content"},
	{`meta[name="last-modified"]`, "content"},
	{`meta[itemprop="dateModified"]`, "content"},
	{`time[itemprop="dateModified"]`, "datetime"},
	{`.updated-date`, ""},
	{`.modified-date`, ""},
}

func extractDate(doc *goquery.Document, selectors []struct {
	selector string
	attr     string
}) *time.Time {
	for _, s := range selectors {
		sel := doc.Find(s.selector).First()
		if sel.Length() == 0 {
			continue
		}
		raw := ""
		if s.attr != "" {
			raw, _ = sel.Attr(s.attr)
		} else {
			raw = sel.Text()
		}
		if t := ParseDate(raw); t != nil {
			return t
		}
	}
	return nil
}

// extractMetadata pulls the structured metadata block from a parsed page.
func extractMetadata(doc *goquery.Document) PageMetadata {
	md := PageMetadata{}

	md.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if md.Title == "" {
		md.Title = metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`)
	}

	md.Description = metaContent(doc,
		`meta[name="description"]`,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`)

	md.Author = metaContent(doc, `meta[name="author"]`, `meta[property="article:author"]`)
	if md.Author == "" {
		for _, sel := range []string{`[rel="author"]`, `.author-name`, `.by-author`} {
			if v := strings.TrimSpace(doc.Find(sel).First().Text()); v != "" {
				md.Author = v
				break
			}
		}
	}

	md.PublishDate = extractDate(doc, publishDateSelectors)
	md.ModifiedDate = extractDate(doc, modifiedDateSelectors)

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		md.CanonicalURL = strings.TrimSpace(href)
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		md.Lang = strings.TrimSpace(lang)
	}

	md.Schema = extractJSONLD(doc)
	return md
}

// extractJSONLD parses every ld+json script block tolerantly: whatever
// survives trimming, comment stripping and brace slicing is kept, the
// rest is ignored per-block.
func extractJSONLD(doc *goquery.Document) []map[string]any {
	var blocks []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := htmlCommentRe.ReplaceAllString(strings.TrimSpace(s.Text()), "")
		raw = sliceJSONRegion(raw)
		if raw == "" {
			return
		}
		if strings.HasPrefix(raw, "[") {
			var arr []map[string]any
			if err := json.Unmarshal([]byte(raw), &arr); err == nil {
				blocks = append(blocks, arr...)
			}
			return
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			blocks = append(blocks, obj)
		}
	})
	return blocks
}

// sliceJSONRegion cuts the region between the first "{" and last "}" (or
// "[" and "]"), dropping stray prefixes some CMSes emit around JSON-LD.
func sliceJSONRegion(raw string) string {
	objStart, objEnd := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	arrStart, arrEnd := strings.Index(raw, "["), strings.LastIndex(raw, "]")

	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) && arrEnd > arrStart {
		return raw[arrStart : arrEnd+1]
	}
	if objStart >= 0 && objEnd > objStart {
		return raw[objStart : objEnd+1]
	}
	return ""
}

// extractOutboundLinks resolves every anchor href against the page URL
// and keeps the normalized same-host ones, deduplicated.
func extractOutboundLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := NormalizeURL(base.ResolveReference(ref).String())
		if !SameHost(resolved, pageURL) || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links
}
