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
)

// memRepo is an in-memory Repository used by the crawl tests. Pages are
// keyed by (projectID, URL) like the real store's unique index.
type memRepo struct {
	mu     sync.Mutex
	nextID uint
	pages  map[uint]map[string]*CrawledPage
	scores map[uint]map[string]*ContentScore

	failUpserts bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		pages:  make(map[uint]map[string]*CrawledPage),
		scores: make(map[uint]map[string]*ContentScore),
	}
}

func (m *memRepo) UpsertCrawledPage(ctx context.Context, page *CrawledPage) (*CrawledPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpserts {
		return nil, context.Canceled
	}
	byURL, ok := m.pages[page.ProjectID]
	if !ok {
		byURL = make(map[string]*CrawledPage)
		m.pages[page.ProjectID] = byURL
	}
	saved := *page
	if existing, ok := byURL[page.URL]; ok {
		saved.ID = existing.ID
	} else {
		m.nextID++
		saved.ID = m.nextID
	}
	byURL[page.URL] = &saved
	out := saved
	return &out, nil
}

func (m *memRepo) FindUnprocessedByProject(ctx context.Context, projectID uint, limit int) ([]CrawledPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pages []CrawledPage
	for _, p := range m.pages[projectID] {
		if !p.IsProcessed {
			pages = append(pages, *p)
			if limit > 0 && len(pages) >= limit {
				break
			}
		}
	}
	return pages, nil
}

func (m *memRepo) MarkProcessed(ctx context.Context, pageID uint, processed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, byURL := range m.pages {
		for _, p := range byURL {
			if p.ID == pageID {
				p.IsProcessed = processed
				return nil
			}
		}
	}
	return nil
}

func (m *memRepo) UpsertContentScore(ctx context.Context, score *ContentScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byURL, ok := m.scores[score.ProjectID]
	if !ok {
		byURL = make(map[string]*ContentScore)
		m.scores[score.ProjectID] = byURL
	}
	saved := *score
	byURL[score.URL] = &saved
	return nil
}

func (m *memRepo) GetProjectCrawlStats(ctx context.Context, projectID uint) (*CrawlStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &CrawlStats{}
	for _, p := range m.pages[projectID] {
		stats.TotalPages++
		if p.StatusCode >= 200 && p.StatusCode < 400 {
			stats.SuccessfulPages++
		} else {
			stats.FailedPages++
		}
		if p.IsProcessed {
			stats.ProcessedPages++
		}
	}
	stats.ScoredPages = len(m.scores[projectID])
	return stats, nil
}

func (m *memRepo) GetProjectContext(ctx context.Context, projectID uint) (*ProjectContext, error) {
	return &ProjectContext{}, nil
}

func (m *memRepo) page(projectID uint, url string) *CrawledPage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pages[projectID][url]
}

func (m *memRepo) pageCount(projectID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages[projectID])
}

func (m *memRepo) urls(projectID uint) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var urls []string
	for u := range m.pages[projectID] {
		urls = append(urls, u)
	}
	return urls
}
