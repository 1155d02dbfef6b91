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

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentberlin/aeolens"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStoreWithPath(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return st
}

func storedPage(projectID uint, url string, status int) *aeolens.CrawledPage {
	return &aeolens.CrawledPage{
		ProjectID:  projectID,
		URL:        url,
		CrawledAt:  time.Now(),
		StatusCode: status,
		HTML:       "<html><body><h1>stored</h1></body></html>",
		Headers:    map[string]string{"content-type": "text/html"},
		Metadata:   aeolens.PageMetadata{Title: "Stored Page"},
	}
}

func TestNewStoreWithPathMissingDir(t *testing.T) {
	_, err := NewStoreWithPath(filepath.Join(t.TempDir(), "nope", "test.db"))
	assert.Error(t, err)
}

func TestUpsertCrawledPageInsertThenUpdate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.UpsertCrawledPage(ctx, storedPage(1, "https://example.com/a", 200))
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	updated := storedPage(1, "https://example.com/a", 301)
	updated.Metadata.Title = "Moved"
	second, err := st.UpsertCrawledPage(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 301, second.StatusCode)
	assert.Equal(t, "Moved", second.Metadata.Title)

	stats, err := st.GetProjectCrawlStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPages)
}

func TestUpsertCrawledPageRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	page := storedPage(1, "https://example.com/post", 200)
	page.ResponseTimeMs = 123
	page.Metadata.Author = "Jane Doe"
	page.Metadata.PublishDate = &published
	page.Metadata.Schema = []map[string]any{{"@type": "Article"}}

	saved, err := st.UpsertCrawledPage(ctx, page)
	require.NoError(t, err)

	got, err := st.GetPageByURL(ctx, 1, "https://example.com/post")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, int64(123), got.ResponseTimeMs)
	assert.Equal(t, "Jane Doe", got.Metadata.Author)
	require.NotNil(t, got.Metadata.PublishDate)
	assert.True(t, published.Equal(*got.Metadata.PublishDate))
	require.Len(t, got.Metadata.Schema, 1)
	assert.Equal(t, "Article", got.Metadata.Schema[0]["@type"])
	assert.Equal(t, "text/html", got.Headers["content-type"])
}

func TestFindUnprocessedByProject(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, url := range []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	} {
		_, err := st.UpsertCrawledPage(ctx, storedPage(1, url, 200))
		require.NoError(t, err)
	}
	_, err := st.UpsertCrawledPage(ctx, storedPage(2, "https://other.com/x", 200))
	require.NoError(t, err)

	pages, err := st.FindUnprocessedByProject(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "https://example.com/a", pages[0].URL)

	limited, err := st.FindUnprocessedByProject(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, st.MarkProcessed(ctx, pages[0].ID, true))
	remaining, err := st.FindUnprocessedByProject(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "https://example.com/b", remaining[0].URL)
}

func TestMarkProcessedUnknownID(t *testing.T) {
	st := newTestStore(t)
	err := st.MarkProcessed(context.Background(), 999, true)
	assert.Error(t, err)
}

func TestGetProjectCrawlStats(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ok, err := st.UpsertCrawledPage(ctx, storedPage(1, "https://example.com/ok", 200))
	require.NoError(t, err)
	_, err = st.UpsertCrawledPage(ctx, storedPage(1, "https://example.com/moved", 302))
	require.NoError(t, err)
	_, err = st.UpsertCrawledPage(ctx, storedPage(1, "https://example.com/missing", 404))
	require.NoError(t, err)
	_, err = st.UpsertCrawledPage(ctx, storedPage(1, "https://example.com/down", 0))
	require.NoError(t, err)

	require.NoError(t, st.MarkProcessed(ctx, ok.ID, true))
	require.NoError(t, st.UpsertContentScore(ctx, &aeolens.ContentScore{
		ProjectID:     1,
		CrawledPageID: ok.ID,
		URL:           ok.URL,
		GlobalScore:   72,
		AnalyzedAt:    time.Now(),
	}))

	stats, err := st.GetProjectCrawlStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalPages)
	assert.Equal(t, 2, stats.SuccessfulPages)
	assert.Equal(t, 2, stats.FailedPages)
	assert.Equal(t, 1, stats.ProcessedPages)
	assert.Equal(t, 1, stats.ScoredPages)
}

func TestProjectLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateProject(ctx, "Example", "https://example.com/", "example.com")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byID, err := st.GetProjectByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Example", byID.Name)

	byDomain, err := st.GetProjectByDomain(ctx, "example.com")
	require.NoError(t, err)
	require.NotNil(t, byDomain)
	assert.Equal(t, created.ID, byDomain.ID)

	missing, err := st.GetProjectByDomain(ctx, "absent.test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	same, err := st.GetOrCreateProject(ctx, "Example", "https://example.com/", "example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, same.ID)

	fresh, err := st.GetOrCreateProject(ctx, "Other", "https://other.com/", "other.com")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, fresh.ID)

	projects, err := st.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestBrandContextRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "Acme", "https://acme.test/", "acme.test")
	require.NoError(t, err)

	empty, err := st.GetProjectContext(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.BrandName)

	err = st.UpdateBrandContext(ctx, project.ID, "Acme",
		[]string{"reliable", "fast"}, []string{"Globex"})
	require.NoError(t, err)

	got, err := st.GetProjectContext(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.BrandName)
	assert.Equal(t, []string{"reliable", "fast"}, got.KeyBrandAttributes)
	assert.Equal(t, []string{"Globex"}, got.Competitors)

	// Unknown project yields an empty context, not an error.
	none, err := st.GetProjectContext(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none.BrandName)
}

func TestDeleteProjectCascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "Acme", "https://acme.test/", "acme.test")
	require.NoError(t, err)
	page, err := st.UpsertCrawledPage(ctx, storedPage(project.ID, "https://acme.test/a", 200))
	require.NoError(t, err)
	require.NoError(t, st.UpsertContentScore(ctx, &aeolens.ContentScore{
		ProjectID:     project.ID,
		CrawledPageID: page.ID,
		URL:           page.URL,
		AnalyzedAt:    time.Now(),
	}))

	require.NoError(t, st.DeleteProject(ctx, project.ID))

	_, err = st.GetProjectByID(ctx, project.ID)
	assert.Error(t, err)
	stats, err := st.GetProjectCrawlStats(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalPages)
	assert.Equal(t, 0, stats.ScoredPages)
}
