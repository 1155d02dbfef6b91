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

package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/rules"
)

func categorize(t *testing.T, pageURL string) Categorization {
	t.Helper()
	c := NewCategorizer(nil, nil)
	page := &aeolens.CrawledPage{URL: pageURL}
	return c.Categorize(context.Background(), page, &rules.PageSignals{})
}

func TestCategorizeURLFastPath(t *testing.T) {
	tests := []struct {
		url        string
		category   string
		confidence float64
	}{
		{"https://example.com/", CategoryHomepage, 1.0},
		{"https://example.com", CategoryHomepage, 1.0},
		{"https://example.com/404", CategoryError, 0.95},
		{"https://example.com/error/not-found", CategoryError, 0.95},
		{"https://example.com/login", CategoryPrivate, 0.95},
		{"https://example.com/account/signin", CategoryPrivate, 0.95},
		{"https://example.com/signup/", CategoryPrivate, 0.95},
	}
	for _, tc := range tests {
		got := categorize(t, tc.url)
		assert.Equal(t, tc.category, got.Category, tc.url)
		assert.Equal(t, tc.confidence, got.Confidence, tc.url)
	}
}

func TestCategorizeFallsBackToUnknownWithoutLLM(t *testing.T) {
	got := categorize(t, "https://example.com/blog/some-article")
	assert.Equal(t, CategoryUnknown, got.Category)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestURLFastPathAmbiguousPathSkipped(t *testing.T) {
	assert.Nil(t, urlFastPath("https://example.com/pricing"))
	assert.Nil(t, urlFastPath("https://example.com/blog/some-article"))
}

func TestAnalysisLevel(t *testing.T) {
	excluded := []string{CategoryError, CategoryPrivate, CategoryLegal}
	for _, c := range excluded {
		assert.Equal(t, LevelExcluded, AnalysisLevel(c), c)
	}

	full := []string{
		CategoryBlogPost, CategoryHowToGuide, CategoryFAQ, CategoryCaseStudy,
		CategoryComparison, CategoryDocumentation, CategoryProductDetail,
	}
	for _, c := range full {
		assert.Equal(t, LevelFull, AnalysisLevel(c), c)
	}

	partial := []string{CategoryHomepage, CategoryProductCategory, CategoryPricing, CategoryLanding}
	for _, c := range partial {
		assert.Equal(t, LevelPartial, AnalysisLevel(c), c)
	}

	limited := []string{CategoryAbout, CategoryContact, CategoryUnknown}
	for _, c := range limited {
		assert.Equal(t, LevelLimited, AnalysisLevel(c), c)
	}
}

func TestBuildDigestTruncates(t *testing.T) {
	page := &aeolens.CrawledPage{
		URL:      "https://example.com/docs/setup",
		Metadata: aeolens.PageMetadata{Title: "Setup Guide"},
	}
	long := make([]byte, 2*digestContentLimit)
	for i := range long {
		long[i] = 'x'
	}
	signals := &rules.PageSignals{
		H1s:       []string{"Getting Started"},
		CleanText: string(long),
	}

	digest := buildDigest(page, signals)

	assert.Contains(t, digest, "Title: Setup Guide")
	assert.Contains(t, digest, "H1: Getting Started")
	assert.Less(t, len(digest), digestContentLimit+300)
}
