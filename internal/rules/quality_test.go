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

package rules

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentberlin/aeolens"
)

func TestReadabilityRule(t *testing.T) {
	rule := NewReadabilityRule()

	crisp := ruleContext(nil, &PageSignals{SentenceCount: 20, AvgSentenceWords: 14, LongSentences: 1})
	res, err := rule.Evaluate(context.Background(), crisp)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)

	wordy := ruleContext(nil, &PageSignals{SentenceCount: 20, AvgSentenceWords: 30, LongSentences: 12})
	res, err = rule.Evaluate(context.Background(), wordy)
	require.NoError(t, err)
	assert.Equal(t, 70, res.Score)

	rambling := ruleContext(nil, &PageSignals{SentenceCount: 20, AvgSentenceWords: 45, LongSentences: 18})
	res, err = rule.Evaluate(context.Background(), rambling)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Score)

	empty := ruleContext(nil, &PageSignals{})
	res, err = rule.Evaluate(context.Background(), empty)
	require.NoError(t, err)
	assert.Equal(t, 30, res.Score)
}

func TestWordCountRule(t *testing.T) {
	rule := NewWordCountRule()

	// Blog posts expect 600 words.
	full := ruleContext(nil, &PageSignals{WordCount: 700})
	res, err := rule.Evaluate(context.Background(), full)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)

	half := ruleContext(nil, &PageSignals{WordCount: 350})
	res, err = rule.Evaluate(context.Background(), half)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Score)

	thin := ruleContext(nil, &PageSignals{WordCount: 80})
	res, err = rule.Evaluate(context.Background(), thin)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Score)
	assert.True(t, hasSeverity(res.Issues, aeolens.SeverityMedium))

	// Unknown categories use the configured default of 300.
	unknownCat := ruleContext(nil, &PageSignals{WordCount: 320})
	unknownCat.Category = "unknown"
	res, err = rule.Evaluate(context.Background(), unknownCat)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
}

func TestUpdateFrequencyRule(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rule := NewUpdateFrequencyRule()
	rule.now = func() time.Time { return now }

	ageDays := func(days int) *RuleContext {
		modified := now.AddDate(0, 0, -days)
		return ruleContext(&aeolens.CrawledPage{
			URL:      "https://example.com/p",
			Metadata: aeolens.PageMetadata{ModifiedDate: &modified},
		}, nil)
	}

	tests := []struct {
		days      int
		wantScore int
	}{
		{10, 100},
		{90, 100},
		{91, 80},
		{180, 80},
		{181, 60},
		{365, 60},
		{366, 40},
		{1200, 40},
	}
	for _, tt := range tests {
		res, err := rule.Evaluate(context.Background(), ageDays(tt.days))
		require.NoError(t, err)
		assert.Equal(t, tt.wantScore, res.Score, "%d days old", tt.days)
	}

	// Publish date stands in when there is no modified date.
	published := now.AddDate(0, 0, -30)
	onlyPublished := ruleContext(&aeolens.CrawledPage{
		URL:      "https://example.com/p",
		Metadata: aeolens.PageMetadata{PublishDate: &published},
	}, nil)
	res, err := rule.Evaluate(context.Background(), onlyPublished)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)

	// No date at all is a critical finding with a zero score.
	res, err = rule.Evaluate(context.Background(), ruleContext(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.True(t, hasSeverity(res.Issues, aeolens.SeverityCritical))
}

func TestUpdateFrequencyApplicability(t *testing.T) {
	rule := NewUpdateFrequencyRule()
	assert.True(t, rule.AppliesTo("blog-post"))
	assert.True(t, rule.AppliesTo("documentation"))
	assert.False(t, rule.AppliesTo("homepage"))
	assert.False(t, rule.AppliesTo("pricing"))
}

func TestMetaDescriptionRule(t *testing.T) {
	rule := NewMetaDescriptionRule()

	tests := []struct {
		name      string
		desc      string
		wantScore int
	}{
		{"missing", "", 20},
		{"too short", "Acme widgets.", 50},
		{"ideal", strings.Repeat("x", 140), 100},
		{"overlong", strings.Repeat("x", 200), 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := ruleContext(&aeolens.CrawledPage{
				URL:      "https://example.com/p",
				Metadata: aeolens.PageMetadata{Description: tt.desc},
			}, nil)
			res, err := rule.Evaluate(context.Background(), rc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, res.Score)
		})
	}
}

func TestContentDepthHeuristic(t *testing.T) {
	rule := NewContentDepthRule()

	// No LLM configured: the deterministic heuristic answers.
	rich := ruleContext(nil, &PageSignals{
		WordCount:     1200,
		Headings:      []Heading{{Level: 1}, {Level: 2}, {Level: 2}, {Level: 3}},
		ListCount:     2,
		ExternalLinks: 3,
	})
	res, err := rule.Evaluate(context.Background(), rich)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)

	thin := ruleContext(nil, &PageSignals{WordCount: 100})
	res, err = rule.Evaluate(context.Background(), thin)
	require.NoError(t, err)
	assert.Equal(t, 30, res.Score)
}
