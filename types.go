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
	"time"
)

// PageMetadata holds structured metadata extracted from one HTML page.
// Optional fields are pointers or empty strings; absent means not found.
type PageMetadata struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Author       string           `json:"author,omitempty"`
	PublishDate  *time.Time       `json:"publishDate,omitempty"`
	ModifiedDate *time.Time       `json:"modifiedDate,omitempty"`
	CanonicalURL string           `json:"canonicalUrl,omitempty"`
	Lang         string           `json:"lang,omitempty"`
	Schema       []map[string]any `json:"schema,omitempty"`
}

// CrawledPage is the persistent record of one fetched URL.
// (ProjectID, URL) is unique; re-crawls update in place.
type CrawledPage struct {
	ID             uint              `json:"id"`
	ProjectID      uint              `json:"projectId"`
	URL            string            `json:"url"`
	CrawledAt      time.Time         `json:"crawledAt"`
	StatusCode     int               `json:"statusCode"`
	ResponseTimeMs int64             `json:"responseTimeMs"`
	// HTML is the raw body. Always non-empty: failed fetches store a
	// minimal HTML sentinel so downstream parsers never see nil.
	HTML         string            `json:"html"`
	Headers      map[string]string `json:"headers"`
	Metadata     PageMetadata      `json:"metadata"`
	ContentHash  string            `json:"contentHash"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	IsProcessed  bool              `json:"isProcessed"`

	// OutboundLinks lists normalized same-host outlinks. Crawl-time
	// only; not part of the persisted record's identity.
	OutboundLinks []string `json:"-"`
}

// IssueSeverity ranks an issue's urgency. Sorting is by ascending rank:
// critical first.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityHigh     IssueSeverity = "high"
	SeverityMedium   IssueSeverity = "medium"
	SeverityLow      IssueSeverity = "low"
)

// SeverityRank maps severities to their sort order. Unknown severities
// sort after the known ones.
func SeverityRank(s IssueSeverity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// ScoreIssue is a severity-tagged actionable finding surfaced by a rule.
type ScoreIssue struct {
	Dimension      string        `json:"dimension"`
	RuleID         string        `json:"ruleId"`
	Severity       IssueSeverity `json:"severity"`
	Description    string        `json:"description"`
	Recommendation string        `json:"recommendation"`
}

// RuleContribution records one rule's share of a dimension score.
type RuleContribution struct {
	RuleID       string  `json:"ruleId"`
	Name         string  `json:"name"`
	Score        int     `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// EvidenceItem is a display-only record attached to rule results.
// Aggregation never parses these.
type EvidenceItem struct {
	Topic   string   `json:"topic"`
	Icon    string   `json:"icon"` // success, warning, error, info, score
	Message string   `json:"message"`
	Score   *float64 `json:"score,omitempty"`
	Target  *float64 `json:"target,omitempty"`
}

// DimensionDetail explains how one dimension score was aggregated.
type DimensionDetail struct {
	Score         int                `json:"score"`
	Contributions []RuleContribution `json:"contributions"`
	Evidence      []EvidenceItem     `json:"evidence"`
}

// ContentScore is the persisted analysis result for one page.
// One per (ProjectID, URL); reanalysis recomputes it in place.
type ContentScore struct {
	ID            uint `json:"id"`
	ProjectID     uint `json:"projectId"`
	CrawledPageID uint `json:"crawledPageId"`

	URL string `json:"url"`

	Technical int `json:"technical"`
	Structure int `json:"structure"`
	Authority int `json:"authority"`
	Quality   int `json:"quality"`

	GlobalScore int `json:"globalScore"`

	// Excluded marks pages whose category skips analysis; all scores
	// are zero and Details is empty.
	Excluded bool   `json:"excluded"`
	PageType string `json:"pageType"`

	Details map[string]DimensionDetail `json:"details"`
	Issues  []ScoreIssue               `json:"issues"`

	AnalyzedAt          time.Time `json:"analyzedAt"`
	ScoringRulesVersion string    `json:"scoringRulesVersion"`
}

// ProjectContext is the read-only per-crawl brand input.
type ProjectContext struct {
	BrandName          string   `json:"brandName"`
	KeyBrandAttributes []string `json:"keyBrandAttributes"`
	Competitors        []string `json:"competitors"`
}

// CrawlStats summarizes a project's stored pages.
type CrawlStats struct {
	TotalPages      int `json:"totalPages"`
	SuccessfulPages int `json:"successfulPages"`
	FailedPages     int `json:"failedPages"`
	ProcessedPages  int `json:"processedPages"`
	ScoredPages     int `json:"scoredPages"`
}

// Repository is the persistence contract injected into the crawler and
// the analysis pipeline. Upserts are last-write-wins per (projectID, url).
type Repository interface {
	UpsertCrawledPage(ctx context.Context, page *CrawledPage) (*CrawledPage, error)
	FindUnprocessedByProject(ctx context.Context, projectID uint, limit int) ([]CrawledPage, error)
	MarkProcessed(ctx context.Context, pageID uint, processed bool) error
	UpsertContentScore(ctx context.Context, score *ContentScore) error
	GetProjectCrawlStats(ctx context.Context, projectID uint) (*CrawlStats, error)
	GetProjectContext(ctx context.Context, projectID uint) (*ProjectContext, error)
}
