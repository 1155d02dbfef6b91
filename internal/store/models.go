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
	"encoding/json"
	"time"

	"github.com/agentberlin/aeolens"
)

// Project represents one analyzed website plus its brand context.
type Project struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	URL    string `gorm:"not null"`             // Normalized start URL for the project
	Domain string `gorm:"uniqueIndex;not null"` // Host identifier (includes subdomain)
	// Brand context fed into authority rules
	BrandName          string `gorm:"type:text"`
	KeyBrandAttributes string `gorm:"type:text"` // JSON array
	Competitors        string `gorm:"type:text"` // JSON array
	CreatedAt          int64  `gorm:"autoCreateTime"`
	UpdatedAt          int64  `gorm:"autoUpdateTime"`
}

// GetKeyBrandAttributes deserializes the JSON attribute list.
func (p *Project) GetKeyBrandAttributes() []string {
	return decodeStringArray(p.KeyBrandAttributes)
}

// SetKeyBrandAttributes serializes the attribute list to JSON.
func (p *Project) SetKeyBrandAttributes(attrs []string) error {
	data, err := encodeStringArray(attrs)
	if err != nil {
		return err
	}
	p.KeyBrandAttributes = data
	return nil
}

// GetCompetitors deserializes the JSON competitor list.
func (p *Project) GetCompetitors() []string {
	return decodeStringArray(p.Competitors)
}

// SetCompetitors serializes the competitor list to JSON.
func (p *Project) SetCompetitors(competitors []string) error {
	data, err := encodeStringArray(competitors)
	if err != nil {
		return err
	}
	p.Competitors = data
	return nil
}

func decodeStringArray(raw string) []string {
	if raw == "" || raw == "null" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func encodeStringArray(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CrawledPage is the persisted row for one fetched URL. (ProjectID, URL)
// is unique; re-crawls update in place.
type CrawledPage struct {
	ID             uint   `gorm:"primaryKey"`
	ProjectID      uint   `gorm:"not null;index"`
	URL            string `gorm:"not null"`
	CrawledAt      int64  `gorm:"not null"` // Unix seconds
	StatusCode     int
	ResponseTimeMs int64
	HTML           string `gorm:"type:text"`
	Headers        string `gorm:"type:text"` // JSON object, lowercase keys
	Metadata       string `gorm:"type:text"` // JSON-encoded aeolens.PageMetadata
	ContentHash    string
	Error          string `gorm:"type:text"`
	IsProcessed    bool   `gorm:"default:false;index"`
	CreatedAt      int64  `gorm:"autoCreateTime"`
	UpdatedAt      int64  `gorm:"autoUpdateTime"`
}

// ContentScore is the persisted analysis result for one page.
// (ProjectID, URL) is unique; reanalysis overwrites in place.
type ContentScore struct {
	ID            uint   `gorm:"primaryKey"`
	ProjectID     uint   `gorm:"not null;index"`
	CrawledPageID uint   `gorm:"not null"`
	URL           string `gorm:"not null"`

	Technical   int
	Structure   int
	Authority   int
	Quality     int
	GlobalScore int

	Excluded bool `gorm:"default:false"`
	PageType string

	Details string `gorm:"type:text"` // JSON map of dimension -> detail
	Issues  string `gorm:"type:text"` // JSON array of issues

	AnalyzedAt          int64 `gorm:"not null"`
	ScoringRulesVersion string
	CreatedAt           int64 `gorm:"autoCreateTime"`
	UpdatedAt           int64 `gorm:"autoUpdateTime"`
}

// pageToModel converts the engine's page record to its storage row.
func pageToModel(page *aeolens.CrawledPage) (*CrawledPage, error) {
	headers, err := json.Marshal(page.Headers)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(page.Metadata)
	if err != nil {
		return nil, err
	}
	return &CrawledPage{
		ID:             page.ID,
		ProjectID:      page.ProjectID,
		URL:            page.URL,
		CrawledAt:      page.CrawledAt.Unix(),
		StatusCode:     page.StatusCode,
		ResponseTimeMs: page.ResponseTimeMs,
		HTML:           page.HTML,
		Headers:        string(headers),
		Metadata:       string(metadata),
		ContentHash:    page.ContentHash,
		Error:          page.ErrorMessage,
		IsProcessed:    page.IsProcessed,
	}, nil
}

// pageFromModel converts a storage row back to the engine record.
// Malformed JSON columns decode to empty values rather than failing the
// whole batch.
func pageFromModel(row *CrawledPage) *aeolens.CrawledPage {
	page := &aeolens.CrawledPage{
		ID:             row.ID,
		ProjectID:      row.ProjectID,
		URL:            row.URL,
		CrawledAt:      time.Unix(row.CrawledAt, 0),
		StatusCode:     row.StatusCode,
		ResponseTimeMs: row.ResponseTimeMs,
		HTML:           row.HTML,
		Headers:        map[string]string{},
		ContentHash:    row.ContentHash,
		ErrorMessage:   row.Error,
		IsProcessed:    row.IsProcessed,
	}
	if row.Headers != "" {
		_ = json.Unmarshal([]byte(row.Headers), &page.Headers)
	}
	if row.Metadata != "" {
		_ = json.Unmarshal([]byte(row.Metadata), &page.Metadata)
	}
	return page
}

// scoreToModel converts the engine's score to its storage row.
func scoreToModel(score *aeolens.ContentScore) (*ContentScore, error) {
	details, err := json.Marshal(score.Details)
	if err != nil {
		return nil, err
	}
	issues, err := json.Marshal(score.Issues)
	if err != nil {
		return nil, err
	}
	return &ContentScore{
		ID:                  score.ID,
		ProjectID:           score.ProjectID,
		CrawledPageID:       score.CrawledPageID,
		URL:                 score.URL,
		Technical:           score.Technical,
		Structure:           score.Structure,
		Authority:           score.Authority,
		Quality:             score.Quality,
		GlobalScore:         score.GlobalScore,
		Excluded:            score.Excluded,
		PageType:            score.PageType,
		Details:             string(details),
		Issues:              string(issues),
		AnalyzedAt:          score.AnalyzedAt.Unix(),
		ScoringRulesVersion: score.ScoringRulesVersion,
	}, nil
}

// scoreFromModel converts a storage row back to the engine score.
func scoreFromModel(row *ContentScore) *aeolens.ContentScore {
	score := &aeolens.ContentScore{
		ID:                  row.ID,
		ProjectID:           row.ProjectID,
		CrawledPageID:       row.CrawledPageID,
		URL:                 row.URL,
		Technical:           row.Technical,
		Structure:           row.Structure,
		Authority:           row.Authority,
		Quality:             row.Quality,
		GlobalScore:         row.GlobalScore,
		Excluded:            row.Excluded,
		PageType:            row.PageType,
		AnalyzedAt:          time.Unix(row.AnalyzedAt, 0),
		ScoringRulesVersion: row.ScoringRulesVersion,
	}
	if row.Details != "" {
		_ = json.Unmarshal([]byte(row.Details), &score.Details)
	}
	if row.Issues != "" {
		_ = json.Unmarshal([]byte(row.Issues), &score.Issues)
	}
	return score
}
