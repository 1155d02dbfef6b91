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
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/agentberlin/aeolens"
)

// UpsertCrawledPage inserts or overwrites the page keyed by
// (project_id, url) and returns the stored record with its ID set.
func (s *Store) UpsertCrawledPage(ctx context.Context, page *aeolens.CrawledPage) (*aeolens.CrawledPage, error) {
	row, err := pageToModel(page)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page: %v", err)
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"crawled_at", "status_code", "response_time_ms", "html",
			"headers", "metadata", "content_hash", "error",
			"is_processed", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert crawled page: %v", err)
	}

	// The OnConflict path does not backfill the existing row's ID, so
	// re-read by the natural key.
	var saved CrawledPage
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND url = ?", page.ProjectID, page.URL).
		First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload crawled page: %v", err)
	}
	return pageFromModel(&saved), nil
}

// FindUnprocessedByProject returns up to limit pages awaiting analysis,
// oldest first. limit <= 0 means no limit.
func (s *Store) FindUnprocessedByProject(ctx context.Context, projectID uint, limit int) ([]aeolens.CrawledPage, error) {
	query := s.db.WithContext(ctx).
		Where("project_id = ? AND is_processed = ?", projectID, false).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []CrawledPage
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query unprocessed pages: %v", err)
	}

	pages := make([]aeolens.CrawledPage, 0, len(rows))
	for i := range rows {
		pages = append(pages, *pageFromModel(&rows[i]))
	}
	return pages, nil
}

// MarkProcessed flips the page's processed flag.
func (s *Store) MarkProcessed(ctx context.Context, pageID uint, processed bool) error {
	result := s.db.WithContext(ctx).Model(&CrawledPage{}).
		Where("id = ?", pageID).
		Update("is_processed", processed)
	if result.Error != nil {
		return fmt.Errorf("failed to mark page processed: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no crawled page with id %d", pageID)
	}
	return nil
}

// GetPageByURL fetches one page by its natural key.
func (s *Store) GetPageByURL(ctx context.Context, projectID uint, url string) (*aeolens.CrawledPage, error) {
	var row CrawledPage
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND url = ?", projectID, url).
		First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to get crawled page: %v", err)
	}
	return pageFromModel(&row), nil
}

// GetProjectCrawlStats summarizes the project's stored pages.
func (s *Store) GetProjectCrawlStats(ctx context.Context, projectID uint) (*aeolens.CrawlStats, error) {
	db := s.db.WithContext(ctx)
	stats := &aeolens.CrawlStats{}

	type countRow struct{ N int64 }
	var row countRow

	if err := db.Model(&CrawledPage{}).Where("project_id = ?", projectID).
		Select("count(*) as n").Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to count pages: %v", err)
	}
	stats.TotalPages = int(row.N)

	if err := db.Model(&CrawledPage{}).
		Where("project_id = ? AND status_code >= 200 AND status_code < 400", projectID).
		Select("count(*) as n").Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to count successful pages: %v", err)
	}
	stats.SuccessfulPages = int(row.N)

	if err := db.Model(&CrawledPage{}).
		Where("project_id = ? AND (status_code = 0 OR status_code >= 400)", projectID).
		Select("count(*) as n").Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed pages: %v", err)
	}
	stats.FailedPages = int(row.N)

	if err := db.Model(&CrawledPage{}).
		Where("project_id = ? AND is_processed = ?", projectID, true).
		Select("count(*) as n").Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to count processed pages: %v", err)
	}
	stats.ProcessedPages = int(row.N)

	if err := db.Model(&ContentScore{}).Where("project_id = ?", projectID).
		Select("count(*) as n").Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to count scored pages: %v", err)
	}
	stats.ScoredPages = int(row.N)

	return stats, nil
}
