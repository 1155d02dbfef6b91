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

// UpsertContentScore inserts or overwrites the score keyed by
// (project_id, url).
func (s *Store) UpsertContentScore(ctx context.Context, score *aeolens.ContentScore) error {
	row, err := scoreToModel(score)
	if err != nil {
		return fmt.Errorf("failed to encode score: %v", err)
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"crawled_page_id", "technical", "structure", "authority",
			"quality", "global_score", "excluded", "page_type",
			"details", "issues", "analyzed_at", "scoring_rules_version",
			"updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert content score: %v", err)
	}
	return nil
}

// GetProjectScores returns all scores for a project ordered by URL.
func (s *Store) GetProjectScores(ctx context.Context, projectID uint) ([]aeolens.ContentScore, error) {
	var rows []ContentScore
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("url ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query scores: %v", err)
	}

	scores := make([]aeolens.ContentScore, 0, len(rows))
	for i := range rows {
		scores = append(scores, *scoreFromModel(&rows[i]))
	}
	return scores, nil
}

// GetScoreByURL fetches one score by its natural key.
func (s *Store) GetScoreByURL(ctx context.Context, projectID uint, url string) (*aeolens.ContentScore, error) {
	var row ContentScore
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND url = ?", projectID, url).
		First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to get content score: %v", err)
	}
	return scoreFromModel(&row), nil
}
