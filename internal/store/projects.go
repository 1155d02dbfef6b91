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
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/agentberlin/aeolens"
)

// CreateProject creates a project for the given normalized URL and host.
func (s *Store) CreateProject(ctx context.Context, name, url, domain string) (*Project, error) {
	project := Project{
		Name:   name,
		URL:    url,
		Domain: domain,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}
	return &project, nil
}

// GetProjectByID gets a project by ID.
func (s *Store) GetProjectByID(ctx context.Context, id uint) (*Project, error) {
	var project Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get project: %v", err)
	}
	return &project, nil
}

// ListProjects returns every project, most recently created first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %v", err)
	}
	return projects, nil
}

// GetProjectByDomain gets a project by its host, nil when absent.
func (s *Store) GetProjectByDomain(ctx context.Context, domain string) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).Where("domain = ?", domain).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project by domain: %v", err)
	}
	return &project, nil
}

// GetOrCreateProject finds the project for the host or creates it.
func (s *Store) GetOrCreateProject(ctx context.Context, name, url, domain string) (*Project, error) {
	existing, err := s.GetProjectByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.CreateProject(ctx, name, url, domain)
}

// UpdateBrandContext stores the brand inputs used by authority rules.
func (s *Store) UpdateBrandContext(ctx context.Context, projectID uint, brandName string, attributes, competitors []string) error {
	var project Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		return fmt.Errorf("failed to get project: %v", err)
	}
	project.BrandName = brandName
	if err := project.SetKeyBrandAttributes(attributes); err != nil {
		return fmt.Errorf("failed to encode brand attributes: %v", err)
	}
	if err := project.SetCompetitors(competitors); err != nil {
		return fmt.Errorf("failed to encode competitors: %v", err)
	}
	return s.db.WithContext(ctx).Save(&project).Error
}

// GetProjectContext returns the brand inputs for analysis. A project
// without brand data yields an empty context, not an error.
func (s *Store) GetProjectContext(ctx context.Context, projectID uint) (*aeolens.ProjectContext, error) {
	var project Project
	err := s.db.WithContext(ctx).First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &aeolens.ProjectContext{}, nil
		}
		return nil, fmt.Errorf("failed to get project: %v", err)
	}
	return &aeolens.ProjectContext{
		BrandName:          project.BrandName,
		KeyBrandAttributes: project.GetKeyBrandAttributes(),
		Competitors:        project.GetCompetitors(),
	}, nil
}

// DeleteProject deletes a project and all its pages and scores.
func (s *Store) DeleteProject(ctx context.Context, projectID uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("project_id = ?", projectID).Delete(&ContentScore{}).Error; err != nil {
		return fmt.Errorf("failed to delete scores: %v", err)
	}
	if err := db.Where("project_id = ?", projectID).Delete(&CrawledPage{}).Error; err != nil {
		return fmt.Errorf("failed to delete pages: %v", err)
	}
	return db.Delete(&Project{}, projectID).Error
}
