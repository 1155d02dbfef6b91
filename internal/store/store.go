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

// Package store persists projects, crawled pages and content scores in
// SQLite via gorm. It implements the engine's Repository contract.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store wraps the gorm database handle.
type Store struct {
	db *gorm.DB
}

// NewStore opens (creating if needed) the default database under
// ~/.aeolens/aeolens.db.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".aeolens")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	return NewStoreWithPath(filepath.Join(dbDir, "aeolens.db"))
}

// NewStoreWithPath opens a database at an explicit path. Tests point this
// at a temp directory.
func NewStoreWithPath(dbPath string) (*Store, error) {
	dbDir := filepath.Dir(dbPath)
	if _, err := os.Stat(dbDir); err != nil {
		return nil, fmt.Errorf("database directory does not exist: %s, error: %v", dbDir, err)
	}

	// WAL mode enables concurrent reads during crawl writes;
	// busy_timeout prevents immediate "database is locked" errors.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := database.AutoMigrate(&Project{}, &CrawledPage{}, &ContentScore{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	// Composite unique keys backing the (project, url) upserts.
	if err := database.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_pages_project_url ON crawled_pages(project_id, url)").Error; err != nil {
		return nil, fmt.Errorf("failed to create crawled pages unique index: %v", err)
	}
	if err := database.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_scores_project_url ON content_scores(project_id, url)").Error; err != nil {
		return nil, fmt.Errorf("failed to create content scores unique index: %v", err)
	}

	return &Store{db: database}, nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}
