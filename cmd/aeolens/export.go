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

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/store"
)

// Exporter writes a project's content scores to disk.
type Exporter struct {
	store     *store.Store
	projectID uint
	domain    string
	outputDir string
	format    string // "csv" or "json"
}

// Export writes the score report for the configured project.
func (e *Exporter) Export(ctx context.Context) error {
	if e.format != "csv" && e.format != "json" {
		return fmt.Errorf("unsupported format: %s", e.format)
	}
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	scores, err := e.store.GetProjectScores(ctx, e.projectID)
	if err != nil {
		return fmt.Errorf("failed to load scores: %v", err)
	}
	if len(scores) == 0 {
		return fmt.Errorf("no scores for %s; run analyze first", e.domain)
	}

	stamp := time.Now().Format("20060102-150405")
	name := fmt.Sprintf("%s-scores-%s.%s", e.domain, stamp, e.format)
	path := filepath.Join(e.outputDir, name)

	if e.format == "json" {
		if err := e.writeJSON(path, scores); err != nil {
			return err
		}
	} else {
		if err := e.writeCSV(path, scores); err != nil {
			return err
		}
	}

	fmt.Printf("Exported %d scores to %s\n", len(scores), path)
	return nil
}

func (e *Exporter) writeJSON(path string, scores []aeolens.ContentScore) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(scores)
}

func (e *Exporter) writeCSV(path string, scores []aeolens.ContentScore) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"url", "page_type", "excluded", "global_score",
		"technical", "structure", "authority", "quality",
		"issues", "analyzed_at", "rules_version",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, s := range scores {
		row := []string{
			s.URL,
			s.PageType,
			strconv.FormatBool(s.Excluded),
			strconv.Itoa(s.GlobalScore),
			strconv.Itoa(s.Technical),
			strconv.Itoa(s.Structure),
			strconv.Itoa(s.Authority),
			strconv.Itoa(s.Quality),
			strconv.Itoa(len(s.Issues)),
			s.AnalyzedAt.Format(time.RFC3339),
			s.ScoringRulesVersion,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}
	return w.Error()
}
