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

// Package scoring holds the versioned rule configuration: per-dimension
// score thresholds and criteria plus the global dimension weights.
// Readers always see an immutable snapshot; updates swap atomically.
package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync/atomic"
)

// Dimension names used across the analyzer.
const (
	DimTechnical = "technical"
	DimStructure = "structure"
	DimAuthority = "authority"
	DimQuality   = "quality"
)

// Threshold maps a measured value range to a score.
type Threshold struct {
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Score       int    `json:"score"`
	Description string `json:"description,omitempty"`
}

// DimensionConfig is the tunable surface of one dimension.
type DimensionConfig struct {
	Thresholds []Threshold    `json:"thresholds"`
	Criteria   map[string]any `json:"criteria,omitempty"`
}

// Config is one immutable configuration snapshot. Never mutate a Config
// obtained from a Manager; build a new one and Update.
type Config struct {
	Version    string                     `json:"version"`
	Weights    map[string]float64         `json:"weights"`
	Dimensions map[string]DimensionConfig `json:"dimensions"`
}

// ScoreFor resolves a measured value against the dimension's thresholds.
// Values outside every range score 0.
func (c *Config) ScoreFor(dimension string, value int) int {
	dim, ok := c.Dimensions[dimension]
	if !ok {
		return 0
	}
	for _, t := range dim.Thresholds {
		if value >= t.Min && value <= t.Max {
			return t.Score
		}
	}
	return 0
}

// Weight returns the global weight for a dimension, 1.0 when unset.
func (c *Config) Weight(dimension string) float64 {
	if w, ok := c.Weights[dimension]; ok {
		return w
	}
	return 1.0
}

// Criterion fetches a numeric criterion with a fallback default.
func (c *Config) Criterion(dimension, key string, def float64) float64 {
	dim, ok := c.Dimensions[dimension]
	if !ok {
		return def
	}
	switch v := dim.Criteria[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Validate checks the structural invariants: all four dimensions present,
// every threshold list covering [0,100] with no gaps or overlaps, and
// positive weights.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("scoring config: version is required")
	}
	for _, dim := range []string{DimTechnical, DimStructure, DimAuthority, DimQuality} {
		dc, ok := c.Dimensions[dim]
		if !ok {
			return fmt.Errorf("scoring config: missing dimension %q", dim)
		}
		if err := validateThresholds(dim, dc.Thresholds); err != nil {
			return err
		}
		if w, ok := c.Weights[dim]; ok && w <= 0 {
			return fmt.Errorf("scoring config: weight for %q must be positive, got %v", dim, w)
		}
	}
	return nil
}

func validateThresholds(dim string, thresholds []Threshold) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("scoring config: dimension %q has no thresholds", dim)
	}
	sorted := make([]Threshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	if sorted[0].Min != 0 {
		return fmt.Errorf("scoring config: dimension %q thresholds start at %d, want 0", dim, sorted[0].Min)
	}
	for i, t := range sorted {
		if t.Max < t.Min {
			return fmt.Errorf("scoring config: dimension %q has inverted threshold [%d,%d]", dim, t.Min, t.Max)
		}
		if t.Score < 0 || t.Score > 100 {
			return fmt.Errorf("scoring config: dimension %q threshold score %d out of [0,100]", dim, t.Score)
		}
		if i > 0 {
			prev := sorted[i-1]
			if t.Min <= prev.Max {
				return fmt.Errorf("scoring config: dimension %q thresholds [%d,%d] and [%d,%d] overlap",
					dim, prev.Min, prev.Max, t.Min, t.Max)
			}
			if t.Min != prev.Max+1 {
				return fmt.Errorf("scoring config: dimension %q has a gap between %d and %d",
					dim, prev.Max, t.Min)
			}
		}
	}
	if sorted[len(sorted)-1].Max != 100 {
		return fmt.Errorf("scoring config: dimension %q thresholds end at %d, want 100", dim, sorted[len(sorted)-1].Max)
	}
	return nil
}

// DefaultConfig returns the built-in configuration used when no file is
// provided or the provided one fails validation.
func DefaultConfig() *Config {
	fullRange := []Threshold{
		{Min: 0, Max: 39, Score: 25, Description: "poor"},
		{Min: 40, Max: 69, Score: 60, Description: "fair"},
		{Min: 70, Max: 89, Score: 85, Description: "good"},
		{Min: 90, Max: 100, Score: 100, Description: "excellent"},
	}
	return &Config{
		Version: "default-1",
		Weights: map[string]float64{
			DimTechnical: 1.5,
			DimStructure: 2.0,
			DimAuthority: 1.0,
			DimQuality:   0.5,
		},
		Dimensions: map[string]DimensionConfig{
			DimTechnical: {Thresholds: fullRange, Criteria: map[string]any{
				"maxResponseTimeMs": float64(2000),
			}},
			DimStructure: {Thresholds: fullRange, Criteria: map[string]any{
				"minHeadings": float64(3),
			}},
			DimAuthority: {Thresholds: fullRange},
			DimQuality: {Thresholds: fullRange, Criteria: map[string]any{
				"minWordCount":      float64(300),
				"maxSentenceLength": float64(25),
			}},
		},
	}
}

// Manager hands out immutable snapshots and swaps them atomically on
// update, so a batch in flight keeps scoring against the version it
// started with.
type Manager struct {
	current atomic.Pointer[Config]
}

// NewManager starts with the built-in defaults.
func NewManager() *Manager {
	m := &Manager{}
	m.current.Store(DefaultConfig())
	return m
}

// Current returns the active snapshot.
func (m *Manager) Current() *Config {
	return m.current.Load()
}

// Version returns the active snapshot's version string.
func (m *Manager) Version() string {
	return m.current.Load().Version
}

// Update validates and installs a new configuration. On validation
// failure the previous snapshot stays active and the error is returned.
func (m *Manager) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.current.Store(cfg)
	return nil
}

// LoadFile reads and installs a JSON configuration file. On any failure
// the previous snapshot stays active.
func (m *Manager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scoring config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("scoring config: parse %s: %w", path, err)
	}
	return m.Update(&cfg)
}
