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

package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.5, cfg.Weight(DimTechnical))
	assert.Equal(t, 2.0, cfg.Weight(DimStructure))
	assert.Equal(t, 1.0, cfg.Weight(DimAuthority))
	assert.Equal(t, 0.5, cfg.Weight(DimQuality))
	// Unknown dimensions default to neutral weight.
	assert.Equal(t, 1.0, cfg.Weight("made-up"))
}

func TestScoreFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 25, cfg.ScoreFor(DimTechnical, 0))
	assert.Equal(t, 25, cfg.ScoreFor(DimTechnical, 39))
	assert.Equal(t, 60, cfg.ScoreFor(DimTechnical, 40))
	assert.Equal(t, 85, cfg.ScoreFor(DimTechnical, 75))
	assert.Equal(t, 100, cfg.ScoreFor(DimTechnical, 100))
	assert.Equal(t, 0, cfg.ScoreFor(DimTechnical, 101))
	assert.Equal(t, 0, cfg.ScoreFor("missing", 50))
}

func TestCriterion(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2000.0, cfg.Criterion(DimTechnical, "maxResponseTimeMs", 9))
	assert.Equal(t, 9.0, cfg.Criterion(DimTechnical, "absent", 9))
	assert.Equal(t, 9.0, cfg.Criterion("missing", "absent", 9))
}

func badThresholds(thresholds []Threshold) *Config {
	cfg := DefaultConfig()
	dim := cfg.Dimensions[DimQuality]
	dim.Thresholds = thresholds
	cfg.Dimensions[DimQuality] = dim
	return cfg
}

func TestValidateThresholdInvariants(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []Threshold
		wantErr    string
	}{
		{
			"gap between ranges",
			[]Threshold{{Min: 0, Max: 40, Score: 20}, {Min: 50, Max: 100, Score: 80}},
			"gap",
		},
		{
			"overlapping ranges",
			[]Threshold{{Min: 0, Max: 50, Score: 20}, {Min: 40, Max: 100, Score: 80}},
			"overlap",
		},
		{
			"does not start at zero",
			[]Threshold{{Min: 10, Max: 100, Score: 50}},
			"start",
		},
		{
			"does not end at 100",
			[]Threshold{{Min: 0, Max: 90, Score: 50}},
			"end",
		},
		{
			"inverted range",
			[]Threshold{{Min: 0, Max: 100, Score: 50}, {Min: 150, Max: 120, Score: 10}},
			"inverted",
		},
		{
			"score out of range",
			[]Threshold{{Min: 0, Max: 100, Score: 120}},
			"out of [0,100]",
		},
		{
			"empty",
			nil,
			"no thresholds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := badThresholds(tt.thresholds).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRequiresAllDimensions(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Dimensions, DimAuthority)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authority")
}

func TestValidateRejectsNonPositiveWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights[DimStructure] = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Weights[DimStructure] = -1
	assert.Error(t, cfg.Validate())
}

func TestManagerUpdateKeepsOldOnFailure(t *testing.T) {
	m := NewManager()
	assert.Equal(t, "default-1", m.Version())

	bad := DefaultConfig()
	bad.Version = "v2"
	delete(bad.Dimensions, DimQuality)
	require.Error(t, m.Update(bad))
	assert.Equal(t, "default-1", m.Version())

	good := DefaultConfig()
	good.Version = "v2"
	require.NoError(t, m.Update(good))
	assert.Equal(t, "v2", m.Version())
}

func TestManagerSnapshotSurvivesUpdate(t *testing.T) {
	m := NewManager()
	snapshot := m.Current()

	next := DefaultConfig()
	next.Version = "v2"
	next.Weights[DimTechnical] = 3.0
	require.NoError(t, m.Update(next))

	// A reader holding the old snapshot keeps scoring with it.
	assert.Equal(t, "default-1", snapshot.Version)
	assert.Equal(t, 1.5, snapshot.Weight(DimTechnical))
	assert.Equal(t, "v2", m.Current().Version)
}

func TestManagerLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "scoring.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "file-1",
		"weights": {"technical": 1, "structure": 1, "authority": 1, "quality": 1},
		"dimensions": {
			"technical": {"thresholds": [{"min": 0, "max": 100, "score": 100}]},
			"structure": {"thresholds": [{"min": 0, "max": 100, "score": 100}]},
			"authority": {"thresholds": [{"min": 0, "max": 100, "score": 100}]},
			"quality":   {"thresholds": [{"min": 0, "max": 100, "score": 100}]}
		}
	}`), 0644))

	m := NewManager()
	require.NoError(t, m.LoadFile(path))
	assert.Equal(t, "file-1", m.Version())

	require.Error(t, m.LoadFile(filepath.Join(dir, "missing.json")))
	assert.Equal(t, "file-1", m.Version())

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0644))
	require.Error(t, m.LoadFile(badPath))
	assert.Equal(t, "file-1", m.Version())
}
