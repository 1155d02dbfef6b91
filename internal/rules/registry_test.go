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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentberlin/aeolens/internal/scoring"
)

func TestDefaultRulesHaveUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, rule := range DefaultRules() {
		assert.False(t, seen[rule.ID()], "duplicate rule ID %q", rule.ID())
		seen[rule.ID()] = true
		assert.NotEmpty(t, rule.Name(), rule.ID())
		assert.Greater(t, rule.Weight(), 0.0, rule.ID())
		assert.Contains(t, []string{
			scoring.DimTechnical, scoring.DimStructure,
			scoring.DimAuthority, scoring.DimQuality,
		}, rule.Dimension(), rule.ID())
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewHTTPSRule()))
	assert.Error(t, r.Register(NewHTTPSRule()))
}

func TestRulesForDimensionOrdering(t *testing.T) {
	r := NewDefaultRegistry(scoring.DefaultConfig())

	rules := r.RulesForDimension(scoring.DimTechnical, "blog-post")
	require.NotEmpty(t, rules)
	for i := 1; i < len(rules); i++ {
		prev, cur := rules[i-1], rules[i]
		ordered := prev.Priority() > cur.Priority() ||
			(prev.Priority() == cur.Priority() && prev.ID() < cur.ID())
		assert.True(t, ordered, "%s before %s", prev.ID(), cur.ID())
		assert.Equal(t, scoring.DimTechnical, cur.Dimension())
	}
}

func TestRulesForDimensionApplicability(t *testing.T) {
	r := NewDefaultRegistry(scoring.DefaultConfig())

	ids := func(rules []Rule) []string {
		var out []string
		for _, rule := range rules {
			out = append(out, rule.ID())
		}
		return out
	}

	// The author rule only runs for long-form content categories.
	assert.Contains(t, ids(r.RulesForDimension(scoring.DimAuthority, "blog-post")), "authority.author")
	assert.NotContains(t, ids(r.RulesForDimension(scoring.DimAuthority, "homepage")), "authority.author")
}

func TestSetEnabled(t *testing.T) {
	r := NewDefaultRegistry(scoring.DefaultConfig())

	require.NoError(t, r.SetEnabled("technical.https", false))
	for _, rule := range r.RulesForDimension(scoring.DimTechnical, "blog-post") {
		assert.NotEqual(t, "technical.https", rule.ID())
	}

	require.NoError(t, r.SetEnabled("technical.https", true))
	found := false
	for _, rule := range r.RulesForDimension(scoring.DimTechnical, "blog-post") {
		found = found || rule.ID() == "technical.https"
	}
	assert.True(t, found)

	assert.Error(t, r.SetEnabled("no.such.rule", true))
}

func TestUpdateWeight(t *testing.T) {
	r := NewDefaultRegistry(scoring.DefaultConfig())

	require.NoError(t, r.UpdateWeight("technical.https", 3.5))
	for _, rule := range r.All() {
		if rule.ID() == "technical.https" {
			assert.Equal(t, 3.5, rule.Weight())
		}
	}

	assert.Error(t, r.UpdateWeight("technical.https", 0))
	assert.Error(t, r.UpdateWeight("technical.https", -1))
	assert.Error(t, r.UpdateWeight("no.such.rule", 1))
}

func TestApplyConfigWeightOverride(t *testing.T) {
	cfg := scoring.DefaultConfig()
	dim := cfg.Dimensions[scoring.DimTechnical]
	dim.Criteria = map[string]any{"weight:technical.https": float64(4)}
	cfg.Dimensions[scoring.DimTechnical] = dim

	r := NewDefaultRegistry(cfg)
	for _, rule := range r.All() {
		if rule.ID() == "technical.https" {
			assert.Equal(t, 4.0, rule.Weight())
		}
	}
}
