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
	"fmt"
	"sort"
	"sync"

	"github.com/agentberlin/aeolens/internal/scoring"
)

type registeredRule struct {
	rule    Rule
	enabled bool
}

// Registry holds the active rule set. Registration happens at startup;
// SetEnabled and UpdateWeight may be called while analyses run.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*registeredRule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*registeredRule)}
}

// NewDefaultRegistry registers the full built-in rule set with weights
// taken from the scoring config where overridden.
func NewDefaultRegistry(cfg *scoring.Config) *Registry {
	r := NewRegistry()
	for _, rule := range DefaultRules() {
		// Registration of the built-in set cannot collide.
		_ = r.Register(rule)
	}
	r.ApplyConfig(cfg)
	return r
}

// Register adds a rule, enabled. Duplicate IDs are an error.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID()]; exists {
		return fmt.Errorf("rule %q already registered", rule.ID())
	}
	r.rules[rule.ID()] = &registeredRule{rule: rule, enabled: true}
	return nil
}

// ApplyConfig overrides rule weights from the scoring config's criteria:
// a criterion named "weight:<rule-id>" on the rule's dimension replaces
// the built-in weight.
func (r *Registry) ApplyConfig(cfg *scoring.Config) {
	if cfg == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.rules {
		dim := entry.rule.Dimension()
		w := cfg.Criterion(dim, "weight:"+id, entry.rule.Weight())
		if w > 0 && w != entry.rule.Weight() {
			if setter, ok := entry.rule.(interface{ SetWeight(float64) }); ok {
				setter.SetWeight(w)
			}
		}
	}
}

// RulesForDimension returns the enabled rules applicable to the page
// category, highest priority first (ties broken by ID for stable order).
func (r *Registry) RulesForDimension(dimension, pageType string) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Rule
	for _, entry := range r.rules {
		if !entry.enabled {
			continue
		}
		if entry.rule.Dimension() != dimension {
			continue
		}
		if !entry.rule.AppliesTo(pageType) {
			continue
		}
		out = append(out, entry.rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() > out[j].Priority()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// All returns every registered rule, enabled or not, in ID order.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, 0, len(r.rules))
	for _, entry := range r.rules {
		out = append(out, entry.rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// SetEnabled toggles a rule.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rules[id]
	if !ok {
		return fmt.Errorf("unknown rule %q", id)
	}
	entry.enabled = enabled
	return nil
}

// UpdateWeight replaces a rule's weight. Weights must be positive.
func (r *Registry) UpdateWeight(id string, weight float64) error {
	if weight <= 0 {
		return fmt.Errorf("rule weight must be positive, got %v", weight)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rules[id]
	if !ok {
		return fmt.Errorf("unknown rule %q", id)
	}
	setter, ok := entry.rule.(interface{ SetWeight(float64) })
	if !ok {
		return fmt.Errorf("rule %q does not support weight updates", id)
	}
	setter.SetWeight(weight)
	return nil
}
