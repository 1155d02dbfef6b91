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

// Package rules defines the scoring rule contract and the concrete rule
// set evaluated per page across the four dimensions: technical,
// structure, authority and quality.
package rules

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/llm"
	"github.com/agentberlin/aeolens/internal/scoring"
)

// Execution scopes. Page rules run once per page; domain rules express
// site-wide checks evaluated on whatever pages carry the needed signal.
const (
	ScopePage   = "page"
	ScopeDomain = "domain"
)

// RuleContext carries everything a rule may read. Rules never mutate it.
type RuleContext struct {
	Page     *aeolens.CrawledPage
	Signals  *PageSignals
	Project  *aeolens.ProjectContext
	Category string
	Config   *scoring.Config
	LLM      *llm.Client
	Logger   *logrus.Logger
}

// RuleResult is one rule's verdict.
type RuleResult struct {
	// Score in [0,100]
	Score int
	// Weight backs the dimension aggregation; usually the rule's own
	Weight float64
	// MaxScore is 100 unless a rule caps itself
	MaxScore int
	// Passed is a convenience flag for display
	Passed bool
	// Evidence explains the verdict, display-only
	Evidence []aeolens.EvidenceItem
	// Details carries free-form diagnostic values
	Details map[string]any
	// Issues list actionable findings; Dimension and RuleID are filled
	// by the caller from rule metadata
	Issues []aeolens.ScoreIssue
}

// Rule is one scoring check.
type Rule interface {
	ID() string
	Name() string
	Dimension() string
	Priority() int
	Weight() float64
	Scope() string
	// AppliesTo reports whether the rule runs for the given page
	// category.
	AppliesTo(pageType string) bool
	Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error)
}

// BaseRule supplies the metadata half of the Rule interface. Concrete
// rules embed it and implement Evaluate.
type BaseRule struct {
	RuleID         string
	RuleName       string
	RuleDimension  string
	RulePriority   int
	RuleWeight     float64
	ExecutionScope string
	// Applicability lists page categories the rule runs for; empty
	// means all.
	Applicability []string
	// ImpactScore ranks the rule's leverage for recommendations
	ImpactScore int
}

func (b *BaseRule) ID() string        { return b.RuleID }
func (b *BaseRule) Name() string      { return b.RuleName }
func (b *BaseRule) Dimension() string { return b.RuleDimension }
func (b *BaseRule) Priority() int     { return b.RulePriority }
func (b *BaseRule) Weight() float64   { return b.RuleWeight }

func (b *BaseRule) Scope() string {
	if b.ExecutionScope == "" {
		return ScopePage
	}
	return b.ExecutionScope
}

func (b *BaseRule) AppliesTo(pageType string) bool {
	if len(b.Applicability) == 0 {
		return true
	}
	for _, t := range b.Applicability {
		if t == pageType {
			return true
		}
	}
	return false
}

// SetWeight lets the registry apply configuration overrides.
func (b *BaseRule) SetWeight(w float64) { b.RuleWeight = w }

// result is a small builder keeping rule bodies terse.
func result(score int, weight float64, passed bool) *RuleResult {
	return &RuleResult{
		Score:    score,
		Weight:   weight,
		MaxScore: 100,
		Passed:   passed,
	}
}

func evidence(topic, icon, message string) aeolens.EvidenceItem {
	return aeolens.EvidenceItem{Topic: topic, Icon: icon, Message: message}
}

func scoredEvidence(topic, message string, score, target float64) aeolens.EvidenceItem {
	return aeolens.EvidenceItem{Topic: topic, Icon: "score", Message: message, Score: &score, Target: &target}
}

func issue(severity aeolens.IssueSeverity, description, recommendation string) aeolens.ScoreIssue {
	return aeolens.ScoreIssue{Severity: severity, Description: description, Recommendation: recommendation}
}
