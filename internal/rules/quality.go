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
	"context"
	"fmt"
	"time"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/llm"
	"github.com/agentberlin/aeolens/internal/scoring"
)

// ReadabilityRule scores sentence-length statistics.
type ReadabilityRule struct{ BaseRule }

func NewReadabilityRule() *ReadabilityRule {
	return &ReadabilityRule{BaseRule{
		RuleID:        "quality.readability",
		RuleName:      "Readability",
		RuleDimension: scoring.DimQuality,
		RulePriority:  80,
		RuleWeight:    1.0,
		ImpactScore:   50,
	}}
}

func (r *ReadabilityRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	maxLen := rc.Config.Criterion(scoring.DimQuality, "maxSentenceLength", 25)
	avg := rc.Signals.AvgSentenceWords
	sentences := rc.Signals.SentenceCount

	res := result(0, r.Weight(), false)
	if sentences == 0 {
		res.Score = 30
		res.Evidence = append(res.Evidence, evidence("Readability", "info", "No prose sentences to assess"))
		return res, nil
	}

	longRatio := float64(rc.Signals.LongSentences) / float64(sentences)
	switch {
	case avg <= maxLen && longRatio <= 0.2:
		res.Score, res.Passed = 100, true
	case avg <= maxLen*1.4:
		res.Score = 70
	default:
		res.Score = 40
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			fmt.Sprintf("Average sentence runs %.0f words", avg),
			"Shorten sentences; terse declarative prose is quoted more often"))
	}
	res.Evidence = append(res.Evidence, scoredEvidence("Readability",
		fmt.Sprintf("%.1f words per sentence across %d sentences", avg, sentences), avg, maxLen))
	return res, nil
}

// wordCountExpectations maps page categories to a minimum word count.
// Categories not listed fall back to the configured default.
var wordCountExpectations = map[string]int{
	"blog-post":        600,
	"how-to-guide":     800,
	"documentation":    400,
	"case-study":       600,
	"comparison":       600,
	"faq":              200,
	"product-detail":   250,
	"product-category": 150,
	"pricing":          150,
	"homepage":         150,
	"about":            200,
	"contact":          50,
	"landing":          200,
}

// WordCountRule scores content volume against the page type's
// expectation.
type WordCountRule struct{ BaseRule }

func NewWordCountRule() *WordCountRule {
	return &WordCountRule{BaseRule{
		RuleID:        "quality.word-count",
		RuleName:      "Word count",
		RuleDimension: scoring.DimQuality,
		RulePriority:  75,
		RuleWeight:    1.0,
		ImpactScore:   55,
	}}
}

func (r *WordCountRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	expected, ok := wordCountExpectations[rc.Category]
	if !ok {
		expected = int(rc.Config.Criterion(scoring.DimQuality, "minWordCount", 300))
	}
	words := rc.Signals.WordCount

	res := result(0, r.Weight(), false)
	switch {
	case words >= expected:
		res.Score, res.Passed = 100, true
	case words >= expected/2:
		res.Score = 60
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			fmt.Sprintf("Page has %d words, below the %d expected for %s pages", words, expected, rc.Category),
			"Expand the content to cover the topic fully"))
	default:
		res.Score = 25
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			fmt.Sprintf("Page has only %d words", words),
			"Thin pages rarely get cited; add substantive content or noindex the page"))
	}
	res.Evidence = append(res.Evidence, scoredEvidence("Word count",
		fmt.Sprintf("%d words (target %d)", words, expected), float64(words), float64(expected)))
	return res, nil
}

// UpdateFrequencyRule scores content freshness from the modified (or
// publish) date: 90 days full credit, then stepped down, with a critical
// issue when no date exists at all.
type UpdateFrequencyRule struct {
	BaseRule
	now func() time.Time
}

func NewUpdateFrequencyRule() *UpdateFrequencyRule {
	return &UpdateFrequencyRule{
		BaseRule: BaseRule{
			RuleID:        "quality.update-frequency",
			RuleName:      "Update frequency",
			RuleDimension: scoring.DimQuality,
			RulePriority:  85,
			RuleWeight:    1.2,
			ImpactScore:   65,
			Applicability: []string{"blog-post", "how-to-guide", "case-study", "comparison", "faq", "documentation", "product-detail"},
		},
		now: time.Now,
	}
}

func (r *UpdateFrequencyRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	freshest := rc.Page.Metadata.ModifiedDate
	if freshest == nil {
		freshest = rc.Page.Metadata.PublishDate
	}

	res := result(0, r.Weight(), false)
	if freshest == nil {
		res.Evidence = append(res.Evidence, evidence("Freshness", "error", "No publish or modified date found"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityCritical,
			"Content has no date information",
			"Add datePublished/dateModified markup; undated content is treated as stale"))
		return res, nil
	}

	age := r.now().Sub(*freshest)
	days := int(age.Hours() / 24)
	switch {
	case days <= 90:
		res.Score, res.Passed = 100, true
	case days <= 180:
		res.Score, res.Passed = 80, true
	case days <= 365:
		res.Score = 60
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			fmt.Sprintf("Content last updated %d days ago", days),
			"Review and refresh the content"))
	default:
		res.Score = 40
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			fmt.Sprintf("Content last updated %d days ago", days),
			"Update or retire content older than a year"))
	}
	res.Evidence = append(res.Evidence, evidence("Freshness", "info",
		fmt.Sprintf("Last updated %s (%d days ago)", freshest.Format("2006-01-02"), days)))
	return res, nil
}

// MetaDescriptionRule checks the description's presence and length.
type MetaDescriptionRule struct{ BaseRule }

func NewMetaDescriptionRule() *MetaDescriptionRule {
	return &MetaDescriptionRule{BaseRule{
		RuleID:        "quality.meta-description",
		RuleName:      "Meta description",
		RuleDimension: scoring.DimQuality,
		RulePriority:  70,
		RuleWeight:    0.8,
		ImpactScore:   45,
	}}
}

func (r *MetaDescriptionRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	desc := rc.Page.Metadata.Description
	length := len(desc)

	res := result(0, r.Weight(), false)
	switch {
	case length == 0:
		res.Score = 20
		res.Evidence = append(res.Evidence, evidence("Description", "error", "No meta description"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			"Page has no meta description",
			"Write a 120-160 character description summarizing the page's answer"))
	case length < 50:
		res.Score = 50
		res.Evidence = append(res.Evidence, evidence("Description", "warning",
			fmt.Sprintf("Meta description is only %d characters", length)))
	case length <= 160:
		res.Score, res.Passed = 100, true
		res.Evidence = append(res.Evidence, evidence("Description", "success",
			fmt.Sprintf("Meta description is %d characters", length)))
	default:
		res.Score = 70
		res.Evidence = append(res.Evidence, evidence("Description", "info",
			fmt.Sprintf("Meta description runs %d characters and will be truncated", length)))
	}
	return res, nil
}

// ContentDepthRule asks the LLM to judge topical depth, with a
// deterministic heuristic fallback when no provider answers.
type ContentDepthRule struct {
	BaseRule
	timeout time.Duration
}

func NewContentDepthRule() *ContentDepthRule {
	return &ContentDepthRule{
		BaseRule: BaseRule{
			RuleID:        "quality.content-depth",
			RuleName:      "Content depth",
			RuleDimension: scoring.DimQuality,
			RulePriority:  60,
			RuleWeight:    1.0,
			ImpactScore:   60,
			Applicability: []string{"blog-post", "how-to-guide", "case-study", "comparison", "documentation", "product-detail"},
		},
		timeout: 20 * time.Second,
	}
}

type depthVerdict struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

func (r *ContentDepthRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	if rc.LLM != nil && rc.LLM.Configured() {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		var verdict depthVerdict
		err := rc.LLM.StructuredCall(callCtx, llm.Request{
			System: "You assess how thoroughly a web page covers its topic for answer-engine citation.",
			Prompt: fmt.Sprintf(
				"Rate the topical depth of this content from 0 to 100 and explain briefly.\n"+
					"Respond as JSON: {\"score\": <int>, \"reasoning\": \"...\"}\n\nTitle: %s\n\nContent:\n%s",
				rc.Page.Metadata.Title, truncateText(rc.Signals.CleanText, 4000)),
			Temperature: 0.1,
		}, &verdict)
		if err == nil && verdict.Score >= 0 && verdict.Score <= 100 {
			res := result(verdict.Score, r.Weight(), verdict.Score >= 60)
			res.Evidence = append(res.Evidence, evidence("Depth", "score", verdict.Reasoning))
			if verdict.Score < 40 {
				res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
					"Content covers its topic shallowly",
					"Address the follow-up questions a reader would ask next"))
			}
			return res, nil
		}
		if rc.Logger != nil {
			rc.Logger.WithError(err).WithField("url", rc.Page.URL).Debug("content depth LLM call failed, using heuristic")
		}
	}

	return r.heuristic(rc), nil
}

// heuristic approximates depth from volume and structure.
func (r *ContentDepthRule) heuristic(rc *RuleContext) *RuleResult {
	score := 30
	if rc.Signals.WordCount >= 400 {
		score += 20
	}
	if rc.Signals.WordCount >= 1000 {
		score += 10
	}
	if len(rc.Signals.Headings) >= 4 {
		score += 20
	}
	if rc.Signals.ListCount+rc.Signals.TableCount > 0 {
		score += 10
	}
	if rc.Signals.ExternalLinks > 0 {
		score += 10
	}
	res := result(min(score, 100), r.Weight(), score >= 60)
	res.Evidence = append(res.Evidence, evidence("Depth", "info", "Heuristic depth assessment (no LLM available)"))
	return res
}
