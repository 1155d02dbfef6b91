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
	"strings"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/scoring"
)

// SingleH1Rule wants exactly one H1 naming the page topic.
type SingleH1Rule struct{ BaseRule }

func NewSingleH1Rule() *SingleH1Rule {
	return &SingleH1Rule{BaseRule{
		RuleID:        "structure.single-h1",
		RuleName:      "Single H1",
		RuleDimension: scoring.DimStructure,
		RulePriority:  100,
		RuleWeight:    1.5,
		ImpactScore:   70,
	}}
}

func (r *SingleH1Rule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	count := len(rc.Signals.H1s)
	res := result(0, r.Weight(), count == 1)
	switch count {
	case 1:
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("H1", "success",
			fmt.Sprintf("Exactly one H1: %q", truncateText(rc.Signals.H1s[0], 80))))
	case 0:
		res.Score = 20
		res.Evidence = append(res.Evidence, evidence("H1", "error", "Page has no H1"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityHigh,
			"Page has no H1 heading",
			"Add a single H1 that states the page's main topic"))
	default:
		res.Score = 50
		res.Evidence = append(res.Evidence, evidence("H1", "warning",
			fmt.Sprintf("Page has %d H1 headings", count)))
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			fmt.Sprintf("Page has %d H1 headings", count),
			"Keep a single H1 and demote the rest to H2"))
	}
	return res, nil
}

// HeadingHierarchyRule checks that heading levels never skip downward.
type HeadingHierarchyRule struct{ BaseRule }

func NewHeadingHierarchyRule() *HeadingHierarchyRule {
	return &HeadingHierarchyRule{BaseRule{
		RuleID:        "structure.heading-hierarchy",
		RuleName:      "Heading hierarchy",
		RuleDimension: scoring.DimStructure,
		RulePriority:  90,
		RuleWeight:    1.0,
		ImpactScore:   55,
	}}
}

func (r *HeadingHierarchyRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	minHeadings := int(rc.Config.Criterion(scoring.DimStructure, "minHeadings", 3))
	count := len(rc.Signals.Headings)

	res := result(0, r.Weight(), false)
	if count < minHeadings {
		res.Score = 40
		res.Evidence = append(res.Evidence, evidence("Headings", "warning",
			fmt.Sprintf("Only %d headings; answer engines lift sections by heading", count)))
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			"Page has too few headings to segment its content",
			"Break the content into sections with descriptive headings"))
		return res, nil
	}
	if rc.Signals.HeadingHierarchyValid() {
		res.Score, res.Passed = 100, true
		res.Evidence = append(res.Evidence, evidence("Headings", "success",
			fmt.Sprintf("%d headings in a consistent hierarchy", count)))
	} else {
		res.Score = 60
		res.Evidence = append(res.Evidence, evidence("Headings", "warning", "Heading levels skip (e.g. H1 to H3)"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Heading levels are skipped",
			"Nest headings one level at a time so sections parse cleanly"))
	}
	return res, nil
}

// FAQContentRule rewards question-formed headings and FAQPage schema.
type FAQContentRule struct{ BaseRule }

func NewFAQContentRule() *FAQContentRule {
	return &FAQContentRule{BaseRule{
		RuleID:        "structure.faq-content",
		RuleName:      "Q&A content",
		RuleDimension: scoring.DimStructure,
		RulePriority:  70,
		RuleWeight:    1.0,
		ImpactScore:   65,
		Applicability: []string{"faq", "how-to-guide", "blog-post", "documentation", "product-detail"},
	}}
}

func (r *FAQContentRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	questions := rc.Signals.QuestionHeadings
	hasSchema := rc.Signals.HasSchemaType("FAQPage") || rc.Signals.HasSchemaType("Question")

	score := 30
	if questions > 0 {
		score = 60 + min(questions, 4)*5
	}
	if hasSchema {
		score = min(score+20, 100)
	}

	res := result(score, r.Weight(), score >= 60)
	res.Evidence = append(res.Evidence, evidence("Q&A", "info",
		fmt.Sprintf("%d question-formed headings; FAQ schema: %v", questions, hasSchema)))
	if questions == 0 && rc.Category == "faq" {
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			"FAQ page has no question-formed headings",
			"Phrase each FAQ entry's heading as the question users ask"))
	}
	return res, nil
}

// ListsTablesRule rewards scannable structures.
type ListsTablesRule struct{ BaseRule }

func NewListsTablesRule() *ListsTablesRule {
	return &ListsTablesRule{BaseRule{
		RuleID:        "structure.lists-tables",
		RuleName:      "Lists and tables",
		RuleDimension: scoring.DimStructure,
		RulePriority:  60,
		RuleWeight:    0.8,
		ImpactScore:   45,
	}}
}

func (r *ListsTablesRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	total := rc.Signals.ListCount + rc.Signals.TableCount
	score := 40 + min(total, 6)*10
	res := result(min(score, 100), r.Weight(), total > 0)
	res.Evidence = append(res.Evidence, evidence("Lists", "info",
		fmt.Sprintf("%d lists, %d tables", rc.Signals.ListCount, rc.Signals.TableCount)))
	if total == 0 && rc.Signals.WordCount > 500 {
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Long page has no lists or tables",
			"Convert enumerable facts into lists or tables for direct extraction"))
	}
	return res, nil
}

// AnswerUpfrontRule checks that the first paragraph answers the page's
// question instead of warming up.
type AnswerUpfrontRule struct{ BaseRule }

func NewAnswerUpfrontRule() *AnswerUpfrontRule {
	return &AnswerUpfrontRule{BaseRule{
		RuleID:        "structure.answer-upfront",
		RuleName:      "Answer upfront",
		RuleDimension: scoring.DimStructure,
		RulePriority:  85,
		RuleWeight:    1.5,
		ImpactScore:   80,
	}}
}

func (r *AnswerUpfrontRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	first := strings.TrimSpace(rc.Signals.FirstParagraph)
	words := len(strings.Fields(first))

	res := result(0, r.Weight(), false)
	switch {
	case words == 0:
		res.Score = 20
		res.Evidence = append(res.Evidence, evidence("Lead", "error", "No lead paragraph found"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			"Page has no lead paragraph",
			"Open with a short paragraph that directly answers the page's topic"))
	case words < 15:
		res.Score = 60
		res.Evidence = append(res.Evidence, evidence("Lead", "warning",
			fmt.Sprintf("Lead paragraph is only %d words", words)))
	case words <= 80:
		res.Score, res.Passed = 100, true
		res.Evidence = append(res.Evidence, evidence("Lead", "success",
			fmt.Sprintf("Concise %d-word lead paragraph", words)))
	default:
		res.Score = 70
		res.Evidence = append(res.Evidence, evidence("Lead", "info",
			fmt.Sprintf("Lead paragraph runs %d words", words)))
	}
	return res, nil
}

// SchemaCompletenessRule checks that declared schema blocks carry the
// properties answer engines read.
type SchemaCompletenessRule struct{ BaseRule }

func NewSchemaCompletenessRule() *SchemaCompletenessRule {
	return &SchemaCompletenessRule{BaseRule{
		RuleID:        "structure.schema-completeness",
		RuleName:      "Schema completeness",
		RuleDimension: scoring.DimStructure,
		RulePriority:  65,
		RuleWeight:    1.0,
		ImpactScore:   60,
	}}
}

// expectedSchemaProps lists the properties checked per schema type.
var expectedSchemaProps = map[string][]string{
	"Article":      {"headline", "author", "datePublished"},
	"BlogPosting":  {"headline", "author", "datePublished"},
	"Product":      {"name", "description", "offers"},
	"FAQPage":      {"mainEntity"},
	"HowTo":        {"name", "step"},
	"Organization": {"name", "url"},
}

func (r *SchemaCompletenessRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	blocks := rc.Page.Metadata.Schema
	if len(blocks) == 0 {
		res := result(0, r.Weight(), false)
		res.Evidence = append(res.Evidence, evidence("Schema", "info", "No schema blocks to assess"))
		return res, nil
	}

	checked, complete := 0, 0
	var missing []string
	for _, block := range blocks {
		typeName, _ := block["@type"].(string)
		props, known := expectedSchemaProps[typeName]
		if !known {
			continue
		}
		checked++
		missingHere := 0
		for _, prop := range props {
			if _, ok := block[prop]; !ok {
				missingHere++
				missing = append(missing, typeName+"."+prop)
			}
		}
		if missingHere == 0 {
			complete++
		}
	}

	res := result(0, r.Weight(), false)
	if checked == 0 {
		res.Score = 70
		res.Evidence = append(res.Evidence, evidence("Schema", "info", "Schema types present but not in the assessed set"))
		return res, nil
	}
	res.Score = 40 + (60*complete)/checked
	res.Passed = complete == checked
	if res.Passed {
		res.Evidence = append(res.Evidence, evidence("Schema", "success",
			fmt.Sprintf("All %d assessed schema blocks are complete", checked)))
	} else {
		res.Evidence = append(res.Evidence, evidence("Schema", "warning",
			fmt.Sprintf("Missing properties: %s", strings.Join(missing, ", "))))
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Structured data blocks are missing expected properties",
			"Fill in the missing schema.org properties so rich results qualify"))
	}
	return res, nil
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
