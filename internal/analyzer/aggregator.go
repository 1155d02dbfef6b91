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

package analyzer

import (
	"math"
	"sort"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/rules"
)

// ruleOutcome pairs a rule's metadata with its result, in evaluation
// (priority) order.
type ruleOutcome struct {
	rule   rules.Rule
	result *rules.RuleResult
}

// aggregateDimension folds rule outcomes into one dimension score. It is
// a pure function of the (score, weight) pairs: evidence is carried
// through verbatim and never parsed. Zero total weight scores zero.
func aggregateDimension(outcomes []ruleOutcome) aeolens.DimensionDetail {
	detail := aeolens.DimensionDetail{}

	var totalWeight, weightedSum float64
	for _, o := range outcomes {
		weight := o.result.Weight
		if weight <= 0 {
			weight = o.rule.Weight()
		}
		totalWeight += weight
		weightedSum += float64(o.result.Score) * weight
	}

	if totalWeight > 0 {
		detail.Score = int(math.Round(weightedSum / totalWeight))
		for _, o := range outcomes {
			weight := o.result.Weight
			if weight <= 0 {
				weight = o.rule.Weight()
			}
			contribution := float64(o.result.Score) * weight / totalWeight
			detail.Contributions = append(detail.Contributions, aeolens.RuleContribution{
				RuleID:       o.rule.ID(),
				Name:         o.rule.Name(),
				Score:        o.result.Score,
				Weight:       weight,
				Contribution: math.Round(contribution*10) / 10,
			})
		}
	}

	for _, o := range outcomes {
		detail.Evidence = append(detail.Evidence, o.result.Evidence...)
	}
	return detail
}

// collectIssues stamps dimension and rule onto each issue and sorts by
// severity rank, critical first. The sort is stable so issues from
// higher-priority rules stay ahead within a severity.
func collectIssues(dimension string, outcomes []ruleOutcome) []aeolens.ScoreIssue {
	var issues []aeolens.ScoreIssue
	for _, o := range outcomes {
		for _, iss := range o.result.Issues {
			iss.Dimension = dimension
			iss.RuleID = o.rule.ID()
			issues = append(issues, iss)
		}
	}
	sortIssues(issues)
	return issues
}

func sortIssues(issues []aeolens.ScoreIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return aeolens.SeverityRank(issues[i].Severity) < aeolens.SeverityRank(issues[j].Severity)
	})
}

// globalScore folds dimension scores into one number using the
// configured dimension weights.
func globalScore(details map[string]aeolens.DimensionDetail, weights map[string]float64) int {
	var totalWeight, weightedSum float64
	for dim, detail := range details {
		w, ok := weights[dim]
		if !ok {
			w = 1.0
		}
		totalWeight += w
		weightedSum += float64(detail.Score) * w
	}
	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(weightedSum / totalWeight))
}
