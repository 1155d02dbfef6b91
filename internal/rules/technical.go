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
	"net/url"
	"strings"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/scoring"
)

// HTTPSRule checks that the page is served over TLS.
type HTTPSRule struct{ BaseRule }

func NewHTTPSRule() *HTTPSRule {
	return &HTTPSRule{BaseRule{
		RuleID:        "technical.https",
		RuleName:      "HTTPS",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  100,
		RuleWeight:    2.0,
		ImpactScore:   90,
	}}
}

func (r *HTTPSRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	secure := strings.HasPrefix(rc.Page.URL, "https://")
	res := result(0, r.Weight(), secure)
	if secure {
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("HTTPS", "success", "Page is served over HTTPS"))
		return res, nil
	}
	res.Evidence = append(res.Evidence, evidence("HTTPS", "error", "Page is served over plain HTTP"))
	res.Issues = append(res.Issues, issue(aeolens.SeverityCritical,
		"Page is not served over HTTPS",
		"Serve all pages over HTTPS; answer engines deprioritize insecure pages"))
	return res, nil
}

// StatusCodeRule scores the HTTP response status.
type StatusCodeRule struct{ BaseRule }

func NewStatusCodeRule() *StatusCodeRule {
	return &StatusCodeRule{BaseRule{
		RuleID:        "technical.status-code",
		RuleName:      "Status code",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  95,
		RuleWeight:    2.0,
		ImpactScore:   95,
	}}
}

func (r *StatusCodeRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	code := rc.Page.StatusCode
	res := result(0, r.Weight(), false)
	switch {
	case code == 200:
		res.Score, res.Passed = 100, true
		res.Evidence = append(res.Evidence, evidence("Status", "success", "Returned 200 OK"))
	case code >= 300 && code < 400:
		res.Score = 50
		res.Evidence = append(res.Evidence, evidence("Status", "warning", fmt.Sprintf("Returned redirect status %d", code)))
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			fmt.Sprintf("Page returns redirect status %d", code),
			"Link directly to the final URL so crawlers index the content once"))
	case code == 0:
		res.Evidence = append(res.Evidence, evidence("Status", "error", "Page could not be fetched"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityCritical,
			"Page failed to load",
			"Fix the server error or remove the page from sitemaps"))
	default:
		res.Evidence = append(res.Evidence, evidence("Status", "error", fmt.Sprintf("Returned error status %d", code)))
		res.Issues = append(res.Issues, issue(aeolens.SeverityCritical,
			fmt.Sprintf("Page returns error status %d", code),
			"Fix the error or remove links pointing at this URL"))
	}
	res.Details = map[string]any{"statusCode": code}
	return res, nil
}

// ResponseTimeRule scores fetch latency against the configured cap.
type ResponseTimeRule struct{ BaseRule }

func NewResponseTimeRule() *ResponseTimeRule {
	return &ResponseTimeRule{BaseRule{
		RuleID:        "technical.response-time",
		RuleName:      "Response time",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  80,
		RuleWeight:    1.0,
		ImpactScore:   60,
	}}
}

func (r *ResponseTimeRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	capMs := rc.Config.Criterion(scoring.DimTechnical, "maxResponseTimeMs", 2000)
	ms := float64(rc.Page.ResponseTimeMs)

	res := result(0, r.Weight(), false)
	switch {
	case ms <= capMs/2:
		res.Score, res.Passed = 100, true
	case ms <= capMs:
		res.Score, res.Passed = 80, true
	case ms <= capMs*2:
		res.Score = 50
		res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
			fmt.Sprintf("Page responded in %.0fms, above the %.0fms target", ms, capMs),
			"Reduce server latency; slow pages are sampled less by answer engines"))
	default:
		res.Score = 20
		res.Issues = append(res.Issues, issue(aeolens.SeverityHigh,
			fmt.Sprintf("Page responded in %.0fms, far above the %.0fms target", ms, capMs),
			"Investigate server performance or caching for this page"))
	}
	res.Evidence = append(res.Evidence, scoredEvidence("Response time",
		fmt.Sprintf("Responded in %.0fms", ms), ms, capMs))
	return res, nil
}

// CanonicalRule checks for a canonical link tag.
type CanonicalRule struct{ BaseRule }

func NewCanonicalRule() *CanonicalRule {
	return &CanonicalRule{BaseRule{
		RuleID:        "technical.canonical",
		RuleName:      "Canonical tag",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  70,
		RuleWeight:    1.0,
		ImpactScore:   50,
	}}
}

func (r *CanonicalRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	canonical := rc.Page.Metadata.CanonicalURL
	res := result(0, r.Weight(), canonical != "")
	if canonical == "" {
		res.Score = 40
		res.Evidence = append(res.Evidence, evidence("Canonical", "warning", "No canonical link tag found"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Page has no canonical URL",
			"Add a rel=canonical link so duplicate URLs consolidate signals"))
		return res, nil
	}
	res.Score = 100
	if aeolens.SameURL(canonical, rc.Page.URL) {
		res.Evidence = append(res.Evidence, evidence("Canonical", "success", "Canonical tag points at this URL"))
	} else {
		res.Score = 70
		res.Evidence = append(res.Evidence, evidence("Canonical", "info",
			fmt.Sprintf("Canonical tag points elsewhere: %s", canonical)))
	}
	return res, nil
}

// ViewportRule checks for a mobile viewport meta tag.
type ViewportRule struct{ BaseRule }

func NewViewportRule() *ViewportRule {
	return &ViewportRule{BaseRule{
		RuleID:        "technical.viewport",
		RuleName:      "Mobile viewport",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  60,
		RuleWeight:    0.5,
		ImpactScore:   40,
	}}
}

func (r *ViewportRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	res := result(0, r.Weight(), rc.Signals.HasViewportMeta)
	if rc.Signals.HasViewportMeta {
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("Viewport", "success", "Mobile viewport meta tag present"))
	} else {
		res.Score = 30
		res.Evidence = append(res.Evidence, evidence("Viewport", "warning", "No mobile viewport meta tag"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Page lacks a viewport meta tag",
			"Add <meta name=\"viewport\"> for mobile rendering"))
	}
	return res, nil
}

// StructuredDataRule checks for JSON-LD structured data.
type StructuredDataRule struct{ BaseRule }

func NewStructuredDataRule() *StructuredDataRule {
	return &StructuredDataRule{BaseRule{
		RuleID:        "technical.structured-data",
		RuleName:      "Structured data",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  75,
		RuleWeight:    1.5,
		ImpactScore:   80,
	}}
}

func (r *StructuredDataRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	types := rc.Signals.SchemaTypes
	res := result(0, r.Weight(), len(types) > 0)
	if len(types) == 0 {
		res.Score = 20
		res.Evidence = append(res.Evidence, evidence("Structured data", "error", "No JSON-LD structured data found"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityHigh,
			"Page has no structured data",
			"Add JSON-LD schema.org markup matching the page type"))
		return res, nil
	}
	res.Score = 70 + min(len(types), 3)*10
	res.Evidence = append(res.Evidence, evidence("Structured data", "success",
		fmt.Sprintf("Found schema types: %s", strings.Join(types, ", "))))
	res.Details = map[string]any{"schemaTypes": types}
	return res, nil
}

// CleanURLRule scores URL readability: depth, length and query noise.
type CleanURLRule struct{ BaseRule }

func NewCleanURLRule() *CleanURLRule {
	return &CleanURLRule{BaseRule{
		RuleID:        "technical.clean-url",
		RuleName:      "Clean URL",
		RuleDimension: scoring.DimTechnical,
		RulePriority:  50,
		RuleWeight:    0.5,
		ImpactScore:   30,
	}}
}

func (r *CleanURLRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	parsed, err := url.Parse(rc.Page.URL)
	if err != nil {
		return result(0, r.Weight(), false), nil
	}

	score := 100
	var notes []string
	if len(rc.Page.URL) > 100 {
		score -= 20
		notes = append(notes, "URL longer than 100 characters")
	}
	depth := strings.Count(strings.Trim(parsed.Path, "/"), "/")
	if depth > 4 {
		score -= 20
		notes = append(notes, fmt.Sprintf("path depth %d", depth+1))
	}
	if parsed.RawQuery != "" {
		score -= 15
		notes = append(notes, "query parameters present")
	}
	if strings.ContainsAny(parsed.Path, "_%") || strings.Contains(parsed.Path, "%20") {
		score -= 15
		notes = append(notes, "underscores or encoded characters in path")
	}
	if score < 0 {
		score = 0
	}

	res := result(score, r.Weight(), score >= 70)
	if len(notes) == 0 {
		res.Evidence = append(res.Evidence, evidence("URL", "success", "URL is short and readable"))
	} else {
		res.Evidence = append(res.Evidence, evidence("URL", "info", strings.Join(notes, "; ")))
	}
	return res, nil
}
