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

// AuthorAttributionRule checks for a named author on content pages.
type AuthorAttributionRule struct{ BaseRule }

func NewAuthorAttributionRule() *AuthorAttributionRule {
	return &AuthorAttributionRule{BaseRule{
		RuleID:        "authority.author",
		RuleName:      "Author attribution",
		RuleDimension: scoring.DimAuthority,
		RulePriority:  90,
		RuleWeight:    1.5,
		ImpactScore:   70,
		Applicability: []string{"blog-post", "how-to-guide", "case-study", "comparison", "documentation"},
	}}
}

func (r *AuthorAttributionRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	author := strings.TrimSpace(rc.Page.Metadata.Author)
	res := result(0, r.Weight(), author != "")
	if author != "" {
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("Author", "success",
			fmt.Sprintf("Attributed to %q", author)))
		return res, nil
	}
	res.Score = 20
	res.Evidence = append(res.Evidence, evidence("Author", "warning", "No author attribution found"))
	res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
		"Content has no named author",
		"Attribute content to a named author; answer engines weigh authorship"))
	return res, nil
}

// PublishDateRule checks for a machine-readable publish date.
type PublishDateRule struct{ BaseRule }

func NewPublishDateRule() *PublishDateRule {
	return &PublishDateRule{BaseRule{
		RuleID:        "authority.publish-date",
		RuleName:      "Publish date",
		RuleDimension: scoring.DimAuthority,
		RulePriority:  85,
		RuleWeight:    1.0,
		ImpactScore:   60,
		Applicability: []string{"blog-post", "how-to-guide", "case-study", "comparison", "faq", "documentation"},
	}}
}

func (r *PublishDateRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	published := rc.Page.Metadata.PublishDate
	res := result(0, r.Weight(), published != nil)
	if published != nil {
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("Published", "success",
			fmt.Sprintf("Published %s", published.Format("2006-01-02"))))
		if rc.Page.Metadata.ModifiedDate != nil {
			res.Evidence = append(res.Evidence, evidence("Updated", "info",
				fmt.Sprintf("Last modified %s", rc.Page.Metadata.ModifiedDate.Format("2006-01-02"))))
		}
		return res, nil
	}
	res.Score = 20
	res.Evidence = append(res.Evidence, evidence("Published", "warning", "No machine-readable publish date"))
	res.Issues = append(res.Issues, issue(aeolens.SeverityMedium,
		"Content has no machine-readable publish date",
		"Add article:published_time or datePublished markup"))
	return res, nil
}

// CitationsRule rewards outbound links to external sources.
type CitationsRule struct{ BaseRule }

func NewCitationsRule() *CitationsRule {
	return &CitationsRule{BaseRule{
		RuleID:        "authority.citations",
		RuleName:      "Outbound citations",
		RuleDimension: scoring.DimAuthority,
		RulePriority:  70,
		RuleWeight:    1.0,
		ImpactScore:   55,
		Applicability: []string{"blog-post", "how-to-guide", "case-study", "comparison", "documentation"},
	}}
}

func (r *CitationsRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	external := rc.Signals.ExternalLinks
	res := result(0, r.Weight(), external > 0)
	switch {
	case external >= 3:
		res.Score = 100
	case external > 0:
		res.Score = 70
	default:
		res.Score = 30
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Content cites no external sources",
			"Link supporting claims to authoritative external sources"))
	}
	res.Evidence = append(res.Evidence, evidence("Citations", "info",
		fmt.Sprintf("%d outbound external links", external)))
	return res, nil
}

// BrandConsistencyRule checks the configured brand is actually named on
// the page.
type BrandConsistencyRule struct{ BaseRule }

func NewBrandConsistencyRule() *BrandConsistencyRule {
	return &BrandConsistencyRule{BaseRule{
		RuleID:        "authority.brand-consistency",
		RuleName:      "Brand mention consistency",
		RuleDimension: scoring.DimAuthority,
		RulePriority:  60,
		RuleWeight:    0.8,
		ImpactScore:   40,
	}}
}

func (r *BrandConsistencyRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	if rc.Project == nil || rc.Project.BrandName == "" {
		res := result(70, r.Weight(), true)
		res.Evidence = append(res.Evidence, evidence("Brand", "info", "No brand configured; skipping mention check"))
		return res, nil
	}
	mentions := rc.Signals.BrandMentions
	res := result(0, r.Weight(), mentions > 0)
	if mentions > 0 {
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("Brand", "success",
			fmt.Sprintf("%q mentioned %d times", rc.Project.BrandName, mentions)))
	} else {
		res.Score = 40
		res.Evidence = append(res.Evidence, evidence("Brand", "warning",
			fmt.Sprintf("%q is never mentioned on this page", rc.Project.BrandName)))
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"Page never names the brand",
			"Mention the brand by name so answer engines associate the content with it"))
	}
	return res, nil
}

// TrustPagesRule checks that about/contact pages are reachable from the
// page's navigation. Domain scope: the signal is navigation links, which
// repeat site-wide.
type TrustPagesRule struct{ BaseRule }

func NewTrustPagesRule() *TrustPagesRule {
	return &TrustPagesRule{BaseRule{
		RuleID:         "authority.trust-pages",
		RuleName:       "About and contact discoverability",
		RuleDimension:  scoring.DimAuthority,
		RulePriority:   50,
		RuleWeight:     0.7,
		ExecutionScope: ScopeDomain,
		ImpactScore:    35,
	}}
}

func (r *TrustPagesRule) Evaluate(ctx context.Context, rc *RuleContext) (*RuleResult, error) {
	hasAbout, hasContact := false, false
	for _, href := range rc.Signals.NavAnchors {
		if strings.Contains(href, "about") {
			hasAbout = true
		}
		if strings.Contains(href, "contact") {
			hasContact = true
		}
	}

	res := result(0, r.Weight(), hasAbout && hasContact)
	switch {
	case hasAbout && hasContact:
		res.Score = 100
		res.Evidence = append(res.Evidence, evidence("Trust pages", "success", "About and contact pages linked in navigation"))
	case hasAbout || hasContact:
		res.Score = 70
		res.Evidence = append(res.Evidence, evidence("Trust pages", "info", "Only one of about/contact linked in navigation"))
	default:
		res.Score = 40
		res.Evidence = append(res.Evidence, evidence("Trust pages", "warning", "Neither about nor contact linked in navigation"))
		res.Issues = append(res.Issues, issue(aeolens.SeverityLow,
			"About and contact pages are not discoverable from navigation",
			"Link about and contact pages site-wide to establish entity trust"))
	}
	return res, nil
}
