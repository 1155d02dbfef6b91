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
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/llm"
	"github.com/agentberlin/aeolens/internal/rules"
)

// Page categories. The taxonomy is closed: anything the classifier
// cannot place lands in CategoryUnknown.
const (
	CategoryHomepage        = "homepage"
	CategoryProductCategory = "product-category"
	CategoryProductDetail   = "product-detail"
	CategoryBlogPost        = "blog-post"
	CategoryHowToGuide      = "how-to-guide"
	CategoryFAQ             = "faq"
	CategoryCaseStudy       = "case-study"
	CategoryComparison      = "comparison"
	CategoryPricing         = "pricing"
	CategoryAbout           = "about"
	CategoryContact         = "contact"
	CategoryLegal           = "legal"
	CategoryError           = "error"
	CategoryPrivate         = "private"
	CategoryDocumentation   = "documentation"
	CategoryLanding         = "landing"
	CategoryUnknown         = "unknown"
)

var taxonomy = map[string]bool{
	CategoryHomepage: true, CategoryProductCategory: true, CategoryProductDetail: true,
	CategoryBlogPost: true, CategoryHowToGuide: true, CategoryFAQ: true,
	CategoryCaseStudy: true, CategoryComparison: true, CategoryPricing: true,
	CategoryAbout: true, CategoryContact: true, CategoryLegal: true,
	CategoryError: true, CategoryPrivate: true, CategoryDocumentation: true,
	CategoryLanding: true, CategoryUnknown: true,
}

// Analysis levels derived from the category.
const (
	LevelFull     = "full"
	LevelPartial  = "partial"
	LevelLimited  = "limited"
	LevelExcluded = "excluded"
)

// AnalysisLevel maps a category to how much analysis it warrants.
// Excluded pages are persisted with zero scores and skipped.
func AnalysisLevel(category string) string {
	switch category {
	case CategoryError, CategoryPrivate, CategoryLegal:
		return LevelExcluded
	case CategoryBlogPost, CategoryHowToGuide, CategoryFAQ, CategoryCaseStudy,
		CategoryComparison, CategoryDocumentation, CategoryProductDetail:
		return LevelFull
	case CategoryHomepage, CategoryProductCategory, CategoryPricing, CategoryLanding:
		return LevelPartial
	default:
		return LevelLimited
	}
}

// Categorization is the classifier's output.
type Categorization struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Categorizer assigns each page a taxonomy category: URL fast path
// first, then an LLM call over a page digest, then unknown.
type Categorizer struct {
	llm    *llm.Client
	logger *logrus.Logger
}

func NewCategorizer(client *llm.Client, logger *logrus.Logger) *Categorizer {
	return &Categorizer{llm: client, logger: logger}
}

// fastPathThreshold is the confidence a URL pattern must reach to skip
// the LLM entirely.
const fastPathThreshold = 0.9

// urlFastPath classifies from the URL path alone when unambiguous.
func urlFastPath(pageURL string) *Categorization {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	path := strings.ToLower(strings.TrimRight(parsed.Path, "/"))

	if path == "" {
		return &Categorization{Category: CategoryHomepage, Confidence: 1.0}
	}
	for _, marker := range []string{"/404", "/error"} {
		if strings.Contains(path, marker) {
			return &Categorization{Category: CategoryError, Confidence: 0.95}
		}
	}
	for _, marker := range []string{"/login", "/signin", "/signup"} {
		if strings.Contains(path, marker) {
			return &Categorization{Category: CategoryPrivate, Confidence: 0.95}
		}
	}
	return nil
}

// Categorize classifies one page. The LLM sees only a digest: title,
// first H1, navigation anchors and the lead of the main content.
func (c *Categorizer) Categorize(ctx context.Context, page *aeolens.CrawledPage, signals *rules.PageSignals) Categorization {
	if fast := urlFastPath(page.URL); fast != nil && fast.Confidence >= fastPathThreshold {
		return *fast
	}

	if c.llm == nil || !c.llm.Configured() {
		return Categorization{Category: CategoryUnknown, Confidence: 0.5}
	}

	digest := buildDigest(page, signals)
	var out Categorization
	err := c.llm.StructuredCall(ctx, llm.Request{
		System: "You classify web pages into a fixed taxonomy for content analysis.",
		Prompt: fmt.Sprintf(
			"Classify this page into exactly one category from: %s.\n"+
				"Respond as JSON: {\"category\": \"...\", \"confidence\": <0..1>}\n\n%s",
			strings.Join(taxonomyList(), ", "), digest),
		Temperature: 0.1,
	}, &out)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("url", page.URL).Debug("categorization LLM call failed")
		}
		return Categorization{Category: CategoryUnknown, Confidence: 0.5}
	}
	if !taxonomy[out.Category] || out.Confidence < 0 || out.Confidence > 1 {
		return Categorization{Category: CategoryUnknown, Confidence: 0.5}
	}
	return out
}

func taxonomyList() []string {
	return []string{
		CategoryHomepage, CategoryProductCategory, CategoryProductDetail,
		CategoryBlogPost, CategoryHowToGuide, CategoryFAQ, CategoryCaseStudy,
		CategoryComparison, CategoryPricing, CategoryAbout, CategoryContact,
		CategoryLegal, CategoryError, CategoryPrivate, CategoryDocumentation,
		CategoryLanding, CategoryUnknown,
	}
}

const (
	digestNavLimit     = 10
	digestContentLimit = 1000
)

func buildDigest(page *aeolens.CrawledPage, signals *rules.PageSignals) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\nTitle: %s\n", page.URL, page.Metadata.Title)
	if len(signals.H1s) > 0 {
		fmt.Fprintf(&sb, "H1: %s\n", signals.H1s[0])
	}
	if len(signals.NavAnchors) > 0 {
		nav := signals.NavAnchors
		if len(nav) > digestNavLimit {
			nav = nav[:digestNavLimit]
		}
		fmt.Fprintf(&sb, "Navigation: %s\n", strings.Join(nav, " "))
	}
	content := signals.CleanText
	if len(content) > digestContentLimit {
		content = content[:digestContentLimit]
	}
	fmt.Fprintf(&sb, "Content:\n%s\n", content)
	return sb.String()
}
