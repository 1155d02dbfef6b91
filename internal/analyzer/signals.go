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
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/kennygrant/sanitize"
	"golang.org/x/net/html"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/rules"
)

// BuildSignals parses the stored HTML once and derives every signal the
// rule set reads. Parse failures yield empty signals, never an error;
// rules score the absence.
func BuildSignals(page *aeolens.CrawledPage, project *aeolens.ProjectContext) *rules.PageSignals {
	signals := &rules.PageSignals{}

	doc, err := htmlquery.Parse(strings.NewReader(page.HTML))
	if err != nil {
		return signals
	}

	signals.Headings = extractHeadings(doc)
	for _, h := range signals.Headings {
		if h.Level == 1 {
			signals.H1s = append(signals.H1s, h.Text)
		}
		if isQuestion(h.Text) {
			signals.QuestionHeadings++
		}
	}

	signals.ListCount = len(htmlquery.Find(doc, "//ul|//ol"))
	signals.TableCount = len(htmlquery.Find(doc, "//table"))
	signals.HasViewportMeta = htmlquery.FindOne(doc, `//meta[@name="viewport"]`) != nil

	signals.NavAnchors = extractNavAnchors(doc)
	signals.ExternalLinks = countExternalLinks(doc, page.URL)

	signals.SchemaTypes = schemaTypesFrom(page.Metadata.Schema)

	signals.CleanText = cleanText(page.HTML)
	signals.WordCount = len(strings.Fields(signals.CleanText))
	signals.FirstParagraph = firstParagraph(doc)

	sentences := splitSentences(signals.CleanText)
	signals.SentenceCount = len(sentences)
	if len(sentences) > 0 {
		total := 0
		for _, s := range sentences {
			words := len(strings.Fields(s))
			total += words
			if words > 25 {
				signals.LongSentences++
			}
		}
		signals.AvgSentenceWords = float64(total) / float64(len(sentences))
	}

	if project != nil && project.BrandName != "" {
		signals.BrandMentions = strings.Count(
			strings.ToLower(signals.CleanText),
			strings.ToLower(project.BrandName),
		)
	}

	return signals
}

// cleanText strips tags and collapses whitespace. Scripts and styles are
// dropped before sanitizing so their text never counts as prose.
func cleanText(rawHTML string) string {
	stripped, err := sanitize.HTMLAllowing(rawHTML, []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "td"})
	if err != nil {
		stripped = sanitize.HTML(rawHTML)
	}
	text := sanitize.HTML(stripped)
	return strings.Join(strings.Fields(text), " ")
}

func extractHeadings(doc *html.Node) []rules.Heading {
	var headings []rules.Heading
	for _, node := range htmlquery.Find(doc, "//h1|//h2|//h3|//h4|//h5|//h6") {
		level := int(node.Data[1] - '0')
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if text == "" {
			continue
		}
		headings = append(headings, rules.Heading{Level: level, Text: text})
	}
	return headings
}

// extractNavAnchors collects lowercased hrefs from nav, header and
// footer elements.
func extractNavAnchors(doc *html.Node) []string {
	var anchors []string
	seen := map[string]bool{}
	for _, node := range htmlquery.Find(doc, "//nav//a/@href|//header//a/@href|//footer//a/@href") {
		href := strings.ToLower(strings.TrimSpace(htmlquery.InnerText(node)))
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true
		anchors = append(anchors, href)
	}
	return anchors
}

func countExternalLinks(doc *html.Node, pageURL string) int {
	count := 0
	for _, node := range htmlquery.Find(doc, "//a/@href") {
		href := strings.TrimSpace(htmlquery.InnerText(node))
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			continue
		}
		if !aeolens.SameHost(href, pageURL) {
			count++
		}
	}
	return count
}

// firstParagraph returns the first paragraph with real prose, skipping
// boilerplate inside nav/header/footer.
func firstParagraph(doc *html.Node) string {
	for _, node := range htmlquery.Find(doc, "//main//p|//article//p|//body//p") {
		if inChrome(node) {
			continue
		}
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if len(strings.Fields(text)) >= 3 {
			return text
		}
	}
	return ""
}

func inChrome(node *html.Node) bool {
	for n := node.Parent; n != nil; n = n.Parent {
		switch n.Data {
		case "nav", "header", "footer", "aside":
			return true
		}
	}
	return false
}

func schemaTypesFrom(blocks []map[string]any) []string {
	var types []string
	seen := map[string]bool{}
	for _, block := range blocks {
		switch v := block["@type"].(type) {
		case string:
			if !seen[v] {
				seen[v] = true
				types = append(types, v)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && !seen[s] {
					seen[s] = true
					types = append(types, s)
				}
			}
		}
	}
	return types
}

// splitSentences performs a rough sentence split on terminal punctuation.
// Fragments under three words are dropped as list debris.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			candidate := strings.TrimSpace(text[start : i+1])
			if len(strings.Fields(candidate)) >= 3 {
				sentences = append(sentences, candidate)
			}
			start = i + 1
		}
	}
	return sentences
}

func isQuestion(heading string) bool {
	h := strings.ToLower(strings.TrimSpace(heading))
	if strings.HasSuffix(h, "?") {
		return true
	}
	for _, prefix := range []string{"how ", "what ", "why ", "when ", "where ", "who ", "which ", "can ", "does ", "is ", "are "} {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	return false
}
