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

// Heading is one heading element in document order.
type Heading struct {
	Level int
	Text  string
}

// PageSignals is the parsed-once input shared by every rule in a page's
// evaluation. The analyzer builds it from the stored HTML; rules treat
// it as read-only.
type PageSignals struct {
	// CleanText is the tag-stripped visible text
	CleanText string
	// FirstParagraph is the first non-empty paragraph of main content
	FirstParagraph string
	WordCount      int

	Headings []Heading
	H1s      []string

	// SchemaTypes lists the @type values found in JSON-LD blocks
	SchemaTypes []string

	ListCount  int
	TableCount int

	SentenceCount    int
	AvgSentenceWords float64
	// LongSentences counts sentences above the configured length cap
	LongSentences int

	// NavAnchors holds the hrefs of navigation links, lowercased
	NavAnchors []string
	// ExternalLinks counts outbound links to other hosts
	ExternalLinks int

	// BrandMentions counts case-insensitive brand name occurrences;
	// zero when the project has no brand configured
	BrandMentions int

	HasViewportMeta bool

	// QuestionHeadings counts headings phrased as questions
	QuestionHeadings int
}

// HeadingHierarchyValid reports whether heading levels never skip more
// than one level downward (h2 after h1, not h4 after h1).
func (s *PageSignals) HeadingHierarchyValid() bool {
	prev := 0
	for _, h := range s.Headings {
		if prev != 0 && h.Level > prev+1 {
			return false
		}
		prev = h.Level
	}
	return true
}

// HasSchemaType reports whether any JSON-LD block declared the type.
func (s *PageSignals) HasSchemaType(name string) bool {
	for _, t := range s.SchemaTypes {
		if t == name {
			return true
		}
	}
	return false
}
