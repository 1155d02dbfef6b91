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

// DefaultRules returns a fresh instance of every built-in rule. Each
// call builds new values so registries never share mutable rule state.
func DefaultRules() []Rule {
	return []Rule{
		// technical
		NewHTTPSRule(),
		NewStatusCodeRule(),
		NewResponseTimeRule(),
		NewCanonicalRule(),
		NewViewportRule(),
		NewStructuredDataRule(),
		NewCleanURLRule(),
		// structure
		NewSingleH1Rule(),
		NewHeadingHierarchyRule(),
		NewFAQContentRule(),
		NewListsTablesRule(),
		NewAnswerUpfrontRule(),
		NewSchemaCompletenessRule(),
		// authority
		NewAuthorAttributionRule(),
		NewPublishDateRule(),
		NewCitationsRule(),
		NewBrandConsistencyRule(),
		NewTrustPagesRule(),
		// quality
		NewReadabilityRule(),
		NewWordCountRule(),
		NewUpdateFrequencyRule(),
		NewMetaDescriptionRule(),
		NewContentDepthRule(),
	}
}
