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

package aeolens

import (
	"net/url"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// NormalizeURL canonicalizes a URL so that two spellings of the same page
// compare equal. The canonical form has no fragment, no trailing slash on
// the path (unless the path is exactly "/"), and its query parameters
// sorted by key in ascending order.
//
// Non-parseable input is returned unchanged. NormalizeURL is idempotent:
// NormalizeURL(NormalizeURL(u)) == NormalizeURL(u).
func NormalizeURL(raw string) string {
	// The whatwg parser fixes ambiguities the stdlib tolerates
	// (missing path on bare hosts, stray tabs/newlines, casing).
	whatwgParsed, err := urlParser.Parse(raw)
	if err != nil {
		return raw
	}
	parsed, err := url.Parse(whatwgParsed.Href(true))
	if err != nil {
		return raw
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = ""
	}

	if parsed.RawQuery != "" {
		parsed.RawQuery = sortQuery(parsed.RawQuery)
	}

	normalized := parsed.String()
	// Href always emits "/" for an empty path; keep the two forms equal.
	return strings.TrimSuffix(normalized, "?")
}

// sortQuery rebuilds a raw query string with its keys in ascending order.
// Values under a repeated key keep their relative order.
func sortQuery(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// SameURL reports whether two URLs are the same page after normalization.
func SameURL(a, b string) bool {
	return NormalizeURL(a) == NormalizeURL(b)
}

// URLHash returns the xxhash64 digest of a URL's normal form.
// Used as the visited-set key so the set stores 8 bytes per URL
// instead of the full string.
func URLHash(raw string) uint64 {
	return xxhash.Sum64String(NormalizeURL(raw))
}

// URLHost returns the lowercased host (including port, if any) of a URL,
// or "" if the URL cannot be parsed.
func URLHost(raw string) string {
	parsed, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// SameHost reports whether two URLs share a host. Ports are significant,
// subdomains are not folded: blog.example.com != example.com.
func SameHost(a, b string) bool {
	ha, hb := URLHost(a), URLHost(b)
	return ha != "" && ha == hb
}

// IsHomepage reports whether a URL points at the root of its host.
func IsHomepage(raw string) bool {
	parsed, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return false
	}
	return (parsed.Path == "" || parsed.Path == "/") && parsed.RawQuery == ""
}
