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
	"strings"
	"time"
)

// dateLayouts are tried in order after RFC 3339. Regional formats last,
// most-specific first so "2006-01-02 15:04" wins over "2006-01-02".
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02.01.2006",
	"01/02/2006",
	"02/01/2006",
}

// ParseDate parses a page date string tolerantly. Returns nil when no
// layout matches or the parsed value is implausible for web content.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		// The equivalent of a NaN date: zero values or years no real
		// page carries.
		if t.IsZero() || t.Year() < 1990 || t.Year() > time.Now().Year()+1 {
			return nil
		}
		return &t
	}
	return nil
}
