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

// Package llm provides a minimal client for structured completions against
// OpenAI-compatible and Anthropic HTTP APIs, with provider fallback. The
// analyzer uses it for page categorization and content-quality judgments;
// every call site must degrade gracefully when no provider is configured.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when no provider has credentials. Callers
// treat it as "skip the LLM path", not as a failure.
var ErrNotConfigured = errors.New("llm: no provider configured")

// Request is one completion request.
type Request struct {
	// System is the system prompt, optional
	System string
	// Prompt is the user message
	Prompt string
	// Temperature defaults to the provider's default when zero; use a
	// small positive value like 0.1 for near-deterministic output
	Temperature float64
	// MaxTokens caps the completion length, provider default when zero
	MaxTokens int
}

// Provider is one backing API.
type Provider interface {
	// Name identifies the provider in logs and errors
	Name() string
	// Complete returns the full completion text
	Complete(ctx context.Context, req Request) (string, error)
}

// Client runs completions against a provider chain: each call tries
// providers in order and returns the first success.
type Client struct {
	providers []Provider
}

// NewClient builds a client over the given providers. An empty chain is
// valid; every call then returns ErrNotConfigured.
func NewClient(providers ...Provider) *Client {
	return &Client{providers: providers}
}

// Configured reports whether at least one provider is available.
func (c *Client) Configured() bool {
	return len(c.providers) > 0
}

// Complete tries each provider in order and returns the first successful
// completion. All failures are joined into the returned error.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNotConfigured
	}
	var errs []error
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		out, err := p.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", errors.Join(errs...)
}

// StructuredCall runs a completion and unmarshals its JSON payload into
// out. Models often wrap JSON in prose or code fences, so the first JSON
// region of the reply is extracted before decoding.
func (c *Client) StructuredCall(ctx context.Context, req Request, out any) error {
	text, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	payload := ExtractJSON(text)
	if payload == "" {
		return fmt.Errorf("llm: no JSON found in completion %q", truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("llm: decode completion: %w", err)
	}
	return nil
}

// ExtractJSON returns the first balanced JSON object or array inside
// text, stripping markdown code fences first. Empty when none exists.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	for _, open := range []byte{'{', '['} {
		start := strings.IndexByte(text, open)
		if start < 0 {
			continue
		}
		if region := balancedRegion(text[start:], open); region != "" {
			return region
		}
	}
	return ""
}

// balancedRegion scans for the matching close bracket, honoring strings
// and escapes.
func balancedRegion(s string, open byte) string {
	var close byte = '}'
	if open == '[' {
		close = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
