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

package llm

import (
	"strings"

	"github.com/agentberlin/aeolens/internal/config"
)

// Config selects and credentials one provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIURL    string
	MaxTokens int
}

// LoadConfig reads LLM_PROVIDER, LLM_MODEL, LLM_API_KEY and LLM_API_URL
// from the environment.
func LoadConfig() Config {
	return Config{
		Provider:  config.GetEnv("LLM_PROVIDER", "openai"),
		Model:     config.GetEnv("LLM_MODEL", ""),
		APIKey:    config.GetEnv("LLM_API_KEY", ""),
		APIURL:    config.GetEnv("LLM_API_URL", ""),
		MaxTokens: config.GetEnvInt("LLM_MAX_TOKENS", 0),
	}
}

// NewProvider builds the provider named by cfg.Provider. A missing API
// key yields a nil provider without error so callers can run LLM-free.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" && cfg.APIURL == "" {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	default:
		// Self-hosted OpenAI-compatible endpoints (ollama, vllm, etc.)
		// speak the same chat completions dialect.
		return NewOpenAIProvider(cfg), nil
	}
}

// fallbackConfigs reads LLM_FALLBACK_PROVIDERS, a comma-separated list of
// provider names tried in order after the primary. Each name reads its own
// LLM_<NAME>_MODEL, LLM_<NAME>_API_KEY, LLM_<NAME>_API_URL and
// LLM_<NAME>_MAX_TOKENS variables.
func fallbackConfigs() []Config {
	raw := config.GetEnv("LLM_FALLBACK_PROVIDERS", "")
	if raw == "" {
		return nil
	}
	var cfgs []Config
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		prefix := "LLM_" + strings.ToUpper(name) + "_"
		cfgs = append(cfgs, Config{
			Provider:  name,
			Model:     config.GetEnv(prefix+"MODEL", ""),
			APIKey:    config.GetEnv(prefix+"API_KEY", ""),
			APIURL:    config.GetEnv(prefix+"API_URL", ""),
			MaxTokens: config.GetEnvInt(prefix+"MAX_TOKENS", 0),
		})
	}
	return cfgs
}

// NewClientFromEnv wires a Client from environment configuration: the
// primary provider first, then any LLM_FALLBACK_PROVIDERS in order. The
// client is never nil; it is simply unconfigured when no credentials are
// present.
func NewClientFromEnv() (*Client, error) {
	var providers []Provider
	for _, cfg := range append([]Config{LoadConfig()}, fallbackConfigs()...) {
		provider, err := NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		if provider != nil {
			providers = append(providers, provider)
		}
	}
	return NewClient(providers...), nil
}
