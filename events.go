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

import "github.com/sirupsen/logrus"

// EventType represents the type of a progress event.
type EventType string

const (
	EventCrawlStarted     EventType = "crawler.started"
	EventCrawlProgress    EventType = "crawler.progress"
	EventPageCrawled      EventType = "crawler.page_crawled"
	EventCrawlCompleted   EventType = "crawler.completed"
	EventCrawlFailed      EventType = "crawler.failed"
	EventAnalyzeStarted   EventType = "analyzer.started"
	EventAnalyzeProgress  EventType = "analyzer.progress"
	EventPageAnalyzed     EventType = "analyzer.page_analyzed"
	EventAnalyzeCompleted EventType = "analyzer.completed"
	EventAnalyzeFailed    EventType = "analyzer.failed"
)

// Emitter is the interface for emitting progress events.
// Emission is fire-and-forget: emitters must not block the caller and the
// engine never depends on delivery. Each transport implements this
// differently (SSE broadcasting, message bus, test recorder).
type Emitter interface {
	Emit(eventType EventType, data any)
}

// CrawlEvent is the payload for crawler.* events. Fields not relevant to a
// given event type are left at their zero value.
type CrawlEvent struct {
	ProjectID  uint   `json:"projectId"`
	StartURL   string `json:"startUrl,omitempty"`
	MaxPages   int    `json:"maxPages,omitempty"`
	CurrentURL string `json:"currentUrl,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	RespTimeMs int64  `json:"responseTimeMs,omitempty"`
	Crawled    int    `json:"crawled"`
	Total      int    `json:"total"`
	Errors     int    `json:"errors,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnalyzeEvent is the payload for analyzer.* events.
type AnalyzeEvent struct {
	ProjectID   uint   `json:"projectId"`
	CurrentURL  string `json:"currentUrl,omitempty"`
	GlobalScore int    `json:"globalScore,omitempty"`
	Analyzed    int    `json:"analyzed"`
	Total       int    `json:"total"`
	Error       string `json:"error,omitempty"`
}

// NoOpEmitter discards all events. Useful for tests and embedded use.
type NoOpEmitter struct{}

// Emit does nothing.
func (n *NoOpEmitter) Emit(eventType EventType, data any) {}

// LogEmitter writes every event as a structured log entry.
type LogEmitter struct {
	Logger *logrus.Logger
}

// Emit logs the event at debug level.
func (l *LogEmitter) Emit(eventType EventType, data any) {
	if l.Logger == nil {
		return
	}
	l.Logger.WithFields(logrus.Fields{"event": string(eventType), "data": data}).Debug("event")
}
