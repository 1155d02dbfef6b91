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
	"bytes"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// MockResponse is a canned HTTP response served by MockTransport.
type MockResponse struct {
	// StatusCode defaults to 200 when zero
	StatusCode int
	// Body is the response body
	Body string
	// Headers are included verbatim in the response
	Headers http.Header
	// Delay simulates network latency before the response is returned
	Delay time.Duration
	// Error simulates a transport-level failure instead of a response
	Error error
	// FailFirst makes the first N round trips for this URL fail with
	// Error (or a default error) before Body is served. Used to exercise
	// retry behavior.
	FailFirst int
}

type mockPattern struct {
	pattern  *regexp.Regexp
	response *MockResponse
}

// MockTransport is an http.RoundTripper that serves registered responses
// by exact URL or regex pattern, so crawler behavior can be tested
// without a network. Unregistered URLs get a 404.
type MockTransport struct {
	mu        sync.Mutex
	responses map[string]*MockResponse
	patterns  []mockPattern
	hits      map[string]int
}

// NewMockTransport returns an empty transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string]*MockResponse),
		hits:      make(map[string]int),
	}
}

// Client wraps the transport in an http.Client ready to hand to
// Crawler.SetHTTPClient.
func (m *MockTransport) Client() *http.Client {
	return &http.Client{Transport: m}
}

// RegisterResponse registers a response for an exact URL.
func (m *MockTransport) RegisterResponse(url string, response *MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalizeMock(response)
	m.responses[url] = response
}

// RegisterHTML registers a 200 text/html response.
func (m *MockTransport) RegisterHTML(url, html string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{StatusCode: 200, Body: html, Headers: headers})
}

// RegisterXML registers a 200 application/xml response, typically a
// sitemap or sitemap index.
func (m *MockTransport) RegisterXML(url, xml string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/xml; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{StatusCode: 200, Body: xml, Headers: headers})
}

// RegisterRobots registers a 200 text/plain robots.txt body for the host
// of the given URL.
func (m *MockTransport) RegisterRobots(robotsURL, body string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain")
	m.RegisterResponse(robotsURL, &MockResponse{StatusCode: 200, Body: body, Headers: headers})
}

// RegisterError makes every round trip for the URL fail.
func (m *MockTransport) RegisterError(url string, err error) {
	m.RegisterResponse(url, &MockResponse{Error: err})
}

// RegisterPattern registers a response for URLs matching a regex.
func (m *MockTransport) RegisterPattern(pattern string, response *MockResponse) error {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	normalizeMock(response)
	m.patterns = append(m.patterns, mockPattern{pattern: regex, response: response})
	return nil
}

// Requests reports how many round trips were made for an exact URL.
func (m *MockTransport) Requests(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[url]
}

// Reset drops all registrations and counters.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = make(map[string]*MockResponse)
	m.patterns = nil
	m.hits = make(map[string]int)
}

func normalizeMock(response *MockResponse) {
	if response.StatusCode == 0 {
		response.StatusCode = 200
	}
	if response.Headers == nil {
		response.Headers = make(http.Header)
	}
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	m.mu.Lock()
	m.hits[url]++
	attempt := m.hits[url]
	mockResp, found := m.responses[url]
	if !found {
		for _, p := range m.patterns {
			if p.pattern.MatchString(url) {
				mockResp = p.response
				found = true
				break
			}
		}
	}
	m.mu.Unlock()

	if !found {
		return &http.Response{
			StatusCode: 404,
			Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	if mockResp.Delay > 0 {
		time.Sleep(mockResp.Delay)
	}

	if mockResp.Error != nil && mockResp.FailFirst == 0 {
		return nil, mockResp.Error
	}
	if mockResp.FailFirst > 0 && attempt <= mockResp.FailFirst {
		err := mockResp.Error
		if err == nil {
			err = errTransientMock
		}
		return nil, err
	}

	resp := &http.Response{
		StatusCode:    mockResp.StatusCode,
		Body:          io.NopCloser(bytes.NewBufferString(mockResp.Body)),
		Header:        mockResp.Headers.Clone(),
		Request:       req,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		ContentLength: int64(len(mockResp.Body)),
	}
	return resp, nil
}

type transientMockError struct{}

func (transientMockError) Error() string   { return "simulated transient failure" }
func (transientMockError) Timeout() bool   { return true }
func (transientMockError) Temporary() bool { return true }

var errTransientMock = transientMockError{}
