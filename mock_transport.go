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

package sitebrief

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
)

// MockResponse is a canned HTTP response served by MockTransport.
type MockResponse struct {
	// StatusCode is the HTTP status code to return (default: 200)
	StatusCode int
	// Body is the response body content
	Body string
	// Headers are the HTTP headers to include in the response
	Headers http.Header
	// Error simulates a transport-level failure instead of a response
	Error error
	// Redirect sets a Location header; pair it with a 3xx StatusCode
	Redirect string
}

type mockPattern struct {
	pattern  *regexp.Regexp
	response *MockResponse
}

// MockTransport implements http.RoundTripper for tests. Mock responses are
// registered per exact URL or per URL regex pattern; unregistered URLs get a
// 404. Pair it with WithTransport to run a whole crawl against canned pages
// without a live server.
//
// The crawl is single-threaded, so MockTransport does no locking.
type MockTransport struct {
	responses map[string]*MockResponse
	patterns  []mockPattern
	// Requests records every URL fetched, in order
	Requests []string
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{responses: make(map[string]*MockResponse)}
}

// RegisterResponse registers a mock response for an exact URL match.
func (m *MockTransport) RegisterResponse(url string, response *MockResponse) {
	if response.StatusCode == 0 {
		response.StatusCode = http.StatusOK
	}
	if response.Headers == nil {
		response.Headers = make(http.Header)
	}
	if response.Redirect != "" {
		response.Headers.Set("Location", response.Redirect)
	}
	m.responses[url] = response
}

// RegisterHTML registers a 200 text/html response.
func (m *MockTransport) RegisterHTML(url, html string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{StatusCode: http.StatusOK, Body: html, Headers: headers})
}

// RegisterText registers a 200 text/plain response.
func (m *MockTransport) RegisterText(url, body string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{StatusCode: http.StatusOK, Body: body, Headers: headers})
}

// RegisterError registers a simulated network failure for a URL.
func (m *MockTransport) RegisterError(url string, err error) {
	m.RegisterResponse(url, &MockResponse{Error: err})
}

// RegisterPattern registers a mock response for URLs matching a regex.
func (m *MockTransport) RegisterPattern(pattern string, response *MockResponse) error {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	if response.StatusCode == 0 {
		response.StatusCode = http.StatusOK
	}
	if response.Headers == nil {
		response.Headers = make(http.Header)
	}
	m.patterns = append(m.patterns, mockPattern{pattern: regex, response: response})
	return nil
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	m.Requests = append(m.Requests, url)

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
	if !found {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	if mockResp.Error != nil {
		return nil, mockResp.Error
	}

	return &http.Response{
		StatusCode:    mockResp.StatusCode,
		Body:          io.NopCloser(bytes.NewBufferString(mockResp.Body)),
		Header:        cloneHeaders(mockResp.Headers),
		Request:       req,
		ContentLength: int64(len(mockResp.Body)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}, nil
}

func cloneHeaders(headers http.Header) http.Header {
	clone := make(http.Header)
	for key, values := range headers {
		clone[key] = append([]string{}, values...)
	}
	return clone
}
