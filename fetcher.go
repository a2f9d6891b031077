// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// This file includes modifications to code originally developed by Adam Tauber,
// licensed under the Apache License, Version 2.0.
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
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"
	"github.com/temoto/robotstxt"
)

// ErrTooManyRedirects is returned when a fetch exceeds the redirect budget.
var ErrTooManyRedirects = errors.New("sitebrief: stopped after 10 redirects")

const maxRedirects = 10

// FetchResult is a successfully fetched HTML page. A nil FetchResult means
// the URL was skipped (non-200 status, non-HTML content type, or a robots.txt
// restriction) rather than errored.
type FetchResult struct {
	// Body is the raw response body
	Body []byte
	// FinalURL is the URL after following redirects
	FinalURL string
}

// LimitRule applies a politeness delay to requests whose host matches the
// domain glob. The delay runs after every matching fetch regardless of
// outcome; it throttles the crawler against the target host and is not a
// correctness requirement.
type LimitRule struct {
	// DomainGlob is a glob pattern matched against request hosts
	DomainGlob string
	// Delay is the duration to sleep after each matching request
	Delay time.Duration

	compiledGlob glob.Glob
}

// Init compiles the rule's glob pattern.
func (r *LimitRule) Init() error {
	g, err := glob.Compile(r.DomainGlob)
	if err != nil {
		return err
	}
	r.compiledGlob = g
	return nil
}

// Match checks that the domain parameter triggers the rule.
func (r *LimitRule) Match(domain string) bool {
	return r.compiledGlob != nil && r.compiledGlob.Match(domain)
}

// fetchBackend performs bounded HTTP GETs with manual redirect following.
// Redirects are followed by hand so the final URL is always known to the
// caller and each hop can be checked against robots.txt.
type fetchBackend struct {
	client       *http.Client
	userAgent    string
	maxBodySize  int
	limit        *LimitRule
	ignoreRobots bool
	logger       *log.Logger

	// robots caches parsed robots.txt data per host. The crawl is fully
	// sequential, so no locking is needed.
	robots map[string]*robotstxt.RobotsData
}

func newFetchBackend(timeout time.Duration, transport http.RoundTripper, userAgent string, maxBodySize int, limit *LimitRule, ignoreRobots bool, logger *log.Logger) *fetchBackend {
	return &fetchBackend{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			// Redirects are handled manually in do().
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:    userAgent,
		maxBodySize:  maxBodySize,
		limit:        limit,
		ignoreRobots: ignoreRobots,
		logger:       logger,
		robots:       make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch performs a single bounded GET. It returns a non-nil FetchResult only
// for a 200 response whose Content-Type marks it as HTML. A nil result with a
// nil error is a skip; a non-nil error is a transport-level failure. Neither
// is retried.
func (b *fetchBackend) Fetch(rawURL string) (*FetchResult, error) {
	defer b.throttle(rawURL)

	res, finalURL, err := b.do(rawURL)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	defer res.Body.Close()

	contentType := res.Header.Get("Content-Type")
	if res.StatusCode != http.StatusOK || !strings.Contains(contentType, "text/html") {
		b.logger.Debug("fetch skipped", "url", rawURL, "status", res.StatusCode, "content_type", contentType)
		io.Copy(io.Discard, io.LimitReader(res.Body, 1024))
		return nil, nil
	}

	body, err := b.readBody(res)
	if err != nil {
		return nil, err
	}
	return &FetchResult{Body: body, FinalURL: finalURL}, nil
}

// FetchText fetches a plain text resource, ignoring the content type. Used
// only to probe for a pre-existing llms.txt at the domain root.
func (b *fetchBackend) FetchText(rawURL string) (string, bool) {
	defer b.throttle(rawURL)

	res, _, err := b.do(rawURL)
	if err != nil || res == nil {
		return "", false
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(res.Body, 1024))
		return "", false
	}
	body, err := b.readBody(res)
	if err != nil {
		return "", false
	}
	return string(body), true
}

// do issues the GET and follows up to maxRedirects hops by hand. A nil
// response with nil error means a hop was blocked by robots.txt.
func (b *fetchBackend) do(rawURL string) (*http.Response, string, error) {
	parsed, err := urlParser.Parse(rawURL)
	if err != nil {
		return nil, "", err
	}
	current, err := url.Parse(parsed.Href(false))
	if err != nil {
		return nil, "", err
	}

	for redirects := 0; redirects <= maxRedirects; redirects++ {
		if !b.robotsAllowed(current) {
			b.logger.Debug("fetch blocked by robots.txt", "url", current.String())
			return nil, "", nil
		}

		req, err := http.NewRequest(http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("User-Agent", b.userAgent)

		res, err := b.client.Do(req)
		if err != nil {
			return nil, "", err
		}

		location := res.Header.Get("Location")
		if res.StatusCode >= 300 && res.StatusCode < 400 && location != "" {
			next, err := current.Parse(location)
			if err != nil {
				res.Body.Close()
				return nil, "", err
			}
			res.Body.Close()
			current = next
			continue
		}
		return res, current.String(), nil
	}
	return nil, "", ErrTooManyRedirects
}

// readBody reads the response body up to maxBodySize, transparently
// decompressing gzip-encoded responses.
func (b *fetchBackend) readBody(res *http.Response) ([]byte, error) {
	var bodyReader io.Reader = res.Body
	if b.maxBodySize > 0 {
		bodyReader = io.LimitReader(bodyReader, int64(b.maxBodySize))
	}
	contentEncoding := strings.ToLower(res.Header.Get("Content-Encoding"))
	if !res.Uncompressed && strings.Contains(contentEncoding, "gzip") {
		gz, err := gzip.NewReader(bodyReader)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		bodyReader = gz
	}
	return io.ReadAll(bodyReader)
}

// robotsAllowed checks the target host's robots.txt restrictions for the
// request path. A robots.txt that cannot be fetched or parsed allows
// everything.
func (b *fetchBackend) robotsAllowed(u *url.URL) bool {
	if b.ignoreRobots {
		return true
	}
	host := u.Host
	data, cached := b.robots[host]
	if !cached {
		data = b.fetchRobots(u)
		b.robots[host] = data
	}
	if data == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, b.userAgent)
}

func (b *fetchBackend) fetchRobots(u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", b.userAgent)
	res, err := b.client.Do(req)
	if err != nil {
		return nil
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, int64(b.maxBodySize)))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}

// throttle sleeps for the limit rule's delay when the request host matches.
func (b *fetchBackend) throttle(rawURL string) {
	if b.limit == nil || b.limit.Delay <= 0 {
		return
	}
	host := hostOf(rawURL)
	if b.limit.Match(host) {
		time.Sleep(b.limit.Delay)
	}
}
