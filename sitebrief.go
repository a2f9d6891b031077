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

// Package sitebrief extracts a structured business profile from a company's
// public website. It crawls at most two link levels: the seed page (plus any
// caller-supplied extra URLs) at level 1, then up to four keyword-relevant
// links discovered on those pages at level 2. Heuristic detectors classify the
// extracted text for pricing mentions, team-member snippets and customer
// testimonials, and the per-page results are merged into a single BusinessInfo
// record suitable for downstream consumption as JSON.
//
// The crawler never guesses URL paths that were not observed on a fetched
// page (the llms.txt probe at the domain root is the single exception), never
// retries a failed fetch, and never renders JavaScript - it operates purely on
// server-delivered HTML.
package sitebrief

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Default crawl parameters, overridable via Options.
const (
	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 15 * time.Second
	// DefaultDelay is the politeness pause enforced after every fetch,
	// regardless of outcome.
	DefaultDelay = 500 * time.Millisecond
	// DefaultUserAgent identifies the crawler to target hosts.
	DefaultUserAgent = "Mozilla/5.0 (compatible; sitebrief/1.0; +https://github.com/agentberlin/sitebrief)"
	// DefaultMaxBodySize is the limit of the retrieved response body in bytes.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// maxTextLength is the body-text summary budget in the default mode.
	maxTextLength = 3000
	// maxTextLengthDeep is the larger budget used in deep mode, intended for
	// downstream LLM extraction.
	maxTextLengthDeep = 8000

	maxHeadings       = 20
	maxImportantLinks = 15
	maxLevel2Targets  = 4
)

// ErrNoPagesFetched is returned by Crawl when every level-1 seed URL was
// skipped or errored. No partial output is produced in that case.
var ErrNoPagesFetched = errors.New("sitebrief: could not fetch any level-1 pages")

// Link is a single outbound link discovered on a page. URLs are always
// absolute and same-apex-domain as the page they were found on.
type Link struct {
	// Text is the visible anchor text
	Text string `json:"text"`
	// URL is the resolved absolute target URL
	URL string `json:"url"`
}

// CategoryRecord holds the data collected from one classified level-2 page.
// Snippets and Testimonials are populated only for the team and clients
// categories respectively.
type CategoryRecord struct {
	// URL is the level-2 page the record was built from
	URL string `json:"url,omitempty"`
	// Snippets are "Name, Title" style team-member matches (team pages)
	Snippets []string `json:"snippets,omitempty"`
	// Testimonials are quoted spans extracted from the page (clients pages)
	Testimonials []string `json:"testimonials,omitempty"`
	// Raw is a bounded excerpt of the page's body text
	Raw string `json:"raw,omitempty"`
}

// Empty reports whether the record was never populated.
func (r CategoryRecord) Empty() bool {
	return r.URL == "" && r.Raw == "" && len(r.Snippets) == 0 && len(r.Testimonials) == 0
}

// BusinessInfo is the final aggregate record produced by a crawl. It is the
// only output of the core pipeline; publishing it (or a file derived from it)
// is the responsibility of downstream collaborators.
type BusinessInfo struct {
	// Domain is the host of the seed URL
	Domain string `json:"domain"`
	// Title is the first non-empty page title across level-1 pages
	Title string `json:"title"`
	// MetaDesc is the first non-empty meta description across level-1 pages
	MetaDesc string `json:"meta_desc"`
	// Headings are content headings from all crawled pages, capped at 20
	Headings []string `json:"headings"`
	// RawTextSummary is the concatenated body text, truncated to the
	// mode-dependent budget
	RawTextSummary string `json:"raw_text_summary"`
	// Emails are deduplicated addresses found across all pages
	Emails []string `json:"emails"`
	// ImportantLinks is the level-1 link set minus navigation noise, capped at 15
	ImportantLinks []Link `json:"important_links"`

	// Heuristic signals and per-category level-2 records
	PricingFound      bool           `json:"pricing_found"`
	PricingData       CategoryRecord `json:"pricing_data"`
	APIFound          bool           `json:"api_found"`
	APIData           CategoryRecord `json:"api_data"`
	TeamFound         bool           `json:"team_found"`
	TeamData          CategoryRecord `json:"team_data"`
	TestimonialsFound bool           `json:"testimonials_found"`
	TestimonialsData  CategoryRecord `json:"testimonials_data"`

	// ExistingLLMsTxt is the verbatim content of a pre-existing llms.txt at
	// the domain root, if one was found. Informational only.
	ExistingLLMsTxt string `json:"existing_llms_txt,omitempty"`
	// PagesCrawled lists every successfully fetched page, in fetch order
	PagesCrawled []string `json:"pages_crawled"`
	// Deep indicates which truncation budget was active
	Deep bool `json:"deep"`
	// PagesRaw maps page URL to that page's truncated body text.
	// Present only in deep mode.
	PagesRaw map[string]string `json:"pages_raw,omitempty"`
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithDeepMode enables the larger text budgets and retains full per-page raw
// text in the output record.
func WithDeepMode() Option {
	return func(c *Crawler) {
		c.deep = true
	}
}

// WithExtraURLs adds caller-supplied seed URLs fetched at level 1 alongside
// the root URL.
func WithExtraURLs(urls ...string) Option {
	return func(c *Crawler) {
		c.extraURLs = append(c.extraURLs, urls...)
	}
}

// WithDelay overrides the politeness delay enforced after every fetch.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		c.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) {
		c.userAgent = ua
	}
}

// WithTransport sets the http.RoundTripper used for all requests. Intended
// for tests, which pair it with MockTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Crawler) {
		c.transport = rt
	}
}

// WithCategories replaces the default keyword categories used for level-2
// link selection and page classification.
func WithCategories(cats []Category) Option {
	return func(c *Crawler) {
		c.categories = cats
	}
}

// WithIgnoreRobots disables robots.txt checks. By default the crawler honors
// any restrictions the target host publishes.
func WithIgnoreRobots() Option {
	return func(c *Crawler) {
		c.ignoreRobots = true
	}
}

// WithLogger sets the structured logger used for the diagnostic side-channel.
// Diagnostics are never mixed into the output record.
func WithLogger(l *log.Logger) Option {
	return func(c *Crawler) {
		c.logger = l
	}
}

// WithMaxBodySize overrides the response body size limit in bytes.
func WithMaxBodySize(n int) Option {
	return func(c *Crawler) {
		c.maxBodySize = n
	}
}

func defaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Prefix: "sitebrief"})
}
