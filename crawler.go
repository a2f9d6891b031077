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
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Category raw-excerpt budgets, in characters.
const (
	excerptLong  = 1000
	excerptShort = 500
)

// Crawler runs the two-level crawl and aggregates the per-page extracts into
// one BusinessInfo record. Execution is fully sequential: one fetch at a
// time, a politeness delay after each, no retries.
type Crawler struct {
	deep         bool
	extraURLs    []string
	delay        time.Duration
	timeout      time.Duration
	userAgent    string
	transport    http.RoundTripper
	categories   []Category
	ignoreRobots bool
	logger       *log.Logger
	maxBodySize  int

	backend *fetchBackend
}

// NewCrawler creates a Crawler with the default configuration, modified by
// any options.
func NewCrawler(opts ...Option) *Crawler {
	c := &Crawler{
		delay:       DefaultDelay,
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		categories:  DefaultCategories(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = defaultLogger()
	}

	limit := &LimitRule{DomainGlob: "*", Delay: c.delay}
	// The "*" glob always compiles.
	_ = limit.Init()
	c.backend = newFetchBackend(c.timeout, c.transport, c.userAgent, c.maxBodySize, limit, c.ignoreRobots, c.logger)
	return c
}

// fetchedPage pairs a successfully fetched page with its extract.
type fetchedPage struct {
	url     string
	extract *PageExtract
}

// levelTwoPage carries a fetched level-2 page together with the link that
// led to it and the testimonials found on it. Classification and backfill
// run as explicit post-passes over these, so the result does not depend on
// category evaluation order during the fetch loop.
type levelTwoPage struct {
	link         Link
	url          string
	extract      *PageExtract
	testimonials []string
}

// NormalizeSeedURL defaults the scheme to https:// when the caller omitted
// it.
func NormalizeSeedURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}

// Crawl fetches the root URL plus any configured extra URLs at level 1,
// follows up to four keyword-scored links at level 2, and merges everything
// into a BusinessInfo record. It returns ErrNoPagesFetched when every level-1
// fetch failed; no partial output is produced in that case.
func (c *Crawler) Crawl(rootURL string) (*BusinessInfo, error) {
	rootURL = NormalizeSeedURL(rootURL)
	domain := ""
	if u, err := url.Parse(rootURL); err == nil {
		domain = u.Host
	}

	textLimit := maxTextLength
	if c.deep {
		textLimit = maxTextLengthDeep
	}
	mode := "fast"
	if c.deep {
		mode = "deep"
	}
	c.logger.Info("crawling", "url", rootURL, "mode", mode)

	// Level 1: seed plus caller-supplied extras, sequential. Pages are keyed
	// by final URL so two seeds redirecting to the same place (typically a
	// www alias) are extracted and merged once.
	var level1 []fetchedPage
	seenFinal := make(map[string]bool)
	for _, seed := range append([]string{rootURL}, c.extraURLs...) {
		page := c.fetchAndExtract(seed)
		if page == nil {
			continue
		}
		if seenFinal[page.url] {
			c.logger.Debug("already fetched, dropping", "url", seed, "final_url", page.url)
			continue
		}
		seenFinal[page.url] = true
		level1 = append(level1, *page)
		c.logger.Info("fetched", "url", seed, "level", 1)
	}
	if len(level1) == 0 {
		return nil, ErrNoPagesFetched
	}

	// Merge level-1 data. Title and meta description are first-wins; links,
	// emails, headings and body text concatenate across pages.
	info := &BusinessInfo{Domain: domain, Deep: c.deep}
	var (
		allLinks     []Link
		allEmails    []string
		allHeadings  []string
		allText      []string
		pagesCrawled []string
		pagesRaw     = make(map[string]string)
		seenContent  = make(map[uint64]bool)
	)
	for _, p := range level1 {
		pagesCrawled = append(pagesCrawled, p.url)
		allLinks = append(allLinks, p.extract.Links...)
		allEmails = append(allEmails, p.extract.Emails...)
		allHeadings = append(allHeadings, p.extract.Headings...)
		allText = append(allText, p.extract.BodyText)
		if p.extract.BodyText != "" {
			seenContent[contentHash(p.extract.BodyText)] = true
		}
		if info.Title == "" {
			info.Title = p.extract.Title
		}
		if info.MetaDesc == "" {
			info.MetaDesc = p.extract.MetaDesc
		}
		if c.deep {
			pagesRaw[p.url] = truncate(p.extract.BodyText, textLimit)
		}
	}

	// Deduplicate the level-1 link set. The dedup key strips trailing
	// slashes; only links with visible text are eligible targets.
	seenKeys := make(map[string]bool)
	var uniqueLinks []Link
	for _, l := range allLinks {
		key := strings.TrimRight(l.URL, "/")
		if l.Text == "" || seenKeys[key] {
			continue
		}
		seenKeys[key] = true
		uniqueLinks = append(uniqueLinks, l)
	}
	c.logger.Info("links discovered", "unique", len(uniqueLinks))

	// Level 2: up to four scored targets, sequential, same delay. A failed
	// fetch drops that one candidate; no substitution occurs.
	targets := selectTargets(uniqueLinks, c.categories)
	var level2 []levelTwoPage
	for _, target := range targets {
		c.logger.Info("following", "text", target.Text, "url", target.URL, "level", 2)
		page := c.fetchAndExtract(target.URL)
		if page == nil {
			continue
		}
		// Pages whose content lives outside p/li/blockquote elements extract
		// no body text; an empty extract is not evidence of duplication.
		if body := page.extract.BodyText; body != "" {
			h := contentHash(body)
			if seenContent[h] {
				c.logger.Debug("duplicate content, dropping", "url", page.url)
				continue
			}
			seenContent[h] = true
		}
		pagesCrawled = append(pagesCrawled, page.url)
		allEmails = append(allEmails, page.extract.Emails...)
		allHeadings = append(allHeadings, page.extract.Headings...)
		allText = append(allText, page.extract.BodyText)
		if c.deep {
			pagesRaw[page.url] = truncate(page.extract.BodyText, textLimit)
		}
		level2 = append(level2, levelTwoPage{
			link:         target,
			url:          page.url,
			extract:      page.extract,
			testimonials: testimonialQuotes(page.extract.BodyText),
		})
	}

	records := c.classifyLevel2(level2)
	c.backfillTestimonials(records, level2)

	// Probe for a pre-existing llms.txt at the domain root. Purely an
	// informational signal for the caller; included verbatim when present.
	if existing, ok := c.backend.FetchText("https://" + domain + "/llms.txt"); ok {
		c.logger.Info("existing llms.txt found", "domain", domain)
		info.ExistingLLMsTxt = existing
	}

	// Final assembly.
	mergedText := strings.Join(allText, " ")

	info.Headings = capStrings(allHeadings, maxHeadings)
	info.RawTextSummary = truncate(mergedText, textLimit)
	info.Emails = filterEmails(allEmails)
	info.ImportantLinks = importantLinks(uniqueLinks)
	info.PagesCrawled = pagesCrawled

	info.PricingData = records[CategoryPricing]
	info.APIData = records[CategoryAPI]
	info.TeamData = records[CategoryTeam]
	info.TestimonialsData = records[CategoryClients]

	info.PricingFound = detectPricing(mergedText)
	info.APIFound = !info.APIData.Empty()
	info.TeamFound = len(info.TeamData.Snippets) > 0
	info.TestimonialsFound = len(info.TestimonialsData.Testimonials) > 0

	if c.deep {
		info.PagesRaw = pagesRaw
	}
	if info.Emails == nil {
		info.Emails = []string{}
	}
	if info.Headings == nil {
		info.Headings = []string{}
	}
	if info.ImportantLinks == nil {
		info.ImportantLinks = []Link{}
	}

	c.logger.Info("crawl complete", "pages", len(pagesCrawled), "emails", len(info.Emails))
	return info, nil
}

// fetchAndExtract performs one fetch/extract round trip. A nil return means
// the page was skipped or errored; the crawl continues either way.
func (c *Crawler) fetchAndExtract(rawURL string) *fetchedPage {
	res, err := c.backend.Fetch(rawURL)
	if err != nil {
		c.logger.Error("fetch failed", "url", rawURL, "err", err)
		return nil
	}
	if res == nil {
		return nil
	}
	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	extract, err := extractPage(res.Body, finalURL)
	if err != nil {
		c.logger.Error("extract failed", "url", finalURL, "err", err)
		return nil
	}
	return &fetchedPage{url: finalURL, extract: extract}
}

// classifyLevel2 assigns each fetched level-2 page to the first category
// whose keywords match its link text or URL, in category priority order.
// Pages are processed in fetch order; a later page may replace an earlier one
// in the same bucket.
func (c *Crawler) classifyLevel2(pages []levelTwoPage) map[string]CategoryRecord {
	records := make(map[string]CategoryRecord)
	for _, p := range pages {
		name := classifyLink(p.link, c.categories)
		if name == "" {
			continue
		}
		switch name {
		case CategoryTeam:
			records[name] = CategoryRecord{
				URL:      p.link.URL,
				Snippets: teamSnippets(p.extract.BodyText),
				Raw:      truncate(p.extract.BodyText, excerptLong),
			}
		case CategoryClients:
			records[name] = CategoryRecord{
				URL:          p.link.URL,
				Testimonials: p.testimonials,
				Raw:          truncate(p.extract.BodyText, excerptLong),
			}
		default:
			records[name] = CategoryRecord{
				URL: p.link.URL,
				Raw: truncate(p.extract.BodyText, excerptShort),
			}
		}
	}
	return records
}

// backfillTestimonials populates the clients bucket from any level-2 page
// that yielded testimonial matches, when no dedicated testimonials page was
// crawled. Content discovered opportunistically on team or pricing pages is
// not discarded.
func (c *Crawler) backfillTestimonials(records map[string]CategoryRecord, pages []levelTwoPage) {
	if !records[CategoryClients].Empty() {
		return
	}
	for _, p := range pages {
		if len(p.testimonials) == 0 {
			continue
		}
		records[CategoryClients] = CategoryRecord{
			URL:          p.link.URL,
			Testimonials: p.testimonials,
			Raw:          truncate(p.extract.BodyText, excerptShort),
		}
		return
	}
}

// importantLinks filters navigation noise out of the level-1 link set and
// caps the result.
func importantLinks(links []Link) []Link {
	var out []Link
	for _, l := range links {
		if l.Text == "" || isNavNoise(l) {
			continue
		}
		out = append(out, l)
		if len(out) >= maxImportantLinks {
			break
		}
	}
	return out
}

// truncate limits a string to n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// capStrings limits a slice to n entries.
func capStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
