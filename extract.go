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
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// PageExtract is the structural record produced from one fetched HTML page.
// It is owned exclusively by the Crawler after extraction.
type PageExtract struct {
	Title    string
	MetaDesc string
	Headings []string
	// BodyText is the page's paragraph/list/blockquote text joined with
	// single spaces. Truncation happens at aggregation time, not here.
	BodyText string
	Links    []Link
	Emails   []string
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// emailNoiseFragments excludes placeholder and transactional addresses.
var emailNoiseFragments = []string{"example", "test@", "@sentry", "@email"}

// boilerplateParents excludes headings and body text nested in page chrome.
const boilerplateParents = "nav, footer, header"

// minBodyTextLength drops short UI labels from body text.
const minBodyTextLength = 30

// extractPage parses one HTML document into a PageExtract. Malformed HTML is
// tolerated best-effort; absent fields yield empty values.
//
// Links and emails are collected from the document BEFORE script/style
// removal, in a separate pass from text extraction: navigation and footer
// regions disproportionately contain the category links (team, pricing, case
// studies) the level-2 selector needs, and later cleanup would destroy them.
func extractPage(htmlBody []byte, baseURL string) (*PageExtract, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	page := &PageExtract{}
	baseApex := apexDomain(hostOf(baseURL))

	// Pass 1: links, pre-cleanup.
	seenLinks := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || hasIgnoredScheme(href) {
			return
		}
		resolved, err := urlParser.ParseRef(baseURL, href)
		if err != nil {
			return
		}
		absURL := resolved.Href(false)
		parsed, err := url.Parse(absURL)
		if err != nil {
			return
		}
		// Same apex domain (subdomains accepted), a real path, not yet seen.
		if apexDomain(parsed.Hostname()) != baseApex || parsed.Path == "" || seenLinks[absURL] {
			return
		}
		seenLinks[absURL] = true
		page.Links = append(page.Links, Link{
			Text: normalizeWhitespace(s.Text()),
			URL:  absURL,
		})
	})

	// Emails come from the raw markup, also pre-cleanup; addresses often sit
	// in footers and mailto attributes.
	page.Emails = filterEmails(emailPattern.FindAllString(string(htmlBody), -1))

	// Pass 2: text, post-cleanup.
	doc.Find("script, style, noscript").Remove()

	page.Title = normalizeWhitespace(doc.Find("title").First().Text())
	// Headings are considered more reliable than boilerplate titles.
	if h1 := normalizeWhitespace(doc.Find("h1").First().Text()); h1 != "" {
		page.Title = h1
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		page.MetaDesc = strings.TrimSpace(desc)
	}

	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(boilerplateParents).Length() > 0 {
			return
		}
		if t := normalizeWhitespace(s.Text()); t != "" {
			page.Headings = append(page.Headings, t)
		}
	})

	var paragraphs []string
	doc.Find("p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(boilerplateParents).Length() > 0 {
			return
		}
		if t := normalizeWhitespace(s.Text()); len(t) > minBodyTextLength {
			paragraphs = append(paragraphs, t)
		}
	})
	page.BodyText = strings.Join(paragraphs, " ")

	return page, nil
}

// hasIgnoredScheme reports whether a raw href uses a scheme that can never be
// a crawl target.
func hasIgnoredScheme(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "mailto:")
}

// filterEmails drops placeholder addresses and deduplicates the rest
// case-insensitively, keeping the first-seen form.
func filterEmails(emails []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range emails {
		lower := strings.ToLower(e)
		if seen[lower] {
			continue
		}
		noisy := false
		for _, frag := range emailNoiseFragments {
			if strings.Contains(lower, frag) {
				noisy = true
				break
			}
		}
		if noisy {
			continue
		}
		seen[lower] = true
		out = append(out, e)
	}
	return out
}

// apexDomain approximates the registrable root of a hostname as its last two
// dot-separated labels. Multi-part public suffixes (.co.uk and friends) are
// not handled.
func apexDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// hostOf returns the hostname of a URL, or "" when it cannot be parsed.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// normalizeWhitespace collapses runs of whitespace into single spaces and
// trims the result.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
