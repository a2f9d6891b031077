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
	"net/url"
	"strings"
)

// Category names used by DefaultCategories. The order of DefaultCategories is
// the selection priority order.
const (
	CategoryTeam    = "team"
	CategoryClients = "clients"
	CategoryPricing = "pricing"
	CategoryAPI     = "api"
)

// Category is one keyword bucket used both for level-2 link selection and for
// classifying the fetched level-2 pages. Categories are explicit configuration
// passed into the Crawler rather than shared process state, so tests can run
// with custom keyword sets.
type Category struct {
	// Name identifies the category in the output record
	Name string
	// Keywords are lowercase substrings matched against link URL paths and
	// anchor text
	Keywords []string
}

// DefaultCategories returns the built-in keyword categories in priority
// order: team, clients/testimonials, pricing, API/docs.
func DefaultCategories() []Category {
	return []Category{
		{Name: CategoryTeam, Keywords: []string{
			"about", "team", "founder", "founders", "people", "who-we-are", "leadership",
		}},
		{Name: CategoryClients, Keywords: []string{
			"customer", "customers", "client", "clients", "testimonial", "testimonials",
			"case-study", "case-studies", "review", "reviews", "story", "stories", "wall-of-love",
		}},
		{Name: CategoryPricing, Keywords: []string{
			"pricing", "plans", "price",
		}},
		{Name: CategoryAPI, Keywords: []string{
			"api", "docs", "developer", "developers", "integration", "integrations", "openapi", "swagger",
		}},
	}
}

// navNoiseKeywords filters links that are navigation chrome rather than
// content signal when assembling the important-links list.
var navNoiseKeywords = []string{
	"login", "signin", "sign-in", "logout", "cart", "cookie", "privacy", "terms", "javascript",
}

// keywordMatch reports whether any keyword appears in text (lowercased).
func keywordMatch(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// scoreLink rates a link's relevance to a category. A keyword found in the
// URL path scores 2, a keyword found only in the anchor text scores 1: the
// path is the stronger signal.
func scoreLink(link Link, keywords []string) int {
	score := 0
	path := ""
	if u, err := url.Parse(link.URL); err == nil {
		path = strings.ToLower(u.Path)
	}
	text := strings.ToLower(link.Text)
	for _, kw := range keywords {
		switch {
		case strings.Contains(path, kw):
			score += 2
		case strings.Contains(text, kw):
			score++
		}
	}
	return score
}

// isAnchorOnly reports whether a link, once its fragment is removed, resolves
// to the bare root path. Pure in-page anchors are not useful crawl targets.
func isAnchorOnly(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Fragment != "" && (u.Path == "/" || u.Path == "")
}

// selectTargets picks up to maxLevel2Targets links to crawl at level 2, one
// per category, in category priority order. Only links actually discovered on
// a fetched page are candidates; paths are never guessed. Ties between
// equal-score candidates are broken by discovery order.
func selectTargets(links []Link, categories []Category) []Link {
	selected := make([]Link, 0, maxLevel2Targets)
	seen := make(map[string]bool)

	for _, cat := range categories {
		if len(selected) >= maxLevel2Targets {
			break
		}
		best := -1
		bestScore := 0
		for i, l := range links {
			s := scoreLink(l, cat.Keywords)
			if s > bestScore {
				best = i
				bestScore = s
			}
		}
		if best < 0 {
			continue
		}
		pick := links[best]
		if isAnchorOnly(pick.URL) || seen[pick.URL] {
			continue
		}
		selected = append(selected, pick)
		seen[pick.URL] = true
	}
	return selected
}

// classifyLink returns the name of the first category (in priority order)
// whose keywords match the link's anchor text or URL, or "" when none do.
func classifyLink(link Link, categories []Category) string {
	combined := link.Text + " " + link.URL
	for _, cat := range categories {
		if keywordMatch(combined, cat.Keywords) {
			return cat.Name
		}
	}
	return ""
}

// isNavNoise reports whether a link looks like navigation chrome
// (login, cart, cookie banners and similar).
func isNavNoise(link Link) bool {
	return keywordMatch(link.URL+" "+link.Text, navNoiseKeywords)
}
