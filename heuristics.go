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

import "regexp"

const (
	maxTeamSnippets      = 5
	maxTestimonialQuotes = 3
)

// Pricing signals: a currency symbol followed by digits, or a billing-cadence
// phrase. Matched case-insensitively against body text.
var pricingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\d`),
	regexp.MustCompile(`₹\d`),
	regexp.MustCompile(`(?i)/month`),
	regexp.MustCompile(`(?i)/mo\b`),
	regexp.MustCompile(`(?i)/user`),
	regexp.MustCompile(`(?i)/seat`),
	regexp.MustCompile(`(?i)per candidate`),
	regexp.MustCompile(`(?i)per assessment`),
	regexp.MustCompile(`(?i)per seat`),
	regexp.MustCompile(`(?i)starting at`),
}

// Team snippets: "Firstname Lastname, Title" and "Firstname Lastname is
// (the|our)? role".
var teamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+),\s*(CEO|CTO|COO|CPO|Founder|Co-founder|Head of|VP|Director)`),
	regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+) is (the |our )?(founder|co-founder|CEO|CTO)`),
}

// Testimonials: spans of 30-200 characters delimited by straight or curly
// quotation marks.
var testimonialPattern = regexp.MustCompile(`["\x{201c}\x{201d}]([^"\x{201c}\x{201d}]{30,200})["\x{201c}\x{201d}]`)

// detectPricing reports whether the text contains any pricing signal.
func detectPricing(text string) bool {
	for _, p := range pricingPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// teamSnippets extracts up to five "name, role" style mentions from body
// text, in order of appearance.
func teamSnippets(text string) []string {
	var snippets []string
	for _, p := range teamPatterns {
		for _, m := range p.FindAllString(text, -1) {
			snippets = append(snippets, m)
			if len(snippets) >= maxTeamSnippets {
				return snippets
			}
		}
	}
	return snippets
}

// testimonialQuotes extracts up to three quoted spans from body text, in
// order of appearance.
func testimonialQuotes(text string) []string {
	var quotes []string
	for _, m := range testimonialPattern.FindAllStringSubmatch(text, maxTestimonialQuotes) {
		quotes = append(quotes, m[1])
	}
	return quotes
}
