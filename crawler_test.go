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
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestCrawler(mock *MockTransport, opts ...Option) *Crawler {
	base := []Option{
		WithTransport(mock),
		WithDelay(0),
		WithLogger(log.New(io.Discard)),
	}
	return NewCrawler(append(base, opts...)...)
}

func TestCrawlTeamScenario(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html>
		<head><title>Acme</title><meta name="description" content="Technical hiring platform"></head>
		<body>
			<nav><a href="/about/team">Our Team</a></nav>
			<p>Acme helps engineering teams screen candidates faster than ever.</p>
		</body></html>`)
	mock.RegisterHTML("https://acme.io/about/team", `<html><body>
		<h1>The people behind Acme</h1>
		<p>Jane Doe, CEO founded Acme to fix technical hiring for everyone.</p>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	if !info.TeamFound {
		t.Errorf("TeamFound = false, want true")
	}
	if info.TeamData.URL != "https://acme.io/about/team" {
		t.Errorf("TeamData.URL = %q, want the team page", info.TeamData.URL)
	}
	found := false
	for _, s := range info.TeamData.Snippets {
		if strings.Contains(s, "Jane Doe, CEO") {
			found = true
		}
	}
	if !found {
		t.Errorf("TeamData.Snippets = %v, want a Jane Doe, CEO snippet", info.TeamData.Snippets)
	}

	wantPages := []string{"https://acme.io/", "https://acme.io/about/team"}
	if !reflect.DeepEqual(info.PagesCrawled, wantPages) {
		t.Errorf("PagesCrawled = %v, want %v", info.PagesCrawled, wantPages)
	}
	if info.Domain != "acme.io" {
		t.Errorf("Domain = %q, want acme.io", info.Domain)
	}
	if info.Title != "Acme" {
		t.Errorf("Title = %q, want Acme", info.Title)
	}
	if info.MetaDesc != "Technical hiring platform" {
		t.Errorf("MetaDesc = %q, want the meta description", info.MetaDesc)
	}
}

func TestCrawlAllSeedsFailIsFatal(t *testing.T) {
	mock := NewMockTransport() // nothing registered: every fetch is a 404

	info, err := newTestCrawler(mock, WithExtraURLs("https://acme.io/also-missing")).Crawl("acme.io")
	if !errors.Is(err, ErrNoPagesFetched) {
		t.Fatalf("Crawl() error = %v, want ErrNoPagesFetched", err)
	}
	if info != nil {
		t.Errorf("Crawl() = %+v, want no partial output", info)
	}
}

func TestCrawlPartialLevel1FailureIsAbsorbed(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/extra", `<html><head><title>Extra</title></head><body>
		<p>Only the extra seed URL resolves in this scenario, and that is fine.</p>
	</body></html>`)
	mock.RegisterError("https://acme.io/", errors.New("connection refused"))

	info, err := newTestCrawler(mock, WithExtraURLs("https://acme.io/extra")).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(info.PagesCrawled) != 1 || info.PagesCrawled[0] != "https://acme.io/extra" {
		t.Errorf("PagesCrawled = %v, want only the extra page", info.PagesCrawled)
	}
}

func TestCrawlPricingFoundFromBodyText(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<p>Get the whole platform for just $49/month, billed annually.</p>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if !info.PricingFound {
		t.Errorf("PricingFound = false, want true without a dedicated pricing page")
	}
	if !info.PricingData.Empty() {
		t.Errorf("PricingData = %+v, want empty record", info.PricingData)
	}
}

func TestCrawlTitleAndMetaAreFirstWins(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><head><title>First title</title></head><body></body></html>`)
	mock.RegisterHTML("https://acme.io/extra", `<html>
		<head><title>Second title</title><meta name="description" content="From the second page"></head>
		<body></body></html>`)

	info, err := newTestCrawler(mock, WithExtraURLs("https://acme.io/extra")).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if info.Title != "First title" {
		t.Errorf("Title = %q, want the first non-empty value", info.Title)
	}
	if info.MetaDesc != "From the second page" {
		t.Errorf("MetaDesc = %q, want the first non-empty value", info.MetaDesc)
	}
}

func TestCrawlImportantLinks(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	b.WriteString(`<a href="/login">Login</a>`)
	b.WriteString(`<a href="/legal">Privacy policy</a>`)
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<a href="/feature-%d">Feature %d</a>`, i, i)
	}
	b.WriteString(`</body></html>`)

	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", b.String())

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(info.ImportantLinks) != maxImportantLinks {
		t.Errorf("len(ImportantLinks) = %d, want %d", len(info.ImportantLinks), maxImportantLinks)
	}
	for _, l := range info.ImportantLinks {
		if strings.Contains(strings.ToLower(l.Text), "login") || strings.Contains(l.URL, "/login") {
			t.Errorf("ImportantLinks contains nav noise: %v", l)
		}
	}
}

func TestCrawlDeepMode(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<p>A reasonably long paragraph describing what the Acme platform does.</p>
	</body></html>`)

	info, err := newTestCrawler(mock, WithDeepMode()).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if !info.Deep {
		t.Errorf("Deep = false, want true")
	}
	raw, ok := info.PagesRaw["https://acme.io/"]
	if !ok || !strings.Contains(raw, "Acme platform") {
		t.Errorf("PagesRaw = %v, want per-page text for the seed", info.PagesRaw)
	}
}

func TestCrawlDefaultModeOmitsPagesRaw(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<p>A reasonably long paragraph describing what the Acme platform does.</p>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if info.PagesRaw != nil {
		t.Errorf("PagesRaw = %v, want nil outside deep mode", info.PagesRaw)
	}
}

func TestCrawlFindsExistingLLMsTxt(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body></body></html>`)
	mock.RegisterText("https://acme.io/llms.txt", "# Acme\nAlready published.\n")

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if !strings.Contains(info.ExistingLLMsTxt, "Already published.") {
		t.Errorf("ExistingLLMsTxt = %q, want the probed file content", info.ExistingLLMsTxt)
	}
}

func TestCrawlBackfillsTestimonialsFromPricingPage(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<nav><a href="/pricing">Pricing</a></nav>
		<p>Acme helps engineering teams screen candidates faster than ever.</p>
	</body></html>`)
	mock.RegisterHTML("https://acme.io/pricing", `<html><body>
		<p>Plans start at $29/user for growing teams of any size.</p>
		<blockquote>"Acme cut our screening time in half within the first month."</blockquote>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if info.PricingData.Empty() {
		t.Fatalf("PricingData is empty, want the pricing page record")
	}
	if !info.TestimonialsFound {
		t.Errorf("TestimonialsFound = false, want backfill from the pricing page")
	}
	if info.TestimonialsData.URL != "https://acme.io/pricing" {
		t.Errorf("TestimonialsData.URL = %q, want the pricing page", info.TestimonialsData.URL)
	}
	if len(info.TestimonialsData.Testimonials) != 1 {
		t.Errorf("Testimonials = %v, want the single quote", info.TestimonialsData.Testimonials)
	}
}

func TestCrawlDropsDuplicateContent(t *testing.T) {
	page := `<html><body>
		<p>The exact same body text served under two different URLs entirely.</p>
	</body></html>`
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<nav><a href="/about">About</a></nav>
		<p>The exact same body text served under two different URLs entirely.</p>
	</body></html>`)
	mock.RegisterHTML("https://acme.io/about", page)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(info.PagesCrawled) != 1 {
		t.Errorf("PagesCrawled = %v, want the duplicate level-2 page dropped", info.PagesCrawled)
	}
	if !info.TeamData.Empty() {
		t.Errorf("TeamData = %+v, want empty for a dropped duplicate", info.TeamData)
	}
}

func TestCrawlClassifiesEmptyBodyPages(t *testing.T) {
	// Neither page has p/li/blockquote text, so both extract empty body
	// text. An empty extract must not count as duplicate content; the
	// pricing page still gets fetched and classified.
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<nav><a href="/pricing">Pricing</a></nav>
		<div>All homepage copy lives in styled divs on this site.</div>
	</body></html>`)
	mock.RegisterHTML("https://acme.io/pricing", `<html><body>
		<table><tr><td>Starter</td><td>$29</td></tr></table>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	wantPages := []string{"https://acme.io/", "https://acme.io/pricing"}
	if !reflect.DeepEqual(info.PagesCrawled, wantPages) {
		t.Errorf("PagesCrawled = %v, want %v", info.PagesCrawled, wantPages)
	}
	if info.PricingData.URL != "https://acme.io/pricing" {
		t.Errorf("PricingData.URL = %q, want the pricing page despite its empty body text", info.PricingData.URL)
	}
}

func TestCrawlDedupsRedirectedSeeds(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterResponse("https://www.acme.io/", &MockResponse{StatusCode: 301, Redirect: "https://acme.io/"})
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<p>This paragraph must appear in the summary exactly once, not twice.</p>
	</body></html>`)

	info, err := newTestCrawler(mock, WithExtraURLs("https://www.acme.io/")).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(info.PagesCrawled) != 1 || info.PagesCrawled[0] != "https://acme.io/" {
		t.Errorf("PagesCrawled = %v, want the redirected alias merged into one page", info.PagesCrawled)
	}
	if got := strings.Count(info.RawTextSummary, "exactly once"); got != 1 {
		t.Errorf("RawTextSummary contains the page text %d times, want 1", got)
	}
}

func TestCrawlAggregatesEmailsAcrossPages(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<nav><a href="/about">About</a></nav>
		<p>Contact Hi@Acme.io for details about the hiring platform today.</p>
	</body></html>`)
	mock.RegisterHTML("https://acme.io/about", `<html><body>
		<p>Write to hi@acme.io or jobs@acme.io and the team will respond.</p>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	want := []string{"Hi@Acme.io", "jobs@acme.io"}
	if !reflect.DeepEqual(info.Emails, want) {
		t.Errorf("Emails = %v, want %v (case-insensitive dedup, first form kept)", info.Emails, want)
	}
}

func TestCrawlCapsHeadings(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "<h2>Heading number %d</h2>", i)
	}
	b.WriteString(`</body></html>`)

	mock := NewMockTransport()
	mock.RegisterHTML("https://acme.io/", b.String())

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(info.Headings) != maxHeadings {
		t.Errorf("len(Headings) = %d, want %d", len(info.Headings), maxHeadings)
	}
}

func TestCrawlRespectsRobotsTxt(t *testing.T) {
	mock := NewMockTransport()
	mock.RegisterText("https://acme.io/robots.txt", "User-agent: *\nDisallow: /about\n")
	mock.RegisterHTML("https://acme.io/", `<html><body>
		<nav><a href="/about">About the team</a></nav>
		<p>Acme helps engineering teams screen candidates faster than ever.</p>
	</body></html>`)
	mock.RegisterHTML("https://acme.io/about", `<html><body>
		<p>Jane Doe, CEO founded Acme to fix technical hiring for everyone.</p>
	</body></html>`)

	info, err := newTestCrawler(mock).Crawl("acme.io")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(info.PagesCrawled) != 1 {
		t.Errorf("PagesCrawled = %v, want the disallowed level-2 page skipped", info.PagesCrawled)
	}
	if info.TeamFound {
		t.Errorf("TeamFound = true, want false when the team page is robots-disallowed")
	}
}

func TestNormalizeSeedURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme.io", "https://acme.io"},
		{"http://acme.io", "http://acme.io"},
		{"https://acme.io/x", "https://acme.io/x"},
	}
	for _, tt := range tests {
		if got := NormalizeSeedURL(tt.in); got != tt.want {
			t.Errorf("NormalizeSeedURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate(short) = %q, want unchanged", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("truncate() = %q, want %q", got, "hello")
	}
	// Rune-safe: never slices through a multibyte character.
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate(multibyte) = %q, want %q", got, "hé")
	}
}
