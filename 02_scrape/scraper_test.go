package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestScraper(maxChars int) *Scraper {
	return New(maxChars, 5*time.Second)
}

func TestScrapeStripsNonContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><style>.x{color:red}</style></head><body>
			<nav>Navigation links</nav>
			<header>Site header</header>
			<p>We build rockets.</p>
			<script>console.log("tracking")</script>
			<footer>Copyright</footer>
		</body></html>`))
	}))
	defer srv.Close()

	got, err := newTestScraper(10000).Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}
	if !strings.Contains(got, "We build rockets.") {
		t.Errorf("Scrape() = %q, want body text", got)
	}
	for _, junk := range []string{"Navigation", "Site header", "tracking", "Copyright", "color:red"} {
		if strings.Contains(got, junk) {
			t.Errorf("Scrape() kept stripped content %q in %q", junk, got)
		}
	}
}

func TestScrapeCollapsesWhitespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>one\n\n\ttwo   three</p></body></html>"))
	}))
	defer srv.Close()

	got, err := newTestScraper(10000).Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}
	if got != "one two three" {
		t.Errorf("Scrape() = %q, want %q", got, "one two three")
	}
}

func TestScrapeTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>" + strings.Repeat("word ", 100) + "</body></html>"))
	}))
	defer srv.Close()

	got, err := newTestScraper(50).Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}
	if len(got) != 50 {
		t.Errorf("Scrape() returned %d characters, want 50", len(got))
	}
}

func TestScrapeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestScraper(10000).Scrape(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "HTTP 403") {
		t.Fatalf("Scrape() error = %v, want HTTP 403", err)
	}
}

func TestScrapeEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><script>only scripts</script></body></html>"))
	}))
	defer srv.Close()

	_, err := newTestScraper(10000).Scrape(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "no text content") {
		t.Fatalf("Scrape() error = %v, want no text content", err)
	}
}

func TestScrapeSendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	if _, err := newTestScraper(10000).Scrape(context.Background(), srv.URL); err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}
	if !strings.Contains(gotUA, "Mozilla") {
		t.Errorf("User-Agent = %q, want a browser UA", gotUA)
	}
}
