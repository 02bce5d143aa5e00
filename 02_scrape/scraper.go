package scrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Scraper fetches a company website and reduces it to bounded plain text.
type Scraper struct {
	httpClient *http.Client
	maxChars   int
}

// New creates a new Scraper. maxChars bounds the returned text.
func New(maxChars int, timeout time.Duration) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		maxChars:   maxChars,
	}
}

// Scrape fetches the URL, strips non-content markup and returns plain text
// truncated to the configured bound.
func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	log.Printf("[scrape] Scraping website: %s", url)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}

	// Non-content markup carries no signal for the summarizer.
	doc.Find("script, style, nav, footer, header, noscript").Remove()

	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		// Some pages have no body element after stripping; fall back to the
		// whole document.
		text = collapseWhitespace(doc.Text())
	}
	if text == "" {
		return "", fmt.Errorf("no text content at %s", url)
	}

	if len(text) > s.maxChars {
		text = text[:s.maxChars]
		log.Printf("[scrape] ⚠️  Text truncated to %d characters", s.maxChars)
	}

	log.Printf("[scrape] ✅ Scraped %d characters from %s", len(text), url)
	return text, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
