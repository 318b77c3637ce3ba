// Package fetcher retrieves candidate pages and reduces them to the
// readable text the extraction model sees.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"recipe-harvester/internal/domain"
)

const (
	// maxContentBytes caps the text handed to the extraction model.
	// Longer pages are truncated, not rejected.
	maxContentBytes = 50 * 1024

	// maxBodyBytes bounds how much raw HTML is read off the wire.
	maxBodyBytes = 2 * 1024 * 1024

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type PageFetcher struct {
	client    *http.Client
	converter *md.Converter
}

// NewPageFetcher creates a fetcher. The supplied client's timeout
// bounds the whole fetch (10s per the pipeline's contract).
func NewPageFetcher(client *http.Client) *PageFetcher {
	return &PageFetcher{
		client:    client,
		converter: md.NewConverter("", true, nil),
	}
}

// Fetch downloads the page, strips non-content markup, converts the
// remainder to markdown-ish text and truncates it to the extraction
// ceiling.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	// Boilerplate carries no recipe content and wastes prompt budget.
	doc.Find("script, style, noscript, iframe, nav, footer, header, aside, form").Remove()

	html, err := doc.Find("body").Html()
	if err != nil || html == "" {
		html = string(body)
	}

	text, err := f.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert html: %w", err)
	}

	text = strings.TrimSpace(text)
	if len(text) > maxContentBytes {
		text = truncateUTF8(text, maxContentBytes)
	}
	return text, nil
}

// truncateUTF8 cuts at a rune boundary at or below limit bytes.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

var _ domain.PageFetcher = (*PageFetcher)(nil)
