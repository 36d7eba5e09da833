package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"filing-tracker/pkg/logger"
	"filing-tracker/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
)

// Extractor pulls the main article text out of a page. Implementations
// return an empty string, not an error, when the page simply carries no
// usable body; errors are reserved for fetch and parse failures.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

func fetchPage(ctx context.Context, client *http.Client, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// ReadabilityExtractor isolates the article body with go-readability and
// flattens the surviving markup to plain text.
type ReadabilityExtractor struct {
	client *http.Client
	logger *logger.Logger
}

// NewReadabilityExtractor creates the primary extraction strategy.
func NewReadabilityExtractor(client *http.Client, log *logger.Logger) *ReadabilityExtractor {
	return &ReadabilityExtractor{client: client, logger: log}
}

// Extract fetches the page and returns the readability-isolated body text.
func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	body, err := fetchPage(ctx, e.client, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse page content: %w", err)
	}

	content := doc.Content()
	flattened, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(content)))
	if err != nil {
		return "", fmt.Errorf("failed to flatten extracted content: %w", err)
	}

	text := utils.CollapseWhitespace(flattened.Text())
	return utils.CleanToValidUTF8(text), nil
}

// DocumentExtractor is the fallback strategy: it parses the page directly
// and concatenates paragraph text, trading precision for coverage on pages
// readability cannot score.
type DocumentExtractor struct {
	client *http.Client
	logger *logger.Logger
}

// NewDocumentExtractor creates the fallback extraction strategy.
func NewDocumentExtractor(client *http.Client, log *logger.Logger) *DocumentExtractor {
	return &DocumentExtractor{client: client, logger: log}
}

// Extract fetches the page and returns its paragraph text.
func (e *DocumentExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	body, err := fetchPage(ctx, e.client, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var sb strings.Builder
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		paragraph := strings.TrimSpace(sel.Text())
		if paragraph == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(paragraph)
	})

	text := utils.CollapseWhitespace(sb.String())
	return utils.CleanToValidUTF8(text), nil
}
