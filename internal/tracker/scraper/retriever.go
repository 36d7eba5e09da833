package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"filing-tracker/pkg/logger"
	"filing-tracker/pkg/ratelimit"
	"filing-tracker/pkg/utils"

	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

// ErrInvalidFeedURL is returned when the configured news feed base URL
// cannot be parsed. Unlike transient fetch failures this is a deployment
// problem and must not be swallowed.
var ErrInvalidFeedURL = errors.New("invalid news feed base URL")

const defaultFeedBaseURL = "https://news.google.com/rss/search"

// filingKeywords is appended to every company search so the feed leans
// towards filing-like coverage. The first feed result wins; there is no
// secondary ranking beyond feed order.
var filingKeywords = []string{"financial report", "earnings", "results", "filing", "prospectus", "notice"}

// Config holds the tunables of the news retriever.
type Config struct {
	FeedBaseURL         string
	MaxCandidates       int
	SearchTimeout       time.Duration
	ExtractTimeout      time.Duration
	MaxRequestPerMinute int
}

// NewsRetriever finds best-effort filing content for a company: a news
// feed search followed by a two-strategy text extraction fallback. It owns
// no persisted state.
type NewsRetriever struct {
	feedBaseURL    string
	maxCandidates  int
	searchTimeout  time.Duration
	extractTimeout time.Duration
	parser         *gofeed.Parser
	extractors     []Extractor
	limiter        *ratelimit.RequestLimiter
	resultCache    *cache.Cache
	logger         *logger.Logger
}

// NewNewsRetriever creates a retriever over the given extraction strategies,
// tried in order. Passing no extractors is allowed; retrieval then returns
// feed metadata with empty full text.
func NewNewsRetriever(cfg Config, log *logger.Logger, extractors ...Extractor) (*NewsRetriever, error) {
	base := cfg.FeedBaseURL
	if base == "" {
		base = defaultFeedBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFeedURL, base)
	}

	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = 15 * time.Second
	}
	extractTimeout := cfg.ExtractTimeout
	if extractTimeout <= 0 {
		extractTimeout = 15 * time.Second
	}

	return &NewsRetriever{
		feedBaseURL:    base,
		maxCandidates:  maxCandidates,
		searchTimeout:  searchTimeout,
		extractTimeout: extractTimeout,
		parser:         gofeed.NewParser(),
		extractors:     extractors,
		limiter:        ratelimit.NewRequestLimiter(cfg.MaxRequestPerMinute),
		resultCache:    cache.New(5*time.Minute, 10*time.Minute),
		logger:         log,
	}, nil
}

// DefaultExtractors returns the production strategy chain: readability
// first, plain document parsing as fallback.
func DefaultExtractors(timeout time.Duration, log *logger.Logger) []Extractor {
	client := &http.Client{Timeout: timeout}
	return []Extractor{
		NewReadabilityExtractor(client, log),
		NewDocumentExtractor(client, log),
	}
}

// FindLatestFiling searches the news feed for filing-like coverage of the
// company and extracts the chosen article's text. A nil result with a nil
// error means nothing was found; that is a normal outcome, not a failure.
// Feed and extraction problems degrade rather than propagate.
func (r *NewsRetriever) FindLatestFiling(ctx context.Context, companyName string) (*RetrievedArticle, error) {
	if cached, ok := r.resultCache.Get(companyName); ok {
		return cached.(*RetrievedArticle), nil
	}

	candidates := r.search(ctx, companyName)
	if len(candidates) == 0 {
		return nil, nil
	}

	// First feed result wins.
	latest := candidates[0]

	article := &RetrievedArticle{
		Title:       utils.CleanToValidUTF8(latest.Title),
		Summary:     utils.CleanToValidUTF8(latest.Description),
		URL:         latest.Link,
		PublishedAt: latest.PublishedParsed,
		FullText:    r.extract(ctx, latest.Link),
		FetchedFrom: SourceGoogleNews,
	}

	r.resultCache.Set(companyName, article, cache.DefaultExpiration)
	return article, nil
}

// search queries the feed and returns up to maxCandidates items in feed
// order. Any feed failure degrades to an empty candidate list.
func (r *NewsRetriever) search(ctx context.Context, companyName string) []*gofeed.Item {
	query := companyName
	for i, keyword := range filingKeywords {
		if i == 0 {
			query += " " + keyword
		} else {
			query += " OR " + keyword
		}
	}
	feedURL := fmt.Sprintf("%s?q=%s", r.feedBaseURL, url.QueryEscape(query))

	searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()

	if err := r.limiter.Wait(searchCtx); err != nil {
		r.logger.Warn("News search aborted while rate limited", logger.ErrorField(err), logger.StringField("company", companyName))
		return nil
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, searchCtx)
	if err != nil {
		r.logger.Warn("News feed search failed, treating as no candidates",
			logger.ErrorField(err),
			logger.StringField("company", companyName),
		)
		return nil
	}

	items := feed.Items
	if len(items) > r.maxCandidates {
		items = items[:r.maxCandidates]
	}
	return items
}

// extract runs the strategy chain against the article URL. Each strategy
// is only consulted when every earlier one produced empty text, and a
// failing strategy counts as empty text.
func (r *NewsRetriever) extract(ctx context.Context, pageURL string) string {
	for _, extractor := range r.extractors {
		extractCtx, cancel := context.WithTimeout(ctx, r.extractTimeout)

		if err := r.limiter.Wait(extractCtx); err != nil {
			r.logger.Warn("Extraction aborted while rate limited", logger.ErrorField(err), logger.StringField("url", pageURL))
			cancel()
			return ""
		}

		text, err := extractor.Extract(extractCtx, pageURL)
		cancel()
		if err != nil {
			r.logger.Warn("Extraction strategy failed, trying next",
				logger.ErrorField(err),
				logger.StringField("url", pageURL),
			)
			continue
		}
		if text != "" {
			return text
		}
	}
	return ""
}
