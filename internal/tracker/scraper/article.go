package scraper

import "time"

// SourceGoogleNews tags articles retrieved through the Google News feed.
const SourceGoogleNews = "google_news"

// RetrievedArticle is the transient result of a filing content lookup. It
// is never persisted directly; the lifecycle manager copies its fields into
// the history entry it composes.
type RetrievedArticle struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	FullText    string     `json:"full_text"`
	FetchedFrom string     `json:"fetched_from"`
}
