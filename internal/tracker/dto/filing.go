package dto

import "time"

// SaveFilingRequest is the DTO for creating or updating an active filing.
type SaveFilingRequest struct {
	Ticker           string    `json:"ticker"`
	CompanyName      string    `json:"company_name"`
	NextEarningsDate time.Time `json:"next_earnings_date"`
	Source           string    `json:"source"`
}

// SaveFilingResponse reports the upsert outcome.
type SaveFilingResponse struct {
	Ticker string `json:"ticker"`
	Result string `json:"result"` // "inserted" or "updated"
}

// ProcessFilingsResponse reports how many due filings a scan archived.
type ProcessFilingsResponse struct {
	Processed int `json:"processed"`
}

// FilingResponse is the DTO for an active filing in API responses.
type FilingResponse struct {
	Ticker           string    `json:"ticker"`
	CompanyName      string    `json:"company_name"`
	NextEarningsDate time.Time `json:"next_earnings_date"`
	PendingFiling    bool      `json:"pending_filing"`
	LastChecked      time.Time `json:"last_checked"`
	FilingSource     string    `json:"filing_source"`
}

// HistoryEntryResponse is the DTO for an archived filing event.
type HistoryEntryResponse struct {
	Ticker        string    `json:"ticker"`
	CompanyName   string    `json:"company_name"`
	EventType     string    `json:"event_type"`
	ExpectedDate  time.Time `json:"expected_date"`
	FetchedFrom   string    `json:"fetched_from"`
	FilingURL     *string   `json:"filing_url,omitempty"`
	FilingTitle   *string   `json:"filing_title,omitempty"`
	FilingSummary *string   `json:"filing_summary,omitempty"`
	FilingText    *string   `json:"filing_text,omitempty"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
