package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Event types recorded in the filing history ledger.
const (
	EventTypeEarning = "earning"
)

// FilingHistory is an append-only record of a resolved filing event. Rows
// are written exactly once when a due filing is archived and never updated
// or deleted afterwards. Content columns stay null when retrieval found
// nothing; the expected date having passed is the event being recorded,
// not the retrieval outcome.
type FilingHistory struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Ticker        string         `gorm:"not null;index" json:"ticker"`
	CompanyName   string         `gorm:"not null" json:"company_name"`
	EventType     string         `gorm:"not null" json:"event_type"`
	ExpectedDate  time.Time      `gorm:"not null" json:"expected_date"`
	FetchedFrom   string         `json:"fetched_from"`
	FilingURL     *string        `json:"filing_url,omitempty"`
	FilingTitle   *string        `json:"filing_title,omitempty"`
	FilingSummary *string        `json:"filing_summary,omitempty"`
	FilingText    *string        `json:"filing_text,omitempty"`
	Notes         string         `json:"notes"`
	Article       datatypes.JSON `json:"article,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the FilingHistory model.
func (FilingHistory) TableName() string {
	return "filings_history"
}
