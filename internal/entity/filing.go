package entity

import (
	"time"

	"github.com/lib/pq"
)

// Filing represents an active (pending) filing expectation for a ticker.
// At most one row exists per ticker; resolution removes the row rather
// than flipping PendingFiling in place.
type Filing struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Ticker            string         `gorm:"unique;not null" json:"ticker"`
	CompanyName       string         `gorm:"not null" json:"company_name"`
	NextEarningsDate  time.Time      `gorm:"not null;index" json:"next_earnings_date"`
	PendingFiling     bool           `gorm:"not null;default:true" json:"pending_filing"`
	LastChecked       time.Time      `json:"last_checked"`
	FilingSource      string         `json:"filing_source"`
	PastEarningsDates pq.StringArray `gorm:"type:text[]" json:"past_earnings_dates"`
	NextEarningsDates pq.StringArray `gorm:"type:text[]" json:"next_earnings_dates"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Filing model.
func (Filing) TableName() string {
	return "filings"
}
