package repository

import (
	"context"
	"errors"
	"time"

	"filing-tracker/internal/entity"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertResult reports whether an upsert inserted a new row or updated an
// existing one.
type UpsertResult string

const (
	UpsertInserted UpsertResult = "inserted"
	UpsertUpdated  UpsertResult = "updated"
)

// FilingRepository defines the interface for active filing data operations.
type FilingRepository interface {
	Upsert(ctx context.Context, filing *entity.Filing) (UpsertResult, error)
	FindDue(ctx context.Context, asOf time.Time) ([]entity.Filing, error)
	Delete(ctx context.Context, ticker string) error
	NextUpcoming(ctx context.Context) (*entity.Filing, error)
}

// NewFilingRepository creates a new GORM-based filing repository.
func NewFilingRepository(db *gorm.DB) FilingRepository {
	return &filingRepository{db: db}
}

type filingRepository struct {
	db *gorm.DB
}

// Upsert inserts a filing or, when a row already exists for the ticker,
// overwrites its mutable fields in a single statement. The conflict clause
// keeps check-then-act races out of the save path.
func (r *filingRepository) Upsert(ctx context.Context, filing *entity.Filing) (UpsertResult, error) {
	filing.PendingFiling = true
	if filing.LastChecked.IsZero() {
		filing.LastChecked = time.Now().UTC()
	}
	if filing.PastEarningsDates == nil {
		filing.PastEarningsDates = pq.StringArray{}
	}
	if filing.NextEarningsDates == nil {
		filing.NextEarningsDates = pq.StringArray{}
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name",
			"next_earnings_date",
			"pending_filing",
			"last_checked",
			"filing_source",
			"past_earnings_dates",
			"next_earnings_dates",
			"updated_at",
		}),
	}).Clauses(clause.Returning{Columns: []clause.Column{{Name: "created_at"}, {Name: "updated_at"}}}).
		Create(filing)
	if tx.Error != nil {
		return "", tx.Error
	}

	// A fresh insert leaves created_at and updated_at within the same
	// statement timestamp; an update moves updated_at past created_at.
	if filing.UpdatedAt.Sub(filing.CreatedAt) < time.Millisecond {
		return UpsertInserted, nil
	}
	return UpsertUpdated, nil
}

// FindDue returns every filing whose expected date is at or before asOf,
// oldest first.
func (r *filingRepository) FindDue(ctx context.Context, asOf time.Time) ([]entity.Filing, error) {
	var filings []entity.Filing
	err := r.db.WithContext(ctx).
		Where("next_earnings_date <= ?", asOf).
		Order("next_earnings_date ASC").
		Find(&filings).Error
	if err != nil {
		return nil, err
	}
	return filings, nil
}

// Delete removes the active filing for a ticker. Removing an absent ticker
// is a no-op, not an error.
func (r *filingRepository) Delete(ctx context.Context, ticker string) error {
	return r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Delete(&entity.Filing{}).Error
}

// NextUpcoming returns the filing with the earliest expected date across
// the whole store, or nil when the store is empty.
func (r *filingRepository) NextUpcoming(ctx context.Context) (*entity.Filing, error) {
	var filing entity.Filing
	err := r.db.WithContext(ctx).
		Order("next_earnings_date ASC").
		First(&filing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &filing, nil
}
