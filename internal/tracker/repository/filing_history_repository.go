package repository

import (
	"context"

	"filing-tracker/internal/entity"

	"gorm.io/gorm"
)

// FilingHistoryRepository owns the append-only filing history ledger.
// History rows are written exclusively through ArchiveFiling; there is
// deliberately no update or delete operation.
type FilingHistoryRepository interface {
	ArchiveFiling(ctx context.Context, filing *entity.Filing, history *entity.FilingHistory) (bool, error)
	FindRecent(ctx context.Context, limit int) ([]entity.FilingHistory, error)
	FindByTicker(ctx context.Context, ticker string) ([]entity.FilingHistory, error)
}

// NewFilingHistoryRepository creates a new GORM-based history repository.
func NewFilingHistoryRepository(db *gorm.DB) FilingHistoryRepository {
	return &filingHistoryRepository{db: db}
}

type filingHistoryRepository struct {
	db *gorm.DB
}

// ArchiveFiling retires an active filing into the history ledger in one
// transaction. The delete is conditioned on the row still carrying the
// expected date read at scan time; when another scan already archived the
// row the transaction writes nothing and returns false. The history entry
// is only committed together with a successful conditional delete, so a
// crash can never lose the record or archive it twice.
func (r *filingHistoryRepository) ArchiveFiling(ctx context.Context, filing *entity.Filing, history *entity.FilingHistory) (bool, error) {
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("ticker = ? AND next_earnings_date = ?", filing.Ticker, filing.NextEarningsDate).
			Delete(&entity.Filing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

// FindRecent returns the newest history entries, most recent first.
func (r *filingHistoryRepository) FindRecent(ctx context.Context, limit int) ([]entity.FilingHistory, error) {
	var entries []entity.FilingHistory
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByTicker returns all history entries for a ticker, most recent first.
func (r *filingHistoryRepository) FindByTicker(ctx context.Context, ticker string) ([]entity.FilingHistory, error) {
	var entries []entity.FilingHistory
	err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
