package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"filing-tracker/internal/entity"
	"filing-tracker/internal/tracker/dto"
	"filing-tracker/internal/tracker/repository"
	"filing-tracker/internal/tracker/scraper"
	"filing-tracker/pkg/common"
	"filing-tracker/pkg/logger"
	"filing-tracker/pkg/telegram"
	"filing-tracker/pkg/utils"

	"gorm.io/datatypes"
)

const (
	sourceManual     = "manual"
	fetchedUnknown   = "unknown"
	archiveNote      = "Auto-archived after release"
	historyEventType = entity.EventTypeEarning
)

// ErrMissingTicker is returned when a save request carries no ticker.
var ErrMissingTicker = errors.New("ticker is required")

// ContentRetriever finds best-effort filing content for a company name.
type ContentRetriever interface {
	FindLatestFiling(ctx context.Context, companyName string) (*scraper.RetrievedArticle, error)
}

// FilingService manages the filing lifecycle: it tracks pending filings,
// detects due ones, enriches them with retrieved content and archives them
// into the history ledger.
type FilingService interface {
	SaveOrUpdateFiling(ctx context.Context, req *dto.SaveFilingRequest) (string, error)
	ProcessDueFilings(ctx context.Context, asOf time.Time) (int, error)
	GetNextFiling(ctx context.Context) (*entity.Filing, error)
	RemoveFiling(ctx context.Context, ticker string) error
	FindLatestFiling(ctx context.Context, companyName string) (*scraper.RetrievedArticle, error)
	GetHistory(ctx context.Context, ticker string, limit int) ([]entity.FilingHistory, error)
}

// NewFilingService creates a new filing lifecycle service.
func NewFilingService(
	filingRepo repository.FilingRepository,
	historyRepo repository.FilingHistoryRepository,
	retriever ContentRetriever,
	locker ArchiveLocker,
	notifier telegram.Notifier,
	log *logger.Logger,
) FilingService {
	return &filingService{
		filingRepo:  filingRepo,
		historyRepo: historyRepo,
		retriever:   retriever,
		locker:      locker,
		notifier:    notifier,
		logger:      log,
	}
}

type filingService struct {
	filingRepo  repository.FilingRepository
	historyRepo repository.FilingHistoryRepository
	retriever   ContentRetriever
	locker      ArchiveLocker
	notifier    telegram.Notifier
	logger      *logger.Logger
}

// SaveOrUpdateFiling upserts the active filing for a ticker and reports
// whether the row was inserted or updated.
func (s *filingService) SaveOrUpdateFiling(ctx context.Context, req *dto.SaveFilingRequest) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return "", ErrMissingTicker
	}

	source := req.Source
	if source == "" {
		source = sourceManual
	}

	filing := &entity.Filing{
		Ticker:           ticker,
		CompanyName:      req.CompanyName,
		NextEarningsDate: req.NextEarningsDate,
		PendingFiling:    true,
		LastChecked:      time.Now().UTC(),
		FilingSource:     source,
	}

	result, err := s.filingRepo.Upsert(ctx, filing)
	if err != nil {
		s.logger.Error("Failed to save filing", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return "", fmt.Errorf("failed to save filing: %w", err)
	}

	s.logger.Info("Filing saved",
		logger.StringField("ticker", ticker),
		logger.StringField("result", string(result)),
	)
	return string(result), nil
}

// ProcessDueFilings archives every filing whose expected date is at or
// before asOf and returns the number of records transitioned. Retrieval
// failures degrade to history entries without content; store failures are
// collected and returned after the whole batch has been attempted.
func (s *filingService) ProcessDueFilings(ctx context.Context, asOf time.Time) (int, error) {
	dueFilings, err := s.filingRepo.FindDue(ctx, asOf)
	if err != nil {
		s.logger.Error("Failed to query due filings", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to query due filings: %w", err)
	}

	var (
		processed int
		archived  []string
		scanErrs  []error
	)

	for i := range dueFilings {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}

		filing := dueFilings[i]
		ok, err := s.archiveDueFiling(ctx, &filing)
		if err != nil {
			scanErrs = append(scanErrs, fmt.Errorf("ticker %s: %w", filing.Ticker, err))
			continue
		}
		if ok {
			processed++
			archived = append(archived, filing.Ticker)
		}
	}

	s.logger.Info("Due filing scan completed",
		logger.IntField("due", len(dueFilings)),
		logger.IntField("processed", processed),
		logger.IntField("failed", len(scanErrs)),
	)

	if processed > 0 {
		s.notifyArchived(archived)
	}

	return processed, errors.Join(scanErrs...)
}

// archiveDueFiling performs one PENDING -> ARCHIVED transition. It reports
// false with a nil error when the record was skipped: either another scan
// holds the ticker lock or the compare-and-delete found the row already
// gone.
func (s *filingService) archiveDueFiling(ctx context.Context, filing *entity.Filing) (bool, error) {
	locked, err := s.locker.TryLock(ctx, filing.Ticker, common.ArchiveLockTTL)
	if err != nil {
		s.logger.Warn("Archive lock unavailable, skipping record this pass",
			logger.ErrorField(err),
			logger.StringField("ticker", filing.Ticker),
		)
		return false, nil
	}
	if !locked {
		s.logger.Info("Ticker locked by another scan, skipping", logger.StringField("ticker", filing.Ticker))
		return false, nil
	}
	defer func() {
		if err := s.locker.Unlock(ctx, filing.Ticker); err != nil {
			s.logger.Warn("Failed to release archive lock", logger.ErrorField(err), logger.StringField("ticker", filing.Ticker))
		}
	}()

	article, err := s.retriever.FindLatestFiling(ctx, filing.CompanyName)
	if err != nil {
		// Retrieval problems never block archival.
		s.logger.Warn("Content retrieval failed, archiving without content",
			logger.ErrorField(err),
			logger.StringField("ticker", filing.Ticker),
		)
		article = nil
	}

	history := s.composeHistoryEntry(filing, article)

	won, err := s.historyRepo.ArchiveFiling(ctx, filing, history)
	if err != nil {
		s.logger.Error("Failed to archive filing", logger.ErrorField(err), logger.StringField("ticker", filing.Ticker))
		return false, err
	}
	if !won {
		s.logger.Info("Filing already archived by a concurrent scan", logger.StringField("ticker", filing.Ticker))
		return false, nil
	}

	s.logger.Info("Filing archived",
		logger.StringField("ticker", filing.Ticker),
		logger.Field("expected_date", filing.NextEarningsDate),
		logger.Field("content_found", article != nil),
	)
	return true, nil
}

// composeHistoryEntry merges the filing with whatever the retriever found.
// Content columns stay nil when nothing was found.
func (s *filingService) composeHistoryEntry(filing *entity.Filing, article *scraper.RetrievedArticle) *entity.FilingHistory {
	fetchedFrom := filing.FilingSource
	if fetchedFrom == "" {
		fetchedFrom = fetchedUnknown
	}

	history := &entity.FilingHistory{
		Ticker:       filing.Ticker,
		CompanyName:  filing.CompanyName,
		EventType:    historyEventType,
		ExpectedDate: filing.NextEarningsDate,
		FetchedFrom:  fetchedFrom,
		Notes:        archiveNote,
	}

	if article != nil {
		history.FetchedFrom = article.FetchedFrom
		history.FilingURL = &article.URL
		history.FilingTitle = &article.Title
		history.FilingSummary = &article.Summary
		history.FilingText = &article.FullText
		if raw, err := json.Marshal(article); err == nil {
			history.Article = datatypes.JSON(raw)
		}
	}

	return history
}

func (s *filingService) notifyArchived(tickers []string) {
	msg := fmt.Sprintf("Archived %d filing(s): %s", len(tickers), strings.Join(tickers, ", "))
	if err := s.notifier.SendMessage(msg); err != nil {
		s.logger.Warn("Failed to send archive notification", logger.ErrorField(err))
	}
}

// GetNextFiling returns the upcoming filing with the earliest expected
// date, or nil when nothing is tracked.
func (s *filingService) GetNextFiling(ctx context.Context) (*entity.Filing, error) {
	filing, err := s.filingRepo.NextUpcoming(ctx)
	if err != nil {
		s.logger.Error("Failed to query next filing", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to query next filing: %w", err)
	}
	return filing, nil
}

// RemoveFiling deletes the active filing for a ticker. Removing an absent
// ticker succeeds.
func (s *filingService) RemoveFiling(ctx context.Context, ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return ErrMissingTicker
	}
	if err := s.filingRepo.Delete(ctx, ticker); err != nil {
		s.logger.Error("Failed to remove filing", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return fmt.Errorf("failed to remove filing: %w", err)
	}
	return nil
}

// FindLatestFiling exposes the content retriever for ad-hoc lookups.
func (s *filingService) FindLatestFiling(ctx context.Context, companyName string) (*scraper.RetrievedArticle, error) {
	return s.retriever.FindLatestFiling(ctx, companyName)
}

// GetHistory returns archived filing events, optionally filtered by ticker.
func (s *filingService) GetHistory(ctx context.Context, ticker string, limit int) ([]entity.FilingHistory, error) {
	if ticker != "" {
		return s.historyRepo.FindByTicker(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
	}
	return s.historyRepo.FindRecent(ctx, limit)
}
